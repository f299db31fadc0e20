package models

// Family selects the layout conventions used to resolve a package's assets.
type Family string

const (
	FamilyLibrary  Family = "library"
	FamilyIconFont Family = "iconfont"
	FamilyLinter   Family = "linter"
	FamilyThemes   Family = "themes"
)

func (f Family) Valid() bool {
	switch f {
	case FamilyLibrary, FamilyIconFont, FamilyLinter, FamilyThemes:
		return true
	}
	return false
}

/**
 * Tracked package configuration
 * @property {string} key - Key in the persisted artifact
 * @property {string} name - Registry package name
 * @property {Family} family - Layout family
 * @property {string} versions - Optional semver constraint restricting versions
 * @property {string} link - Homepage template (themes only)
 * @property {string} image - Thumbnail template (themes only)
 */
type TrackedPackage struct {
	Key      string `mapstructure:"key" json:"key"`
	Name     string `mapstructure:"name" json:"name"`
	Family   Family `mapstructure:"family" json:"family"`
	Versions string `mapstructure:"versions" json:"versions,omitempty"`
	Link     string `mapstructure:"link" json:"link,omitempty"`
	Image    string `mapstructure:"image" json:"image,omitempty"`
}
