package models

// Placeholders substituted by the presentation layer.
const (
	SwatchName    = "SWATCH_NAME"
	SwatchVersion = "SWATCH_VERSION"
)

type Theme struct {
	Name string `yaml:"name" json:"name"`
}

/**
 * Resolved output for one package version
 * @description
 * - Version and Current are always present
 * - Every other field is omitted when it does not apply to the version;
 *   an empty string or nil slice means "not offered", never "unknown"
 */
type AssetPathSet struct {
	Version          string  `yaml:"version" json:"version"`
	Current          bool    `yaml:"current" json:"current"`
	Stylesheet       string  `yaml:"stylesheet,omitempty" json:"stylesheet,omitempty"`
	Javascript       string  `yaml:"javascript,omitempty" json:"javascript,omitempty"`
	JavascriptBundle string  `yaml:"javascriptBundle,omitempty" json:"javascriptBundle,omitempty"`
	JavascriptEsm    string  `yaml:"javascriptEsm,omitempty" json:"javascriptEsm,omitempty"`
	Link             string  `yaml:"link,omitempty" json:"link,omitempty"`
	Image            string  `yaml:"image,omitempty" json:"image,omitempty"`
	Bootstrap        string  `yaml:"bootstrap,omitempty" json:"bootstrap,omitempty"`
	Themes           []Theme `yaml:"themes,omitempty" json:"themes,omitempty"`
}

// AssetCount reports how many optional asset fields are set.
func (a *AssetPathSet) AssetCount() int {
	n := 0
	for _, s := range []string{a.Stylesheet, a.Javascript, a.JavascriptBundle, a.JavascriptEsm, a.Bootstrap} {
		if s != "" {
			n++
		}
	}
	return n + len(a.Themes)
}

// TrackedPackagesIndex maps a tracked package key to its resolved versions, registry order.
type TrackedPackagesIndex map[string][]AssetPathSet

// Current returns the entry flagged current for key, or nil.
func (idx TrackedPackagesIndex) Current(key string) *AssetPathSet {
	for i := range idx[key] {
		if idx[key][i].Current {
			return &idx[key][i]
		}
	}
	return nil
}
