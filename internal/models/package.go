package models

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
)

/**
 * One entry in a registry's published-file listing
 * @property {string} name - File or directory name
 * @property {string} type - "file" or "directory"
 * @property {[]*FileTreeNode} files - Children, empty for files
 */
type FileTreeNode struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Children []*FileTreeNode `json:"files,omitempty"`
}

func (n *FileTreeNode) IsDir() bool {
	return n != nil && n.Type == NodeTypeDirectory
}

// PackageTags holds the registry's distribution tags.
type PackageTags struct {
	Latest string `json:"latest"`
}

/**
 * Registry response for `{package}` or `{package}@{version}`
 * @property {PackageTags} tags - Publication tags, including "latest"
 * @property {[]string} versions - Published versions, registry order
 * @property {[]*FileTreeNode} files - Top level of the file tree (versioned queries only)
 */
type PackageDocument struct {
	Tags     PackageTags     `json:"tags"`
	Versions []string        `json:"versions,omitempty"`
	Files    []*FileTreeNode `json:"files,omitempty"`
}

// Root wraps the top-level file list in a directory node so it can be walked like any other.
func (d *PackageDocument) Root() *FileTreeNode {
	return &FileTreeNode{Type: NodeTypeDirectory, Children: d.Files}
}

/**
 * One published version of one tracked package
 * @property {string} PackageName - Registry package name
 * @property {string} Version - Semantic version string
 * @property {bool} IsCurrent - True iff Version equals the registry's latest tag
 * @property {*FileTreeNode} FileTree - Root of the version's file tree
 */
type PackageVersionMeta struct {
	PackageName string
	Version     string
	IsCurrent   bool
	FileTree    *FileTreeNode
}
