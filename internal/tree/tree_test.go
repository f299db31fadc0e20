package tree

import (
	"testing"

	"cdnsync/internal/models"
)

func dir(name string, children ...*models.FileTreeNode) *models.FileTreeNode {
	return &models.FileTreeNode{Name: name, Type: models.NodeTypeDirectory, Children: children}
}

func file(name string) *models.FileTreeNode {
	return &models.FileTreeNode{Name: name, Type: models.NodeTypeFile}
}

func TestFind(t *testing.T) {
	root := dir("", dir("dist", dir("css", file("bootstrap.min.css"))), file("README.md"))

	tests := []struct {
		name  string
		node  *models.FileTreeNode
		child string
		want  bool
	}{
		{"existing directory", root, "dist", true},
		{"existing file", root, "README.md", true},
		{"missing child", root, "js", false},
		{"nil node", nil, "dist", false},
		{"file has no children", file("x"), "y", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tt.node, tt.child)
			if (got != nil) != tt.want {
				t.Fatalf("Find(%q) = %v, want found=%v", tt.child, got, tt.want)
			}
			if got != nil && got.Name != tt.child {
				t.Errorf("Find(%q) returned %q", tt.child, got.Name)
			}
		})
	}
}

func TestFindFirstMatch(t *testing.T) {
	first := file("dist")
	root := dir("", first, dir("dist"))
	if got := Find(root, "dist"); got != first {
		t.Errorf("expected the first sibling named dist, got %+v", got)
	}
}

func TestFindPath(t *testing.T) {
	root := dir("", dir("dist", dir("browser", file("bootlint.min.js"))))

	if got := FindPath(root, "dist", "browser", "bootlint.min.js"); got == nil {
		t.Fatal("expected full path to resolve")
	}
	if got := FindPath(root, "dist", "node", "bootlint.min.js"); got != nil {
		t.Errorf("expected nil for missing middle segment, got %+v", got)
	}
	if got := FindPath(root); got != root {
		t.Error("empty path should return the node itself")
	}
}

func TestDirsAndCount(t *testing.T) {
	root := dir("", dir("a"), file("b"), dir("c", file("d")))
	dirs := Dirs(root)
	if len(dirs) != 2 || dirs[0].Name != "a" || dirs[1].Name != "c" {
		t.Errorf("Dirs = %v", dirs)
	}
	if n := Count(root); n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
}
