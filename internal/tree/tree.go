// Package tree locates entries in registry file trees.
package tree

import (
	"cdnsync/internal/models"
)

// Find returns the first child of node named name, or nil.
func Find(node *models.FileTreeNode, name string) *models.FileTreeNode {
	if node == nil {
		return nil
	}
	for _, child := range node.Children {
		if child != nil && child.Name == name {
			return child
		}
	}
	return nil
}

// FindPath walks names one level at a time. Nil when any segment is missing.
func FindPath(node *models.FileTreeNode, names ...string) *models.FileTreeNode {
	cur := node
	for _, name := range names {
		cur = Find(cur, name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Dirs returns the directory children of node in tree order.
func Dirs(node *models.FileTreeNode) []*models.FileTreeNode {
	if node == nil {
		return nil
	}
	var dirs []*models.FileTreeNode
	for _, child := range node.Children {
		if child.IsDir() {
			dirs = append(dirs, child)
		}
	}
	return dirs
}

// Count counts all nodes below and including root.
func Count(root *models.FileTreeNode) int {
	if root == nil {
		return 0
	}
	count := 1
	for _, child := range root.Children {
		count += Count(child)
	}
	return count
}
