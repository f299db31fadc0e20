package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cdnsync/internal/models"
	"cdnsync/internal/registry"
	"cdnsync/internal/tree"

	"github.com/spf13/cobra"
)

var treeDepth int

var treeCmd = &cobra.Command{
	Use:   "tree <package name@version>",
	Short: "Show the file tree of a package version",
	Long:  "Show the file tree the registry publishes for one package version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTree(context.Background(), os.Stdout, newClient(), args[0], treeDepth)
	},
}

/**
 * Print a version's file tree
 * @param {string} spec - "name@version"
 * @param {int} depth - Deepest level printed, 0 for unlimited
 */
func printTree(ctx context.Context, w io.Writer, client registry.Client, spec string, depth int) error {
	if strings.LastIndex(spec, "@") <= 0 {
		return fmt.Errorf("'%s' is not of the form name@version", spec)
	}
	doc, err := client.FetchPackage(ctx, spec)
	if err != nil {
		return err
	}
	root := doc.Root()
	for _, child := range root.Children {
		printNode(w, child, 0, depth)
	}
	fmt.Fprintf(w, "%d entries\n", tree.Count(root)-1)
	return nil
}

func printNode(w io.Writer, node *models.FileTreeNode, level, depth int) {
	name := node.Name
	if node.IsDir() {
		name += "/"
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), name)
	if depth > 0 && level+1 >= depth {
		return
	}
	for _, child := range node.Children {
		printNode(w, child, level+1, depth)
	}
}

func init() {
	registryCmd.AddCommand(treeCmd)

	treeCmd.Flags().IntVarP(&treeDepth, "depth", "d", 0, "Deepest level to print, 0 for unlimited")
}
