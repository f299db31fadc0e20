package files

import (
	"cdnsync/cmd/root"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect the generated CDN index",
	Long:  `Inspect the generated CDN index`,
}

const filesExample = `  cdnsync files list
  cdnsync files list bootswatch4
  cdnsync files list --path /tmp/_files.yml bootstrap`

var indexPath string

func init() {
	root.RootCmd.AddCommand(filesCmd)

	filesCmd.Example = filesExample
	filesCmd.PersistentFlags().StringVar(&indexPath, "path", "", "Index to read (default from artifact.path)")
}
