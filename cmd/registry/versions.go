package registry

import (
	"context"
	"fmt"
	"io"
	"os"

	"cdnsync/internal/registry"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <package name>",
	Short: "List published versions of a package",
	Long:  "List the versions of a package in registry order, marking the one tagged latest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersions(context.Background(), os.Stdout, newClient(), args[0])
	},
}

func printVersions(ctx context.Context, w io.Writer, client registry.Client, name string) error {
	versions, err := client.FetchVersions(ctx, name)
	if err != nil {
		return err
	}
	latest, _ := client.LatestTag(ctx, name)
	for _, v := range versions {
		if v == latest {
			fmt.Fprintf(w, "%s (latest)\n", v)
		} else {
			fmt.Fprintln(w, v)
		}
	}
	return nil
}

func init() {
	registryCmd.AddCommand(versionsCmd)
}
