package registry

import (
	"cdnsync/cmd/root"
	"cdnsync/internal/config"
	"cdnsync/internal/registry"

	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Query package metadata from the registry",
	Long:  `Query package metadata from the registry, as the generate command sees it`,
}

const registryExample = `  cdnsync registry versions bootstrap
  cdnsync registry tree bootstrap@5.0.1
  cdnsync registry tree @fortawesome/fontawesome-free@5.15.4 --depth 1`

// newClient builds a registry client from the loaded configuration.
func newClient() registry.Client {
	cfg := config.App()
	return registry.NewHTTPClient(registry.HTTPConfig{
		ApiUrl:  cfg.Registry.ApiUrl,
		Timeout: cfg.Registry.Timeout,
	})
}

func init() {
	root.RootCmd.AddCommand(registryCmd)

	registryCmd.Example = registryExample
}
