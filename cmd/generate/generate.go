package generate

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cdnsync/cmd/root"
	"cdnsync/internal/artifact"
	"cdnsync/internal/config"
	"cdnsync/internal/logger"
	"cdnsync/internal/registry"
	"cdnsync/services"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	Output  string
	Stagger time.Duration
	Push    string
	Only    []string
}

var optGenerate generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Resolve tracked packages and write the CDN index",
	Long: `Fetch the version list and file tree of every tracked package from the registry,
resolve the CDN asset paths of each release and write them to the YAML index.
The previous index is kept next to it with a .bak suffix.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runGenerate(ctx, config.App(), cmd)
	},
}

/**
 * Run one full generation
 * @param {context.Context} ctx - Cancelled on interrupt; stops further version dispatch
 * @param {*config.AppConfig} cfg - Loaded configuration, overridden by explicit flags
 * @returns {error} Config, write or publish error; ctx error when interrupted (nothing is written);
 *   *services.RunError after persisting a partial index
 * @description
 * - Resolves all selected packages concurrently
 * - Persists whatever resolved, even when some packages failed entirely
 * - Uploads the index to S3 when publish.bucket is configured
 * - Pushes run metrics when a pushgateway is configured
 */
func runGenerate(ctx context.Context, cfg *config.AppConfig, cmd *cobra.Command) error {
	output := cfg.Artifact.Path
	if cmd.Flags().Changed("output") {
		output = optGenerate.Output
	}
	stagger := cfg.Registry.Stagger
	if cmd.Flags().Changed("stagger") {
		stagger = optGenerate.Stagger
	}
	pushAddr := cfg.Metrics.Pushgateway
	if cmd.Flags().Changed("push") {
		pushAddr = optGenerate.Push
	}

	tracked, err := cfg.Select(optGenerate.Only)
	if err != nil {
		return err
	}

	metrics := services.NewMetrics()
	client := registry.NewHTTPClient(registry.HTTPConfig{
		ApiUrl:   cfg.Registry.ApiUrl,
		Timeout:  cfg.Registry.Timeout,
		Observer: metrics,
	})
	resolver := services.NewPackageResolver(client,
		services.WithStagger(stagger),
		services.WithMetrics(metrics),
		services.WithCdnUrl(cfg.Registry.CdnUrl),
	)

	index, runErr := resolver.ResolveAll(ctx, tracked)
	// undispatched versions are missing from an interrupted index
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted, %s left unchanged: %w", output, err)
	}

	writer := artifact.NewWriter(output)
	logger.Infof("Writing to %s...", writer.Path())
	if err := writer.Persist(index); err != nil {
		return err
	}
	fmt.Printf("Generated file: %s\n", writer.Path())

	if cfg.Publish.Bucket != "" {
		publisher, err := artifact.NewS3Publisher(ctx, cfg.Publish.Bucket, cfg.Publish.Key, cfg.Publish.Region)
		if err != nil {
			return err
		}
		key, err := publisher.Publish(ctx, writer.Path())
		if err != nil {
			return err
		}
		logger.Infof("Published s3://%s/%s", cfg.Publish.Bucket, key)
	}

	if err := metrics.Push(ctx, pushAddr); err != nil {
		logger.Warnf("Push metrics to '%s' failed: %v", pushAddr, err)
	}
	return runErr
}

const generateExample = `  # regenerate config/_files.yml
  cdnsync generate
  # only refresh bootstrap, without waiting between versions
  cdnsync generate --only bootstrap --stagger 0
  cdnsync generate -o /tmp/_files.yml --push http://pushgateway:9091`

func init() {
	root.RootCmd.AddCommand(generateCmd)
	generateCmd.Flags().SortFlags = false
	generateCmd.Example = generateExample

	generateCmd.Flags().StringVarP(&optGenerate.Output, "output", "o", "", "Output path of the index (default from artifact.path)")
	generateCmd.Flags().DurationVar(&optGenerate.Stagger, "stagger", time.Second, "Delay between successive version fetches of one package")
	generateCmd.Flags().StringVar(&optGenerate.Push, "push", "", "Pushgateway address for run metrics")
	generateCmd.Flags().StringSliceVar(&optGenerate.Only, "only", nil, "Resolve only these tracked package keys")
}
