package root

import (
	"cdnsync/internal/config"
	"cdnsync/internal/logger"

	"github.com/spf13/cobra"
)

var configFile string

var RootCmd = &cobra.Command{
	Use:   "cdnsync",
	Short: "CDN asset index generator",
	Long:  `cdnsync queries the package registry for tracked front-end packages and writes the CDN paths of every usable release into a YAML index`,
	// 所有子命令执行前加载配置并初始化日志
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return logger.InitLogger(&cfg.Log)
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default searches cdnsync.yaml in . and ./config)")
}
