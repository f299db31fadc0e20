package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cdnsync/internal/models"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"
)

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" for stderr
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Registry configuration
 * @property {string} api_url - Metadata API base, queried as {api_url}/{package}[@{version}]
 * @property {string} cdn_url - CDN base prefixed to every resolved asset path
 * @property {duration} timeout - Overall timeout for one registry request
 * @property {duration} stagger - Delay between successive version fetches of one package
 */
type RegistryConfig struct {
	ApiUrl  string        `mapstructure:"api_url"`
	CdnUrl  string        `mapstructure:"cdn_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Stagger time.Duration `mapstructure:"stagger"`
}

/**
 * Artifact configuration
 * @property {string} path - Location of the persisted YAML document
 */
type ArtifactConfig struct {
	Path string `mapstructure:"path"`
}

/**
 * Metrics configuration
 * @property {string} pushgateway - Pushgateway address, empty disables pushing
 */
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway"`
}

/**
 * S3 publishing of the artifact, disabled when bucket is empty
 */
type PublishConfig struct {
	Bucket string `mapstructure:"bucket"`
	Key    string `mapstructure:"key"`
	Region string `mapstructure:"region"`
}

type AppConfig struct {
	Log      LogConfig               `mapstructure:"log"`
	Registry RegistryConfig          `mapstructure:"registry"`
	Artifact ArtifactConfig          `mapstructure:"artifact"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
	Publish  PublishConfig           `mapstructure:"publish"`
	Packages []models.TrackedPackage `mapstructure:"packages"`
}

var ErrUnknownFamily = errors.New("unknown layout family")

const (
	DefaultApiUrl = "https://data.jsdelivr.com/v1/package/npm"
	DefaultCdnUrl = "https://cdn.jsdelivr.net/npm/"
)

func DefaultPackages() []models.TrackedPackage {
	return []models.TrackedPackage{
		{Key: "bootstrap", Name: "bootstrap", Family: models.FamilyLibrary},
		{Key: "@fortawesome/fontawesome-free", Name: "@fortawesome/fontawesome-free", Family: models.FamilyIconFont},
		{Key: "bootlint", Name: "bootlint", Family: models.FamilyLinter},
		{
			Key:      "bootswatch4",
			Name:     "bootswatch",
			Family:   models.FamilyThemes,
			Versions: "4.5.2",
			Link:     "https://bootswatch.com/SWATCH_NAME/",
			Image:    "https://bootswatch.com/SWATCH_NAME/thumbnail.png",
		},
		{
			Key:      "bootswatch3",
			Name:     "bootswatch",
			Family:   models.FamilyThemes,
			Versions: "3.4.1",
			Link:     "https://bootswatch.com/3/SWATCH_NAME/",
			Image:    "https://bootswatch.com/3/SWATCH_NAME/thumbnail.png",
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "console")
	v.SetDefault("registry.api_url", DefaultApiUrl)
	v.SetDefault("registry.cdn_url", DefaultCdnUrl)
	v.SetDefault("registry.timeout", 60*time.Second)
	v.SetDefault("registry.stagger", time.Second)
	v.SetDefault("artifact.path", "config/_files.yml")
	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.key", "")
	v.SetDefault("publish.region", "")
}

/**
 * Load application configuration
 * @param {string} file - Explicit config file; empty searches cdnsync.yaml in . and ./config
 * @returns {*AppConfig} Loaded configuration with defaults applied
 * @description
 * - Environment variables prefixed CDNSYNC_ override file values (log.level -> CDNSYNC_LOG_LEVEL)
 * - A missing cdnsync.yaml is not an error when no explicit file is given
 * @throws
 * - Read or parse errors of the config file
 * - Validation errors (see Validate)
 */
func Load(file string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("cdnsync")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("CDNSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	collectConfig(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lock.Lock()
	app = &cfg
	lock.Unlock()
	return &cfg, nil
}

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Registry.ApiUrl == "" {
		cfg.Registry.ApiUrl = DefaultApiUrl
	}
	if cfg.Registry.CdnUrl == "" {
		cfg.Registry.CdnUrl = DefaultCdnUrl
	}
	if !strings.HasSuffix(cfg.Registry.CdnUrl, "/") {
		cfg.Registry.CdnUrl += "/"
	}
	cfg.Registry.ApiUrl = strings.TrimSuffix(cfg.Registry.ApiUrl, "/")
	if cfg.Registry.Timeout <= 0 {
		cfg.Registry.Timeout = 60 * time.Second
	}
	if cfg.Registry.Stagger < 0 {
		cfg.Registry.Stagger = 0
	}
	if cfg.Artifact.Path == "" {
		cfg.Artifact.Path = "config/_files.yml"
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = DefaultPackages()
	}
	for i := range cfg.Packages {
		if cfg.Packages[i].Name == "" {
			cfg.Packages[i].Name = cfg.Packages[i].Key
		}
	}
	return cfg
}

/**
 * Validate tracked packages before any network I/O
 * @returns {error} First problem found, nil when the configuration is usable
 */
func (cfg *AppConfig) Validate() error {
	seen := make(map[string]bool)
	for i, pkg := range cfg.Packages {
		if pkg.Key == "" {
			return fmt.Errorf("packages[%d]: key is required", i)
		}
		if seen[pkg.Key] {
			return fmt.Errorf("packages[%d]: duplicate key '%s'", i, pkg.Key)
		}
		seen[pkg.Key] = true
		if !pkg.Family.Valid() {
			return fmt.Errorf("packages[%d] '%s': %w: '%s'", i, pkg.Key, ErrUnknownFamily, pkg.Family)
		}
		if pkg.Versions != "" {
			if _, err := semver.NewConstraint(pkg.Versions); err != nil {
				return fmt.Errorf("packages[%d] '%s': invalid versions '%s': %w", i, pkg.Key, pkg.Versions, err)
			}
		}
	}
	return nil
}

// Select keeps only the tracked packages whose key is listed. An empty list keeps all.
func (cfg *AppConfig) Select(keys []string) ([]models.TrackedPackage, error) {
	if len(keys) == 0 {
		return cfg.Packages, nil
	}
	var selected []models.TrackedPackage
	for _, key := range keys {
		found := false
		for _, pkg := range cfg.Packages {
			if pkg.Key == key {
				selected = append(selected, pkg)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("tracked package '%s' not configured", key)
		}
	}
	return selected, nil
}

var (
	app  *AppConfig
	lock sync.RWMutex
)

// App returns the configuration set by the last successful Load, or the defaults.
func App() *AppConfig {
	lock.RLock()
	defer lock.RUnlock()
	if app == nil {
		return collectConfig(&AppConfig{
			Log:      LogConfig{Level: "info", Path: "console"},
			Registry: RegistryConfig{Stagger: time.Second},
		})
	}
	return app
}
