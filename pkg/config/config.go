// Package config loads pricewatch settings from a YAML file, PRICEWATCH_*
// environment variables and built-in defaults, in that order of precedence
// reversed: environment beats file, file beats defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/geniass/pricewatch/pkg/logging"
	"github.com/geniass/pricewatch/pkg/resolver"
)

const envPrefix = "PRICEWATCH"

// Renderer names accepted by fetcher.renderer.
const (
	RendererColly    = "colly"
	RendererChromedp = "chromedp"
)

// Store drivers accepted by store.driver.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Log      logging.Config `mapstructure:"log"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Store    StoreConfig    `mapstructure:"store"`
}

type CategoryRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// ResolverConfig overrides parts of resolver.DefaultConfig. Empty lists
// and zero numbers keep the defaults, so min_elements cannot be 0.
type ResolverConfig struct {
	Default            CategoryRange            `mapstructure:"default"`
	Categories         map[string]CategoryRange `mapstructure:"categories"`
	AncestorDepth      int                      `mapstructure:"ancestor_depth"`
	ContextChars       int                      `mapstructure:"context_chars"`
	MinElements        int                      `mapstructure:"min_elements"`
	UnavailablePhrases []string                 `mapstructure:"unavailable_phrases"`
	Selectors          map[string][]string      `mapstructure:"selectors"`
}

type FetcherConfig struct {
	Renderer       string        `mapstructure:"renderer"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Parallelism    int           `mapstructure:"parallelism"`
	Delay          time.Duration `mapstructure:"delay"`
	RandomDelay    time.Duration `mapstructure:"random_delay"`
	MaxRetries     int           `mapstructure:"max_retries"`
	CacheDir       string        `mapstructure:"cache_dir"`
	AllowedDomains []string      `mapstructure:"allowed_domains"`
	// ErrorPages are URL substrings of pages a shop redirects to instead of
	// answering, such as captcha walls.
	ErrorPages     []string      `mapstructure:"error_pages"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
}

type TrackerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	// Schedule is the cron expression or descriptor used by watch.
	Schedule string `mapstructure:"schedule"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the data directory or SQLite file; DSN the PostgreSQL
	// connection string.
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

// Source is what the configured driver opens.
func (c StoreConfig) Source() string {
	if c.Driver == DriverPostgres {
		return c.DSN
	}
	return c.Path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)

	v.SetDefault("resolver.default.min", 1)
	v.SetDefault("resolver.default.max", 50000)
	v.SetDefault("resolver.ancestor_depth", 5)
	v.SetDefault("resolver.context_chars", 160)
	v.SetDefault("resolver.min_elements", 3)

	v.SetDefault("fetcher.renderer", RendererColly)
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0")
	v.SetDefault("fetcher.timeout", 45*time.Second)
	v.SetDefault("fetcher.parallelism", 2)
	v.SetDefault("fetcher.delay", time.Second)
	v.SetDefault("fetcher.random_delay", time.Second)
	v.SetDefault("fetcher.max_retries", 5)
	v.SetDefault("fetcher.error_pages", []string{"/errors/validateCaptcha", "globalExceptionPage", "/sorry/"})
	v.SetDefault("fetcher.viewport_width", 1920)
	v.SetDefault("fetcher.viewport_height", 1080)

	v.SetDefault("tracker.concurrency", 4)
	v.SetDefault("tracker.schedule", "@every 6h")

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.path", "./data")
	v.SetDefault("store.dsn", "")
}

// Load reads configuration. An empty path looks for config.yaml in the
// working directory and ./config; a missing file is not an error unless
// the path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Tracker.Concurrency <= 0 {
		return fmt.Errorf("tracker.concurrency must be positive, got %d", c.Tracker.Concurrency)
	}
	switch c.Fetcher.Renderer {
	case RendererColly, RendererChromedp:
	default:
		return fmt.Errorf("unknown fetcher.renderer %q", c.Fetcher.Renderer)
	}
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if _, err := c.Resolver.Build(); err != nil {
		return err
	}
	return nil
}

// Build merges the overrides onto resolver.DefaultConfig.
func (c ResolverConfig) Build() (resolver.Config, error) {
	out := resolver.DefaultConfig()

	if c.Default != (CategoryRange{}) {
		out.Default = resolver.NewRange(c.Default.Min, c.Default.Max)
	}
	for name, r := range c.Categories {
		out.Categories[strings.ToLower(name)] = resolver.NewRange(r.Min, r.Max)
	}
	if c.AncestorDepth != 0 {
		out.AncestorDepth = c.AncestorDepth
	}
	if c.ContextChars != 0 {
		out.ContextChars = c.ContextChars
	}
	if c.MinElements != 0 {
		out.MinElements = c.MinElements
	}
	if len(c.UnavailablePhrases) > 0 {
		out.UnavailablePhrases = c.UnavailablePhrases
	}

	s := &out.Selectors
	targets := map[string]*[]string{
		"price_area":          &s.PriceArea,
		"core_display":        &s.CoreDisplay,
		"purchase_box":        &s.PurchaseBox,
		"offscreen":           &s.Offscreen,
		"whole":               &s.Whole,
		"fraction":            &s.Fraction,
		"struck":              &s.Struck,
		"strikethrough":       &s.Strikethrough,
		"purchase_affordance": &s.PurchaseAffordance,
		"redirect_affordance": &s.RedirectAffordance,
		"purchase_container":  &s.PurchaseContainer,
	}
	for name, list := range c.Selectors {
		dst, ok := targets[name]
		if !ok {
			return resolver.Config{}, fmt.Errorf("unknown selector set %q", name)
		}
		if len(list) > 0 {
			*dst = list
		}
	}

	if err := out.Validate(); err != nil {
		return resolver.Config{}, err
	}
	return out, nil
}
