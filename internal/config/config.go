package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vango-go/pageload/internal/errors"
)

const (
	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultExportDir is the default export output directory.
	DefaultExportDir = "dist/_payload"
)

// FileNames are the configuration file names looked up by Load, in order.
var FileNames = []string{"pageload.json", "pageload.yaml", "pageload.yml"}

// Config represents the complete pageload configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Routes configures route discovery.
	Routes RoutesConfig `json:"routes" yaml:"routes"`

	// Server configures the HTTP server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Cache configures the client payload cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Prefetch configures link prefetching.
	Prefetch PrefetchConfig `json:"prefetch" yaml:"prefetch"`

	// Export configures payload export.
	Export ExportConfig `json:"export" yaml:"export"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RoutesConfig configures how raw route identifiers are normalized.
type RoutesConfig struct {
	// Dir is the routes directory scanned by "routes --dir".
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Prefix is stripped from raw identifiers (default: "app/routes").
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Extension is stripped from raw identifiers (default: ".go").
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty" validate:"omitempty,startswith=."`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty" validate:"min=0,max=65535"`

	// ShutdownTimeout is the graceful shutdown limit (e.g., "30s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty" validate:"omitempty,duration"`

	// Metrics enables the Prometheus endpoint.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// MetricsPath is where metrics are served (default: "/metrics").
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty" validate:"omitempty,startswith=/"`

	// Live enables the invalidation WebSocket endpoint.
	Live bool `json:"live,omitempty" yaml:"live,omitempty"`
}

// CacheConfig contains payload cache settings.
type CacheConfig struct {
	// MaxEntries bounds the number of cached keys.
	MaxEntries int `json:"maxEntries,omitempty" yaml:"maxEntries,omitempty" validate:"min=1"`

	// RevalidateOnFocus revalidates the shown key when the session
	// regains focus.
	RevalidateOnFocus bool `json:"revalidateOnFocus" yaml:"revalidateOnFocus"`

	// RevalidateOnReconnect revalidates the shown key when the network
	// comes back.
	RevalidateOnReconnect bool `json:"revalidateOnReconnect" yaml:"revalidateOnReconnect"`
}

// PrefetchConfig contains link prefetch settings.
type PrefetchConfig struct {
	// Rate is the number of visibility prefetches allowed per second.
	Rate float64 `json:"rate,omitempty" yaml:"rate,omitempty" validate:"gte=0"`

	// Burst is the number of visibility prefetches allowed at once.
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty" validate:"min=1"`
}

// ExportConfig contains payload export settings.
type ExportConfig struct {
	// Dir is the output directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Bucket, when set, exports to this S3 bucket instead of Dir.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is prepended to S3 object keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Concurrency is the number of loaders run at once.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"min=1,max=64"`

	// Paths are exported in addition to every static route.
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty" validate:"dive,startswith=/"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Routes: RoutesConfig{
			Dir:       "app/routes",
			Prefix:    "app/routes",
			Extension: ".go",
		},
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: "30s",
			MetricsPath:     "/metrics",
		},
		Cache: CacheConfig{
			MaxEntries:            256,
			RevalidateOnFocus:     true,
			RevalidateOnReconnect: true,
		},
		Prefetch: PrefetchConfig{
			Rate:  10,
			Burst: 5,
		},
		Export: ExportConfig{
			Dir:         DefaultExportDir,
			Concurrency: 4,
		},
	}
}

// Load reads configuration from the first of FileNames found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E120").
		WithDetail("No pageload.json or pageload.yaml found in " + dir).
		WithSuggestion("Create pageload.json, or run without a config to use the defaults")
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	defaults := New()
	if c.Routes.Prefix == "" {
		c.Routes.Prefix = defaults.Routes.Prefix
	}
	if c.Routes.Extension == "" {
		c.Routes.Extension = defaults.Routes.Extension
	}
	if c.Routes.Dir == "" {
		c.Routes.Dir = c.Routes.Prefix
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = defaults.Server.MetricsPath
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = defaults.Cache.MaxEntries
	}
	if c.Prefetch.Burst == 0 {
		c.Prefetch.Burst = defaults.Prefetch.Burst
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaults.Export.Dir
	}
	if c.Export.Concurrency == 0 {
		c.Export.Concurrency = defaults.Export.Concurrency
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New("E120").Wrap(err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return errors.New("E120").
		WithDetail(strings.Join(problems, "; ")).
		Wrap(err)
}

// describe renders a validation failure with its config path.
func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	case "duration":
		return fmt.Sprintf("%s must be a duration such as \"30s\"", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ShutdownTimeout returns the parsed shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RoutesPath returns the absolute path to the routes directory.
func (c *Config) RoutesPath() string {
	return c.resolve(c.Routes.Dir)
}

// ExportPath returns the absolute path to the export directory.
func (c *Config) ExportPath() string {
	return c.resolve(c.Export.Dir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E120").
				WithDetail("No pageload config found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
