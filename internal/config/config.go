package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const configDir = ".cosmiq"
const configFile = "config.yaml"

// DefaultServer is the backend address used when nothing else is configured.
const DefaultServer = "http://localhost:5055"

type Config struct {
	Server            string        `mapstructure:"server"`
	Token             string        `mapstructure:"token"`
	NotebookID        string        `mapstructure:"notebook_id"`
	StrategyModel     string        `mapstructure:"strategy_model"`
	AnswerModel       string        `mapstructure:"answer_model"`
	FinalAnswerModel  string        `mapstructure:"final_answer_model"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	LookupConcurrency int           `mapstructure:"lookup_concurrency"`
	LookupRate        float64       `mapstructure:"lookup_rate"`
	LogFile           string        `mapstructure:"log_file"`
	LogLevel          string        `mapstructure:"log_level"`
	Profile           string        `mapstructure:"-"`

	v *viper.Viper
}

// Keys lists every settable key in file order.
var Keys = []string{
	"server",
	"token",
	"notebook_id",
	"strategy_model",
	"answer_model",
	"final_answer_model",
	"request_timeout",
	"lookup_concurrency",
	"lookup_rate",
	"log_file",
	"log_level",
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

func configPath(profile string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.yaml", profile)
	}
	return filepath.Join(dir, filename), nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server", DefaultServer)
	v.SetDefault("token", "")
	v.SetDefault("notebook_id", "")
	v.SetDefault("strategy_model", "")
	v.SetDefault("answer_model", "")
	v.SetDefault("final_answer_model", "")
	v.SetDefault("request_timeout", "60s")
	v.SetDefault("lookup_concurrency", 4)
	v.SetDefault("lookup_rate", 0.0)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("COSMIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Names shared with the web client's deployment.
	_ = v.BindEnv("server", "COSMIQ_API_URL", "COSMIQ_SERVER")
	_ = v.BindEnv("token", "COSMIQ_API_PASSWORD", "COSMIQ_TOKEN")
	return v
}

// Load reads the profile's config file, layering environment overrides and
// defaults on top. A missing file is not an error.
func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}
	return loadFile(path, profile)
}

func loadFile(path, profile string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	cfg.Profile = profile
	cfg.v = v
	return &cfg, nil
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	if c.v == nil {
		p, _ := configPath(c.Profile)
		return p
	}
	return c.v.ConfigFileUsed()
}

func (c *Config) settings() map[string]any {
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return map[string]any{
		"server":             c.Server,
		"token":              c.Token,
		"notebook_id":        c.NotebookID,
		"strategy_model":     c.StrategyModel,
		"answer_model":       c.AnswerModel,
		"final_answer_model": c.FinalAnswerModel,
		"request_timeout":    timeout.String(),
		"lookup_concurrency": c.LookupConcurrency,
		"lookup_rate":        c.LookupRate,
		"log_file":           c.LogFile,
		"log_level":          c.LogLevel,
	}
}

func (c *Config) Save() error {
	path := c.Path()
	if path == "" {
		return fmt.Errorf("config path unknown")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out := viper.New()
	out.SetConfigType("yaml")
	for k, val := range c.settings() {
		out.Set(k, val)
	}
	if err := out.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("securing config: %w", err)
	}
	return nil
}

// Set assigns a single key from its string form, as typed on the command line.
func (c *Config) Set(key, value string) error {
	switch key {
	case "server":
		c.Server = strings.TrimRight(value, "/")
	case "token":
		c.Token = value
	case "notebook_id", "notebook":
		c.NotebookID = value
	case "strategy_model":
		c.StrategyModel = value
	case "answer_model":
		c.AnswerModel = value
	case "final_answer_model":
		c.FinalAnswerModel = value
	case "model":
		c.StrategyModel = value
		c.AnswerModel = value
		c.FinalAnswerModel = value
	case "request_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		c.RequestTimeout = d
	case "lookup_concurrency":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n < 1 {
			return fmt.Errorf("lookup_concurrency must be a positive integer")
		}
		c.LookupConcurrency = n
	case "lookup_rate":
		var r float64
		if _, err := fmt.Sscanf(value, "%g", &r); err != nil || r < 0 {
			return fmt.Errorf("lookup_rate must be a non-negative number")
		}
		c.LookupRate = r
	case "log_file":
		c.LogFile = value
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Watch calls onChange with a freshly loaded config each time the backing
// file is written. It is a no-op for configs without a file on disk.
func (c *Config) Watch(onChange func(*Config)) {
	if c.v == nil {
		return
	}
	if _, err := os.Stat(c.Path()); err != nil {
		return
	}
	profile := c.Profile
	path := c.Path()
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := loadFile(path, profile)
		if err != nil {
			return
		}
		onChange(next)
	})
	c.v.WatchConfig()
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server not set. Run: cosmiq%s config set server <url>", c.profileFlag())
	}
	return nil
}

func (c *Config) ValidateNotebook() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.NotebookID == "" {
		return fmt.Errorf("notebook not set. Run: cosmiq%s config set notebook <id>", c.profileFlag())
	}
	return nil
}

// Models returns the configured strategy, answer and final answer models.
// Unset roles fall back to the answer model.
func (c *Config) Models() (strategy, answer, final string) {
	answer = c.AnswerModel
	strategy = c.StrategyModel
	if strategy == "" {
		strategy = answer
	}
	final = c.FinalAnswerModel
	if final == "" {
		final = answer
	}
	return strategy, answer, final
}

func ListProfiles() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".yaml") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".yaml"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
