package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override, e.g. PAGECHECK_PATHS_OUTPUT_DIR.
const EnvPrefix = "PAGECHECK"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()

	// Defaults are registered per leaf so a partial file keeps the rest.
	v.SetDefault("paths.root", d.Paths.Root)
	v.SetDefault("paths.output_dir", d.Paths.OutputDir)
	v.SetDefault("paths.debug_dir", d.Paths.DebugDir)
	v.SetDefault("paths.debug_file", d.Paths.DebugFile)
	v.SetDefault("paths.rerun_list", d.Paths.RerunList)
	v.SetDefault("paths.input_dir", d.Paths.InputDir)
	v.SetDefault("paths.render_dir", d.Paths.RenderDir)
	v.SetDefault("audit.min_sources_per_page", d.Audit.MinSourcesPerPage)
	v.SetDefault("audit.max_sources_per_page", d.Audit.MaxSourcesPerPage)
	v.SetDefault("render.zoom", d.Render.Zoom)
	v.SetDefault("render.pdftoppm", d.Render.Pdftoppm)
	v.SetDefault("render.strip_jsonld", d.Render.StripJSONLD)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pagecheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pagecheck")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Paths = cfg.Paths.expand()
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the configuration was read from, if any.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envRefPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

func (p PathsCfg) expand() PathsCfg {
	p.Root = ResolveEnvVars(p.Root)
	p.OutputDir = ResolveEnvVars(p.OutputDir)
	p.DebugDir = ResolveEnvVars(p.DebugDir)
	p.DebugFile = ResolveEnvVars(p.DebugFile)
	p.RerunList = ResolveEnvVars(p.RerunList)
	p.InputDir = ResolveEnvVars(p.InputDir)
	p.RenderDir = ResolveEnvVars(p.RenderDir)
	return p
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# pagecheck configuration
# Relative paths resolve against paths.root (the working directory when empty).
# Values may reference environment variables with ${ENV_VAR} syntax.
# Every key can be overridden with PAGECHECK_<SECTION>_<KEY>, e.g. PAGECHECK_RENDER_ZOOM=4.17

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
