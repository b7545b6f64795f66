// Package config reads the process configuration from defaults, an
// optional file, PADMAPPER_* environment variables and flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/padmapper/internal/adapter"
	"github.com/soar/padmapper/internal/controller"
)

const envPrefix = "PADMAPPER"

type Config struct {
	Profile   string          `mapstructure:"profile"`
	Macros    []string        `mapstructure:"macros"`
	Refresh   time.Duration   `mapstructure:"refresh"`
	Keepalive time.Duration   `mapstructure:"keepalive"`
	Log       LogConfig       `mapstructure:"log"`
	Input     InputConfig     `mapstructure:"input"`
	Adapters  []AdapterConfig `mapstructure:"adapters"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Watch     bool            `mapstructure:"watch"`
	Tray      bool            `mapstructure:"tray"`
	// Keygen names a key to press once at start-up; the process exits
	// when the macros it started are done.
	Keygen string `mapstructure:"keygen"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type InputConfig struct {
	Evdev       bool `mapstructure:"evdev"`
	Grab        bool `mapstructure:"grab"`
	SDL         bool `mapstructure:"sdl"`
	MouseDPI    int  `mapstructure:"mouse_dpi"`
	SingleInput bool `mapstructure:"single_input"`
}

// AdapterConfig describes where the reports of one controller go.
type AdapterConfig struct {
	Controller int    `mapstructure:"controller"`
	Type       string `mapstructure:"type"`
	Sink       string `mapstructure:"sink"`
	Port       string `mapstructure:"port"`
	Baud       int    `mapstructure:"baud"`
	Address    string `mapstructure:"address"`
	VendorID   uint16 `mapstructure:"vendor_id"`
	ProductID  uint16 `mapstructure:"product_id"`
}

type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("refresh", 10*time.Millisecond)
	v.SetDefault("keepalive", time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("input.evdev", runtime.GOOS == "linux")
	v.SetDefault("input.grab", false)
	v.SetDefault("input.sdl", true)
	v.SetDefault("input.mouse_dpi", 0)
	v.SetDefault("input.single_input", false)
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.addr", "localhost:8080")
	v.SetDefault("watch", false)
	v.SetDefault("tray", runtime.GOOS == "windows")
	v.SetDefault("profile", "")
	v.SetDefault("keygen", "")
	v.SetDefault("macros", []string{})
}

// flagKeys binds flag names to configuration keys.
var flagKeys = map[string]string{
	"profile":      "profile",
	"macros":       "macros",
	"refresh":      "refresh",
	"keepalive":    "keepalive",
	"log-level":    "log.level",
	"evdev":        "input.evdev",
	"grab":         "input.grab",
	"sdl":          "input.sdl",
	"mouse-dpi":    "input.mouse_dpi",
	"single-input": "input.single_input",
	"monitor":      "monitor.enabled",
	"monitor-addr": "monitor.addr",
	"watch":        "watch",
	"tray":         "tray",
	"keygen":       "keygen",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("padmapper", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "configuration file (yaml, toml or json)")
	fs.StringP("profile", "p", "", "controller profile (XML)")
	fs.StringSliceP("macros", "m", nil, "macro files (yaml or toml)")
	fs.Duration("refresh", 10*time.Millisecond, "report period")
	fs.Duration("keepalive", time.Second, "resend unchanged reports after this long")
	fs.String("log-level", "info", "log level: error, warn, info or debug")
	fs.Bool("evdev", runtime.GOOS == "linux", "read keyboards and mice from /dev/input")
	fs.Bool("grab", false, "take exclusive access to keyboards and mice")
	fs.Bool("sdl", true, "read joysticks through SDL")
	fs.Int("mouse-dpi", 0, "resolution of the mice in use")
	fs.Bool("single-input", false, "treat all keyboards and mice as one")
	fs.Bool("monitor", true, "serve the monitor page")
	fs.String("monitor-addr", "localhost:8080", "monitor listen address")
	fs.Bool("watch", false, "reload the profile when it changes")
	fs.Bool("tray", runtime.GOOS == "windows", "show a tray icon")
	fs.String("keygen", "", "press this key once at start-up and exit when macros are done")
	fs.StringArray("adapter", nil, "adapter as controller=N,sink=serial|tcp|hid|log[,type=DS4][,port=...][,baud=...][,address=...][,vid=...][,pid=...]")
	return fs
}

// Load parses args (without the program name) and returns the merged,
// validated configuration.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	specs, _ := fs.GetStringArray("adapter")
	if len(specs) > 0 {
		c.Adapters = c.Adapters[:0]
		for _, s := range specs {
			a, err := ParseAdapter(s)
			if err != nil {
				return nil, err
			}
			c.Adapters = append(c.Adapters, a)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseAdapter reads the comma separated key=value form of --adapter.
func ParseAdapter(s string) (AdapterConfig, error) {
	var a AdapterConfig
	for _, kv := range strings.Split(s, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if !ok {
			return a, fmt.Errorf("adapter %q: expected key=value, got %q", s, kv)
		}
		var err error
		switch strings.ToLower(k) {
		case "controller":
			a.Controller, err = strconv.Atoi(val)
		case "type":
			a.Type = val
		case "sink":
			a.Sink = val
		case "port":
			a.Port = val
		case "baud":
			a.Baud, err = strconv.Atoi(val)
		case "address":
			a.Address = val
		case "vid", "vendor_id":
			a.VendorID, err = parseUint16(val)
		case "pid", "product_id":
			a.ProductID, err = parseUint16(val)
		default:
			err = errors.New("unknown key")
		}
		if err != nil {
			return a, fmt.Errorf("adapter %q: %s: %w", s, k, err)
		}
	}
	return a, nil
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	return uint16(v), err
}

// Validate rejects values the rest of the program cannot run with.
func (c *Config) Validate() error {
	if c.Profile == "" {
		return errors.New("profile is required")
	}
	if c.Refresh < time.Millisecond {
		return fmt.Errorf("refresh must be at least 1ms, got %s", c.Refresh)
	}
	if c.Keepalive < 0 {
		return fmt.Errorf("keepalive must not be negative, got %s", c.Keepalive)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Input.MouseDPI < 0 {
		return fmt.Errorf("mouse_dpi must not be negative, got %d", c.Input.MouseDPI)
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return errors.New("monitor.addr is required when the monitor is enabled")
	}
	seen := make(map[int]bool)
	for i, a := range c.Adapters {
		if _, err := controller.ControllerIndex(a.Controller); err != nil {
			return fmt.Errorf("adapters[%d]: controller %d: %w", i, a.Controller, err)
		}
		if seen[a.Controller] {
			return fmt.Errorf("adapters[%d]: controller %d configured twice", i, a.Controller)
		}
		seen[a.Controller] = true
		if a.Type != "" {
			if _, err := controller.ParseFamily(a.Type); err != nil {
				return fmt.Errorf("adapters[%d]: %w", i, err)
			}
		}
		switch strings.ToLower(a.Sink) {
		case "serial":
			if a.Port == "" {
				return fmt.Errorf("adapters[%d]: serial sink needs a port", i)
			}
		case "tcp":
			if a.Address == "" {
				return fmt.Errorf("adapters[%d]: tcp sink needs an address", i)
			}
		case "hid":
			if a.VendorID == 0 || a.ProductID == 0 {
				return fmt.Errorf("adapters[%d]: hid sink needs vendor_id and product_id", i)
			}
		case "", "log":
		default:
			return fmt.Errorf("adapters[%d]: unknown sink %q", i, a.Sink)
		}
	}
	return nil
}

// Options converts an adapter entry for adapter.Open.
func (a AdapterConfig) Options() adapter.Options {
	return adapter.Options{
		Controller: a.Controller - 1,
		Family:     a.Type,
		Sink:       a.Sink,
		Port:       a.Port,
		Baud:       a.Baud,
		Address:    a.Address,
		VendorID:   a.VendorID,
		ProductID:  a.ProductID,
	}
}
