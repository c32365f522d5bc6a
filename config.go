package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/astaxie/beego/config"
)

type Config struct {
	Host        string
	Port        int
	Root        string
	AccessLog   string
	LogLevel    string
	LogFormat   string
	ReadTimeout time.Duration
	GracePeriod time.Duration
	HTTP10      bool
}

const (
	defaultHost        = "127.0.0.1"
	defaultPort        = 8080
	defaultGracePeriod = 3 * time.Second
)

func DefaultConfig() *Config {
	return &Config{
		Host:        defaultHost,
		Port:        defaultPort,
		Root:        ".",
		AccessLog:   "server.log",
		LogLevel:    "info",
		LogFormat:   "console",
		GracePeriod: defaultGracePeriod,
	}
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) WorkerOptions() WorkerOptions {
	return WorkerOptions{ReadTimeout: c.ReadTimeout, HTTP10: c.HTTP10}
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Root == "" {
		return fmt.Errorf("empty document root")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	return nil
}

// LoadConfig builds the configuration from command line arguments and, if
// -config names one, an INI file. Flags given explicitly win over the file.
func LoadConfig(args []string, output io.Writer) (*Config, error) {
	def := DefaultConfig()
	fs := flag.NewFlagSet("httpd", flag.ContinueOnError)
	fs.SetOutput(output)
	var (
		configPath  = fs.String("config", "", "INI configuration file")
		host        = fs.String("host", def.Host, "listen host")
		port        = fs.Int("port", def.Port, "listen port")
		root        = fs.String("root", def.Root, "document root")
		accessLog   = fs.String("access-log", def.AccessLog, "access log file, - for stdout")
		logLevel    = fs.String("log-level", def.LogLevel, "log level")
		logFormat   = fs.String("log-format", def.LogFormat, "log format: console or json")
		readTimeout = fs.Duration("read-timeout", def.ReadTimeout, "idle timeout per request, 0 for none")
		gracePeriod = fs.Duration("grace-period", def.GracePeriod, "shutdown grace period")
		http10      = fs.Bool("http10", def.HTTP10, "one request per connection, no conditional GET")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := def
	if *configPath != "" {
		ac, err := config.NewConfig("ini", *configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", *configPath, err)
		}
		if err := applyINI(cfg, ac); err != nil {
			return nil, fmt.Errorf("%s: %w", *configPath, err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "root":
			cfg.Root = *root
		case "access-log":
			cfg.AccessLog = *accessLog
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "grace-period":
			cfg.GracePeriod = *gracePeriod
		case "http10":
			cfg.HTTP10 = *http10
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyINI(cfg *Config, ac config.Configer) error {
	cfg.Host = ac.DefaultString("server::host", cfg.Host)
	cfg.Port = ac.DefaultInt("server::port", cfg.Port)
	cfg.Root = ac.DefaultString("server::root", cfg.Root)
	cfg.HTTP10 = ac.DefaultBool("server::http10", cfg.HTTP10)
	cfg.AccessLog = ac.DefaultString("log::access_log", cfg.AccessLog)
	cfg.LogLevel = ac.DefaultString("log::level", cfg.LogLevel)
	cfg.LogFormat = ac.DefaultString("log::format", cfg.LogFormat)

	var err error
	if cfg.ReadTimeout, err = iniDuration(ac, "server::read_timeout", cfg.ReadTimeout); err != nil {
		return err
	}
	if cfg.GracePeriod, err = iniDuration(ac, "server::grace_period", cfg.GracePeriod); err != nil {
		return err
	}
	return nil
}

func iniDuration(ac config.Configer, key string, def time.Duration) (time.Duration, error) {
	s := ac.String(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
