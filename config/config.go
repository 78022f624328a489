// Package config resolves the process configuration from defaults, an
// optional ini file, the environment and the command line, in that order
// of increasing precedence.
//
// Example ini file:
//
//	address     = 0.0.0.0:8080
//	public_path = /srv/www
//	transport   = uring
//	log_level   = debug
package config

import (
	"flag"
	"fmt"
	"io"

	beegoconfig "github.com/astaxie/beego/config"

	"github.com/nczempin/httpd-go-uring/logger"
	"github.com/nczempin/httpd-go-uring/transport"
)

const (
	DefaultAddress    = "127.0.0.1:8080"
	DefaultPublicPath = "./public"
	DefaultTransport  = transport.KindTcp
	DefaultLogLevel   = "info"
)

// Environment variables consulted by Load
const (
	EnvAddress    = "HTTPD_ADDRESS"
	EnvPublicPath = "PUBLIC_PATH"
	EnvTransport  = "HTTPD_TRANSPORT"
	EnvLogLevel   = "HTTPD_LOG_LEVEL"
)

// Config holds everything the server needs at startup
type Config struct {
	Address    string
	PublicPath string
	Transport  string
	LogLevel   string
}

// Load builds a Config from args (without the program name) and getenv.
// The first positional argument, if any, is the listening address. Flags
// must precede it; anything after it is an error.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Address:    DefaultAddress,
		PublicPath: DefaultPublicPath,
		Transport:  DefaultTransport,
		LogLevel:   DefaultLogLevel,
	}

	fs := flag.NewFlagSet("httpd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configFile := fs.String("config", "", "path to an ini configuration file")
	address := fs.String("address", "", "listening address, host:port or socket path")
	publicPath := fs.String("public", "", "directory to serve files from")
	kind := fs.String("transport", "", "listener kind: tcp, unix, uring or uring2")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configFile != "" {
		if err := cfg.loadFile(*configFile); err != nil {
			return nil, err
		}
	}

	if getenv != nil {
		override(&cfg.Address, getenv(EnvAddress))
		override(&cfg.PublicPath, getenv(EnvPublicPath))
		override(&cfg.Transport, getenv(EnvTransport))
		override(&cfg.LogLevel, getenv(EnvLogLevel))
	}

	override(&cfg.Address, *address)
	override(&cfg.PublicPath, *publicPath)
	override(&cfg.Transport, *kind)
	override(&cfg.LogLevel, *logLevel)

	if fs.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments after address %q: %v (flags go before the address)", fs.Arg(0), fs.Args()[1:])
	}
	if fs.NArg() == 1 {
		cfg.Address = fs.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	ini, err := beegoconfig.NewConfig("ini", path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	c.Address = ini.DefaultString("address", c.Address)
	c.PublicPath = ini.DefaultString("public_path", c.PublicPath)
	c.Transport = ini.DefaultString("transport", c.Transport)
	c.LogLevel = ini.DefaultString("log_level", c.LogLevel)
	return nil
}

// Validate checks the values that can be checked without side effects
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address must not be empty")
	}
	if c.PublicPath == "" {
		return fmt.Errorf("public path must not be empty")
	}
	switch c.Transport {
	case transport.KindTcp, transport.KindUnix, transport.KindUring, transport.KindUring2:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
