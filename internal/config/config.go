package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeServer = "server"
	ModeStdio  = "stdio"
	ModeApply  = "apply"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultScale       = 1.5
	DefaultOutput      = "form-filled.pdf"
	DefaultMaxSessions = 64

	// Upper bound for the page render scale
	MaxScale = 8

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "FORM_DESIGNER"
)

// Config holds all configuration for the form designer
type Config struct {
	// Server configuration
	Mode string // "server", "stdio" or "apply"
	Host string
	Port int

	// Workspace configuration
	Directory string

	// Editor configuration
	Scale       float64 // page render scale of the editor canvas
	Output      string  // exported file name
	MaxSessions int

	// Apply mode input
	Input  string
	Layout string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:        ModeServer,
		Host:        DefaultHost,
		Port:        DefaultPort,
		Directory:   currentDir,
		Scale:       DefaultScale,
		Output:      DefaultOutput,
		MaxSessions: DefaultMaxSessions,
		Version:     "1.0.0",
		ServerName:  "pdf-form-designer",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.Directory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("scale", cfg.Scale)
	viper.SetDefault("output", cfg.Output)
	viper.SetDefault("maxsessions", cfg.MaxSessions)
	viper.SetDefault("input", cfg.Input)
	viper.SetDefault("layout", cfg.Layout)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP editor and MCP over SSE, 'stdio' for MCP standard I/O, 'apply' for batch export")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.Directory, "Workspace directory for PDF, layout and output files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Float64("scale", cfg.Scale, "Page render scale of the editor canvas")
	pflag.String("output", cfg.Output, "File name of the exported PDF")
	pflag.Int("maxsessions", cfg.MaxSessions, "Maximum number of live editor sessions")
	pflag.String("input", cfg.Input, "Input PDF (apply mode only)")
	pflag.String("layout", cfg.Layout, "Layout file in .yaml, .json or .fields format (apply mode only)")
}

var flagNames = []string{
	"mode", "host", "port", "dir", "loglevel", "maxfilesize",
	"scale", "output", "maxsessions", "input", "layout",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Form Designer - place form fields on a PDF and export them as an AcroForm\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# HTTP editor on 127.0.0.1:8080 (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/pdfs         # MCP over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=apply --input=in.pdf --layout=form.yaml --output=out.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, name := range flagNames {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", envPrefix, strings.ToUpper(name))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.Directory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Scale = viper.GetFloat64("scale")
	cfg.Output = viper.GetString("output")
	cfg.MaxSessions = viper.GetInt("maxsessions")
	cfg.Input = viper.GetString("input")
	cfg.Layout = viper.GetString("layout")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeServer, ModeStdio, ModeApply:
	default:
		return errors.New("mode must be one of 'server', 'stdio' or 'apply'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Mode == ModeApply {
		if c.Input == "" {
			return errors.New("apply mode requires --input")
		}
		if c.Layout == "" {
			return errors.New("apply mode requires --layout")
		}
	}

	if c.Directory == "" {
		return errors.New("workspace directory cannot be empty")
	}

	// Create the workspace directory if it doesn't exist
	if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create workspace directory %s: %w", c.Directory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access workspace directory %s: %w", c.Directory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Scale <= 0 || c.Scale > MaxScale {
		return fmt.Errorf("scale must be in (0, %d]", MaxScale)
	}

	if c.Output == "" || filepath.Ext(c.Output) != ".pdf" {
		return fmt.Errorf("output must be a .pdf file name: %q", c.Output)
	}

	if c.MaxSessions < 1 {
		return errors.New("maximum sessions must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Directory: %s, Scale: %g, Output: %s, MaxSessions: %d, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.Directory, c.Scale, c.Output, c.MaxSessions, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true for the HTTP editor
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true for MCP over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsApplyMode returns true for the one-shot layout export
func (c *Config) IsApplyMode() bool {
	return c.Mode == ModeApply
}
