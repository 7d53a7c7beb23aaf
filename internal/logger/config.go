package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variables read by EnvironmentConfig.
const (
	EnvLevel      = "SIGDECIPHER_LOG_LEVEL"
	EnvFormat     = "SIGDECIPHER_LOG_FORMAT"
	EnvOutput     = "SIGDECIPHER_LOG_OUTPUT"
	EnvCaller     = "SIGDECIPHER_LOG_CALLER"
	EnvTimestamp  = "SIGDECIPHER_LOG_TIMESTAMP"
	EnvComponents = "SIGDECIPHER_LOG_COMPONENTS"
	EnvMaxSize    = "SIGDECIPHER_LOG_MAX_SIZE"
	EnvMaxAge     = "SIGDECIPHER_LOG_MAX_AGE"
	EnvMaxBackups = "SIGDECIPHER_LOG_MAX_BACKUPS"
	EnvCompress   = "SIGDECIPHER_LOG_COMPRESS"
)

// LogConfig is the serialisable form of Config.
type LogConfig struct {
	Level      string          `json:"level"`
	Format     string          `json:"format"`
	Output     string          `json:"output"`
	Components map[string]bool `json:"components"`
	ShowCaller bool            `json:"show_caller"`
	Timestamp  bool            `json:"timestamp"`
	// Rotation applies to file: outputs only.
	Rotation   *RotationConfig `json:"rotation,omitempty"`
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *LogConfig {
	components := make(map[string]bool)
	for c, on := range DefaultConfig().Components {
		components[string(c)] = on
	}
	return &LogConfig{
		Level:      "INFO",
		Format:     "text",
		Output:     "stderr",
		Components: components,
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(filename string) (*LogConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultLogConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// ToLoggerConfig converts LogConfig to logger.Config
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}
	output, err := parseOutput(c.Output)
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	components := make(map[Component]bool, len(c.Components))
	for name, enabled := range c.Components {
		components[Component(name)] = enabled
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: components,
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

// CreateLoggerFromConfig creates a logger from LogConfig. A file: output
// with a Rotation section writes through a RotatingWriter.
func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	if config.Rotation != nil && strings.HasPrefix(config.Output, "file:") {
		if err := config.ValidateConfig(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		rw, err := createRotatingWriter(config)
		if err != nil {
			return nil, fmt.Errorf("create rotating writer: %w", err)
		}
		plain := *config
		plain.Output = "null"
		loggerConfig, err := plain.ToLoggerConfig()
		if err != nil {
			_ = rw.Close()
			return nil, fmt.Errorf("convert config: %w", err)
		}
		loggerConfig.Output = rw
		return New(loggerConfig), nil
	}

	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}
	return New(loggerConfig), nil
}

// EnvironmentConfig overlays SIGDECIPHER_LOG_* variables on the defaults.
// SIGDECIPHER_LOG_COMPONENTS is a comma-separated list; "all" enables every
// known component.
func EnvironmentConfig() *LogConfig {
	config := DefaultLogConfig()

	if level := os.Getenv(EnvLevel); level != "" {
		config.Level = level
	}
	if format := os.Getenv(EnvFormat); format != "" {
		config.Format = format
	}
	if output := os.Getenv(EnvOutput); output != "" {
		config.Output = output
	}
	if caller := os.Getenv(EnvCaller); caller != "" {
		config.ShowCaller = caller == "true" || caller == "1"
	}
	if timestamp := os.Getenv(EnvTimestamp); timestamp != "" {
		config.Timestamp = timestamp == "true" || timestamp == "1"
	}
	if rotation := rotationFromEnv(); rotation != nil {
		config.Rotation = rotation
	}
	if components := os.Getenv(EnvComponents); components != "" {
		config.Components = make(map[string]bool)
		for _, comp := range strings.Split(components, ",") {
			comp = strings.TrimSpace(comp)
			switch comp {
			case "":
			case "all":
				for c := range DefaultConfig().Components {
					config.Components[string(c)] = true
				}
			default:
				config.Components[comp] = true
			}
		}
	}

	return config
}

// rotationFromEnv returns a rotation section when any SIGDECIPHER_LOG_MAX_*
// or SIGDECIPHER_LOG_COMPRESS variable is set.
func rotationFromEnv() *RotationConfig {
	size, age := os.Getenv(EnvMaxSize), os.Getenv(EnvMaxAge)
	backups, compress := os.Getenv(EnvMaxBackups), os.Getenv(EnvCompress)
	if size == "" && age == "" && backups == "" && compress == "" {
		return nil
	}
	r := &RotationConfig{MaxSize: size, MaxAge: age, Compress: compress == "true" || compress == "1"}
	if n, err := strconv.Atoi(backups); err == nil {
		r.MaxBackups = n
	} else if backups != "" {
		r.MaxBackups = -1
	}
	return r
}

// ValidateConfig validates the configuration
func (c *LogConfig) ValidateConfig() error {
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	if !validOutput(c.Output) {
		return fmt.Errorf("invalid output: %s", c.Output)
	}
	if c.Rotation != nil {
		if err := c.Rotation.Validate(); err != nil {
			return fmt.Errorf("invalid rotation config: %w", err)
		}
	}
	return nil
}

func parseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(levelStr) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown level: %s", levelStr)
	}
}

func parseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(formatStr) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

func validOutput(outputStr string) bool {
	switch strings.ToLower(outputStr) {
	case "stdout", "stderr", "null", "none", "":
		return true
	}
	return strings.HasPrefix(outputStr, "file:") && len(outputStr) > len("file:")
}

func parseOutput(outputStr string) (io.Writer, error) {
	switch strings.ToLower(outputStr) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	case "null", "none":
		return io.Discard, nil
	}
	if !validOutput(outputStr) {
		return nil, fmt.Errorf("unknown output: %s", outputStr)
	}
	filePath := strings.TrimPrefix(outputStr, "file:")
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
