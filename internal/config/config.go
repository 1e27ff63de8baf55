package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("swapi version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server          ServerConfig    `mapstructure:"server"`
	Logging         LoggingConfig   `mapstructure:"logging"`
	Requester       RequesterConfig `mapstructure:"requester"`
	EndpointConfig  EndpointConfig  `mapstructure:"endpoint"`
	OpenAPIFile     string          `mapstructure:"openapi_file"`
	AdjustmentsFile string          `mapstructure:"adjustments_file"`
}

// RequesterConfig configures the transport and the diagnostics flag
type RequesterConfig struct {
	Transport    string        `mapstructure:"transport" validate:"omitempty,oneof=net_http resty"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	DebugLogging bool          `mapstructure:"debug_logging"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// EndpointConfig holds the values shared by every endpoint generated from
// the OpenAPI document.
type EndpointConfig struct {
	BaseURL        string            `json:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	APIKey         string            `json:"api_key" mapstructure:"api_key"`
	APIKeyName     string            `json:"api_key_name" mapstructure:"api_key_name"`
	APIKeyLocation string            `json:"api_key_location" mapstructure:"api_key_location" validate:"omitempty,oneof=header query"`
	Headers        map[string]string `json:"headers" mapstructure:"headers"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port    int        `mapstructure:"port" validate:"gte=0,lte=65535"`
	Host    string     `mapstructure:"host"`
	Mode    ServerMode `mapstructure:"mode" validate:"omitempty,oneof=sse stdio http"`
	Name    string     `mapstructure:"name"`
	Version string     `mapstructure:"version"`
	CORS    bool       `mapstructure:"cors"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Format            string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	DisableConsole    bool   `mapstructure:"disable_console"`
	// Stderr sends console output to stderr instead of stdout
	Stderr            bool   `mapstructure:"stderr"`
}

var validate = validator.New()

// InitFlags initializes command line flags (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("mode", "", "Server mode (stdio|sse|http), overrides server.mode")
	flags.String("openapi-file", "", "Path to the OpenAPI/Swagger file")
	flags.String("adjustments-file", "", "Path to the adjustments file")
	flags.Bool("debug", false, "Enable verbose request diagnostics")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("requester.transport", "net_http")
	v.SetDefault("requester.timeout", 30*time.Second)
	v.SetDefault("requester.user_agent", "swapi/"+version)
	v.SetDefault("server.mode", string(ServerModeSTDIO))
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.name", "swapi")
	v.SetDefault("server.version", version)
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SWAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/swapi")
	return v, nil
}

// LoadDefaults reads configuration like Load but does not require a config
// file or an OpenAPI document.
func LoadDefaults(flags *pflag.FlagSet) (*Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return unmarshal(v)
}

// Load reads config.yaml, the environment and flags. An OpenAPI file is required.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	//Loading additionals config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	config, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	if config.OpenAPIFile == "" {
		return nil, fmt.Errorf("openapi file is required, please adjust the config or pass --openapi-file or SWAPI_OPENAPI_FILE environment variable")
	}

	return config, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Flags override the file
	if mode := v.GetString("mode"); mode != "" {
		config.Server.Mode = ServerMode(mode)
	}
	if openAPIFile := v.GetString("openapi-file"); openAPIFile != "" {
		config.OpenAPIFile = openAPIFile
	}
	if adjustmentsFile := v.GetString("adjustments-file"); adjustmentsFile != "" {
		config.AdjustmentsFile = adjustmentsFile
	}
	if v.GetBool("debug") {
		config.Requester.DebugLogging = true
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the struct tags of the whole configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			messages := make([]string, 0, len(valErrs))
			for _, ve := range valErrs {
				messages = append(messages, fmt.Sprintf("%s: failed %q", ve.Namespace(), ve.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Module exposes the sections of a loaded Config to fx
var Module = fx.Module("config",
	fx.Provide(
		func(c *Config) *RequesterConfig { return &c.Requester },
		func(c *Config) *EndpointConfig { return &c.EndpointConfig },
		func(c *Config) *LoggingConfig { return &c.Logging },
	),
)
