// Package config loads the service configuration from defaults, an optional
// config file, BOOKSGRAPH_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "BOOKSGRAPH"

var routePath = regexp.MustCompile(`^/[^\s]*$`)

type (
	Config struct {
		Server  Server  `mapstructure:"server" yaml:"server"`
		GraphQL GraphQL `mapstructure:"graphql" yaml:"graphql"`
		Log     Log     `mapstructure:"log" yaml:"log"`
		Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
		Otel    Otel    `mapstructure:"otel" yaml:"otel"`
		Seed    Seed    `mapstructure:"seed" yaml:"seed"`
	}

	Server struct {
		Addr         string        `mapstructure:"addr" yaml:"addr"`
		Path         string        `mapstructure:"path" yaml:"path"`
		Pretty       bool          `mapstructure:"pretty" yaml:"pretty"`
		Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
		MaxBodyBytes int64         `mapstructure:"max-body-bytes" yaml:"max-body-bytes"`
		CORSOrigins  []string      `mapstructure:"cors-origins" yaml:"cors-origins"`
		GraphiQL     bool          `mapstructure:"graphiql" yaml:"graphiql"`
	}

	GraphQL struct {
		Introspection bool `mapstructure:"introspection" yaml:"introspection"`
	}

	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
		File   string `mapstructure:"file" yaml:"file"`
	}

	Metrics struct {
		Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
		Path    string `mapstructure:"path" yaml:"path"`
	}

	Otel struct {
		Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
		Service  string `mapstructure:"service" yaml:"service"`
	}

	Seed struct {
		File string `mapstructure:"file" yaml:"file"`
	}
)

type option struct {
	key   string
	value any
	usage string
}

var options = []option{
	{"server.addr", ":4000", "HTTP listen address"},
	{"server.path", "/graphql", "GraphQL endpoint path"},
	{"server.pretty", false, "Pretty-print JSON responses"},
	{"server.timeout", 10 * time.Second, "Per-request timeout, 0 disables it"},
	{"server.max-body-bytes", int64(1 << 20), "Request body limit in bytes, 0 means unlimited"},
	{"server.cors-origins", []string{}, "Allowed CORS origins. Repeatable; * allows any"},
	{"server.graphiql", true, "Serve GraphiQL to browsers"},
	{"graphql.introspection", true, "Enable GraphQL introspection"},
	{"log.level", "info", "Log level (debug|info|warn|error)"},
	{"log.format", "json", "Log encoding (json|console)"},
	{"log.file", "", "Also write logs to this file"},
	{"metrics.enabled", true, "Serve prometheus metrics"},
	{"metrics.path", "/metrics", "Metrics endpoint path"},
	{"otel.endpoint", "", "OTLP gRPC collector endpoint, empty disables tracing"},
	{"otel.service", "booksgraph", "OpenTelemetry service name"},
	{"seed.file", "", "HCL or JSON seed file replacing the built-in dataset"},
}

// RegisterFlags defines one flag per configuration key on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, o := range options {
		switch v := o.value.(type) {
		case string:
			fs.String(o.key, v, o.usage)
		case bool:
			fs.Bool(o.key, v, o.usage)
		case time.Duration:
			fs.Duration(o.key, v, o.usage)
		case int64:
			fs.Int64(o.key, v, o.usage)
		case []string:
			fs.StringSlice(o.key, v, o.usage)
		}
	}
}

// Load reads the configuration. file may be empty; flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for _, o := range options {
		v.SetDefault(o.key, o.value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// YAML renders the configuration with the same keys Load accepts.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Log),
		validation.Field(&c.Metrics),
		validation.Field(&c.Otel),
	)
	if err != nil {
		return err
	}
	if c.Metrics.Enabled && (c.Metrics.Path == c.Server.Path || c.Metrics.Path == "/healthz") {
		return validation.Errors{
			"Metrics": validation.Errors{"Path": errors.New("must not collide with another route")},
		}
	}
	return nil
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
		validation.Field(&s.Path, validation.Required, validation.Match(routePath), validation.NotIn("/healthz")),
		validation.Field(&s.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&s.MaxBodyBytes, validation.Min(int64(0))),
		validation.Field(&s.CORSOrigins, validation.Each(validation.Required)),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.Required, validation.In("json", "console")),
	)
}

func (m Metrics) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path, validation.When(m.Enabled, validation.Required, validation.Match(routePath))),
	)
}

func (o Otel) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Endpoint, is.DialString),
		validation.Field(&o.Service, validation.When(o.Endpoint != "", validation.Required)),
	)
}
