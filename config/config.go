// Package config loads the wasmcall configuration from YAML.
package config

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
	"github.com/reglet-dev/wasm-marshal/host"
)

// Guest output modes.
const (
	// OutputPassthrough copies guest stdout and stderr to the host streams.
	OutputPassthrough = "passthrough"
	// OutputLog emits each guest output line as a log record.
	OutputLog = "log"
)

// Config describes how a guest module is loaded and run.
type Config struct {
	// Module is the path of the guest wasm file.
	Module string `yaml:"module,omitempty" jsonschema:"description=Path of the guest wasm module"`
	// Env holds extra environment variables for the guest. LANG selects
	// the guest locale.
	Env map[string]string `yaml:"env,omitempty" validate:"omitempty,dive,keys,required,endkeys"`
	// MemoryLimitPages caps guest linear memory in 64 KiB pages. Zero keeps
	// the runtime default.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages,omitempty" validate:"lte=65536" jsonschema:"minimum=0,maximum=65536"`
	// GuestAllocationLimit caps the bytes the guest allocator hands out.
	// Zero keeps the guest default.
	GuestAllocationLimit int `yaml:"guest_allocation_limit,omitempty" validate:"gte=0" jsonschema:"minimum=0"`
	// LogLevel is the minimum level of host and guest log records.
	LogLevel string `yaml:"log_level,omitempty" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	// GuestOutput selects how guest stdout and stderr are surfaced.
	GuestOutput string `yaml:"guest_output,omitempty" validate:"oneof=passthrough log" jsonschema:"enum=passthrough,enum=log,default=passthrough"`
}

// validate is a package-level singleton; validators cache struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML key.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		LogLevel:    "info",
		GuestOutput: OutputPassthrough,
	}
}

// Load reads, parses and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stdErrors.Is(err, io.EOF) {
		return Config{}, &errors.ConfigError{Err: err}
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags. The first failing field is
// reported as an *errors.ConfigError.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &errors.ConfigError{
			Field: strings.TrimPrefix(fe.Namespace(), "Config."),
			Err:   fmt.Errorf("failed on '%s' check (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &errors.ConfigError{Err: err}
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// HostOptions translates the configuration into executor options.
func (c Config) HostOptions() []host.Option {
	var opts []host.Option
	if len(c.Env) > 0 {
		opts = append(opts, host.WithEnv(c.Env))
	}
	if c.MemoryLimitPages > 0 {
		opts = append(opts, host.WithMemoryLimitPages(c.MemoryLimitPages))
	}
	if c.GuestAllocationLimit > 0 {
		opts = append(opts, host.WithGuestAllocationLimit(c.GuestAllocationLimit))
	}
	return opts
}
