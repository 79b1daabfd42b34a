// Package config loads the gateway configuration once at startup.
//
// Values come from an optional TOML file; anything the file leaves unset
// falls back to the `default` struct tags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/go-playground/validator/v10"
	"github.com/mcuadros/go-defaults"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "FINGERPRINT_GATEWAY_CONFIG"

// Enhancer kinds.
const (
	EnhancerAFIS    = "afis"
	EnhancerCommand = "command"
)

// DefaultAllowOrigins is the CORS allow-list used when the file names none.
var DefaultAllowOrigins = []string{
	"http://localhost.tiangolo.com",
	"https://localhost.tiangolo.com",
	"http://localhost",
	"http://localhost:8080",
	"http://localhost:3000",
	"https://fingers-app.vercel.app",
}

type Config struct {
	Server   Server   `toml:"server"`
	Image    Image    `toml:"image"`
	Enhancer Enhancer `toml:"enhancer"`
	Log      Log      `toml:"log"`
}

type Server struct {
	Addr                   string   `toml:"addr" default:":8000" validate:"hostname_port"`
	BodyLimit              int      `toml:"body_limit" default:"10485760" validate:"gt=0"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds" default:"10" validate:"gte=0"`
	AllowOrigins           []string `toml:"allow_origins" validate:"required,dive,origin"`
}

type Image struct {
	JPEGQuality int `toml:"jpeg_quality" default:"95" validate:"min=1,max=100"`
	// MaxPixels caps width*height of an upload, checked before the pixels are decoded.
	MaxPixels   int `toml:"max_pixels" default:"25000000" validate:"gt=0"`
}

type Enhancer struct {
	Kind           string   `toml:"kind" default:"afis" validate:"oneof=afis command"`
	Workers        int      `toml:"workers" validate:"gte=0"`
	Command        string   `toml:"command" validate:"required_if=Kind command"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds" default:"30" validate:"gt=0"`
}

type Log struct {
	Level       string `toml:"level" default:"info"`
	File        string `toml:"file"`
	MaxAgeHours int    `toml:"max_age_hours" default:"168" validate:"gt=0"`
}

func (s Server) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

func (e Enhancer) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (l Log) MaxAge() time.Duration {
	return time.Duration(l.MaxAgeHours) * time.Hour
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	finish(cfg)
	return cfg
}

// Load reads the TOML file at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return fromMeta(cfg, md)
}

// Parse decodes a TOML document held in memory.
func Parse(doc string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(doc, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return fromMeta(cfg, md)
}

func fromMeta(cfg *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	finish(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) {
	defaults.SetDefaults(cfg)
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = DefaultAllowOrigins
	}
	cfg.Server.AllowOrigins = uniqueOrigins(cfg.Server.AllowOrigins)
	cfg.Enhancer.Kind = strings.ToLower(strings.TrimSpace(cfg.Enhancer.Kind))
}

// uniqueOrigins trims entries and drops blanks and repeats, keeping first-seen order.
func uniqueOrigins(origins []string) []string {
	set := linkedhashset.New()
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			set.Add(o)
		}
	}
	out := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, v.(string))
	}
	return out
}

// Validate checks every `validate` tag and reports failures by their TOML key.
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fieldError(fe))
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("origin", validOrigin)
	return v
}

// validOrigin accepts a bare scheme://host[:port] origin as sent in the
// Origin header. Wildcards are rejected because credentials are allowed.
func validOrigin(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.User != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Path == "" && u.RawQuery == "" && u.Fragment == "" && !strings.Contains(raw, "*")
}

func fieldError(fe validator.FieldError) error {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "origin":
		return fmt.Errorf("%s %q: want scheme://host[:port] without wildcards", key, fe.Value())
	case "hostname_port":
		return fmt.Errorf("%s %q: want host:port with a port in 1..65535", key, fe.Value())
	case "required_if":
		return fmt.Errorf("%s is required when %s", key, fe.Param())
	case "required":
		return fmt.Errorf("%s is required", key)
	case "oneof":
		return fmt.Errorf("%s %q is not one of [%s]", key, fe.Value(), fe.Param())
	case "min", "max", "gt", "gte":
		return fmt.Errorf("%s %v fails %s=%s", key, fe.Value(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%s: failed %q", key, fe.Tag())
}
