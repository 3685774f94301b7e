package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when cfg is not a pointer to a struct embedding EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned for a variable that is unset and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned for a tagged field of a kind the parser cannot fill.
	ErrUnsupportedVarType = errors.New("unsupported env var type")

	// ErrInvalidDuration is returned when a duration value cannot be parsed.
	ErrInvalidDuration = errors.New("invalid duration")
)

// Validator is implemented by config structs that reject values which parse
// but are unusable, like an empty signing secret. Validate runs once all of
// the struct's fields, nested structs included, are populated.
type Validator interface {
	Validate() error
}

//nolint:gochecknoglobals
var (
	durationType  = reflect.TypeOf(time.Duration(0))
	envConfigType = reflect.TypeOf(EnvConfig{})
)

// EnvConfig must be embedded in the root configuration struct.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the struct was parsed under.
func (c *EnvConfig) Namespace() string {
	return c.namespace
}

// Parse fills cfg from environment variables.
//
// Fields are tagged `env:"NAME"` and optionally `default:"value"`; nested
// structs add `envPrefix:"PREFIX_"`. A variable is looked up under the full
// namespace first and then under each shorter namespace, so with namespace
// "APP_SVC" the field `env:"PORT"` reads APP_SVC_PORT, then APP_PORT.
// Supported field types are string, bool, the signed integers and
// time.Duration (see ParseDuration).
func Parse(_ context.Context, cfg any, namespace string) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidConfig
	}

	root := v.Elem()

	envConfig, ok := embeddedEnvConfig(root)
	if !ok {
		return ErrInvalidConfig
	}

	envConfig.namespace = namespace

	p := parser{namespaces: candidates(namespace)}

	return p.parseStruct("", root)
}

func embeddedEnvConfig(v reflect.Value) (*EnvConfig, bool) {
	for i := range v.NumField() {
		field := v.Type().Field(i)
		if field.Anonymous && field.Type == envConfigType && v.Field(i).CanAddr() {
			//nolint:forcetypeassert
			return v.Field(i).Addr().Interface().(*EnvConfig), true
		}
	}

	return nil, false
}

// candidates lists the variable prefixes to try, longest first:
// "APP_SVC" gives ["APP_SVC_", "APP_"].
func candidates(namespace string) []string {
	if namespace == "" {
		return []string{""}
	}

	parts := strings.Split(namespace, "_")
	out := make([]string, 0, len(parts))

	for i := len(parts); i > 0; i-- {
		out = append(out, strings.Join(parts[:i], "_")+"_")
	}

	return out
}

type parser struct {
	namespaces []string
}

func (p parser) lookup(name string) (string, bool) {
	for _, ns := range p.namespaces {
		if value, ok := os.LookupEnv(ns + name); ok {
			return value, true
		}
	}

	return "", false
}

func (p parser) parseStruct(prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)

		if field.Type == envConfigType || !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			if err := p.parseStruct(prefix+field.Tag.Get("envPrefix"), v.Field(i)); err != nil {
				return err
			}

			continue
		}

		name, tagged := field.Tag.Lookup("env")
		if !tagged || name == "" {
			continue
		}

		raw, found := p.lookup(prefix + name)
		if !found {
			def, hasDefault := field.Tag.Lookup("default")
			if !hasDefault {
				return fmt.Errorf("parse field: %w: %s", ErrVarNotSet, prefix+name)
			}

			raw = def
		}

		if err := setField(v.Field(i), raw); err != nil {
			return fmt.Errorf("parse field %s: %w", prefix+name, err)
		}
	}

	if v.CanAddr() {
		if validator, ok := v.Addr().Interface().(Validator); ok {
			if err := validator.Validate(); err != nil {
				return fmt.Errorf("validate %s: %w", t.Name(), err)
			}
		}
	}

	return nil
}

func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := ParseDuration(raw)
		if err != nil {
			return err
		}

		field.SetInt(int64(d))

		return nil
	}

	//nolint:exhaustive
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}

		field.SetInt(n)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedVarType, field.Kind())
	}

	return nil
}

// ParseDuration accepts everything time.ParseDuration does plus a leading day
// count ("7d", "1d12h"). A bare integer is seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	var days time.Duration

	if before, after, found := strings.Cut(s, "d"); found {
		n, err := strconv.ParseInt(before, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}

		days = time.Duration(n) * 24 * time.Hour

		if after == "" {
			return days, nil
		}

		s = after
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	return days + d, nil
}
