package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator interface allows config structs to implement custom validation logic.
// If a config struct implements this interface, validation will be automatically
// called after loading configuration from files and environment variables.
type Validator interface {
	Validate() error
}

// setFieldFromString converts raw into the kind of field and assigns it.
// Slices of strings are read as comma-separated values.
func setFieldFromString(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to duration: %w", raw, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %w", raw, err)
		}
		field.SetInt(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to convert %s to float: %w", raw, err)
		}
		field.SetFloat(v)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to bool: %w", raw, err)
		}
		field.SetBool(v)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		values := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))
		for i, v := range values {
			slice.Index(i).SetString(strings.TrimSpace(v))
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

// walkFields calls fn for every leaf field of a struct, descending into nested
// structs (time.Duration is a leaf).
func walkFields(val reflect.Value, fn func(field reflect.Value, sf reflect.StructField) error) error {
	var result error
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := walkFields(field, fn); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}
		if err := fn(field, sf); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// applyDefaults fills zero-valued fields from their default tag. It runs before
// the YAML file and the environment are applied, so both can override a default
// with a zero value (e.g. false).
func applyDefaults(val reflect.Value) error {
	return walkFields(val, func(field reflect.Value, sf reflect.StructField) error {
		def := sf.Tag.Get("default")
		if def == "" || !field.IsZero() {
			return nil
		}
		if err := setFieldFromString(field, def); err != nil {
			return fmt.Errorf("default for %s: %w", sf.Name, err)
		}
		return nil
	})
}

func applyEnv(val reflect.Value) error {
	return walkFields(val, func(field reflect.Value, sf reflect.StructField) error {
		name := sf.Tag.Get("env")
		if name == "" {
			return nil
		}
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			return nil
		}
		if err := setFieldFromString(field, raw); err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		return nil
	})
}

func isTrue(tag string) bool {
	tag = strings.ToLower(tag)
	return tag == "true" || tag == "1"
}

func checkRequired(val reflect.Value) error {
	return walkFields(val, func(field reflect.Value, sf reflect.StructField) error {
		if !isTrue(sf.Tag.Get("required")) || !field.IsZero() {
			return nil
		}
		return fmt.Errorf("required field env:%s / yaml:%s is missing", sf.Tag.Get("env"), sf.Tag.Get("yaml"))
	})
}

// GetConfigFromEnvVars loads configuration from environment variables only.
// It processes struct tags: env, default, required.
//
//	var cfg MyConfig
//	err := GetConfigFromEnvVars(&cfg)
func GetConfigFromEnvVars[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	if err := applyDefaults(val); err != nil {
		return err
	}
	return finish(dest)
}

// finish overlays the environment, enforces required fields and runs Validate.
func finish[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	if err := applyEnv(val); err != nil {
		return err
	}
	if err := checkRequired(val); err != nil {
		var zero T
		*dest = zero
		return err
	}
	return validate(dest)
}

func validate[T any](dest *T) error {
	if validator, ok := any(dest).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		return nil
	}
	if validator, ok := any(*dest).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// GetConfig loads defaults, then the YAML file, then environment variables.
// ${VAR} references inside the file are expanded from the environment before parsing.
// If filepath is empty, only environment variables are used.
// If allowFileErrors is true, file read/parse errors fallback to env vars only.
//
//	var cfg MyConfig
//	err := GetConfig(&cfg, "config.yaml", true)
func GetConfig[T any](dest *T, filepath string, allowFileErrors bool) error {
	if filepath == "" {
		return GetConfigFromEnvVars(dest)
	}

	data, err := os.ReadFile(filepath) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := applyDefaults(reflect.ValueOf(dest).Elem()); err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), dest); err != nil {
		if allowFileErrors {
			var zero T
			*dest = zero
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return finish(dest)
}
