package cfgloader

import (
	"fmt"
	"log/slog"
	"reflect"

	"gopkg.in/yaml.v3"
)

const maskPlaceholder = "****"

// printConfig logs the loaded configuration with secret fields masked.
// Fields carrying the `mask:"true"` struct tag are replaced with a
// placeholder so credentials never reach stdout.
func printConfig(config any) {
	masked := maskStruct(config)

	out, err := yaml.Marshal(masked)
	if err != nil {
		slog.Error("failed to marshal config", "error", err.Error())
		return
	}
	slog.Info(fmt.Sprintf("Loaded config:\n%s", string(out)))
}

func maskStruct(cfg any) any {
	val := reflect.ValueOf(cfg)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	return maskValue(val).Interface()
}

func maskValue(val reflect.Value) reflect.Value {
	if !val.IsValid() {
		return val
	}

	switch val.Kind() { //nolint:exhaustive // only handled kinds relevant to masking
	case reflect.Ptr:
		if val.IsNil() {
			return val
		}
		ptr := reflect.New(val.Elem().Type())
		ptr.Elem().Set(maskValue(val.Elem()))
		return ptr

	case reflect.Struct:
		masked := reflect.New(val.Type()).Elem()
		for i := range val.NumField() {
			field := val.Type().Field(i)
			origVal := val.Field(i)

			if !masked.Field(i).CanSet() || !origVal.CanInterface() {
				continue
			}

			if field.Tag.Get("mask") == "true" {
				masked.Field(i).Set(maskAny(origVal))
			} else {
				masked.Field(i).Set(maskValue(origVal))
			}
		}
		return masked

	default:
		return val
	}
}

// maskAny replaces a value with its masked representation while keeping
// the original type so yaml marshalling still works.
func maskAny(val reflect.Value) reflect.Value {
	switch val.Kind() { //nolint:exhaustive // non-string secrets are zeroed below
	case reflect.String:
		if val.String() == "" {
			return val
		}
		masked := reflect.New(val.Type()).Elem()
		masked.SetString(maskPlaceholder)
		return masked

	case reflect.Ptr:
		if val.IsNil() {
			return val
		}
		ptr := reflect.New(val.Elem().Type())
		ptr.Elem().Set(maskAny(val.Elem()))
		return ptr

	default:
		// Non-string secrets are replaced with their zero value.
		return reflect.New(val.Type()).Elem()
	}
}
