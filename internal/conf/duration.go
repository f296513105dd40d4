package conf

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Duration is a config timeout written as "10s" or "5m".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// toDuration converts a raw config value. Bare YAML numbers are nanoseconds.
func toDuration(raw any) (Duration, bool, error) {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, true, fmt.Errorf("invalid duration %q: expected format like \"30s\" or \"5m\"", v)
		}
		return Duration(parsed), true, nil
	case int:
		return Duration(v), true, nil
	case int64:
		return Duration(v), true, nil
	case float64:
		return Duration(int64(v)), true, nil
	default:
		return 0, false, nil
	}
}

// DurationDecodeHook decodes Duration fields and keeps viper's usual
// time.Duration and comma-separated slice conversions.
func DurationDecodeHook() mapstructure.DecodeHookFunc {
	target := reflect.TypeFor[Duration]()
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(func(_, to reflect.Type, data any) (any, error) {
			if to != target {
				return data, nil
			}
			d, ok, err := toDuration(data)
			if err != nil {
				return nil, err
			}
			if !ok {
				return data, nil
			}
			return d, nil
		}),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
