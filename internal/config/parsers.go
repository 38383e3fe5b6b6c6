package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting returns the first of candidates present in settings. Viper
// lowercases keys, so each candidate is also tried in lower case.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

func asString(value interface{}) (string, error) {
	return cast.ToStringE(value)
}

func asBool(value interface{}) (bool, error) {
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
		if value == "" {
			return false, nil
		}
	}
	return cast.ToBoolE(value)
}

func asFloat64(value interface{}) (float64, error) {
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToFloat64E(value)
}

// asWholeNumber converts counts and seeds. Fractional values such as 10.9
// are rejected rather than truncated.
func asWholeNumber(value interface{}) (int64, error) {
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not a whole number", value)
	}
	return cast.ToInt64E(value)
}

func asInt(value interface{}) (int, error) {
	n, err := asWholeNumber(value)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt || n < math.MinInt {
		return 0, fmt.Errorf("%d is out of range", n)
	}
	return int(n), nil
}

// asDuration accepts Go duration strings ("250ms", "2s") and plain numbers,
// which are seconds and may be fractional ("0.5" or 0.5 is 500ms).
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		if secs, err := cast.ToFloat64E(v); err == nil {
			return secondsToDuration(secs), nil
		}
		// cast treats unitless strings as nanoseconds; numbers were handled above.
		return cast.ToDurationE(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, err
		}
		return secondsToDuration(secs), nil
	default:
		return 0, fmt.Errorf("unsupported duration type %T", value)
	}
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(math.Round(secs * float64(time.Second)))
}

// asStringSlice accepts a list or a single string. A single string is one
// element even if it contains spaces.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string, []interface{}:
		return cast.ToStringSliceE(v)
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", value)
	}
}

// toStringKeyMap converts a nested settings block to a map with trimmed,
// lowercased keys.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	switch value.(type) {
	case map[string]interface{}, map[interface{}]interface{}:
	default:
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	raw, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, err
	}
	result := make(map[string]interface{}, len(raw))
	for key, val := range raw {
		result[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return result, nil
}
