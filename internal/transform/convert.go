package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"csvrows/internal/logging"
)

func trim(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return value, nil
}

func toUpperCase(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		return strings.ToUpper(s), nil
	}
	return value, nil
}

func toLowerCase(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		return strings.ToLower(s), nil
	}
	return value, nil
}

// toString renders any value as text; nil becomes "".
func toString(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	return asString(value), nil
}

// isBlank reports whether value is nil or a whitespace-only string: an empty cell.
func isBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

// toInt converts to int64. Empty cells and unconvertible values become nil.
func toInt(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if isBlank(value) {
		return nil, nil
	}
	if i, ok := parseValueAsInt64(value); ok {
		return i, nil
	}
	logging.Logf(logging.Warning, "toInt: conversion failed for input '%v' (type %T); returning nil", value, value)
	return nil, nil
}

// toFloat converts to float64. Empty cells and unconvertible values become nil.
func toFloat(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if isBlank(value) {
		return nil, nil
	}
	if f, ok := parseValueAsFloat64(value); ok {
		return f, nil
	}
	logging.Logf(logging.Warning, "toFloat: conversion failed for input '%v' (type %T); returning nil", value, value)
	return nil, nil
}

// toBool converts to bool. Empty cells and unrecognized values become nil.
func toBool(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if isBlank(value) {
		return nil, nil
	}
	if b, ok := parseValueAsBool(value); ok {
		return b, nil
	}
	logging.Logf(logging.Warning, "toBool: unrecognized value '%v' (type %T); returning nil", value, value)
	return nil, nil
}

func mustToInt(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if i, ok := parseValueAsInt64(value); ok {
		return i, nil
	}
	return nil, fmt.Errorf("cannot convert '%v' (type %T) to int", value, value)
}

func mustToFloat(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if f, ok := parseValueAsFloat64(value); ok {
		return f, nil
	}
	return nil, fmt.Errorf("cannot convert '%v' (type %T) to float", value, value)
}

func mustToBool(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if b, ok := parseValueAsBool(value); ok {
		return b, nil
	}
	return nil, fmt.Errorf("cannot convert '%v' (type %T) to bool", value, value)
}

// parseValueAsInt64 accepts integers, integral floats and their string forms.
func parseValueAsInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt64(f)
		}
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseValueAsFloat64 accepts numbers and numeric strings.
func parseValueAsFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// parseValueAsBool accepts bools, numbers (non-zero is true) and the usual words.
func parseValueAsBool(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "t", "y", "on":
			return true, true
		case "false", "0", "no", "f", "n", "off":
			return false, true
		}
		return false, false
	}
	if f, ok := parseValueAsFloat64(value); ok {
		return f != 0, true
	}
	return false, false
}
