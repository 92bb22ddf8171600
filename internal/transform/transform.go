// Package transform holds the named column conversions and validations that mapping
// rules apply to record values.
//
// A transform is referenced by name, case-insensitively. Transforms taking a pattern
// accept it inline after a colon, e.g. "regexExtract:^(\d+)". Permissive conversions
// log a warning and yield nil (or the input) when they cannot convert; the mustTo*
// variants and the validate* functions fail instead, which aborts the run.
package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"csvrows/internal/logging"
)

// ErrRequired is returned by "required"/"validateRequired" for a missing or empty value.
var ErrRequired = errors.New("value is required")

// Func converts or validates one value. record is the current state of the record being
// built (input columns plus earlier mapping targets); params come from the mapping rule
// and may be nil.
type Func func(value interface{}, record map[string]interface{}, params map[string]interface{}) (interface{}, error)

// transforms lists every transform under the name used in configuration files.
var transforms = []struct {
	name string
	fn   Func
}{
	// Permissive conversions.
	{"trim", trim},
	{"toUpperCase", toUpperCase},
	{"toLowerCase", toLowerCase},
	{"toInt", toInt},
	{"toFloat", toFloat},
	{"toBool", toBool},
	{"toString", toString},
	{"replaceAll", replaceAll},
	{"substring", substring},
	{"regexExtract", regexExtract},
	{"dateConvert", dateConvert},
	{"multiDateConvert", multiDateConvert},
	{"epochToDate", epochToDate},
	{"calculateAge", calculateAge},
	{"coalesce", coalesce},
	{"branch", branch},
	{"hash", hash},

	// Strict conversions.
	{"mustToInt", mustToInt},
	{"mustToFloat", mustToFloat},
	{"mustToBool", mustToBool},
	{"mustDateConvert", mustDateConvert},
	{"mustEpochToDate", mustEpochToDate},

	// Validations.
	{"required", required},
	{"validateRequired", required},
	{"validateRegex", validateRegex},
	{"validateNumericRange", validateNumericRange},
	{"validateAllowedValues", validateAllowedValues},
}

// registry maps lowercase names to implementations.
var registry = make(map[string]Func, len(transforms))

// shorthandParam names the parameter filled by the text after ':' in a transform string.
var shorthandParam = map[string]string{
	"regexextract":  "pattern",
	"validateregex": "pattern",
}

func init() {
	for _, t := range transforms {
		registry[strings.ToLower(t.name)] = t.fn
	}
}

// splitName separates "name:shorthand" into the lowercase base name and the shorthand text.
func splitName(transformString string) (string, string) {
	name, shorthand, _ := strings.Cut(transformString, ":")
	return strings.ToLower(strings.TrimSpace(name)), strings.TrimSpace(shorthand)
}

// Exists reports whether the base name of transformString is a registered transform.
func Exists(transformString string) bool {
	name, _ := splitName(transformString)
	_, ok := registry[name]
	return ok
}

// Names returns the registered transform names, sorted.
func Names() []string {
	names := make([]string, len(transforms))
	for i, t := range transforms {
		names[i] = t.name
	}
	sort.Strings(names)
	return names
}

// Apply runs the transform named by transformString on value.
func Apply(transformString string, params map[string]interface{}, value interface{}, record map[string]interface{}) (interface{}, error) {
	name, shorthand := splitName(transformString)
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform '%s'", transformString)
	}

	effective := params
	if key, ok := shorthandParam[name]; ok && shorthand != "" {
		if _, explicit := params[key]; !explicit {
			effective = make(map[string]interface{}, len(params)+1)
			for k, v := range params {
				effective[k] = v
			}
			effective[key] = shorthand
		}
	} else if shorthand != "" {
		logging.Logf(logging.Warning, "Transform '%s' takes no inline parameter; '%s' ignored.", name, shorthand)
	}

	out, err := fn(value, record, effective)
	if err != nil {
		return nil, fmt.Errorf("transform '%s' failed: %w", transformString, err)
	}
	logging.Logf(logging.Debug, "Transform '%s': %v -> %v", name, value, out)
	return out, nil
}

// asString renders a value as text; nil becomes "".
func asString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func getStringParam(params map[string]interface{}, key string) (string, bool) {
	s, ok := params[key].(string)
	return s, ok
}

func getIntParam(params map[string]interface{}, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	i, ok := parseValueAsInt64(v)
	return int(i), ok
}

// getListParam returns a non-empty list parameter.
func getListParam(params map[string]interface{}, key string) ([]interface{}, bool) {
	list, ok := params[key].([]interface{})
	return list, ok && len(list) > 0
}

// getStringListParam returns a non-empty list parameter whose items are all non-empty strings.
func getStringListParam(params map[string]interface{}, key string) ([]string, error) {
	list, ok := getListParam(params, key)
	if !ok {
		return nil, fmt.Errorf("parameter '%s' must be a non-empty list", key)
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("parameter '%s' item %d must be a non-empty string", key, i)
		}
		out[i] = s
	}
	return out, nil
}
