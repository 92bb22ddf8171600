package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// required fails on nil and whitespace-only strings.
func required(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if isBlank(value) {
		return nil, ErrRequired
	}
	return value, nil
}

// validateRegex fails when a string value does not match params["pattern"].
// Non-string values pass.
func validateRegex(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	pattern, _ := getStringParam(params, "pattern")
	if pattern == "" {
		return nil, fmt.Errorf("missing or empty 'pattern' parameter")
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}
	if !re.MatchString(s) {
		return nil, fmt.Errorf("value %s does not match pattern '%s'", strconv.Quote(s), pattern)
	}
	return value, nil
}

// numericBound reads params[key]; present reports whether the key was given at all.
func numericBound(params map[string]interface{}, key string) (bound float64, present bool, err error) {
	raw, present := params[key]
	if !present {
		return 0, false, nil
	}
	bound, ok := parseValueAsFloat64(raw)
	if !ok {
		return 0, true, fmt.Errorf("parameter '%s' value '%v' is not a number", key, raw)
	}
	return bound, true, nil
}

// validateNumericRange fails when a numeric value lies outside params["min"]..params["max"].
// Non-numeric values pass.
func validateNumericRange(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	minVal, hasMin, err := numericBound(params, "min")
	if err != nil {
		return nil, err
	}
	maxVal, hasMax, err := numericBound(params, "max")
	if err != nil {
		return nil, err
	}
	if !hasMin && !hasMax {
		return nil, fmt.Errorf("requires a 'min' or 'max' parameter")
	}
	n, ok := parseValueAsFloat64(value)
	if !ok {
		return value, nil
	}
	if hasMin && n < minVal {
		return nil, fmt.Errorf("value %v is less than minimum %v", n, minVal)
	}
	if hasMax && n > maxVal {
		return nil, fmt.Errorf("value %v is greater than maximum %v", n, maxVal)
	}
	return value, nil
}

// validateAllowedValues fails unless value compares equal to one of params["values"].
func validateAllowedValues(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	allowed, ok := getListParam(params, "values")
	if !ok {
		return nil, fmt.Errorf("'values' must be a non-empty list")
	}
	for _, a := range allowed {
		if cmp, err := CompareValues(value, a); err == nil && cmp == 0 {
			return value, nil
		}
	}
	return nil, fmt.Errorf("value '%v' is not one of the allowed values %v", value, allowed)
}

// CheckParams reports parameter problems for transformString that would otherwise only
// surface while rows are processed. Messages are relative to the params map.
func CheckParams(transformString string, params map[string]interface{}) []string {
	name, shorthand := splitName(transformString)
	var errs []string
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	switch name {
	case "replaceall":
		if s, _ := getStringParam(params, "old"); s == "" {
			add("old: is required for transform 'replaceAll'")
		}
		if v, ok := params["new"]; ok {
			if _, isString := v.(string); !isString {
				add("new: must be a string")
			}
		}
	case "regexextract", "validateregex":
		pattern, _ := getStringParam(params, "pattern")
		if pattern == "" {
			pattern = shorthand
		}
		if pattern == "" {
			add("pattern: is required (or use '%s:<pattern>')", name)
		} else if _, err := compilePattern(pattern); err != nil {
			add("pattern: invalid regular expression '%s': %v", pattern, err)
		}
	case "substring":
		for _, key := range []string{"start", "length"} {
			if _, ok := getIntParam(params, key); !ok {
				add("%s: must be an integer", key)
			}
		}
	case "dateconvert", "mustdateconvert":
		for _, key := range []string{"inputFormat", "outputFormat"} {
			if v, ok := params[key]; ok {
				if _, isString := v.(string); !isString {
					add("%s: must be a string", key)
				}
			}
		}
	case "multidateconvert":
		if _, err := getStringListParam(params, "formats"); err != nil {
			add("formats: %v", err)
		}
		if s, _ := getStringParam(params, "outputFormat"); s == "" {
			add("outputFormat: is required")
		}
	case "coalesce":
		if _, err := getStringListParam(params, "fields"); err != nil {
			add("fields: %v", err)
		}
	case "hash":
		algorithm, _ := getStringParam(params, "algorithm")
		if _, ok := hashers[strings.ToLower(algorithm)]; !ok {
			add("algorithm: '%s' is not supported, must be one of %v", algorithm, hashAlgorithms())
		}
		if _, err := getStringListParam(params, "fields"); err != nil {
			add("fields: %v", err)
		}
	case "branch":
		branches, ok := getListParam(params, "branches")
		if !ok {
			add("branches: must be a non-empty list")
			break
		}
		for i, raw := range branches {
			b, ok := raw.(map[string]interface{})
			if !ok {
				add("branches[%d]: must be a map with 'condition' and 'value'", i)
				continue
			}
			condition, _ := b["condition"].(string)
			if condition == "" {
				add("branches[%d].condition: is required", i)
			} else if _, err := compileExpression(condition); err != nil {
				add("branches[%d].condition: invalid expression '%s': %v", i, condition, err)
			}
			if _, ok := b["value"]; !ok {
				add("branches[%d].value: is required", i)
			}
		}
	case "validatenumericrange":
		_, hasMin, errMin := numericBound(params, "min")
		_, hasMax, errMax := numericBound(params, "max")
		if !hasMin && !hasMax {
			add("min/max: at least one is required")
		}
		for _, err := range []error{errMin, errMax} {
			if err != nil {
				add("%v", err)
			}
		}
	case "validateallowedvalues":
		if _, ok := getListParam(params, "values"); !ok {
			add("values: must be a non-empty list")
		}
	}
	return errs
}
