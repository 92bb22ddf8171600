package transform

import (
	"regexp"
	"strings"
	"sync"

	"csvrows/internal/logging"
)

// patterns caches compiled regular expressions by source text.
var patterns sync.Map

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}

// replaceAll replaces every occurrence of params["old"] with params["new"] ("" when absent).
func replaceAll(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	oldVal, ok := getStringParam(params, "old")
	if !ok || oldVal == "" {
		logging.Logf(logging.Warning, "replaceAll: missing or empty 'old' parameter; value left unchanged.")
		return value, nil
	}
	newVal, _ := getStringParam(params, "new")
	return strings.ReplaceAll(s, oldVal, newVal), nil
}

// substring returns up to params["length"] runes starting at rune params["start"].
func substring(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	start, startOK := getIntParam(params, "start")
	length, lengthOK := getIntParam(params, "length")
	if !startOK || !lengthOK {
		logging.Logf(logging.Warning, "substring: requires integer 'start' and 'length' parameters; value left unchanged.")
		return value, nil
	}

	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if length <= 0 || start >= len(runes) {
		return "", nil
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), nil
}

// regexExtract returns the first capture group of params["pattern"], or nil when it does not match.
func regexExtract(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, nil
	}
	pattern, _ := getStringParam(params, "pattern")
	if pattern == "" {
		logging.Logf(logging.Warning, "regexExtract: missing or empty 'pattern' parameter.")
		return nil, nil
	}
	re, err := compilePattern(pattern)
	if err != nil {
		logging.Logf(logging.Error, "regexExtract: invalid pattern '%s': %v", pattern, err)
		return nil, nil
	}
	if m := re.FindStringSubmatch(s); len(m) >= 2 {
		return m[1], nil
	}
	logging.Logf(logging.Debug, "regexExtract: pattern '%s' captured nothing in '%s'", pattern, s)
	return nil, nil
}
