package transform

import (
	"fmt"
	"math"
	"time"

	"csvrows/internal/logging"
)

// nowFunc is the clock used by calculateAge.
var nowFunc = time.Now

// dateFallbacks are tried when dateConvert has no inputFormat and RFC 3339 does not parse.
var dateFallbacks = []string{
	"2006-01-02", "2006/01/02", "01/02/2006", "2006-01-02 15:04:05",
	time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, "01-02-06", "20060102",
}

// convertDate parses value with params["inputFormat"] (or RFC 3339 and the fallbacks)
// and formats it with params["outputFormat"] (default RFC 3339).
func convertDate(value interface{}, params map[string]interface{}) (string, error) {
	outputFormat, _ := getStringParam(params, "outputFormat")
	if outputFormat == "" {
		outputFormat = time.RFC3339
	}
	switch v := value.(type) {
	case time.Time:
		return v.Format(outputFormat), nil
	case string:
		inputFormat, _ := getStringParam(params, "inputFormat")
		if inputFormat != "" {
			t, err := time.Parse(inputFormat, v)
			if err != nil {
				return "", fmt.Errorf("cannot parse '%s' with format '%s': %w", v, inputFormat, err)
			}
			return t.Format(outputFormat), nil
		}
		for _, layout := range append([]string{time.RFC3339}, dateFallbacks...) {
			if t, err := time.Parse(layout, v); err == nil {
				return t.Format(outputFormat), nil
			}
		}
		return "", fmt.Errorf("cannot parse '%s' with RFC 3339 or the common fallback formats", v)
	default:
		return "", fmt.Errorf("value of type %T is not a date", value)
	}
}

// dateConvert reformats a date; values that do not parse are returned unchanged.
func dateConvert(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	if isBlank(value) {
		return value, nil
	}
	out, err := convertDate(value, params)
	if err != nil {
		logging.Logf(logging.Warning, "dateConvert: %v; value left unchanged", err)
		return value, nil
	}
	return out, nil
}

func mustDateConvert(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	return convertDate(value, params)
}

// multiDateConvert tries each of params["formats"] in order and formats the first match
// with params["outputFormat"]; unparseable values are returned unchanged.
func multiDateConvert(value interface{}, _, params map[string]interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok || isBlank(value) {
		return value, nil
	}
	formats, err := getStringListParam(params, "formats")
	outputFormat, _ := getStringParam(params, "outputFormat")
	if err != nil || outputFormat == "" {
		logging.Logf(logging.Warning, "multiDateConvert: requires a non-empty 'formats' list and 'outputFormat'; value left unchanged.")
		return value, nil
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(outputFormat), nil
		}
	}
	logging.Logf(logging.Warning, "multiDateConvert: '%s' matched none of %v; value left unchanged", s, formats)
	return value, nil
}

// parseEpoch reads whole Unix seconds from a number or numeric string.
func parseEpoch(value interface{}) (int64, bool) {
	f, ok := parseValueAsFloat64(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// epochToDate renders Unix seconds as a UTC YYYY-MM-DD date.
func epochToDate(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	if isBlank(value) {
		return value, nil
	}
	epoch, ok := parseEpoch(value)
	if !ok {
		logging.Logf(logging.Warning, "epochToDate: '%v' (type %T) is not epoch seconds; value left unchanged", value, value)
		return value, nil
	}
	return time.Unix(epoch, 0).UTC().Format("2006-01-02"), nil
}

func mustEpochToDate(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	epoch, ok := parseEpoch(value)
	if !ok {
		return nil, fmt.Errorf("'%v' (type %T) is not epoch seconds", value, value)
	}
	return time.Unix(epoch, 0).UTC().Format("2006-01-02"), nil
}

// calculateAge returns the whole UTC calendar days between the epoch value and today.
// Future timestamps yield 0.
func calculateAge(value interface{}, _, _ map[string]interface{}) (interface{}, error) {
	epoch, ok := parseEpoch(value)
	if !ok {
		if !isBlank(value) {
			logging.Logf(logging.Warning, "calculateAge: '%v' (type %T) is not epoch seconds; returning nil", value, value)
		}
		return nil, nil
	}
	now := nowFunc().UTC()
	if epoch > now.Unix() {
		return 0, nil
	}
	born := time.Unix(epoch, 0).UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	birthday := time.Date(born.Year(), born.Month(), born.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(birthday).Hours() / 24), nil
}
