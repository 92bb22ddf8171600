package transform

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"csvrows/internal/logging"

	"github.com/Knetic/govaluate"
	"github.com/zeebo/xxh3"
)

// ExpressionValue adapts a cell for govaluate: numeric and boolean looking strings become
// float64 and bool so comparisons like "amount > 10" work.
func ExpressionValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(trimmed); err == nil {
		return b
	}
	return s
}

// ExpressionParams returns record with every value passed through ExpressionValue.
func ExpressionParams(record map[string]interface{}) map[string]interface{} {
	params := make(map[string]interface{}, len(record)+1)
	for k, v := range record {
		params[k] = ExpressionValue(v)
	}
	return params
}

// expressions caches parsed branch conditions.
var expressions sync.Map

func compileExpression(condition string) (*govaluate.EvaluableExpression, error) {
	if e, ok := expressions.Load(condition); ok {
		return e.(*govaluate.EvaluableExpression), nil
	}
	e, err := govaluate.NewEvaluableExpression(condition)
	if err != nil {
		return nil, err
	}
	expressions.Store(condition, e)
	return e, nil
}

// branch returns the value of the first params["branches"] entry whose condition holds.
// Conditions see the record's columns plus inputValue. With no match the input is returned.
func branch(value interface{}, record, params map[string]interface{}) (interface{}, error) {
	branches, ok := getListParam(params, "branches")
	if !ok {
		logging.Logf(logging.Warning, "branch: 'branches' is not a non-empty list; value left unchanged.")
		return value, nil
	}
	exprParams := ExpressionParams(record)
	exprParams["inputValue"] = ExpressionValue(value)

	for i, raw := range branches {
		b, ok := raw.(map[string]interface{})
		if !ok {
			logging.Logf(logging.Warning, "branch: entry %d is not a map; skipped.", i)
			continue
		}
		condition, _ := b["condition"].(string)
		result, hasValue := b["value"]
		if condition == "" || !hasValue {
			logging.Logf(logging.Warning, "branch: entry %d needs 'condition' and 'value'; skipped.", i)
			continue
		}
		expr, err := compileExpression(condition)
		if err != nil {
			logging.Logf(logging.Error, "branch: cannot parse condition '%s': %v", condition, err)
			continue
		}
		matched, err := expr.Evaluate(exprParams)
		if err != nil {
			logging.Logf(logging.Warning, "branch: condition '%s' failed: %v; skipped.", condition, err)
			continue
		}
		if m, ok := matched.(bool); ok && m {
			return result, nil
		}
	}
	return value, nil
}

// coalesce returns the first record value among params["fields"] that is neither nil nor "".
func coalesce(_ interface{}, record, params map[string]interface{}) (interface{}, error) {
	fields, err := getStringListParam(params, "fields")
	if err != nil {
		logging.Logf(logging.Warning, "coalesce: %v; returning nil", err)
		return nil, nil
	}
	for _, f := range fields {
		v, ok := record[f]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v, nil
	}
	return nil, nil
}

// CanonicalString renders a value the same way regardless of its Go representation,
// so it can be hashed or used as a key.
func CanonicalString(v interface{}) string {
	if v == nil {
		return "<NIL>"
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	default:
		return fmt.Sprintf("%#v", v)
	}
}

// hashers maps the supported hash algorithms to their digest functions.
var hashers = map[string]func([]byte) []byte{
	"sha256": func(b []byte) []byte { h := sha256.Sum256(b); return h[:] },
	"sha512": func(b []byte) []byte { h := sha512.Sum512(b); return h[:] },
	"md5":    func(b []byte) []byte { h := md5.Sum(b); return h[:] },
	"xxh3":   func(b []byte) []byte { return binary.BigEndian.AppendUint64(nil, xxh3.Hash(b)) },
}

func hashAlgorithms() []string {
	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hash digests the record values of params["fields"] (sorted by name, joined with "||",
// absent fields written as <MISSING>) with params["algorithm"] and returns lowercase hex.
func hash(_ interface{}, record, params map[string]interface{}) (interface{}, error) {
	algorithm, _ := getStringParam(params, "algorithm")
	digest, ok := hashers[strings.ToLower(algorithm)]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm '%s', must be one of %v", algorithm, hashAlgorithms())
	}
	fields, err := getStringListParam(params, "fields")
	if err != nil {
		return nil, err
	}
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)

	parts := make([]string, len(sorted))
	for i, f := range sorted {
		if v, found := record[f]; found {
			parts[i] = CanonicalString(v)
		} else {
			parts[i] = "<MISSING>"
		}
	}
	return hex.EncodeToString(digest([]byte(strings.Join(parts, "||")))), nil
}
