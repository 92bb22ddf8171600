package transform

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// CompareValues orders a and b, returning -1, 0 or 1. nil sorts first. Values that both
// read as numbers compare numerically (so "10" > "9"); otherwise strings, times and bools
// compare within their own type and anything else is only compared for equality.
func CompareValues(a, b interface{}) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	af, aNum := parseValueAsFloat64(a)
	bf, bNum := parseValueAsFloat64(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return 0, fmt.Errorf("type mismatch: cannot compare %T with %T", a, b)
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string)), nil
	case time.Time:
		return av.Compare(b.(time.Time)), nil
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0, nil
		case av:
			return 1, nil
		}
		return -1, nil
	}
	if reflect.DeepEqual(a, b) {
		return 0, nil
	}
	return 0, fmt.Errorf("values of type %T have no ordering", a)
}
