package ir

import (
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is a sealed interface representing attribute values in the replica.
// Only IRNull, IRString, IRInt, IRBool, IRArray, and IRObject implement this.
// NO IRFloat - numbers, dates and references are all stored as int64.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents the absence of a value.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string attribute value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer attribute value.
// Numbers, dates (unix milliseconds) and item references all use IRInt.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean. Attributes never store booleans; IRBool only
// appears inside structural keys.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// Kind names the storage class of a value: "int", "string", "null", "bool",
// "array" or "object".
func Kind(v IRValue) string {
	switch v.(type) {
	case IRInt:
		return "int"
	case IRString:
		return "string"
	case IRNull, nil:
		return "null"
	case IRBool:
		return "bool"
	case IRArray:
		return "array"
	case IRObject:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Compare orders two scalar values of the same kind.
// ok is false when the values are not both IRInt or both IRString;
// mixed kinds never compare.
func Compare(a, b IRValue) (c int, ok bool) {
	switch av := a.(type) {
	case IRInt:
		bv, isInt := b.(IRInt)
		if !isInt {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case IRString:
		bv, isString := b.(IRString)
		if !isString {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Equal reports whether two scalar values are identical in kind and content.
func Equal(a, b IRValue) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// SortValues sorts scalars deterministically: ints ascending, then strings
// ascending (byte order, matching SQLite BINARY collation).
func SortValues(values []IRValue) {
	slices.SortFunc(values, orderValues)
}

// CompactValues sorts values and drops duplicates.
func CompactValues(values []IRValue) []IRValue {
	out := slices.Clone(values)
	SortValues(out)
	return slices.CompactFunc(out, Equal)
}

func orderValues(a, b IRValue) int {
	if c, ok := Compare(a, b); ok {
		return c
	}
	return rank(a) - rank(b)
}

func rank(v IRValue) int {
	switch v.(type) {
	case IRNull:
		return 0
	case IRInt:
		return 1
	case IRString:
		return 2
	default:
		return 3
	}
}

// ToParam converts a scalar value to a database/sql parameter.
// Arrays and objects cannot be bound as a single parameter.
func ToParam(v IRValue) (any, error) {
	switch val := v.(type) {
	case IRString:
		return string(val), nil
	case IRInt:
		return int64(val), nil
	case IRBool:
		return bool(val), nil
	case IRNull:
		return nil, nil
	case IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}

// FromColumn converts a scanned SQLite column value into an IRValue.
func FromColumn(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case int64:
		return IRInt(val), nil
	case string:
		return IRString(val), nil
	case []byte:
		return IRString(string(val)), nil
	case float64:
		return nil, fmt.Errorf("floats are not attribute values: %v", val)
	default:
		return nil, fmt.Errorf("unsupported column type: %T", v)
	}
}

// FromAny converts decoded YAML/JSON data into an IRValue.
// Floats are rejected; nil becomes IRNull.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return IRInt(int64(val)), nil
	case bool:
		return IRBool(val), nil
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden: %v", val)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// Format renders a scalar for logs and CLI output.
func Format(v IRValue) string {
	switch val := v.(type) {
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRString:
		return strconv.Quote(string(val))
	case IRBool:
		return strconv.FormatBool(bool(val))
	case IRNull, nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
