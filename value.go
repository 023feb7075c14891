package confschema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant of the Value union is populated.
type Kind int

// Value kinds. The zero Kind is KindNull.
const (
	KindNull   Kind = iota // no usable type; ignores writes
	KindPath               // file system path, kept verbatim
	KindString             // free text, kept verbatim
	KindHex                // hexadecimal digits, kept verbatim
	KindBool               // true only for the literal "true"
	KindInt                // 64-bit signed integer
	KindDouble             // 64-bit float
)

var kindNames = [...]string{
	KindNull:   "null",
	KindPath:   "path",
	KindString: "string",
	KindHex:    "hex",
	KindBool:   "bool",
	KindInt:    "int",
	KindDouble: "double",
}

// String returns the schema type name of k.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// errNullValue is returned by Coerce for KindNull values, which have no payload to replace.
var errNullValue = errors.New("confschema: property has no usable type")

// Value is a typed property value. Exactly one payload is meaningful, selected by Kind.
// The zero Value is Null.
type Value struct {
	kind Kind
	text string
	flag bool
	num  int64
	dbl  float64
}

// NullValue returns the Null value.
func NullValue() Value { return Value{} }

// PathValue returns a Path value holding p.
func PathValue(p string) Value { return Value{kind: KindPath, text: p} }

// StringValue returns a String value holding s.
func StringValue(s string) Value { return Value{kind: KindString, text: s} }

// HexValue returns a Hex value. The literal is kept as text and never parsed.
func HexValue(h string) Value { return Value{kind: KindHex, text: h} }

// BoolValue returns a Bool value.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// IntValue returns an Int value.
func IntValue(i int64) Value { return Value{kind: KindInt, num: i} }

// DoubleValue returns a Double value.
func DoubleValue(f float64) Value { return Value{kind: KindDouble, dbl: f} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the payload of a Path, String or Hex value.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindPath, KindString, KindHex:
		return v.text, true
	default:
		return "", false
	}
}

// Bool returns the payload of a Bool value.
func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Int returns the payload of an Int value.
func (v Value) Int() (int64, bool) {
	return v.num, v.kind == KindInt
}

// Double returns the payload of a Double value.
func (v Value) Double() (float64, bool) {
	return v.dbl, v.kind == KindDouble
}

// String renders the value the way it is written in a config file.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindPath, KindString, KindHex:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindDouble:
		return strconv.FormatFloat(v.dbl, 'g', -1, 64)
	default:
		return ""
	}
}

// Interface returns the payload as a plain Go value (nil, string, bool, int64 or float64).
func (v Value) Interface() any {
	switch v.kind {
	case KindPath, KindString, KindHex:
		return v.text
	case KindBool:
		return v.flag
	case KindInt:
		return v.num
	case KindDouble:
		return v.dbl
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindPath, KindString, KindHex:
		return v.text == o.text
	case KindBool:
		return v.flag == o.flag
	case KindInt:
		return v.num == o.num
	case KindDouble:
		return v.dbl == o.dbl
	default:
		return false
	}
}

// Coerce parses text into a new Value of the same kind as v. The kind never changes.
//
// Bool accepts only the literal "true" as true; any other text is false and never an error.
// Int and Double are parsed after trimming surrounding blanks. Path, String and Hex keep
// text verbatim. Null cannot hold a payload and always returns an error.
func (v Value) Coerce(text string) (Value, error) {
	switch v.kind {
	case KindNull:
		return v, errNullValue
	case KindPath, KindString, KindHex:
		return Value{kind: v.kind, text: text}, nil
	case KindBool:
		return BoolValue(strings.TrimSpace(text) == "true"), nil
	case KindInt:
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return v, fmt.Errorf("cannot parse %q as int: %w", text, err)
		}
		return IntValue(i), nil
	case KindDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return v, fmt.Errorf("cannot parse %q as double: %w", text, err)
		}
		return DoubleValue(f), nil
	default:
		return v, fmt.Errorf("confschema: unsupported value kind %s", v.kind)
	}
}
