package confschema

import (
	"errors"
	"math"
	"testing"
)

func TestValue_Coerce(t *testing.T) {
	tests := []struct {
		name    string
		base    Value
		text    string
		want    Value
		wantErr bool
	}{
		{"bool exact true", BoolValue(false), "true", BoolValue(true), false},
		{"bool trimmed true", BoolValue(false), " true ", BoolValue(true), false},
		{"bool yes is false", BoolValue(true), "yes", BoolValue(false), false},
		{"bool TRUE is false", BoolValue(true), "TRUE", BoolValue(false), false},
		{"bool empty is false", BoolValue(true), "", BoolValue(false), false},
		{"int", IntValue(0), "3000", IntValue(3000), false},
		{"int negative", IntValue(0), "-1", IntValue(-1), false},
		{"int trimmed", IntValue(0), " 42 ", IntValue(42), false},
		{"int max", IntValue(0), "9223372036854775807", IntValue(math.MaxInt64), false},
		{"int overflow", IntValue(7), "9223372036854775808", IntValue(7), true},
		{"int garbage", IntValue(7), "fast", IntValue(7), true},
		{"int hex text", IntValue(7), "0x10", IntValue(7), true},
		{"double", DoubleValue(0), "1.5", DoubleValue(1.5), false},
		{"double int text", DoubleValue(0), "2", DoubleValue(2), false},
		{"double garbage", DoubleValue(1), "x", DoubleValue(1), true},
		{"string verbatim", StringValue(""), "  spaced  ", StringValue("  spaced  "), false},
		{"path verbatim", PathValue(""), "C:\\DOS", PathValue("C:\\DOS"), false},
		{"hex not parsed", HexValue("220"), "zz", HexValue("zz"), false},
		{"null", NullValue(), "anything", NullValue(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.base.Coerce(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if got.Kind() != tt.base.Kind() {
				t.Errorf("Coerce(%q) changed kind %s -> %s", tt.text, tt.base.Kind(), got.Kind())
			}
			if !got.Equal(tt.want) {
				t.Errorf("Coerce(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestValue_CoerceNullError(t *testing.T) {
	_, err := NullValue().Coerce("1")
	if !errors.Is(err, errNullValue) {
		t.Errorf("Coerce on Null error = %v, want errNullValue", err)
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NullValue(), ""},
		{PathValue("a/b"), "a/b"},
		{StringValue("auto"), "auto"},
		{HexValue("220"), "220"},
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
		{IntValue(-5), "-5"},
		{DoubleValue(1.5), "1.5"},
		{DoubleValue(1), "1"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%s value String() = %q, want %q", tt.v.Kind(), got, tt.want)
		}
	}
}

func TestValue_Accessors(t *testing.T) {
	if s, ok := StringValue("x").Text(); !ok || s != "x" {
		t.Errorf("Text() = %q, %v", s, ok)
	}
	if _, ok := IntValue(1).Text(); ok {
		t.Error("Text() on Int should report false")
	}
	if b, ok := BoolValue(true).Bool(); !ok || !b {
		t.Errorf("Bool() = %v, %v", b, ok)
	}
	if i, ok := IntValue(9).Int(); !ok || i != 9 {
		t.Errorf("Int() = %d, %v", i, ok)
	}
	if _, ok := DoubleValue(1).Int(); ok {
		t.Error("Int() on Double should report false")
	}
	if f, ok := DoubleValue(2.5).Double(); !ok || f != 2.5 {
		t.Errorf("Double() = %g, %v", f, ok)
	}
	if !NullValue().IsNull() || (Value{}).Kind() != KindNull {
		t.Error("zero Value should be Null")
	}
}

func TestValue_Interface(t *testing.T) {
	tests := []struct {
		v    Value
		want any
	}{
		{NullValue(), nil},
		{StringValue("s"), "s"},
		{HexValue("220"), "220"},
		{BoolValue(true), true},
		{IntValue(3), int64(3)},
		{DoubleValue(0.5), 0.5},
	}

	for _, tt := range tests {
		if got := tt.v.Interface(); got != tt.want {
			t.Errorf("%s Interface() = %#v, want %#v", tt.v.Kind(), got, tt.want)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	if StringValue("1").Equal(IntValue(1)) {
		t.Error("values of different kinds must not be equal")
	}
	if PathValue("a").Equal(StringValue("a")) {
		t.Error("Path and String must not be equal")
	}
	if !IntValue(1).Equal(IntValue(1)) {
		t.Error("equal ints reported unequal")
	}
}

func TestKind_String(t *testing.T) {
	if KindHex.String() != "hex" || KindDouble.String() != "double" {
		t.Errorf("unexpected kind names %q %q", KindHex, KindDouble)
	}
	if got := Kind(42).String(); got != "kind(42)" {
		t.Errorf("Kind(42).String() = %q", got)
	}
}
