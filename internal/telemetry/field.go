package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	FieldSeparator = ";"
	ValueSeparator = ","

	minTokenChars = 2
)

// Value is one decoded number paired with its unit label.
type Value struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// Field is one decoded token. Values follow the unit order of the catalog.
type Field struct {
	Code   Code    `json:"code"`
	Name   string  `json:"name"`
	Raw    string  `json:"raw"`
	Values []Value `json:"values"`
}

// IsPosition reports whether the field carries the position code, ignoring case.
func (f Field) IsPosition() bool {
	return strings.EqualFold(string(f.Code), string(CodePosition))
}

// String renders "Name = v (unit), v (unit)".
func (f Field) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString(" = ")
	for i, v := range f.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatValue(v.Value))
		b.WriteString(" (")
		b.WriteString(v.Unit)
		b.WriteString(")")
	}
	return b.String()
}

// FormatValue prints integral values with a trailing ".0" so that 123 and
// 123.0 render the same way the device tooling shows them.
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Decoder turns payload strings into fields using a catalog.
type Decoder struct {
	catalog *Catalog
}

// NewDecoder returns a decoder bound to catalog, or to DefaultCatalog when nil.
func NewDecoder(catalog *Catalog) *Decoder {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Decoder{catalog: catalog}
}

func (d *Decoder) Catalog() *Catalog { return d.catalog }

// DecodeAll splits payload on ';' and decodes every token in order.
func (d *Decoder) DecodeAll(payload string) ([]Field, error) {
	tokens := splitTrailing(payload, FieldSeparator)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no tokens separated by %q", ErrEmptyPayload, FieldSeparator)
	}
	fields := make([]Field, 0, len(tokens))
	for i, tok := range tokens {
		f, err := d.DecodeOne(tok)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// DecodeOne decodes "<code><v>,<v>,...".
func (d *Decoder) DecodeOne(token string) (Field, error) {
	if utf8.RuneCountInString(token) < minTokenChars {
		return Field{}, fmt.Errorf("%w: token %q shorter than %d chars", ErrMalformedValue, token, minTokenChars)
	}
	_, size := utf8.DecodeRuneInString(token)
	code := Code(token[:size])
	raw := token[size:]

	ft, err := d.catalog.Lookup(code)
	if err != nil {
		return Field{}, err
	}

	parts := splitTrailing(raw, ValueSeparator)
	nums := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Field{}, fmt.Errorf("%w: type %s value %q", ErrMalformedValue, code, p)
		}
		nums = append(nums, v)
	}
	if len(nums) != ft.Arity() {
		return Field{}, fmt.Errorf("%w: type %s got %d values, expected %d %v",
			ErrArityMismatch, code, len(nums), ft.Arity(), ft.Units)
	}

	values := make([]Value, len(nums))
	for i, v := range nums {
		values[i] = Value{Unit: ft.Units[i], Value: v}
	}
	return Field{Code: code, Name: ft.Name, Raw: raw, Values: values}, nil
}

// splitTrailing splits s on sep and drops trailing empty elements, so "a;b;"
// yields two tokens and "" yields none.
func splitTrailing(s, sep string) []string {
	parts := strings.Split(s, sep)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
