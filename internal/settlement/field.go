package settlement

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Field is a raw numeric input exactly as it was entered. The empty value
// means the field was not supplied.
type Field string

// FieldOf renders a decimal as a Field.
func FieldOf(d decimal.Decimal) Field {
	return Field(d.String())
}

// UnmarshalJSON accepts JSON numbers, strings and null. Numbers keep their
// literal text so no binary floating point is involved.
func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Field(s)
		return nil
	}
	*f = Field(b)
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

// IsMissing reports whether no value was supplied.
func (f Field) IsMissing() bool {
	return strings.TrimSpace(string(f)) == ""
}

// parse returns zero for missing input and an InvalidFieldError for
// anything that is not a plain decimal literal.
func (f Field) parse(name string, nonNegative bool) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &InvalidFieldError{Field: name, Value: string(f), Reason: "not a number"}
	}
	if nonNegative && d.IsNegative() {
		return decimal.Zero, &InvalidFieldError{Field: name, Value: string(f), Reason: "must not be negative"}
	}
	return d, nil
}
