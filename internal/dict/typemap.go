package dict

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/datadict/internal/schema"
)

var portableCodes = map[string]schema.PortableType{
	"C":  schema.Char,
	"X":  schema.Text,
	"XL": schema.LongText,
	"I":  schema.Int,
	"I2": schema.SmallInt,
	"I8": schema.BigInt,
	"T":  schema.Timestamp,
	"D":  schema.Date,
	"L":  schema.Boolean,
	"B":  schema.Blob,
	"R":  schema.Int,
}

var canonicalCodes = map[schema.PortableType]string{
	schema.Char:      "C",
	schema.Text:      "X",
	schema.LongText:  "XL",
	schema.Int:       "I",
	schema.SmallInt:  "I2",
	schema.BigInt:    "I8",
	schema.Timestamp: "T",
	schema.Date:      "D",
	schema.Boolean:   "L",
	schema.Blob:      "B",
}

// LookupCode resolves a portable type code such as "C" or "I8"
func LookupCode(code string) (schema.PortableType, error) {
	t, ok := portableCodes[strings.ToUpper(code)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPortableType, code)
	}
	return t, nil
}

// MapPortableType returns the native column type for a portable code
func MapPortableType(code string, d *Dialect) (string, error) {
	native, ok := d.types[strings.ToUpper(code)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPortableType, code)
	}
	return native, nil
}

// MapType is MapPortableType bound to the dialect
func (d *Dialect) MapType(code string) (string, error) {
	return MapPortableType(code, d)
}

// NativeType renders the full column type of f, size suffix included
func (d *Dialect) NativeType(f schema.FieldDescriptor) (string, error) {
	code := f.Code
	if code == "" {
		c, ok := canonicalCodes[f.Type]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownPortableType, f.Type)
		}
		code = c
	}

	native, err := d.MapType(code)
	if err != nil {
		return "", err
	}

	if f.AutoIncrement {
		if s, ok := d.serial[f.Type]; ok {
			return s, nil
		}
		if d.inlineAuto {
			return "INTEGER", nil
		}
	}

	if f.Size != nil && !f.Type.IsLarge() && !strings.Contains(native, "(") {
		suffix := strconv.Itoa(*f.Size)
		if f.Precision != nil {
			suffix += "," + strconv.Itoa(*f.Precision)
		}
		native += "(" + suffix + ")"
	}
	return native, nil
}
