package barcode

import (
	"errors"
	"regexp"
)

// Errors returned by validation.
var (
	// ErrUnknownType is returned for an unsupported symbology.
	ErrUnknownType = errors.New("unknown barcode type")

	// ErrInvalidValue marks every ValidationError.
	ErrInvalidValue = errors.New("invalid barcode value")
)

// ValidationError describes why a value is not acceptable for a symbology.
// Message is suitable for display next to the input field.
type ValidationError struct {
	Type    Type
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Type) + ": " + e.Message
}

// Is matches ErrInvalidValue.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidValue
}

var (
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
	code39Re = regexp.MustCompile(`^[0-9A-Z \-.$/%+]+$`)
)

// Validate checks value against the rules of symbology t.
//
// EAN-13 accepts 12 digits (the renderer computes the check digit) or 13
// digits with a correct check digit; UPC-A likewise accepts 11 or 12.
func Validate(t Type, value string) error {
	invalid := func(msg string) error {
		return &ValidationError{Type: t, Message: msg}
	}

	switch t {
	case TypeCode128:
		if value == "" {
			return invalid("Value required for CODE128")
		}

	case TypeCode39:
		if value == "" {
			return invalid("Value required for CODE39")
		}
		if !code39Re.MatchString(value) {
			return invalid("CODE39 allows A-Z, 0-9, space, - . $ / % +")
		}

	case TypeEAN13:
		if !digitsRe.MatchString(value) {
			return invalid("EAN-13 must be digits only")
		}
		switch len(value) {
		case 12:
		case 13:
			if EAN13CheckDigit(value[:12]) != int(value[12]-'0') {
				return invalid("Invalid EAN-13 check digit")
			}
		default:
			return invalid("EAN-13 must be 12 or 13 digits")
		}

	case TypeUPC:
		if !digitsRe.MatchString(value) {
			return invalid("UPC-A must be digits only")
		}
		switch len(value) {
		case 11:
		case 12:
			if UPCCheckDigit(value[:11]) != int(value[11]-'0') {
				return invalid("Invalid UPC-A check digit")
			}
		default:
			return invalid("UPC-A must be 11 or 12 digits")
		}

	case TypeITF:
		if !digitsRe.MatchString(value) {
			return invalid("ITF must be digits only")
		}
		if len(value) < 2 || len(value)%2 != 0 {
			return invalid("ITF requires an even number of digits")
		}

	default:
		return ErrUnknownType
	}
	return nil
}

// EAN13CheckDigit computes the check digit for the first 12 digits of an
// EAN-13 code. Digits at even positions weigh 1, odd positions weigh 3.
func EAN13CheckDigit(code12 string) int {
	sum := 0
	for i := 0; i < 12 && i < len(code12); i++ {
		d := int(code12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// UPCCheckDigit computes the check digit for the first 11 digits of a UPC-A
// code. Digits at even positions weigh 3, odd positions weigh 1.
func UPCCheckDigit(code11 string) int {
	sum := 0
	for i := 0; i < 11 && i < len(code11); i++ {
		d := int(code11[i] - '0')
		if i%2 == 0 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}
