package barcode

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		value   string
		wantMsg string
	}{
		{"code128 ok", TypeCode128, "HELLO-12345", ""},
		{"code128 empty", TypeCode128, "", "Value required for CODE128"},
		{"code39 ok", TypeCode39, "ABC-123 $/%+.", ""},
		{"code39 empty", TypeCode39, "", "Value required for CODE39"},
		{"code39 lowercase", TypeCode39, "abc", "CODE39 allows A-Z, 0-9, space, - . $ / % +"},
		{"ean13 twelve digits", TypeEAN13, "400638133393", ""},
		{"ean13 valid check", TypeEAN13, "4006381333931", ""},
		{"ean13 bad check", TypeEAN13, "4006381333932", "Invalid EAN-13 check digit"},
		{"ean13 letters", TypeEAN13, "40063813339A", "EAN-13 must be digits only"},
		{"ean13 short", TypeEAN13, "12345", "EAN-13 must be 12 or 13 digits"},
		{"upc eleven digits", TypeUPC, "03600029145", ""},
		{"upc valid check", TypeUPC, "036000291452", ""},
		{"upc bad check", TypeUPC, "036000291453", "Invalid UPC-A check digit"},
		{"upc empty", TypeUPC, "", "UPC-A must be digits only"},
		{"upc long", TypeUPC, "0360002914521", "UPC-A must be 11 or 12 digits"},
		{"itf ok", TypeITF, "1234", ""},
		{"itf odd", TypeITF, "123", "ITF requires an even number of digits"},
		{"itf letters", TypeITF, "12a4", "ITF must be digits only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.typ, tt.value)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", ve.Message, tt.wantMsg)
			}
			if !errors.Is(err, ErrInvalidValue) {
				t.Error("should match ErrInvalidValue")
			}
		})
	}
}

func TestValidateUnknownType(t *testing.T) {
	if err := Validate("QR", "x"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("got %v, want ErrUnknownType", err)
	}
}

func TestCheckDigits(t *testing.T) {
	if got := EAN13CheckDigit("400638133393"); got != 1 {
		t.Errorf("EAN13CheckDigit = %d, want 1", got)
	}
	if got := EAN13CheckDigit("590123412345"); got != 7 {
		t.Errorf("EAN13CheckDigit = %d, want 7", got)
	}
	if got := UPCCheckDigit("03600029145"); got != 2 {
		t.Errorf("UPCCheckDigit = %d, want 2", got)
	}
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{
		"CODE128": TypeCode128,
		"code39":  TypeCode39,
		"ean-13":  TypeEAN13,
		"upc-a":   TypeUPC,
		" itf ":   TypeITF,
	}
	for in, want := range tests {
		got, err := ParseType(in)
		if err != nil || got != want {
			t.Errorf("ParseType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseType("qr"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ParseType(qr) = %v, want ErrUnknownType", err)
	}
}

func TestStateValidate(t *testing.T) {
	s := State{Type: TypeCode128, Value: "X", Options: DefaultOptions()}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if s.Options.BarHeight != 80 || !s.Options.DisplayValue {
		t.Errorf("unexpected default options %+v", s.Options)
	}
}
