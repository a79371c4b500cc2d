// Package barcode models the barcode metadata carried by image objects on
// the canvas and validates values per symbology.
//
// Encoding a value into bars is left to an external renderer; this package
// only decides whether a value is acceptable for the chosen symbology.
package barcode

import (
	"fmt"
	"strings"
)

// Type is a barcode symbology.
type Type string

// Supported symbologies.
const (
	TypeCode128 Type = "CODE128"
	TypeCode39  Type = "CODE39"
	TypeEAN13   Type = "EAN13"
	TypeUPC     Type = "UPC"
	TypeITF     Type = "ITF"
)

// Types lists the supported symbologies in display order.
var Types = []Type{TypeCode128, TypeCode39, TypeEAN13, TypeUPC, TypeITF}

// ParseType parses a symbology name, ignoring case and dashes
// ("ean-13" and "EAN13" are the same type).
func ParseType(s string) (Type, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	if norm == "UPCA" {
		norm = string(TypeUPC)
	}
	for _, t := range Types {
		if string(t) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Options controls how a barcode is drawn.
type Options struct {
	// BarWidth is the stroke thickness of a single bar.
	BarWidth float64 `json:"barWidth" yaml:"barWidth" toml:"barWidth"`

	// BarHeight is the height of the bars.
	BarHeight float64 `json:"barHeight" yaml:"barHeight" toml:"barHeight"`

	// DisplayValue shows the human-readable value under the bars.
	DisplayValue bool `json:"displayValue" yaml:"displayValue" toml:"displayValue"`

	// FontSize is the size of the human-readable text.
	FontSize float64 `json:"fontSize" yaml:"fontSize" toml:"fontSize"`
}

// DefaultOptions returns the options used for new barcodes.
func DefaultOptions() Options {
	return Options{
		BarWidth:     2,
		BarHeight:    80,
		DisplayValue: true,
		FontSize:     14,
	}
}

// State is the barcode metadata attached to an image object.
type State struct {
	Type    Type    `json:"type" yaml:"type"`
	Value   string  `json:"value" yaml:"value"`
	Options Options `json:"options" yaml:"options"`
}

// Validate checks the value against the state's symbology.
func (s State) Validate() error {
	return Validate(s.Type, s.Value)
}

// Mode selects what adding a barcode does to the current selection.
type Mode string

const (
	// ModeInsert adds a new barcode image.
	ModeInsert Mode = "insert"

	// ModeReplace swaps the selected barcode image for the new one.
	ModeReplace Mode = "replace"
)
