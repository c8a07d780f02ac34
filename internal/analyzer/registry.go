package analyzer

import "fmt"

// NewMasker creates a masker based on the specified variant.
// An empty variant means masks are never derived.
func NewMasker(variant string) (Masker, error) {
	switch variant {
	case "":
		return nil, nil
	case "alpha":
		return NewAlphaMasker(), nil
	case "outline":
		return NewOutlineMasker(), nil
	default:
		return nil, fmt.Errorf("unknown auto_mask variant: %s", variant)
	}
}
