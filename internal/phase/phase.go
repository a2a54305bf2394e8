package phase

import "fmt"

// Phase selects which fixed transform is applied to an image.
type Phase string

const (
	// Arterial enhances contrast.
	Arterial Phase = "arterial"

	// Venous smooths the image.
	Venous Phase = "venous"
)

// Phases lists every recognized phase.
var Phases = []Phase{Arterial, Venous}

// Parse converts a phase selector into a Phase.
//
// Matching is exact and case-sensitive: "arterial" is accepted, "Arterial"
// and " arterial" are not.
func Parse(s string) (Phase, error) {
	switch Phase(s) {
	case Arterial, Venous:
		return Phase(s), nil
	case "":
		return "", fmt.Errorf("%w: phase is required, must be 'arterial' or 'venous'", ErrInvalidPhase)
	default:
		return "", fmt.Errorf("%w: %q, must be 'arterial' or 'venous'", ErrInvalidPhase, s)
	}
}

// Description is a short human-readable summary of the transform.
func (p Phase) Description() string {
	switch p {
	case Arterial:
		return "contrast enhancement (CLAHE on L*a*b* lightness)"
	case Venous:
		return "Gaussian smoothing (15x15 kernel)"
	default:
		return "unknown"
	}
}

// String returns the selector form of the phase, e.g. "arterial".
func (p Phase) String() string {
	return string(p)
}
