package domain

import (
	"fmt"
	"strings"
)

// AspectRatio enumerates the frame ratios the service can deliver.
type AspectRatio string

const (
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio16x9 AspectRatio = "16:9"

	DefaultAspectRatio = AspectRatio4x3
)

// Dimensions returns the fixed pixel size every normalized image must have
// for the ratio. Every supported ratio maps to exactly one size.
func (a AspectRatio) Dimensions() (width, height int) {
	switch a {
	case AspectRatio16x9:
		return 1920, 1080
	default:
		return 1600, 1200
	}
}

// Ratio returns width/height as a float for tolerance comparisons.
func (a AspectRatio) Ratio() float64 {
	w, h := a.Dimensions()
	return float64(w) / float64(h)
}

// ParseAspectRatio validates free-form input into a supported ratio.
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(s)) {
	case AspectRatio4x3:
		return AspectRatio4x3, nil
	case AspectRatio16x9:
		return AspectRatio16x9, nil
	default:
		return "", fmt.Errorf("%w: unsupported aspect ratio %q", ErrBadRequest, s)
	}
}
