package analysis

import (
	"math"
	"regexp"
	"strings"

	"github.com/pixvault/pixvault/internal/model"
)

// confidenceDecimalPlaces is the scale labels' confidence scores are
// normalized to before storage.
const confidenceDecimalPlaces = 4

// labelNameStripRE matches every character removed from a label name:
// anything that is not alphanumeric, space or hyphen.
var labelNameStripRE = regexp.MustCompile(`[^a-zA-Z0-9 -]`)

// CleanLabels normalizes raw classifier output: lower-cased stripped names
// and confidence scores rounded to four decimal places. Idempotent.
func CleanLabels(labels []model.Label) []model.Label {
	cleaned := make([]model.Label, 0, len(labels))

	for _, l := range labels {
		l.Name = CleanLabelName(l.Name)
		l.Confidence = RoundConfidence(l.Confidence)
		cleaned = append(cleaned, l)
	}

	return cleaned
}

// CleanLabelName lower-cases the name and strips all characters outside
// alphanumerics, spaces and hyphens.
func CleanLabelName(name string) string {
	return labelNameStripRE.ReplaceAllString(strings.ToLower(name), "")
}

// RoundConfidence rounds to four decimal places, half to even, by scaling,
// rounding and unscaling.
func RoundConfidence(confidence float64) float64 {
	scale := math.Pow(10, confidenceDecimalPlaces)
	return math.RoundToEven(confidence*scale) / scale
}
