package risk

// Severity classifies a composite risk score into one of five ordered
// levels. The zero value is the lowest level.
type Severity int

const (
	SeverityVeryLow Severity = iota
	SeverityLow
	SeverityModerate
	SeverityHigh
	SeverityVeryHigh

	severityLevels = 5
)

// Score boundaries between severity levels. Each constant is the lower
// inclusive bound of the level it names.
const (
	severityLowMin      = 0.2
	severityModerateMin = 0.4
	severityHighMin     = 0.6
	severityVeryHighMin = 0.8
)

// ClassifySeverity maps a composite risk score to its severity level.
// Scores below 0.2 are very low; each band spans 0.2 and the top band
// is open above so saturated scores stay very high.
func ClassifySeverity(score float64) Severity {
	switch {
	case score < severityLowMin:
		return SeverityVeryLow
	case score < severityModerateMin:
		return SeverityLow
	case score < severityHighMin:
		return SeverityModerate
	case score < severityVeryHighMin:
		return SeverityHigh
	default:
		return SeverityVeryHigh
	}
}

// String returns the wire name of the level.
func (s Severity) String() string {
	switch s {
	case SeverityVeryLow:
		return "VERY_LOW"
	case SeverityLow:
		return "LOW"
	case SeverityModerate:
		return "MODERATE"
	case SeverityHigh:
		return "HIGH"
	case SeverityVeryHigh:
		return "VERY_HIGH"
	default:
		return "UNKNOWN"
	}
}

// Level returns the numeric rank, 0 (very low) through 4 (very high).
func (s Severity) Level() int {
	return int(s)
}
