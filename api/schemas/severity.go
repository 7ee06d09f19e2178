package schemas

// -- Severity Schemas --

// Severity represents the severity level of an analysis hit, ranging from
// critical to low. The values are lowercase to align with the service's wire
// format.
type Severity string

// Constants defining the standard severity levels reported by the service.
const (
	SeverityCritical Severity = "critical" // Will sink the bid outright.
	SeverityHigh     Severity = "high"     // Major impact on bid viability.
	SeverityMedium   Severity = "medium"   // Needs attention before submission.
	SeverityLow      Severity = "low"      // Minor or informational.
)

// Ranks for the known severity codes. Higher means more severe.
const (
	rankLow = iota + 1
	rankMedium
	rankHigh
	rankCritical
)

// Classification pairs a display-independent rank with a human-readable label.
// Rendering layers order hits by Rank and print Label; they never interpret
// the raw code themselves.
type Classification struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
}

// Classify maps a severity code onto its fixed rank and label. It is total:
// any code outside the four known values is echoed back verbatim as the label
// and takes medium's rank, so an unrecognized code from a newer service
// version degrades gracefully instead of failing.
func Classify(code Severity) Classification {
	switch code {
	case SeverityCritical:
		return Classification{Rank: rankCritical, Label: "严重"}
	case SeverityHigh:
		return Classification{Rank: rankHigh, Label: "高"}
	case SeverityMedium:
		return Classification{Rank: rankMedium, Label: "中"}
	case SeverityLow:
		return Classification{Rank: rankLow, Label: "低"}
	default:
		return Classification{Rank: rankMedium, Label: string(code)}
	}
}
