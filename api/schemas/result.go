package schemas

// -- Canonical Result Schemas --

// NormalizedHit is one finding inside a category of the canonical result.
// Optional fields are pointers so that "absent in the payload" survives as nil
// instead of collapsing into the empty string.
type NormalizedHit struct {
	RuleID         *string  `json:"rule_id,omitempty"`
	Title          *string  `json:"title,omitempty"`
	Severity       Severity `json:"severity"`
	SeverityRank   int      `json:"severity_rank"`
	SeverityLabel  string   `json:"severity_label"`
	Evidence       *string  `json:"evidence,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Recommendation *string  `json:"recommendation,omitempty"`
}

// Category is a named, ordered list of hits. Order is exactly the order the
// service emitted; the normalizer never re-sorts.
type Category struct {
	Name string          `json:"name"`
	Hits []NormalizedHit `json:"hits"`
}

// AnalysisResult is the single canonical shape every consumer sees, regardless
// of which raw payload variant the service produced.
type AnalysisResult struct {
	SummaryText   *string        `json:"summary_text,omitempty"`
	SummaryCounts map[string]int `json:"summary_counts"`
	Categories    []Category     `json:"categories"`
}

// TotalHits returns the number of hits across all categories.
func (r *AnalysisResult) TotalHits() int {
	var n int
	for _, c := range r.Categories {
		n += len(c.Hits)
	}
	return n
}

// Empty reports whether the result carries neither hits nor a summary.
func (r *AnalysisResult) Empty() bool {
	return r.TotalHits() == 0 && r.SummaryText == nil && len(r.SummaryCounts) == 0
}
