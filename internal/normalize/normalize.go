// File: internal/normalize/normalize.go
// Description: Converts the service's heterogeneous raw result payloads into
// the single canonical AnalysisResult shape. Normalization is a pure function
// of its inputs: same payload and lookup always yield the same result, and no
// input, however malformed, produces an error.

package normalize

import (
	"encoding/json"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// RuleInfo carries rule-catalog metadata used to enrich hits that arrive
// without their own description or advice.
type RuleInfo struct {
	Category    string
	Description string
	Advice      string
}

// Lookup maps rule ids to catalog metadata. A nil Lookup is valid and simply
// disables enrichment; the table is passed in explicitly so normalization
// never depends on ambient state or initialization order.
type Lookup map[string]RuleInfo

// rawHit mirrors the service's per-hit wire shape. The rules-engine path
// emits snippet/advice while the LLM path emits description/recommendation;
// both spellings are accepted.
type rawHit struct {
	RuleID         *string `json:"rule_id"`
	Title          *string `json:"title"`
	Severity       string  `json:"severity"`
	Snippet        *string `json:"snippet"`
	Evidence       *string `json:"evidence"`
	Description    *string `json:"description"`
	Advice         *string `json:"advice"`
	Recommendation *string `json:"recommendation"`
}

// Normalize converts a raw result payload into the canonical model. It
// detects which of the known payload shapes was used, preserves category and
// hit order exactly as emitted, and defaults every missing field to nil or an
// empty collection rather than failing. Unknown top-level fields are ignored.
func Normalize(raw []byte, lookup Lookup) *schemas.AnalysisResult {
	res := &schemas.AnalysisResult{
		SummaryCounts: map[string]int{},
		Categories:    []schemas.Category{},
	}
	if len(raw) == 0 {
		return res
	}

	var root map[string]json.RawMessage
	if err := jsonAPI.Unmarshal(raw, &root); err != nil || root == nil {
		return res
	}

	if cats, ok := root["categories"]; ok {
		normalizeCategoryHits(res, cats, root["summary"], lookup)
		return res
	}
	if hasSectionKeys(root) {
		normalizeSections(res, root)
		return res
	}
	return res
}

// normalizeCategoryHits handles the rules-engine shape:
//
//	{"summary": {"cat": n}, "categories": {"cat": [hit, ...]}}
//
// Category order must survive normalization, so the categories object is
// walked with a jsoniter iterator instead of being decoded into a Go map.
func normalizeCategoryHits(res *schemas.AnalysisResult, cats, summary json.RawMessage, lookup Lookup) {
	iter := jsoniter.ParseBytes(jsonAPI, cats)
	iter.ReadMapCB(func(it *jsoniter.Iterator, name string) bool {
		value := it.SkipAndReturnBytes()
		res.Categories = append(res.Categories, schemas.Category{
			Name: name,
			Hits: decodeHits(value, lookup),
		})
		return true
	})

	if len(summary) == 0 {
		return
	}
	var counts map[string]int
	if err := jsonAPI.Unmarshal(summary, &counts); err == nil {
		for cat, n := range counts {
			res.SummaryCounts[cat] = n
		}
		return
	}
	// Some responses carry a free-text summary even alongside categories.
	var text string
	if err := jsonAPI.Unmarshal(summary, &text); err == nil && text != "" {
		res.SummaryText = &text
	}
}

// decodeHits converts one category's raw hit array, preserving item order.
// Elements that cannot be decoded are dropped rather than aborting the whole
// category.
func decodeHits(value []byte, lookup Lookup) []schemas.NormalizedHit {
	hits := []schemas.NormalizedHit{}
	var items []json.RawMessage
	if err := jsonAPI.Unmarshal(value, &items); err != nil {
		return hits
	}
	for _, item := range items {
		var rh rawHit
		if err := jsonAPI.Unmarshal(item, &rh); err != nil {
			continue
		}
		hit := buildHit(rh.Severity, rh.Title, firstOf(rh.Description, rh.Snippet), rh.Evidence, firstOf(rh.Recommendation, rh.Advice))
		hit.RuleID = rh.RuleID
		enrich(&hit, lookup)
		hits = append(hits, hit)
	}
	return hits
}

// enrich fills description/recommendation from the rule catalog when the hit
// itself arrived without them.
func enrich(hit *schemas.NormalizedHit, lookup Lookup) {
	if lookup == nil || hit.RuleID == nil {
		return
	}
	info, ok := lookup[*hit.RuleID]
	if !ok {
		return
	}
	if hit.Description == nil && info.Description != "" {
		d := info.Description
		hit.Description = &d
	}
	if hit.Recommendation == nil && info.Advice != "" {
		a := info.Advice
		hit.Recommendation = &a
	}
}

// buildHit runs the severity code through the classifier and assembles a hit.
// An empty severity defaults to medium before classification so sections that
// carry no severity at all still rank sensibly.
func buildHit(severity string, title, description, evidence, recommendation *string) schemas.NormalizedHit {
	code := schemas.Severity(strings.TrimSpace(severity))
	if code == "" {
		code = schemas.SeverityMedium
	}
	cls := schemas.Classify(code)
	return schemas.NormalizedHit{
		Title:          title,
		Severity:       code,
		SeverityRank:   cls.Rank,
		SeverityLabel:  cls.Label,
		Evidence:       evidence,
		Description:    description,
		Recommendation: recommendation,
	}
}

// firstOf returns the first non-nil pointer, or nil.
func firstOf(ptrs ...*string) *string {
	for _, p := range ptrs {
		if p != nil {
			return p
		}
	}
	return nil
}
