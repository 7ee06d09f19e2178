// File: internal/normalize/sections.go
// Description: Handling for the structured-section payload shape produced by
// the service's LLM analysis path. Each named section becomes one or more
// synthetic categories in the canonical model.

package normalize

import (
	"encoding/json"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

// Section keys of the structured shape, in canonical display order.
var sectionKeys = []string{
	"critical_requirements",
	"cost_factors",
	"timeline",
	"risks",
	"unusual_findings",
	"clarification_needed",
}

func hasSectionKeys(root map[string]json.RawMessage) bool {
	for _, key := range sectionKeys {
		if _, ok := root[key]; ok {
			return true
		}
	}
	return false
}

// requirementGroup is one entry of critical_requirements: a free-form group
// name plus its items.
type requirementGroup struct {
	Category string            `json:"category"`
	Items    []json.RawMessage `json:"items"`
}

// sectionItem is the superset of the per-section item fields the LLM path
// emits. Each section uses a different subset; the mapping tables below pick
// the right fields per section.
type sectionItem struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	Evidence          *string `json:"evidence"`
	Severity          string  `json:"severity"`
	ActionRequired    *string `json:"action_required"`
	Item              *string `json:"item"`
	EstimatedImpact   *string `json:"estimated_impact"`
	Event             *string `json:"event"`
	Deadline          *string `json:"deadline"`
	Importance        *string `json:"importance"`
	Type              *string `json:"type"`
	Impact            string  `json:"impact"`
	Mitigation        *string `json:"mitigation"`
	Concern           *string `json:"concern"`
	Suggestion        *string `json:"suggestion"`
	Issue             *string `json:"issue"`
	Context           *string `json:"context"`
	SuggestedQuestion *string `json:"suggested_question"`
}

// normalizeSections handles the LLM shape: a free-text summary plus named
// optional lists. Sections appear in canonical order; empty or absent
// sections produce no category.
func normalizeSections(res *schemas.AnalysisResult, root map[string]json.RawMessage) {
	if raw, ok := root["summary"]; ok {
		var text string
		if err := jsonAPI.Unmarshal(raw, &text); err == nil && text != "" {
			res.SummaryText = &text
		}
	}

	for _, key := range sectionKeys {
		raw, ok := root[key]
		if !ok {
			continue
		}
		if key == "critical_requirements" {
			appendRequirementGroups(res, raw)
			continue
		}
		hits := decodeSectionHits(key, raw)
		if len(hits) == 0 {
			continue
		}
		res.Categories = append(res.Categories, schemas.Category{Name: key, Hits: hits})
		res.SummaryCounts[key] = len(hits)
	}
}

// appendRequirementGroups expands critical_requirements into one pseudo
// category per item-level group, named "critical_requirements/<group>".
func appendRequirementGroups(res *schemas.AnalysisResult, raw json.RawMessage) {
	var groups []requirementGroup
	if err := jsonAPI.Unmarshal(raw, &groups); err != nil {
		return
	}
	for _, group := range groups {
		hits := []schemas.NormalizedHit{}
		for _, item := range group.Items {
			var it sectionItem
			if err := jsonAPI.Unmarshal(item, &it); err != nil {
				continue
			}
			hits = append(hits, buildHit(it.Severity, it.Title, it.Description, it.Evidence, it.ActionRequired))
		}
		if len(hits) == 0 {
			continue
		}
		name := "critical_requirements"
		if group.Category != "" {
			name += "/" + group.Category
		}
		res.Categories = append(res.Categories, schemas.Category{Name: name, Hits: hits})
		res.SummaryCounts[name] = len(hits)
	}
}

// decodeSectionHits maps one flat section's items onto hits using the
// section-specific field mapping.
func decodeSectionHits(key string, raw json.RawMessage) []schemas.NormalizedHit {
	var items []json.RawMessage
	if err := jsonAPI.Unmarshal(raw, &items); err != nil {
		return nil
	}
	hits := make([]schemas.NormalizedHit, 0, len(items))
	for _, item := range items {
		var it sectionItem
		if err := jsonAPI.Unmarshal(item, &it); err != nil {
			continue
		}
		hits = append(hits, mapSectionItem(key, it))
	}
	return hits
}

func mapSectionItem(key string, it sectionItem) schemas.NormalizedHit {
	switch key {
	case "cost_factors":
		return buildHit(it.Severity, it.Item, it.Description, it.Evidence, it.EstimatedImpact)
	case "timeline":
		return buildHit(it.Severity, it.Event, it.Importance, it.Deadline, nil)
	case "risks":
		// Risk severity rides in the "impact" field.
		return buildHit(it.Impact, it.Type, it.Description, it.Evidence, it.Mitigation)
	case "unusual_findings":
		return buildHit(it.Severity, it.Title, it.Description, it.Concern, it.Suggestion)
	case "clarification_needed":
		return buildHit(it.Severity, it.Issue, it.Context, it.Evidence, it.SuggestedQuestion)
	default:
		return buildHit(it.Severity, it.Title, it.Description, it.Evidence, nil)
	}
}
