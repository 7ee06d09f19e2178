package normalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

func TestNormalize_CategoryHitShape(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"summary": {"拦标项": 1, "成本风险": 2},
		"categories": {
			"拦标项": [
				{"rule_id": "r-001", "severity": "critical", "title": "唯一品牌", "evidence": "仅限A品牌", "advice": "提出质疑"}
			],
			"成本风险": [
				{"rule_id": "r-101", "severity": "high", "snippet": "需驻场开发"},
				{"rule_id": "r-102", "severity": "low", "evidence": "差旅自理", "description": ""}
			]
		}
	}`)

	res := Normalize(payload, nil)
	require.NotNil(t, res)

	require.Len(t, res.Categories, 2)
	assert.Equal(t, "拦标项", res.Categories[0].Name, "category order must match the document")
	assert.Equal(t, "成本风险", res.Categories[1].Name)
	assert.Equal(t, map[string]int{"拦标项": 1, "成本风险": 2}, res.SummaryCounts)
	assert.Nil(t, res.SummaryText)

	first := res.Categories[0].Hits[0]
	require.NotNil(t, first.RuleID)
	assert.Equal(t, "r-001", *first.RuleID)
	assert.Equal(t, schemas.SeverityCritical, first.Severity)
	assert.Equal(t, 4, first.SeverityRank)
	require.NotNil(t, first.Title)
	assert.Equal(t, "唯一品牌", *first.Title)
	require.NotNil(t, first.Recommendation, "advice maps to recommendation")
	assert.Equal(t, "提出质疑", *first.Recommendation)
	assert.Nil(t, first.Description, "absent description must stay nil")

	second := res.Categories[1].Hits[0]
	require.NotNil(t, second.Description, "snippet maps to description")
	assert.Equal(t, "需驻场开发", *second.Description)
	assert.Nil(t, second.Evidence)

	third := res.Categories[1].Hits[1]
	require.NotNil(t, third.Description)
	assert.Equal(t, "", *third.Description, "empty string is distinct from absent")
}

func TestNormalize_HitOrderPreserved(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"categories": {"c": [
		{"severity": "low", "title": "one"},
		{"severity": "critical", "title": "two"},
		{"severity": "medium", "title": "three"}
	]}}`)

	res := Normalize(payload, nil)
	require.Len(t, res.Categories, 1)
	hits := res.Categories[0].Hits
	require.Len(t, hits, 3)
	assert.Equal(t, "one", *hits[0].Title, "hits must not be re-sorted by severity")
	assert.Equal(t, "two", *hits[1].Title)
	assert.Equal(t, "three", *hits[2].Title)
}

func TestNormalize_Totality(t *testing.T) {
	t.Parallel()

	payloads := map[string][]byte{
		"nil":                 nil,
		"empty":               {},
		"null":                []byte(`null`),
		"empty object":        []byte(`{}`),
		"not json":            []byte(`<<garbage>>`),
		"array root":          []byte(`[1,2,3]`),
		"categories not obj":  []byte(`{"categories": 5}`),
		"category not array":  []byte(`{"categories": {"a": "nope", "b": [{"severity":"low"}]}}`),
		"hit wrong type":      []byte(`{"categories": {"a": [42, {"severity":"high"}]}}`),
		"summary wrong type":  []byte(`{"categories": {}, "summary": [1,2]}`),
		"sections wrong type": []byte(`{"risks": "none", "timeline": 7}`),
		"unknown fields only": []byte(`{"score": 0.3, "version": "v2"}`),
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			res := Normalize(payload, nil)
			require.NotNil(t, res, "normalize must always return a well-formed result")
			assert.NotNil(t, res.SummaryCounts)
			assert.NotNil(t, res.Categories)
		})
	}
}

func TestNormalize_BestEffortOnPartialDamage(t *testing.T) {
	t.Parallel()

	// The decodable parts must survive even when siblings are malformed.
	payload := []byte(`{"categories": {"bad": "x", "good": [{"severity": "high", "title": "kept"}]}}`)
	res := Normalize(payload, nil)
	require.Len(t, res.Categories, 2)
	assert.Empty(t, res.Categories[0].Hits)
	require.Len(t, res.Categories[1].Hits, 1)
	assert.Equal(t, "kept", *res.Categories[1].Hits[0].Title)
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"summary": "总体风险可控",
		"risks": [{"type": "合同风险", "description": "违约金过高", "impact": "high", "mitigation": "谈判"}],
		"timeline": [{"event": "开标", "deadline": "2024-09-01", "importance": "务必准时"}]
	}`)

	a := Normalize(payload, nil)
	b := Normalize(payload, nil)
	assert.Empty(t, cmp.Diff(a, b), "same payload must yield structurally equal results")
}

func TestNormalize_StructuredSectionShape(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"summary": "项目整体风险偏高",
		"critical_requirements": [
			{"category": "资质要求", "items": [
				{"title": "特级资质", "description": "需建筑特级", "evidence": "第3.1条", "severity": "critical", "action_required": "确认资质证书"}
			]},
			{"category": "", "items": [
				{"title": "业绩要求", "severity": "high"}
			]}
		],
		"cost_factors": [
			{"item": "驻场人员", "description": "三名工程师驻场一年", "estimated_impact": "约80万元", "evidence": "第7.2条"}
		],
		"timeline": [
			{"event": "投标截止", "deadline": "2024-10-15 09:00", "importance": "逾期作废"}
		],
		"risks": [
			{"type": "验收风险", "description": "验收标准含糊", "likelihood": "high", "impact": "critical", "mitigation": "澄清答疑"}
		],
		"unusual_findings": [
			{"title": "指定检测机构", "description": "仅认可一家机构", "concern": "疑似排他", "suggestion": "询问替代方案"}
		],
		"clarification_needed": [
			{"issue": "付款节点不明", "context": "第9章", "suggested_question": "请明确到货付款比例"}
		]
	}`)

	res := Normalize(payload, nil)

	require.NotNil(t, res.SummaryText)
	assert.Equal(t, "项目整体风险偏高", *res.SummaryText)

	names := make([]string, 0, len(res.Categories))
	for _, c := range res.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"critical_requirements/资质要求",
		"critical_requirements",
		"cost_factors",
		"timeline",
		"risks",
		"unusual_findings",
		"clarification_needed",
	}, names)

	// critical_requirements: grouped by item-level category.
	req := res.Categories[0].Hits[0]
	assert.Equal(t, schemas.SeverityCritical, req.Severity)
	assert.Equal(t, "确认资质证书", *req.Recommendation)
	assert.Equal(t, "第3.1条", *req.Evidence)

	// cost_factors: item -> title, estimated_impact -> recommendation.
	cost := res.Categories[2].Hits[0]
	assert.Equal(t, "驻场人员", *cost.Title)
	assert.Equal(t, "约80万元", *cost.Recommendation)
	assert.Equal(t, schemas.SeverityMedium, cost.Severity, "sections without severity default to medium")

	// timeline: deadline rides in evidence.
	tl := res.Categories[3].Hits[0]
	assert.Equal(t, "投标截止", *tl.Title)
	assert.Equal(t, "2024-10-15 09:00", *tl.Evidence)

	// risks: severity comes from the impact field.
	risk := res.Categories[4].Hits[0]
	assert.Equal(t, schemas.SeverityCritical, risk.Severity)
	assert.Equal(t, "澄清答疑", *risk.Recommendation)

	// clarification_needed: suggested question becomes the recommendation.
	cl := res.Categories[6].Hits[0]
	assert.Equal(t, "付款节点不明", *cl.Title)
	assert.Equal(t, "请明确到货付款比例", *cl.Recommendation)

	// Synthetic categories get summary counts.
	assert.Equal(t, 1, res.SummaryCounts["cost_factors"])
	assert.Equal(t, 1, res.SummaryCounts["critical_requirements/资质要求"])
}

func TestNormalize_EmptySectionsProduceNoCategories(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"summary": "无异常", "risks": [], "cost_factors": []}`)
	res := Normalize(payload, nil)
	assert.Empty(t, res.Categories)
	require.NotNil(t, res.SummaryText)
	assert.Equal(t, "无异常", *res.SummaryText)
}

func TestNormalize_LookupEnrichment(t *testing.T) {
	t.Parallel()

	lookup := Lookup{
		"r-001": {Category: "拦标项", Description: "指定唯一品牌或型号", Advice: "在答疑阶段提出质疑"},
	}
	payload := []byte(`{"categories": {"拦标项": [
		{"rule_id": "r-001", "severity": "critical"},
		{"rule_id": "r-001", "severity": "critical", "description": "自带说明", "advice": "自带建议"},
		{"rule_id": "r-999", "severity": "low"}
	]}}`)

	res := Normalize(payload, lookup)
	hits := res.Categories[0].Hits
	require.Len(t, hits, 3)

	require.NotNil(t, hits[0].Description)
	assert.Equal(t, "指定唯一品牌或型号", *hits[0].Description, "catalog fills absent description")
	assert.Equal(t, "在答疑阶段提出质疑", *hits[0].Recommendation)

	assert.Equal(t, "自带说明", *hits[1].Description, "payload-supplied fields win over catalog")
	assert.Equal(t, "自带建议", *hits[1].Recommendation)

	assert.Nil(t, hits[2].Description, "unknown rule ids stay unenriched")
}

func TestNormalize_CategoriesShapeWinsOverSections(t *testing.T) {
	t.Parallel()

	// When both markers are present, the categories mapping decides the shape.
	payload := []byte(`{"categories": {"a": []}, "risks": [{"type": "x"}]}`)
	res := Normalize(payload, nil)
	require.Len(t, res.Categories, 1)
	assert.Equal(t, "a", res.Categories[0].Name)
}
