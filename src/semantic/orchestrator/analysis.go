package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gemseek/facet/src/semantic/model"
	"github.com/gemseek/facet/src/semantic/rag"
)

// insightRule maps answer-text markers onto a structured insight.
type insightRule struct {
	markers []string
	insight model.Insight
}

var insightRules = []insightRule{
	{
		markers: []string{"trend", "growth"},
		insight: model.Insight{
			Type:       model.InsightTrend,
			Title:      "Market Trend Identified",
			Detail:     "Significant market trend detected in the analysis",
			Confidence: 0.8,
			Impact:     "medium",
			Timeframe:  "short-term",
			Actionable: true,
		},
	},
	{
		markers: []string{"opportunity", "potential"},
		insight: model.Insight{
			Type:       model.InsightOpportunity,
			Title:      "Business Opportunity",
			Detail:     "Potential business opportunity identified",
			Confidence: 0.75,
			Impact:     "high",
			Timeframe:  "immediate",
			Actionable: true,
		},
	},
	{
		markers: []string{"risk", "concern"},
		insight: model.Insight{
			Type:       model.InsightRisk,
			Title:      "Risk Factor",
			Detail:     "Potential risk or concern identified",
			Confidence: 0.7,
			Impact:     "medium",
			Timeframe:  "short-term",
			Actionable: true,
		},
	},
}

func (o *Orchestrator) handleAnalysis(ctx context.Context, req model.Request) model.Response {
	ans := o.pipeline.Answer(ctx, rag.Query{
		Question:      "Analyze: " + req.Text,
		Context:       serializeRequestContext(req),
		MaxResults:    analysisMaxResults,
		MinSimilarity: analysisMinSimilarity,
	})

	insights := extractInsights(ans.Text, ans.Sources)
	o.recordInsights(insights)

	updates := make([]string, 0, len(insights))
	for _, insight := range insights {
		updates = append(updates, insight.Title)
	}

	return model.Response{
		Kind:          string(model.RequestAnalysis),
		Text:          formatAnalysis(ans.Text, insights),
		Confidence:    ans.Confidence * analysisConfidenceScale,
		Sources:       ans.Sources,
		Reasoning:     fmt.Sprintf("Analytical processing with %d key insights identified", len(insights)),
		FollowUps:     analysisFollowUps(insights),
		MemoryUpdates: updates,
	}
}

// extractInsights scans the answer text for rule markers and emits one
// insight per matched rule.
func extractInsights(answer string, sources []string) []model.Insight {
	content := strings.ToLower(answer)
	now := time.Now()

	var insights []model.Insight
	for _, rule := range insightRules {
		for _, marker := range rule.markers {
			if strings.Contains(content, marker) {
				insight := rule.insight
				insight.Related = append([]string(nil), sources...)
				insight.CreatedAt = now
				insights = append(insights, insight)
				break
			}
		}
	}
	return insights
}

func formatAnalysis(answer string, insights []model.Insight) string {
	if len(insights) == 0 {
		return answer
	}
	var sb strings.Builder
	sb.WriteString(answer)
	sb.WriteString("\n\nKey insights:\n")
	for i, insight := range insights {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, insight.Title, insight.Detail)
		fmt.Fprintf(&sb, "   - Confidence: %d%%\n", int(insight.Confidence*100+0.5))
		fmt.Fprintf(&sb, "   - Impact: %s\n", insight.Impact)
		fmt.Fprintf(&sb, "   - Timeframe: %s\n", insight.Timeframe)
	}
	return sb.String()
}

func analysisFollowUps(insights []model.Insight) []string {
	var followUps []string
	for _, insight := range insights {
		switch insight.Type {
		case model.InsightTrend:
			followUps = append(followUps, "How can we capitalize on this trend?")
		case model.InsightOpportunity:
			followUps = append(followUps, "What steps should we take to seize this opportunity?")
		case model.InsightRisk:
			followUps = append(followUps, "How can we mitigate this risk?")
		}
	}
	if len(followUps) > 3 {
		followUps = followUps[:3]
	}
	return followUps
}

func (o *Orchestrator) recordInsights(insights []model.Insight) {
	if len(insights) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, insight := range insights {
		o.insights = appendBounded(o.insights, insight, o.insightCap)
	}
}

// RecentInsights returns up to limit insights, newest first.
func (o *Orchestrator) RecentInsights(limit int) []model.Insight {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := len(o.insights)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Insight, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, o.insights[i])
	}
	return out
}
