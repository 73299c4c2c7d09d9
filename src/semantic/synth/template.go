package synth

import (
	"context"
	"fmt"
	"strings"
)

// Topic is the question classification shared by the template synthesizer
// and the pipeline's follow-up generation.
type Topic int

const (
	TopicGeneral Topic = iota
	TopicCompetitor
	TopicTrend
	TopicPersona
	TopicContent
)

func (t Topic) String() string {
	switch t {
	case TopicCompetitor:
		return "competitor"
	case TopicTrend:
		return "trend"
	case TopicPersona:
		return "persona"
	case TopicContent:
		return "content"
	default:
		return "general"
	}
}

// ClassifyQuestion maps a question onto the topic used for both templated
// synthesis and follow-up derivation.
func ClassifyQuestion(question string) Topic {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "competitor"):
		return TopicCompetitor
	case strings.Contains(q, "trend"), strings.Contains(q, "market"):
		return TopicTrend
	case strings.Contains(q, "persona"), strings.Contains(q, "customer"):
		return TopicPersona
	case strings.Contains(q, "content"), strings.Contains(q, "social"):
		return TopicContent
	default:
		return TopicGeneral
	}
}

// FollowUpsFor returns up to three follow-up questions for a topic.
func FollowUpsFor(topic Topic) []string {
	switch topic {
	case TopicCompetitor:
		return []string{
			"How do these competitors compare in terms of market share?",
			"What are the key differentiators between these competitors?",
			"Which competitor poses the biggest threat to our business?",
		}
	case TopicTrend:
		return []string{
			"How can we capitalize on these trends?",
			"What are the risks associated with these trends?",
			"How long are these trends expected to last?",
		}
	case TopicPersona:
		return []string{
			"How can we better target these personas?",
			"What content resonates most with these personas?",
			"What are the pain points for these customer segments?",
		}
	default:
		return []string{
			"Can you provide more details on this topic?",
			"What are the key action items from this analysis?",
			"How can we apply these insights to our strategy?",
		}
	}
}

// FallbackFollowUps are returned with the pipeline's degraded response.
func FallbackFollowUps() []string {
	return []string{
		"Could you rephrase your question?",
		"What specific information are you looking for?",
		"How can I help you better?",
	}
}

// TemplateSynthesizer is the deterministic reference implementation: it
// classifies the question by keyword and fills a topic-specific template
// from the retrieved context lines.
type TemplateSynthesizer struct{}

var _ Synthesizer = TemplateSynthesizer{}

func (TemplateSynthesizer) Synthesize(_ context.Context, question, retrieved string, prior []PriorAnswer) (Synthesis, error) {
	topic := ClassifyQuestion(question)
	lines := contextLines(retrieved, topic)

	switch topic {
	case TopicCompetitor:
		return Synthesis{
			Answer:    competitorAnswer(lines),
			Reasoning: "Analyzed competitor data and market positioning information",
		}, nil
	case TopicTrend:
		return Synthesis{
			Answer:    trendAnswer(lines),
			Reasoning: "Processed market trends and industry insights",
		}, nil
	case TopicPersona:
		return Synthesis{
			Answer:    personaAnswer(lines),
			Reasoning: "Analyzed customer persona data and behavioral insights",
		}, nil
	case TopicContent:
		return Synthesis{
			Answer:    contentAnswer(lines),
			Reasoning: "Evaluated content strategies and social media insights",
		}, nil
	default:
		return Synthesis{
			Answer:    generalAnswer(lines),
			Reasoning: "Provided comprehensive analysis based on available data",
		}, nil
	}
}

// contextLines extracts the retrieved context entries tagged with the
// topic's type, falling back to all entries for general questions. The
// pipeline renders each entry as "[type]: content".
func contextLines(retrieved string, topic Topic) []string {
	var all, matched []string
	for _, line := range strings.Split(retrieved, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "[") {
			continue
		}
		all = append(all, stripTypePrefix(line))
		if strings.HasPrefix(line, "["+topic.String()+"]") {
			matched = append(matched, stripTypePrefix(line))
		}
	}
	if topic == TopicGeneral {
		return all
	}
	return matched
}

func stripTypePrefix(line string) string {
	if i := strings.Index(line, "]:"); i >= 0 {
		return strings.TrimSpace(line[i+2:])
	}
	return line
}

func numbered(lines []string) string {
	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}
	return sb.String()
}

func competitorAnswer(lines []string) string {
	if len(lines) == 0 {
		return "I don't have specific competitor data for your query. Could you provide more details about which competitors you'd like to analyze?"
	}
	return "Based on the competitor analysis data, here are the key insights:\n\n" +
		numbered(lines) +
		"\nKey competitive factors to consider:\n" +
		"- Market positioning strategies\n" +
		"- Customer engagement approaches\n" +
		"- Product innovation trends\n" +
		"- Pricing strategies\n\n" +
		"Would you like me to dive deeper into any specific competitor or aspect?"
}

func trendAnswer(lines []string) string {
	if len(lines) == 0 {
		return "I can help analyze market trends. Could you specify which trends or market segments you're interested in?"
	}
	return "Here are the key market trends I've identified:\n\n" +
		numbered(lines) +
		"\nRecommendations:\n" +
		"- Monitor these trends closely for strategic opportunities\n" +
		"- Consider how these trends align with your business goals\n" +
		"- Evaluate competitive responses to these trends\n\n" +
		"Would you like me to analyze any specific trend in more detail?"
}

func personaAnswer(lines []string) string {
	if len(lines) == 0 {
		return "I can help with customer persona analysis. What specific persona or customer segment would you like to explore?"
	}
	return "Based on the persona data, here are the customer insights:\n\n" +
		numbered(lines) +
		"\nKey takeaways:\n" +
		"- Customer preferences and behaviors\n" +
		"- Demographic and psychographic insights\n" +
		"- Purchase patterns and motivations\n\n" +
		"Would you like me to create detailed personas or analyze specific customer segments?"
}

func contentAnswer(lines []string) string {
	if len(lines) == 0 {
		return "I can help with content strategy. What type of content or platform are you interested in?"
	}
	return "Here are the content strategy insights:\n\n" +
		numbered(lines) +
		"\nContent recommendations:\n" +
		"- Platform-specific strategies\n" +
		"- Content format optimization\n" +
		"- Engagement best practices\n\n" +
		"Would you like me to develop a specific content strategy or analyze performance metrics?"
}

func generalAnswer(lines []string) string {
	if len(lines) == 0 {
		return "I'd be happy to help with your question. Could you provide more specific details about what you're looking for?"
	}
	if len(lines) > 3 {
		lines = lines[:3]
	}
	return "Based on the available data, here's what I found:\n\n" +
		numbered(lines) +
		"\nThis information should help address your question. Would you like me to explore any specific aspect in more detail?"
}
