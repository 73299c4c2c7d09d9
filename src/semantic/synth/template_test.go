package synth

import (
	"context"
	"strings"
	"testing"
)

func TestClassifyQuestion(t *testing.T) {
	cases := []struct {
		question string
		want     Topic
	}{
		{"Who are our main competitors?", TopicCompetitor},
		{"What market trends should we watch?", TopicTrend},
		{"How is the market segmented?", TopicTrend},
		{"Describe our customer personas", TopicPersona},
		{"What do customers want?", TopicPersona},
		{"Which content performs best?", TopicContent},
		{"How is our social engagement?", TopicContent},
		{"Summarize last quarter", TopicGeneral},
	}
	for _, tc := range cases {
		if got := ClassifyQuestion(tc.question); got != tc.want {
			t.Fatalf("ClassifyQuestion(%q) = %v, want %v", tc.question, got, tc.want)
		}
	}
}

func TestTopicString(t *testing.T) {
	cases := map[Topic]string{
		TopicGeneral:    "general",
		TopicCompetitor: "competitor",
		TopicTrend:      "trend",
		TopicPersona:    "persona",
		TopicContent:    "content",
	}
	for topic, want := range cases {
		if got := topic.String(); got != want {
			t.Fatalf("Topic(%d).String() = %q, want %q", topic, got, want)
		}
	}
}

func TestTemplateSynthesizerUsesMatchingContextLines(t *testing.T) {
	retrieved := "[competitor]: Tanishq leads the premium gold segment\n\n" +
		"[trend]: AR try-on adoption is accelerating"

	syn, err := TemplateSynthesizer{}.Synthesize(context.Background(), "Who are our competitors?", retrieved, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(syn.Answer, "Tanishq leads the premium gold segment") {
		t.Fatalf("expected the competitor line in the answer, got %q", syn.Answer)
	}
	if strings.Contains(syn.Answer, "AR try-on") {
		t.Fatalf("trend lines must not leak into a competitor answer: %q", syn.Answer)
	}
	if syn.Reasoning != "Analyzed competitor data and market positioning information" {
		t.Fatalf("unexpected reasoning: %q", syn.Reasoning)
	}
}

func TestTemplateSynthesizerGeneralUsesAllLines(t *testing.T) {
	retrieved := "[competitor]: line one\n\n[trend]: line two\n\n[persona]: line three\n\n[content]: line four"

	syn, err := TemplateSynthesizer{}.Synthesize(context.Background(), "Summarize everything", retrieved, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	// General answers cap at three lines.
	for _, want := range []string{"line one", "line two", "line three"} {
		if !strings.Contains(syn.Answer, want) {
			t.Fatalf("expected %q in the general answer: %q", want, syn.Answer)
		}
	}
	if strings.Contains(syn.Answer, "line four") {
		t.Fatalf("general answers cap at three context lines: %q", syn.Answer)
	}
}

func TestTemplateSynthesizerEmptyContextPrompts(t *testing.T) {
	syn, err := TemplateSynthesizer{}.Synthesize(context.Background(), "Who are our competitors?", "", nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(syn.Answer, "don't have specific competitor data") {
		t.Fatalf("expected the no-data prompt, got %q", syn.Answer)
	}
}

func TestTemplateSynthesizerIsDeterministic(t *testing.T) {
	retrieved := "[trend]: minimalist designs keep gaining share"
	a, _ := TemplateSynthesizer{}.Synthesize(context.Background(), "What trends matter?", retrieved, nil)
	b, _ := TemplateSynthesizer{}.Synthesize(context.Background(), "What trends matter?", retrieved, nil)
	if a != b {
		t.Fatalf("identical inputs must synthesize identical output")
	}
}

func TestFollowUps(t *testing.T) {
	for _, topic := range []Topic{TopicGeneral, TopicCompetitor, TopicTrend, TopicPersona, TopicContent} {
		if got := FollowUpsFor(topic); len(got) != 3 {
			t.Fatalf("expected 3 follow-ups for %v, got %d", topic, len(got))
		}
	}
	if got := FallbackFollowUps(); len(got) != 3 {
		t.Fatalf("expected 3 fallback follow-ups, got %d", len(got))
	}
}
