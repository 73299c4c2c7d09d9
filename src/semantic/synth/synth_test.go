package synth

import (
	"strings"
	"testing"
)

func TestAutoSynthesizerFallsBackToTemplate(t *testing.T) {
	t.Setenv("FACET_SYNTH_PROVIDER", "")
	if _, ok := AutoSynthesizer().(TemplateSynthesizer); !ok {
		t.Fatalf("expected template fallback when no provider is configured")
	}
}

func TestAutoSynthesizerFallsBackWithoutCredentials(t *testing.T) {
	t.Setenv("FACET_SYNTH_PROVIDER", "claude")
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, ok := AutoSynthesizer().(TemplateSynthesizer); !ok {
		t.Fatalf("expected template fallback when claude credentials are missing")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(
		"What trends matter?",
		"[trend]: AR try-on adoption is accelerating",
		[]PriorAnswer{{Query: "last quarter trends", Answer: "minimalism grew"}},
	)

	for _, want := range []string{
		"Context:",
		"AR try-on adoption",
		`Previously asked: "last quarter trends"`,
		"minimalism grew",
		"Question: What trends matter?",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptOmitsEmptyContext(t *testing.T) {
	prompt := buildPrompt("Question only", "", nil)
	if strings.Contains(prompt, "Context:") {
		t.Fatalf("no context section expected: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Question: Question only") {
		t.Fatalf("expected the question at the end: %q", prompt)
	}
}
