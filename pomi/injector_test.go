package pomi

import (
	"strings"
	"testing"
)

func TestInjector_InjectZeroCountIsNoop(t *testing.T) {
	in := NewInjector(NewCatalog(nil))
	result := in.Inject("original instructions", 0, nil)
	if result.Instructions != "original instructions" {
		t.Errorf("expected unmodified instructions, got %q", result.Instructions)
	}
	if len(result.Injected) != 0 {
		t.Errorf("expected no injected canaries, got %d", len(result.Injected))
	}
}

func TestInjector_InjectAddsCanariesAndContext(t *testing.T) {
	in := NewInjector(NewCatalog(nil))
	result := in.Inject("solve this", 3, nil)

	if len(result.Injected) != 3 {
		t.Fatalf("expected 3 injected canaries, got %d", len(result.Injected))
	}
	if result.Instructions == "solve this" {
		t.Error("expected instructions to be rewritten with canary prompts")
	}
	ids, ok := result.ContextExtra["canary_ids"].([]string)
	if !ok || len(ids) != 3 {
		t.Errorf("expected canary_ids context with 3 entries, got %v", result.ContextExtra)
	}
}

func TestInjector_InjectRespectsExclusions(t *testing.T) {
	in := NewInjector(NewCatalog(nil))
	result := in.Inject("solve this", len(DefaultCanaries), []string{"math-precision"})

	for _, c := range result.Injected {
		if c.ID == "math-precision" {
			t.Error("expected excluded canary to not be injected")
		}
	}
}

func TestInjector_InjectPreservesOriginalInstructionsAsSubstring(t *testing.T) {
	in := NewInjector(NewCatalog(nil))
	result := in.Inject("solve this specific task", 2, nil)

	if !strings.Contains(result.Instructions, "solve this specific task") {
		t.Errorf("expected original instructions to survive injection, got %q", result.Instructions)
	}
}
