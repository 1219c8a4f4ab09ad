package drivers

import (
	"testing"

	"github.com/dyshay/agentauth"
)

func TestMultiStepDriver_GenerateAndVerify(t *testing.T) {
	d := MultiStepDriver{}

	for _, difficulty := range []agentauth.Difficulty{
		agentauth.DifficultyEasy,
		agentauth.DifficultyMedium,
		agentauth.DifficultyHard,
		agentauth.DifficultyAdversarial,
	} {
		payload, answer, err := d.Generate(difficulty)
		if err != nil {
			t.Fatalf("Generate(%s): %v", difficulty, err)
		}
		if payload.Type != "multi-step" {
			t.Errorf("expected type multi-step, got %s", payload.Type)
		}
		if payload.Steps == 0 {
			t.Error("expected at least one step")
		}

		answerHash, err := d.ComputeAnswerHash(payload, answer)
		if err != nil {
			t.Fatalf("ComputeAnswerHash: %v", err)
		}
		ok, err := d.Verify(payload, answerHash, answer)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if !ok {
			t.Errorf("expected the generated answer to verify for difficulty %s", difficulty)
		}
	}
}

func TestMultiStepDriver_HarderDifficultiesHaveMoreSteps(t *testing.T) {
	d := MultiStepDriver{}
	easy, _, _ := d.Generate(agentauth.DifficultyEasy)
	adversarial, _, _ := d.Generate(agentauth.DifficultyAdversarial)

	if adversarial.Steps <= easy.Steps {
		t.Errorf("expected adversarial (%d steps) to have more steps than easy (%d)", adversarial.Steps, easy.Steps)
	}
}

func TestMultiStepDriver_Dimensions(t *testing.T) {
	d := MultiStepDriver{}
	dims := d.Dimensions()
	want := map[string]bool{"reasoning": false, "execution": false, "memory": false}
	for _, dim := range dims {
		if _, ok := want[dim]; ok {
			want[dim] = true
		}
	}
	for dim, found := range want {
		if !found {
			t.Errorf("expected dimension %q in %v", dim, dims)
		}
	}
}
