package agentauth

import "testing"

type stubDriver struct {
	name string
	dims []string
}

func (s stubDriver) Name() string               { return s.name }
func (s stubDriver) Dimensions() []string        { return s.dims }
func (s stubDriver) EstimatedHumanTimeMs() int64 { return 10_000 }
func (s stubDriver) EstimatedAITimeMs() int64    { return 100 }
func (s stubDriver) Generate(Difficulty) (ChallengePayload, string, error) {
	return ChallengePayload{Type: s.name}, "answer", nil
}
func (s stubDriver) ComputeAnswerHash(ChallengePayload, string) (string, error) {
	return "hash", nil
}
func (s stubDriver) Verify(ChallengePayload, string, string) (bool, error) {
	return true, nil
}

func TestDriverRegistry_RegisterAndGet(t *testing.T) {
	r := NewDriverRegistry()
	d := stubDriver{name: "crypto-nl", dims: []string{"reasoning", "execution"}}
	if err := r.Register(d); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, ok := r.Get("crypto-nl")
	if !ok {
		t.Fatal("expected driver to be found")
	}
	if got.Name() != "crypto-nl" {
		t.Errorf("unexpected driver name %q", got.Name())
	}
}

func TestDriverRegistry_RegisterDuplicateErrors(t *testing.T) {
	r := NewDriverRegistry()
	d := stubDriver{name: "crypto-nl"}
	if err := r.Register(d); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(d); err == nil {
		t.Fatal("expected an error registering a duplicate driver name")
	}
}

func TestDriverRegistry_SelectByDimensionCoverage(t *testing.T) {
	r := NewDriverRegistry()
	r.Register(stubDriver{name: "memory-heavy", dims: []string{"memory", "reasoning"}})
	r.Register(stubDriver{name: "execution-only", dims: []string{"execution"}})
	r.Register(stubDriver{name: "reasoning-only", dims: []string{"reasoning"}})

	selected, err := r.Select([]string{"reasoning", "memory"}, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(selected) != 1 || selected[0].Name() != "memory-heavy" {
		t.Errorf("expected memory-heavy to win on dimension coverage, got %+v", selected)
	}
}

func TestDriverRegistry_SelectNoDimensionsReturnsRegistrationOrder(t *testing.T) {
	r := NewDriverRegistry()
	r.Register(stubDriver{name: "first"})
	r.Register(stubDriver{name: "second"})

	selected, err := r.Select(nil, 2)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(selected) != 2 || selected[0].Name() != "first" || selected[1].Name() != "second" {
		t.Errorf("expected registration order, got %+v", selected)
	}
}

func TestDriverRegistry_SelectEmptyRegistryErrors(t *testing.T) {
	r := NewDriverRegistry()
	if _, err := r.Select(nil, 1); err == nil {
		t.Fatal("expected an error selecting from an empty registry")
	}
}
