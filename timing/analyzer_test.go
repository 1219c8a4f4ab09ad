package timing

import "testing"

func TestAnalyzer_Analyze_Zones(t *testing.T) {
	a := NewAnalyzer(Config{})

	cases := []struct {
		name      string
		elapsedMs float64
		want      Zone
	}{
		{"too fast", 10, ZoneTooFast},
		{"ai zone", 300, ZoneAI},
		{"human zone", 15000, ZoneHuman},
		{"timeout", 60000, ZoneTimeout},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := a.Analyze(c.elapsedMs, "crypto-nl", "medium", 0)
			if result.Zone != c.want {
				t.Errorf("elapsed=%v: expected zone %s, got %s", c.elapsedMs, c.want, result.Zone)
			}
		})
	}
}

func TestAnalyzer_Analyze_TooFastHasFullPenalty(t *testing.T) {
	a := NewAnalyzer(Config{})
	result := a.Analyze(5, "crypto-nl", "medium", 0)
	if result.Penalty != 1.0 {
		t.Errorf("expected full penalty for too-fast zone, got %v", result.Penalty)
	}
}

func TestAnalyzer_Analyze_AIZoneHasNoPenalty(t *testing.T) {
	a := NewAnalyzer(Config{})
	result := a.Analyze(300, "crypto-nl", "medium", 0)
	if result.Penalty != 0 {
		t.Errorf("expected zero penalty in the AI zone, got %v", result.Penalty)
	}
}

func TestAnalyzer_Analyze_RTTExtendsAIZoneUpperBound(t *testing.T) {
	a := NewAnalyzer(Config{})
	baseline, _ := GetBaseline(DefaultBaselines, "crypto-nl", "medium")

	withoutRTT := a.Analyze(baseline.AIUpperMs+100, "crypto-nl", "medium", 0)
	withRTT := a.Analyze(baseline.AIUpperMs+100, "crypto-nl", "medium", 500)

	if withoutRTT.Zone == ZoneAI {
		t.Fatal("expected the unadjusted boundary to already be past AI zone for this test to be meaningful")
	}
	if withRTT.Zone != ZoneAI {
		t.Errorf("expected RTT compensation to keep the same elapsed time in the AI zone, got %s", withRTT.Zone)
	}
}

func TestAnalyzer_Analyze_UnknownChallengeUsesDefaultBaseline(t *testing.T) {
	a := NewAnalyzer(Config{})
	result := a.Analyze(300, "never-registered-type", "medium", 0)
	if result.Zone == "" {
		t.Error("expected a zone even for an unrecognized challenge type/difficulty")
	}
}

func TestAnalyzer_AnalyzePattern_TooFewTimingsIsInconclusive(t *testing.T) {
	a := NewAnalyzer(Config{})
	result := a.AnalyzePattern([]float64{500})
	if result.Verdict != VerdictInconclusive {
		t.Errorf("expected inconclusive verdict for a single timing, got %s", result.Verdict)
	}
}

func TestAnalyzer_AnalyzePattern_IdenticalTimingsLookArtificial(t *testing.T) {
	a := NewAnalyzer(Config{})
	result := a.AnalyzePattern([]float64{500, 500, 500, 500})
	if result.Verdict != VerdictArtificial {
		t.Errorf("expected artificial verdict for zero-variance timings, got %s", result.Verdict)
	}
}

func TestAnalyzer_AnalyzePattern_VariableTimingsLookNatural(t *testing.T) {
	a := NewAnalyzer(Config{})
	result := a.AnalyzePattern([]float64{210, 340, 180, 410, 260})
	if result.Verdict != VerdictNatural {
		t.Errorf("expected natural verdict for varied timings, got %s (cv=%v)", result.Verdict, result.VarianceCoefficient)
	}
}
