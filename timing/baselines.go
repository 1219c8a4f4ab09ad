package timing

// DefaultBaselines holds the expected-timing profile for every
// (challenge type, difficulty) combination the built-in drivers produce.
var DefaultBaselines = []Baseline{
	{ChallengeType: "crypto-nl", Difficulty: "easy", MeanMs: 150, StdMs: 60, TooFastMs: 20, AILowerMs: 40, AIUpperMs: 1000, HumanMs: 8000, TimeoutMs: 30000},
	{ChallengeType: "crypto-nl", Difficulty: "medium", MeanMs: 300, StdMs: 120, TooFastMs: 30, AILowerMs: 50, AIUpperMs: 2000, HumanMs: 10000, TimeoutMs: 30000},
	{ChallengeType: "crypto-nl", Difficulty: "hard", MeanMs: 600, StdMs: 200, TooFastMs: 50, AILowerMs: 100, AIUpperMs: 3000, HumanMs: 15000, TimeoutMs: 30000},
	{ChallengeType: "crypto-nl", Difficulty: "adversarial", MeanMs: 1000, StdMs: 350, TooFastMs: 80, AILowerMs: 150, AIUpperMs: 5000, HumanMs: 20000, TimeoutMs: 30000},

	{ChallengeType: "multi-step", Difficulty: "easy", MeanMs: 400, StdMs: 150, TooFastMs: 40, AILowerMs: 80, AIUpperMs: 2000, HumanMs: 12000, TimeoutMs: 30000},
	{ChallengeType: "multi-step", Difficulty: "medium", MeanMs: 800, StdMs: 300, TooFastMs: 60, AILowerMs: 150, AIUpperMs: 4000, HumanMs: 15000, TimeoutMs: 30000},
	{ChallengeType: "multi-step", Difficulty: "hard", MeanMs: 1200, StdMs: 400, TooFastMs: 100, AILowerMs: 300, AIUpperMs: 5000, HumanMs: 20000, TimeoutMs: 30000},
	{ChallengeType: "multi-step", Difficulty: "adversarial", MeanMs: 1800, StdMs: 500, TooFastMs: 150, AILowerMs: 400, AIUpperMs: 7000, HumanMs: 25000, TimeoutMs: 30000},

	{ChallengeType: "ambiguous-logic", Difficulty: "easy", MeanMs: 200, StdMs: 80, TooFastMs: 20, AILowerMs: 50, AIUpperMs: 1500, HumanMs: 10000, TimeoutMs: 30000},
	{ChallengeType: "ambiguous-logic", Difficulty: "medium", MeanMs: 400, StdMs: 150, TooFastMs: 40, AILowerMs: 80, AIUpperMs: 2500, HumanMs: 12000, TimeoutMs: 30000},
	{ChallengeType: "ambiguous-logic", Difficulty: "hard", MeanMs: 700, StdMs: 250, TooFastMs: 60, AILowerMs: 120, AIUpperMs: 3500, HumanMs: 15000, TimeoutMs: 30000},
	{ChallengeType: "ambiguous-logic", Difficulty: "adversarial", MeanMs: 1000, StdMs: 350, TooFastMs: 80, AILowerMs: 200, AIUpperMs: 5000, HumanMs: 20000, TimeoutMs: 30000},

	{ChallengeType: "code-execution", Difficulty: "easy", MeanMs: 300, StdMs: 100, TooFastMs: 30, AILowerMs: 60, AIUpperMs: 1500, HumanMs: 15000, TimeoutMs: 30000},
	{ChallengeType: "code-execution", Difficulty: "medium", MeanMs: 500, StdMs: 200, TooFastMs: 50, AILowerMs: 100, AIUpperMs: 3000, HumanMs: 20000, TimeoutMs: 30000},
	{ChallengeType: "code-execution", Difficulty: "hard", MeanMs: 900, StdMs: 300, TooFastMs: 80, AILowerMs: 150, AIUpperMs: 4500, HumanMs: 25000, TimeoutMs: 30000},
	{ChallengeType: "code-execution", Difficulty: "adversarial", MeanMs: 1500, StdMs: 450, TooFastMs: 120, AILowerMs: 250, AIUpperMs: 6000, HumanMs: 30000, TimeoutMs: 30000},
}

// GetBaseline linear-searches baselines for a matching (challengeType,
// difficulty) pair.
func GetBaseline(baselines []Baseline, challengeType, difficulty string) (Baseline, bool) {
	for _, b := range baselines {
		if b.ChallengeType == challengeType && b.Difficulty == difficulty {
			return b, true
		}
	}
	return Baseline{}, false
}
