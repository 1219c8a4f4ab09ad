package engine

import (
	"math"

	"github.com/dyshay/agentauth"
	"github.com/dyshay/agentauth/timing"
)

// computeScore derives the five-dimensional capability score from a
// challenge's dimensions and, if present, its timing/pattern analyses.
// Timing penalties pull speed and autonomy down, and an artificial timing
// pattern also lowers autonomy and consistency; reasoning and execution
// are scored purely from which dimensions the challenge probed.
func computeScore(data agentauth.ChallengeData, ta *timing.Analysis, pa *timing.PatternAnalysis) agentauth.AgentCapabilityScore {
	dims := data.Challenge.Dimensions

	penalty := 0.0
	var zone timing.Zone
	if ta != nil {
		penalty = ta.Penalty
		zone = ta.Zone
	}

	patternPenalty := 0.0
	if pa != nil && pa.Verdict == timing.VerdictArtificial {
		patternPenalty = 0.3
	}

	reasoning := 0.5
	if hasDimension(dims, "reasoning") {
		reasoning = 0.9
	}
	execution := 0.5
	if hasDimension(dims, "execution") {
		execution = 0.95
	}

	speed := round3((1 - penalty) * 0.95)

	autonomyBase := 0.9
	if zone == timing.ZoneHuman || zone == timing.ZoneSuspicious {
		autonomyBase = (1 - penalty) * 0.9
	}
	autonomy := round3(autonomyBase * (1 - patternPenalty))

	consistencyBase := 0.9
	if hasDimension(dims, "memory") {
		consistencyBase = 0.92
	}
	consistency := round3(consistencyBase * (1 - patternPenalty))

	return agentauth.AgentCapabilityScore{
		Reasoning:   reasoning,
		Execution:   execution,
		Speed:       speed,
		Autonomy:    autonomy,
		Consistency: consistency,
	}
}

func hasDimension(dims []string, want string) bool {
	for _, d := range dims {
		if d == want {
			return true
		}
	}
	return false
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
