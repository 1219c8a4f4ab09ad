package timing

import (
	"fmt"
	"math"
)

// Analyzer classifies response timing against per-challenge baselines.
type Analyzer struct {
	baselines map[string]Baseline
	tooFast   float64
	aiLower   float64
	aiUpper   float64
	human     float64
	timeout   float64
}

// NewAnalyzer builds an Analyzer. A nil or zero-value cfg uses
// DefaultBaselines and the package default thresholds.
func NewAnalyzer(cfg Config) *Analyzer {
	baselines := cfg.Baselines
	if len(baselines) == 0 {
		baselines = DefaultBaselines
	}

	index := make(map[string]Baseline, len(baselines))
	for _, b := range baselines {
		index[b.ChallengeType+":"+b.Difficulty] = b
	}

	a := &Analyzer{
		baselines: index,
		tooFast:   orDefault(cfg.DefaultTooFastMs, 50),
		aiLower:   orDefault(cfg.DefaultAILowerMs, 50),
		aiUpper:   orDefault(cfg.DefaultAIUpperMs, 2000),
		human:     orDefault(cfg.DefaultHumanMs, 10000),
		timeout:   orDefault(cfg.DefaultTimeoutMs, 30000),
	}
	return a
}

func orDefault(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func (a *Analyzer) defaultBaseline() Baseline {
	return Baseline{
		ChallengeType: "default",
		Difficulty:    "medium",
		MeanMs:        (a.aiLower + a.aiUpper) / 2,
		StdMs:         (a.aiUpper - a.aiLower) / 4,
		TooFastMs:     a.tooFast,
		AILowerMs:     a.aiLower,
		AIUpperMs:     a.aiUpper,
		HumanMs:       a.human,
		TimeoutMs:     a.timeout,
	}
}

// Analyze classifies a single elapsed-time measurement against the
// baseline for (challengeType, difficulty), compensating the AI/human zone
// boundaries for observed round-trip latency.
func (a *Analyzer) Analyze(elapsedMs float64, challengeType, difficulty string, rttMs float64) Analysis {
	baseline, ok := a.baselines[challengeType+":"+difficulty]
	if !ok {
		baseline = a.defaultBaseline()
	}

	tolerance := 0.0
	if rttMs > 0 {
		tolerance = math.Max(rttMs*0.5, 200)
	}

	adjusted := baseline
	if tolerance > 0 {
		adjusted.AIUpperMs = baseline.AIUpperMs + tolerance
		adjusted.HumanMs = baseline.HumanMs + tolerance
	}

	zone := classifyZone(elapsedMs, adjusted)
	penalty := computePenalty(zone, elapsedMs, adjusted)
	zScore := computeZScore(elapsedMs, baseline)
	confidence := computeConfidence(elapsedMs, adjusted, zone)
	details := describeZone(zone, elapsedMs, adjusted)

	isRound := elapsedMs > 0 && (math.Mod(elapsedMs, 500) == 0 || math.Mod(elapsedMs, 100) == 0)
	if isRound && zone == ZoneAI {
		confidence = round3From(confidence * 0.85)
		details += " [round-number timing detected]"
	}

	return Analysis{
		ElapsedMs:  elapsedMs,
		Zone:       zone,
		Confidence: confidence,
		ZScore:     math.Round(zScore*100) / 100,
		Penalty:    math.Round(penalty*1000) / 1000,
		Details:    details,
	}
}

// AnalyzePattern examines a series of per-step timings for signs of
// hand-authored (artificial) rather than organically variable timing.
func (a *Analyzer) AnalyzePattern(stepTimings []float64) PatternAnalysis {
	if len(stepTimings) < 2 {
		return PatternAnalysis{Trend: TrendConstant, Verdict: VerdictInconclusive}
	}

	n := float64(len(stepTimings))
	mean := sum(stepTimings) / n
	var variance float64
	for _, t := range stepTimings {
		variance += (t - mean) * (t - mean)
	}
	std := math.Sqrt(variance / n)
	cv := 0.0
	if mean > 0 {
		cv = std / mean
	}

	trend := detectTrend(stepTimings)

	roundCount := 0
	for _, t := range stepTimings {
		if math.Mod(t, 500) == 0 || (math.Mod(t, 100) == 0 && math.Mod(t, 500) != 0) {
			roundCount++
		}
	}
	roundRatio := float64(roundCount) / n

	var verdict Verdict
	switch {
	case cv < 0.05 && len(stepTimings) >= 3:
		verdict = VerdictArtificial
	case roundRatio > 0.5:
		verdict = VerdictArtificial
	case cv > 0.1:
		verdict = VerdictNatural
	default:
		verdict = VerdictInconclusive
	}

	return PatternAnalysis{
		VarianceCoefficient: round3From(cv),
		Trend:               trend,
		RoundNumberRatio:    math.Round(roundRatio*100) / 100,
		Verdict:             verdict,
	}
}

func classifyZone(elapsed float64, b Baseline) Zone {
	switch {
	case elapsed < b.TooFastMs:
		return ZoneTooFast
	case elapsed <= b.AIUpperMs:
		return ZoneAI
	case elapsed <= b.HumanMs:
		return ZoneSuspicious
	case elapsed <= b.TimeoutMs:
		return ZoneHuman
	default:
		return ZoneTimeout
	}
}

func computePenalty(zone Zone, elapsed float64, b Baseline) float64 {
	switch zone {
	case ZoneTooFast:
		return 1.0
	case ZoneAI:
		return 0.0
	case ZoneSuspicious:
		rng := b.HumanMs - b.AIUpperMs
		if rng <= 0 {
			return 0.5
		}
		position := (elapsed - b.AIUpperMs) / rng
		return 0.3 + position*0.4
	case ZoneHuman:
		return 0.9
	case ZoneTimeout:
		return 1.0
	default:
		return 0.0
	}
}

func computeZScore(elapsed float64, b Baseline) float64 {
	if b.StdMs == 0 {
		return 0
	}
	return (elapsed - b.MeanMs) / b.StdMs
}

func computeConfidence(elapsed float64, b Baseline, zone Zone) float64 {
	switch zone {
	case ZoneTooFast:
		ratio := elapsed / b.TooFastMs
		return math.Max(0.5, 1-ratio)
	case ZoneAI:
		distFromMean := math.Abs(elapsed - b.MeanMs)
		normalized := 0.0
		if b.StdMs > 0 {
			normalized = distFromMean / b.StdMs
		}
		return math.Max(0.5, math.Min(1, 1-normalized*0.15))
	case ZoneSuspicious:
		rng := b.HumanMs - b.AIUpperMs
		if rng <= 0 {
			return 0.4
		}
		return 0.4 + 0.2*((elapsed-b.AIUpperMs)/rng)
	case ZoneHuman:
		return 0.8
	case ZoneTimeout:
		return 0.95
	default:
		return 0.5
	}
}

func describeZone(zone Zone, elapsed float64, b Baseline) string {
	ms := int64(math.Round(elapsed))
	switch zone {
	case ZoneTooFast:
		return fmt.Sprintf("Response time %dms is below %dms threshold — likely pre-computed or scripted", ms, int64(b.TooFastMs))
	case ZoneAI:
		return fmt.Sprintf("Response time %dms is within expected AI range [%dms, %dms]", ms, int64(b.AILowerMs), int64(b.AIUpperMs))
	case ZoneSuspicious:
		return fmt.Sprintf("Response time %dms exceeds AI range — possible human assistance", ms)
	case ZoneHuman:
		return fmt.Sprintf("Response time %dms exceeds %dms — likely human solver", ms, int64(b.HumanMs))
	case ZoneTimeout:
		return fmt.Sprintf("Response time %dms exceeds timeout threshold of %dms", ms, int64(b.TimeoutMs))
	default:
		return ""
	}
}

func detectTrend(timings []float64) Trend {
	n := len(timings)
	if n < 3 {
		return TrendVariable
	}

	xMean := float64(n-1) / 2
	yMean := sum(timings) / float64(n)

	var numerator, denominator float64
	for i, t := range timings {
		numerator += (float64(i) - xMean) * (t - yMean)
		denominator += (float64(i) - xMean) * (float64(i) - xMean)
	}

	if denominator == 0 {
		return TrendConstant
	}
	slope := numerator / denominator

	normalizedSlope := 0.0
	if yMean > 0 {
		normalizedSlope = slope / yMean
	}

	switch {
	case math.Abs(normalizedSlope) < 0.05:
		return TrendConstant
	case normalizedSlope > 0.1:
		return TrendIncreasing
	case normalizedSlope < -0.1:
		return TrendDecreasing
	default:
		return TrendVariable
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func round3From(f float64) float64 {
	return math.Round(f*1000) / 1000
}
