package pomi

import (
	"math"
	"regexp"
	"sort"
)

// Classifier runs a Bayesian model-family classification over canary
// evidence: each answered canary updates a posterior over model families,
// normalized after every update to avoid underflow.
type Classifier struct {
	modelFamilies       []string
	confidenceThreshold float64
	extractor           *Extractor
}

// NewClassifier builds a Classifier over the given model families.
func NewClassifier(modelFamilies []string, confidenceThreshold float64) *Classifier {
	return &Classifier{
		modelFamilies:       modelFamilies,
		confidenceThreshold: confidenceThreshold,
		extractor:           NewExtractor(),
	}
}

// Classify produces a ModelIdentification from the injected canaries and
// the responses the solver supplied.
func (c *Classifier) Classify(injected []Canary, responses map[string]string) ModelIdentification {
	if len(responses) == 0 || len(injected) == 0 {
		return ModelIdentification{Family: "unknown"}
	}

	evidence := c.extractor.Extract(injected, responses)
	if len(evidence) == 0 {
		return ModelIdentification{Family: "unknown"}
	}

	posteriors := make(map[string]float64, len(c.modelFamilies))
	uniform := 1.0 / float64(len(c.modelFamilies))
	for _, family := range c.modelFamilies {
		posteriors[family] = uniform
	}

	for _, canary := range injected {
		response, ok := responses[canary.ID]
		if !ok {
			continue
		}
		for _, family := range c.modelFamilies {
			likelihood := c.computeLikelihood(canary, response, family)
			posteriors[family] *= likelihood
		}
		normalize(posteriors)
	}

	bestFamily := "unknown"
	bestConfidence := 0.0
	for _, family := range c.modelFamilies {
		if posteriors[family] > bestConfidence {
			bestConfidence = posteriors[family]
			bestFamily = family
		}
	}

	var alternatives []ModelAlternative
	for _, family := range c.modelFamilies {
		if family == bestFamily {
			continue
		}
		alternatives = append(alternatives, ModelAlternative{
			Family:     family,
			Confidence: round3(posteriors[family]),
		})
	}
	sort.SliceStable(alternatives, func(i, j int) bool {
		return alternatives[i].Confidence > alternatives[j].Confidence
	})

	if bestConfidence < c.confidenceThreshold {
		below := append([]ModelAlternative{{Family: bestFamily, Confidence: round3(bestConfidence)}}, alternatives...)
		return ModelIdentification{
			Family:       "unknown",
			Confidence:   round3(bestConfidence),
			Evidence:     evidence,
			Alternatives: below,
		}
	}

	return ModelIdentification{
		Family:       bestFamily,
		Confidence:   round3(bestConfidence),
		Evidence:     evidence,
		Alternatives: alternatives,
	}
}

func (c *Classifier) computeLikelihood(canary Canary, response, family string) float64 {
	weight := canary.ConfidenceWeight

	switch analysis := canary.Analysis.(type) {
	case ExactMatchAnalysis:
		expected, ok := analysis.Expected[family]
		if !ok || expected == "" {
			return 0.5
		}
		if trimLower(response) == trimLower(expected) {
			return 0.5 + 0.5*weight
		}
		return 0.5 - 0.4*weight

	case PatternAnalysis:
		pattern, ok := analysis.Patterns[family]
		if !ok || pattern == "" {
			return 0.5
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return 0.5
		}
		if re.MatchString(response) {
			return 0.5 + 0.45*weight
		}
		return 0.5 - 0.35*weight

	case StatisticalAnalysis:
		dist, ok := analysis.Distributions[family]
		if !ok {
			return 0.5
		}
		value, found := firstNumber(response)
		if !found {
			return 0.5
		}
		pdf := gaussianPDF(value, dist.Mean, dist.Stddev)
		maxPDF := gaussianPDF(dist.Mean, dist.Mean, dist.Stddev)
		normalizedPDF := 0.0
		if maxPDF > 0 {
			normalizedPDF = pdf / maxPDF
		}
		return 0.1 + 0.8*normalizedPDF*weight
	}

	return 0.5
}

func gaussianPDF(x, mean, stddev float64) float64 {
	z := (x - mean) / stddev
	return math.Exp(-0.5*z*z) / (stddev * math.Sqrt(2*math.Pi))
}

func normalize(posteriors map[string]float64) {
	total := 0.0
	for _, v := range posteriors {
		total += v
	}
	if total == 0 {
		uniform := 1.0 / float64(len(posteriors))
		for k := range posteriors {
			posteriors[k] = uniform
		}
		return
	}
	for k, v := range posteriors {
		posteriors[k] = v / total
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
