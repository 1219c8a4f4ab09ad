package drivers

import (
	"encoding/base64"
	"fmt"
	"math/rand"

	"github.com/dyshay/agentauth"
)

// stepDef describes one step of a multi-step challenge. Recognized
// "type" values: sha256, xor (+key int), hmac (+key hex string, step 0
// only), slice (+start,end int), memory_recall (+step,byteIndex int),
// memory_apply (+step int).
type stepDef map[string]any

type stepResult struct {
	def    stepDef
	result string // hex
}

func (s stepDef) typ() string { return s["type"].(string) }

func executeStep(stepIndex int, def stepDef, inputDataHex string, previous []stepResult) (string, error) {
	switch def.typ() {
	case "sha256":
		source := inputDataHex
		if stepIndex != 0 {
			source = previous[stepIndex-1].result
		}
		data, err := agentauth.FromHex(source)
		if err != nil {
			return "", err
		}
		return agentauth.SHA256Hex(data), nil

	case "xor":
		source := inputDataHex
		if stepIndex != 0 {
			source = previous[stepIndex-1].result
		}
		data, err := agentauth.FromHex(source)
		if err != nil {
			return "", err
		}
		key := byte(def["key"].(int) & 0xFF)
		out := make([]byte, len(data))
		for i, b := range data {
			out[i] = b ^ key
		}
		return agentauth.ToHex(out), nil

	case "hmac":
		var keyBytes, msgBytes []byte
		var err error
		if stepIndex == 0 {
			keyBytes, err = agentauth.FromHex(def["key"].(string))
			if err != nil {
				return "", err
			}
			msgBytes, err = agentauth.FromHex(inputDataHex)
		} else {
			keyBytes, err = agentauth.FromHex(previous[stepIndex-1].result)
			if err != nil {
				return "", err
			}
			msgBytes, err = agentauth.FromHex(inputDataHex)
		}
		if err != nil {
			return "", err
		}
		return agentauth.ToHex(agentauth.HMACSHA256Bytes(keyBytes, msgBytes)), nil

	case "slice":
		source := inputDataHex
		if stepIndex != 0 {
			source = previous[stepIndex-1].result
		}
		data, err := agentauth.FromHex(source)
		if err != nil {
			return "", err
		}
		start, end := def["start"].(int), def["end"].(int)
		if end > len(data) {
			end = len(data)
		}
		if start > end {
			start = end
		}
		return agentauth.ToHex(data[start:end]), nil

	case "memory_recall":
		target := previous[def["step"].(int)].result
		data, err := agentauth.FromHex(target)
		if err != nil {
			return "", err
		}
		byteVal := data[def["byteIndex"].(int)]
		return fmt.Sprintf("%02x", byteVal), nil

	case "memory_apply":
		refDef := previous[def["step"].(int)].def
		return executeStep(stepIndex, refDef, inputDataHex, previous[:stepIndex])

	default:
		return "", fmt.Errorf("unknown step type: %s", def.typ())
	}
}

func executeAllSteps(steps []stepDef, inputDataHex string) ([]stepResult, error) {
	results := make([]stepResult, 0, len(steps))
	for i, def := range steps {
		result, err := executeStep(i, def, inputDataHex, results)
		if err != nil {
			return nil, err
		}
		results = append(results, stepResult{def: def, result: result})
	}
	return results, nil
}

func computeFinalAnswer(results []stepResult) string {
	concatenated := ""
	for _, r := range results {
		concatenated += r.result
	}
	return agentauth.SHA256Hex([]byte(concatenated))
}

var sha256Phrasings = []func(ref string) string{
	func(ref string) string { return fmt.Sprintf("Compute the SHA-256 hash of %s. Your result is", ref) },
	func(ref string) string { return fmt.Sprintf("Hash %s using SHA-256. Your result is", ref) },
	func(ref string) string { return fmt.Sprintf("Apply SHA-256 to %s. Your result is", ref) },
}

var xorPhrasings = []func(ref string, key int) string{
	func(ref string, key int) string { return fmt.Sprintf("XOR each byte of %s with 0x%02X. Your result is", ref, key) },
	func(ref string, key int) string {
		return fmt.Sprintf("Apply exclusive-or with the value %d to every byte of %s. Your result is", key, ref)
	},
	func(ref string, key int) string {
		return fmt.Sprintf("Bitwise XOR each byte of %s using the key 0x%02x. Your result is", ref, key)
	},
}

var hmacPhrasings = []func(keyRef, msgRef string) string{
	func(keyRef, msgRef string) string {
		return fmt.Sprintf("Compute HMAC-SHA256 with %s as key and %s as message. Your result is", keyRef, msgRef)
	},
	func(keyRef, msgRef string) string {
		return fmt.Sprintf("Use %s as an HMAC-SHA256 key to sign %s. Your result is", keyRef, msgRef)
	},
}

var slicePhrasings = []func(ref string, start, end int) string{
	func(ref string, start, end int) string {
		return fmt.Sprintf("Take bytes %d through %d (inclusive) from %s. Your result is", start, end-1, ref)
	},
	func(ref string, start, end int) string {
		return fmt.Sprintf("Extract the first %d bytes of %s starting at offset %d. Your result is", end-start, ref, start)
	},
}

var recallPhrasings = []func(stepNum, byteIdx int) string{
	func(stepNum, byteIdx int) string {
		return fmt.Sprintf("What was byte %d (0-indexed) of your result R%d? Express as a 2-digit hex value. Your result is", byteIdx, stepNum)
	},
	func(stepNum, byteIdx int) string {
		return fmt.Sprintf("Recall the value of byte at position %d in R%d, written as two hex digits. Your result is", byteIdx, stepNum)
	},
}

var applyPhrasings = []func(stepNum int, prevRef string) string{
	func(stepNum int, prevRef string) string {
		return fmt.Sprintf("Apply the same operation you performed in step %d to %s. Your result is", stepNum, prevRef)
	},
	func(stepNum int, prevRef string) string {
		return fmt.Sprintf("Repeat the operation from step %d, but this time on %s. Your result is", stepNum, prevRef)
	},
}

func generateInstruction(stepIndex int, def stepDef) string {
	stepNum := stepIndex + 1
	resultLabel := fmt.Sprintf("R%d", stepNum)
	prevRef := "the provided data"
	if stepIndex != 0 {
		prevRef = fmt.Sprintf("R%d", stepIndex)
	}

	switch def.typ() {
	case "sha256":
		phrasing := pickRandom(sha256Phrasings)(prevRef)
		return fmt.Sprintf("Step %d: %s %s.", stepNum, phrasing, resultLabel)

	case "xor":
		phrasing := pickRandom(xorPhrasings)(prevRef, def["key"].(int))
		return fmt.Sprintf("Step %d: %s %s.", stepNum, phrasing, resultLabel)

	case "hmac":
		var phrasing string
		if stepIndex == 0 {
			phrasing = pickRandom(hmacPhrasings)(fmt.Sprintf("the hex key %q", def["key"].(string)), "the provided data")
		} else {
			phrasing = pickRandom(hmacPhrasings)(fmt.Sprintf("R%d", stepIndex), "the provided data")
		}
		return fmt.Sprintf("Step %d: %s %s.", stepNum, phrasing, resultLabel)

	case "slice":
		phrasing := pickRandom(slicePhrasings)(prevRef, def["start"].(int), def["end"].(int))
		return fmt.Sprintf("Step %d: %s %s.", stepNum, phrasing, resultLabel)

	case "memory_recall":
		phrasing := pickRandom(recallPhrasings)(def["step"].(int)+1, def["byteIndex"].(int))
		return fmt.Sprintf("Step %d: %s %s.", stepNum, phrasing, resultLabel)

	case "memory_apply":
		phrasing := pickRandom(applyPhrasings)(def["step"].(int)+1, prevRef)
		return fmt.Sprintf("Step %d: %s %s.", stepNum, phrasing, resultLabel)

	default:
		return ""
	}
}

func generateAllInstructions(steps []stepDef) string {
	out := ""
	for i, def := range steps {
		if i > 0 {
			out += "\n"
		}
		out += generateInstruction(i, def)
	}
	refs := ""
	for i := range steps {
		if i > 0 {
			refs += " + "
		}
		refs += fmt.Sprintf("R%d", i+1)
	}
	out += fmt.Sprintf("\nYour final answer: SHA-256 of the concatenation of %s (all as lowercase hex strings, concatenated without separators).", refs)
	return out
}

type multiStepDifficultyConfig struct {
	TotalSteps   int
	DataSize     int
	ComputeSteps int
	MemoryRecall int
	MemoryApply  int
}

var multiStepDifficultyConfigs = map[agentauth.Difficulty]multiStepDifficultyConfig{
	agentauth.DifficultyEasy:        {TotalSteps: 3, DataSize: 32, ComputeSteps: 3, MemoryRecall: 0, MemoryApply: 0},
	agentauth.DifficultyMedium:      {TotalSteps: 4, DataSize: 32, ComputeSteps: 3, MemoryRecall: 1, MemoryApply: 0},
	agentauth.DifficultyHard:        {TotalSteps: 5, DataSize: 64, ComputeSteps: 3, MemoryRecall: 1, MemoryApply: 1},
	agentauth.DifficultyAdversarial: {TotalSteps: 7, DataSize: 64, ComputeSteps: 4, MemoryRecall: 2, MemoryApply: 1},
}

var computeStepTypes = []string{"sha256", "xor", "hmac", "slice"}
var firstComputeStepTypes = []string{"sha256", "xor"}

func generateComputeStep(stepIndex, dataSize int, previous []stepResult) stepDef {
	available := computeStepTypes
	if stepIndex == 0 {
		available = firstComputeStepTypes
	}
	stepType := pickRandom(available)

	switch stepType {
	case "sha256":
		return stepDef{"type": "sha256"}
	case "xor":
		return stepDef{"type": "xor", "key": randomInt(1, 255)}
	case "hmac":
		if stepIndex == 0 {
			return stepDef{"type": "hmac", "key": agentauth.ToHex(agentauth.RandomBytes(16))}
		}
		return stepDef{"type": "hmac", "key": ""}
	case "slice":
		var prevResultLen int
		if stepIndex == 0 {
			prevResultLen = dataSize
		} else {
			prevResultLen = 32
			if len(previous) > 0 {
				prevHex := previous[stepIndex-1].result
				if prevHex != "" {
					if data, err := agentauth.FromHex(prevHex); err == nil {
						prevResultLen = len(data)
					}
				}
			}
		}
		maxEnd := prevResultLen
		if maxEnd < 4 {
			maxEnd = 4
		}
		start := randomInt(0, maxEnd/4)
		end := randomInt(start+2, min(start+maxEnd/2, maxEnd))
		return stepDef{"type": "slice", "start": start, "end": end}
	default:
		return stepDef{"type": "sha256"}
	}
}

func generateMemoryRecallStep(previous []stepResult) stepDef {
	stepIdx := randomInt(0, len(previous)-1)
	resultBytes, _ := agentauth.FromHex(previous[stepIdx].result)
	byteIndex := randomInt(0, len(resultBytes)-1)
	return stepDef{"type": "memory_recall", "step": stepIdx, "byteIndex": byteIndex}
}

func generateMemoryApplyStep(previous []stepResult) stepDef {
	type candidate struct {
		index int
		def   stepDef
	}
	var computeSteps []candidate
	for i, r := range previous {
		t := r.def.typ()
		if t != "memory_recall" && t != "memory_apply" {
			computeSteps = append(computeSteps, candidate{index: i, def: r.def})
		}
	}
	if len(computeSteps) == 0 {
		return stepDef{"type": "memory_apply", "step": 0}
	}
	target := computeSteps[rand.Intn(len(computeSteps))]
	return stepDef{"type": "memory_apply", "step": target.index}
}

func generateSteps(difficulty agentauth.Difficulty, inputDataHex string) ([]stepDef, []stepResult, error) {
	config := multiStepDifficultyConfigs[difficulty]
	var steps []stepDef
	var results []stepResult

	for i := 0; i < config.ComputeSteps; i++ {
		def := generateComputeStep(i, config.DataSize, results)
		steps = append(steps, def)
		result, err := executeStep(i, def, inputDataHex, results)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, stepResult{def: def, result: result})
	}

	for i := 0; i < config.MemoryRecall; i++ {
		def := generateMemoryRecallStep(results)
		stepIdx := len(steps)
		steps = append(steps, def)
		result, err := executeStep(stepIdx, def, inputDataHex, results)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, stepResult{def: def, result: result})
	}

	for i := 0; i < config.MemoryApply; i++ {
		def := generateMemoryApplyStep(results)
		stepIdx := len(steps)
		steps = append(steps, def)
		result, err := executeStep(stepIdx, def, inputDataHex, results)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, stepResult{def: def, result: result})
	}

	return steps, results, nil
}

func stepsToContext(steps []stepDef) []map[string]any {
	out := make([]map[string]any, len(steps))
	for i, s := range steps {
		out[i] = map[string]any(s)
	}
	return out
}

func stepsFromContext(raw []map[string]any) []stepDef {
	out := make([]stepDef, len(raw))
	for i, m := range raw {
		out[i] = stepDef(m)
	}
	return out
}

// MultiStepDriver chains compute, memory-recall, and memory-apply steps
// over a shared byte buffer, phrased as independent natural-language
// instructions that only make sense solved in order.
type MultiStepDriver struct{}

func (MultiStepDriver) Name() string               { return "multi-step" }
func (MultiStepDriver) Dimensions() []string        { return []string{"reasoning", "execution", "memory"} }
func (MultiStepDriver) EstimatedHumanTimeMs() int64 { return 120_000 }
func (MultiStepDriver) EstimatedAITimeMs() int64    { return 2_000 }

func (d MultiStepDriver) Generate(difficulty agentauth.Difficulty) (agentauth.ChallengePayload, string, error) {
	config := multiStepDifficultyConfigs[difficulty]
	data := agentauth.RandomBytes(config.DataSize)
	inputDataHex := agentauth.ToHex(data)

	steps, results, err := generateSteps(difficulty, inputDataHex)
	if err != nil {
		return agentauth.ChallengePayload{}, "", err
	}
	finalAnswer := computeFinalAnswer(results)
	instructions := generateAllInstructions(steps)

	expectedResults := make([]string, len(results))
	for i, r := range results {
		expectedResults[i] = r.result
	}

	payload := agentauth.ChallengePayload{
		Type:         "multi-step",
		Instructions: instructions,
		Data:         base64.StdEncoding.EncodeToString(data),
		Steps:        len(steps),
		Context: map[string]any{
			"stepDefs":        stepsToContext(steps),
			"expectedResults": expectedResults,
			"expectedAnswer":  finalAnswer,
		},
	}
	return payload, finalAnswer, nil
}

func (MultiStepDriver) solve(payload agentauth.ChallengePayload) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		return "", err
	}
	inputDataHex := agentauth.ToHex(data)
	rawSteps, _ := payload.Context["stepDefs"].([]map[string]any)
	steps := stepsFromContext(rawSteps)
	results, err := executeAllSteps(steps, inputDataHex)
	if err != nil {
		return "", err
	}
	return computeFinalAnswer(results), nil
}

func (MultiStepDriver) ComputeAnswerHash(_ agentauth.ChallengePayload, answer string) (string, error) {
	return agentauth.SHA256Hex([]byte(answer)), nil
}

func (d MultiStepDriver) Verify(payload agentauth.ChallengePayload, answerHash, submitted string) (bool, error) {
	submittedHash, err := d.ComputeAnswerHash(payload, submitted)
	if err != nil {
		return false, err
	}
	return agentauth.TimingSafeEqual(answerHash, submittedHash), nil
}
