package drivers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dyshay/agentauth"
)

type bugDef struct {
	name        string
	description string
}

var (
	bugOffByOne      = bugDef{name: "off_by_one", description: "Uses % 255 instead of % 256 in modulo operation"}
	bugOffByOneLoop  = bugDef{name: "off_by_one", description: "Loop runs rounds - 1 times instead of rounds"}
	bugWrongOperator = bugDef{name: "wrong_operator", description: "Uses + (addition) instead of ^ (XOR) as the accumulator operator"}
	bugMissingStep   = bugDef{name: "missing_step", description: "Missing byte reversal between hash rounds"}
	bugWrongInit     = bugDef{name: "wrong_init", description: "Accumulator initialized to 1 instead of 0"}
	bugWrongPad      = bugDef{name: "wrong_pad", description: "padStart uses length 1 instead of 2 for hex encoding"}
	bugWrongShift    = bugDef{name: "wrong_shift", description: "Shift amount is 7 instead of 8 in bit shifting"}
)

type templateInput struct {
	data   string // base64
	params map[string]any
}

type codeTemplate struct {
	name          string
	availableBugs []bugDef
	generateInput func() templateInput
	buggyCode     func(input templateInput, activeBugs []bugDef) string
	correctOutput func(input templateInput) (string, error)
}

func hasBug(bugs []bugDef, name string) bool {
	for _, b := range bugs {
		if b.name == name {
			return true
		}
	}
	return false
}

// --- byte_transform ---

func byteTransformGenInput() templateInput {
	size := randomInt(8, 16)
	data := agentauth.RandomBytes(size)
	return templateInput{data: base64.StdEncoding.EncodeToString(data), params: map[string]any{}}
}

func byteTransformBuggyCode(_ templateInput, activeBugs []bugDef) string {
	mod := "256"
	if hasBug(activeBugs, "off_by_one") {
		mod = "255"
	}
	multiplier := "(i + 1)"
	if hasBug(activeBugs, "wrong_shift") {
		multiplier = "((i + 1) << 7)"
	}

	return strings.Join([]string{
		"function transform(data) {",
		"  // data is a Uint8Array",
		"  const result = [];",
		"  for (let i = 0; i < data.length; i++) {",
		fmt.Sprintf("    result.push((data[i] * %s) %% %s);", multiplier, mod),
		"  }",
		"  // Return the SHA-256 hex digest of the resulting byte array",
		"  return sha256hex(Uint8Array.from(result));",
		"}",
	}, "\n")
}

func byteTransformCorrectOutput(input templateInput) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input.data)
	if err != nil {
		return "", err
	}
	result := make([]byte, len(data))
	for i, b := range data {
		result[i] = byte((int(b) * (i + 1)) % 256)
	}
	return agentauth.SHA256Hex(result), nil
}

var byteTransformTemplate = codeTemplate{
	name:          "byte_transform",
	availableBugs: []bugDef{bugOffByOne, bugWrongShift},
	generateInput: byteTransformGenInput,
	buggyCode:     byteTransformBuggyCode,
	correctOutput: byteTransformCorrectOutput,
}

// --- array_processing ---

func arrayProcessingGenInput() templateInput {
	size := randomInt(8, 24)
	data := agentauth.RandomBytes(size)
	return templateInput{data: base64.StdEncoding.EncodeToString(data), params: map[string]any{}}
}

func arrayProcessingBuggyCode(_ templateInput, activeBugs []bugDef) string {
	operator := "^"
	if hasBug(activeBugs, "wrong_operator") {
		operator = "+"
	}
	initVal := "0"
	if hasBug(activeBugs, "wrong_init") {
		initVal = "1"
	}
	padLen := "2"
	if hasBug(activeBugs, "wrong_pad") {
		padLen = "1"
	}

	return strings.Join([]string{
		"function process(data) {",
		"  // data is a Uint8Array",
		fmt.Sprintf("  let acc = %s;", initVal),
		"  for (const byte of data) {",
		fmt.Sprintf("    acc = (acc %s byte) & 0xFF;", operator),
		"  }",
		fmt.Sprintf("  return acc.toString(16).padStart(%s, '0');", padLen),
		"}",
	}, "\n")
}

func arrayProcessingCorrectOutput(input templateInput) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input.data)
	if err != nil {
		return "", err
	}
	acc := 0
	for _, b := range data {
		acc = (acc ^ int(b)) & 0xFF
	}
	return fmt.Sprintf("%02x", acc), nil
}

var arrayProcessingTemplate = codeTemplate{
	name:          "array_processing",
	availableBugs: []bugDef{bugWrongOperator, bugWrongInit, bugWrongPad},
	generateInput: arrayProcessingGenInput,
	buggyCode:     arrayProcessingBuggyCode,
	correctOutput: arrayProcessingCorrectOutput,
}

// --- hash_chain ---

func hashChainGenInput() templateInput {
	size := randomInt(8, 16)
	data := agentauth.RandomBytes(size)
	rounds := randomInt(2, 4)
	return templateInput{data: base64.StdEncoding.EncodeToString(data), params: map[string]any{"rounds": rounds}}
}

func hashChainBuggyCode(input templateInput, activeBugs []bugDef) string {
	rounds := input.params["rounds"].(int)
	loopEnd := fmt.Sprintf("%d", rounds)
	if hasBug(activeBugs, "off_by_one") {
		loopEnd = fmt.Sprintf("%d - 1", rounds)
	}
	reverseComment := "      current = current.reverse();"
	if hasBug(activeBugs, "missing_step") {
		reverseComment = "      // (no reversal step)"
	}

	return strings.Join([]string{
		"function hashChain(data, rounds) {",
		fmt.Sprintf("  // data is a Uint8Array, rounds = %d", rounds),
		"  let current = data;",
		fmt.Sprintf("  for (let i = 0; i < %s; i++) {", loopEnd),
		"    current = sha256(current); // returns Uint8Array",
		reverseComment,
		"  }",
		"  return hex(current); // returns hex string",
		"}",
	}, "\n")
}

func hashChainCorrectOutput(input templateInput) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input.data)
	if err != nil {
		return "", err
	}
	rounds := input.params["rounds"].(int)
	current := data
	for i := 0; i < rounds; i++ {
		hashHex := agentauth.SHA256Hex(current)
		hashBytes, err := agentauth.FromHex(hashHex)
		if err != nil {
			return "", err
		}
		current = reverseBytes(hashBytes)
	}
	return agentauth.ToHex(current), nil
}

var hashChainTemplate = codeTemplate{
	name:          "hash_chain",
	availableBugs: []bugDef{bugMissingStep, bugOffByOneLoop},
	generateInput: hashChainGenInput,
	buggyCode:     hashChainBuggyCode,
	correctOutput: hashChainCorrectOutput,
}

var allCodeTemplates = []codeTemplate{byteTransformTemplate, arrayProcessingTemplate, hashChainTemplate}

type codeExecutionDifficultyConfig struct {
	BugCount      int
	TemplateNames []string
	EdgeCaseHint  bool
}

var codeExecutionDifficultyConfig = map[agentauth.Difficulty]codeExecutionDifficultyConfig{
	agentauth.DifficultyEasy:        {BugCount: 1, TemplateNames: []string{"byte_transform", "array_processing"}, EdgeCaseHint: false},
	agentauth.DifficultyMedium:      {BugCount: 1, TemplateNames: []string{"byte_transform", "array_processing", "hash_chain"}, EdgeCaseHint: false},
	agentauth.DifficultyHard:        {BugCount: 2, TemplateNames: []string{"byte_transform", "array_processing", "hash_chain"}, EdgeCaseHint: false},
	agentauth.DifficultyAdversarial: {BugCount: 3, TemplateNames: []string{"byte_transform", "array_processing", "hash_chain"}, EdgeCaseHint: true},
}

func selectBugs(template codeTemplate, count int) []bugDef {
	available := append([]bugDef(nil), template.availableBugs...)
	var selected []bugDef
	toSelect := count
	if toSelect > len(available) {
		toSelect = len(available)
	}
	for i := 0; i < toSelect; i++ {
		idx := randomInt(0, len(available)-1)
		selected = append(selected, available[idx])
		available = append(available[:idx], available[idx+1:]...)
	}
	return selected
}

func bugsToContext(bugs []bugDef) []map[string]any {
	out := make([]map[string]any, len(bugs))
	for i, b := range bugs {
		out[i] = map[string]any{"name": b.name, "description": b.description}
	}
	return out
}

// CodeExecutionDriver presents a buggy JavaScript pseudocode snippet and
// asks the solver to mentally execute the fixed version against a given
// input, probing both debugging reasoning and precise execution.
type CodeExecutionDriver struct{}

func (CodeExecutionDriver) Name() string               { return "code-execution" }
func (CodeExecutionDriver) Dimensions() []string        { return []string{"reasoning", "execution"} }
func (CodeExecutionDriver) EstimatedHumanTimeMs() int64 { return 120_000 }
func (CodeExecutionDriver) EstimatedAITimeMs() int64    { return 2_000 }

func (CodeExecutionDriver) Generate(difficulty agentauth.Difficulty) (agentauth.ChallengePayload, string, error) {
	config := codeExecutionDifficultyConfig[difficulty]

	var eligible []codeTemplate
	for _, t := range allCodeTemplates {
		for _, name := range config.TemplateNames {
			if t.name == name {
				eligible = append(eligible, t)
				break
			}
		}
	}
	template := pickRandom(eligible)

	input := template.generateInput()
	bugs := selectBugs(template, config.BugCount)
	buggyCode := template.buggyCode(input, bugs)

	correctOutput, err := template.correctOutput(input)
	if err != nil {
		return agentauth.ChallengePayload{}, "", err
	}

	inputBytes, err := base64.StdEncoding.DecodeString(input.data)
	if err != nil {
		return agentauth.ChallengePayload{}, "", err
	}
	inputHex := agentauth.ToHex(inputBytes)

	var paramLines []string
	if rounds, ok := input.params["rounds"]; ok {
		paramLines = append(paramLines, fmt.Sprintf("Rounds: %v", rounds))
	}

	edgeCaseNote := ""
	if config.EdgeCaseHint {
		edgeCaseNote = "\n\nNote: Pay close attention to boundary conditions, operator precedence, and off-by-one errors."
	}

	lines := []string{
		"The following JavaScript function contains bug(s). Your task is to:",
		"1. Identify and fix all bugs in the code",
		"2. Mentally execute the fixed code with the provided input",
		"3. Return the correct output",
		"",
		"## Code",
		"```javascript",
		buggyCode,
		"```",
		"",
		"## Input",
		fmt.Sprintf("Data (hex): %s", inputHex),
	}
	lines = append(lines, paramLines...)
	lines = append(lines,
		"",
		"## Notes",
		"- sha256hex() / sha256() compute SHA-256 and return hex string / Uint8Array respectively",
		"- hex() converts a Uint8Array to a hex string",
		"- All arithmetic on bytes should stay within 0-255 range",
		edgeCaseNote,
		"",
		"Return the exact output of the fixed function.",
	)

	payload := agentauth.ChallengePayload{
		Type:         "code-execution",
		Instructions: strings.Join(lines, "\n"),
		Data:         input.data,
		Steps:        len(bugs),
		Context: map[string]any{
			"templateName":  template.name,
			"bugs":          bugsToContext(bugs),
			"correctOutput": correctOutput,
			"inputParams":   input.params,
		},
	}
	return payload, correctOutput, nil
}

func (CodeExecutionDriver) ComputeAnswerHash(_ agentauth.ChallengePayload, answer string) (string, error) {
	return agentauth.SHA256Hex([]byte(answer)), nil
}

func (d CodeExecutionDriver) Verify(payload agentauth.ChallengePayload, answerHash, submitted string) (bool, error) {
	submittedHash, err := d.ComputeAnswerHash(payload, submitted)
	if err != nil {
		return false, err
	}
	return agentauth.TimingSafeEqual(answerHash, submittedHash), nil
}
