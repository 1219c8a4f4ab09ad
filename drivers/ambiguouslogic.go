package drivers

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/dyshay/agentauth"
)

type acceptableAnswer struct {
	answer string // hex
	score  float64
}

type scoredAnswerHash struct {
	answerHash string
	score      float64
}

type ambiguousTemplate struct {
	name     string
	generate func(data []byte, difficulty agentauth.Difficulty) (string, []acceptableAnswer)
}

func xorBytes(data []byte, key int) []byte {
	k := byte(key & 0xFF)
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ k
	}
	return out
}

func sortAscending(data []byte) []byte {
	out := append([]byte(nil), data...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func reverseBytes(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out
}

var luckyNumberAltScores = map[int]float64{3: 0.6, 8: 0.6, 13: 0.7}

func luckyNumberGenerate(data []byte, difficulty agentauth.Difficulty) (string, []acceptableAnswer) {
	byteCount := len(data)

	var primaryResult []byte
	if byteCount == 7 {
		primaryResult = xorBytes(data, 7)
	} else {
		primaryResult = xorBytes(data, 13)
	}

	alternatives := []acceptableAnswer{{answer: agentauth.ToHex(primaryResult), score: 1.0}}

	if difficulty != agentauth.DifficultyEasy {
		for _, lucky := range []int{3, 8, 13} {
			var altResult []byte
			if byteCount == lucky {
				altResult = xorBytes(data, 7)
			} else {
				altResult = xorBytes(data, 13)
			}
			altHex := agentauth.ToHex(altResult)
			if altHex != alternatives[0].answer {
				alternatives = append(alternatives, acceptableAnswer{answer: altHex, score: luckyNumberAltScores[lucky]})
			}
		}
	}

	phrasings := []string{
		fmt.Sprintf("You are given %d bytes of data (base64-encoded).\n"+
			"If the number of bytes is a lucky number, XOR each byte with 7.\n"+
			"Otherwise, XOR each byte with 13.\n"+
			"Return the hex-encoded result.", byteCount),
		fmt.Sprintf("The data below contains %d bytes.\n"+
			"When the byte count is lucky, apply XOR 7 to every byte.\n"+
			"When unlucky, apply XOR 13 instead.\n"+
			"Provide your answer as a hex string.", byteCount),
	}

	return pickRandom(phrasings), alternatives
}

func famousConstantGenerate(data []byte, _ agentauth.Difficulty) (string, []acceptableAnswer) {
	piResult := xorBytes(data, 31)
	eResult := xorBytes(data, 27)
	phiResult := xorBytes(data, 16)

	alternatives := []acceptableAnswer{
		{answer: agentauth.ToHex(piResult), score: 1.0},
		{answer: agentauth.ToHex(eResult), score: 0.8},
		{answer: agentauth.ToHex(phiResult), score: 0.6},
	}

	phrasings := []string{
		"XOR each byte of the provided data with the most famous mathematical constant's first two digits as an integer.\n" +
			"Return the hex-encoded result.",
		"Take the universally recognized mathematical constant, extract its first two digits as a whole number, " +
			"and XOR every byte of the data with that number.\n" +
			"Provide the hex-encoded output.",
	}

	return pickRandom(phrasings), alternatives
}

func bigSmallGenerate(data []byte, _ agentauth.Difficulty) (string, []acceptableAnswer) {
	firstByte := data[0]

	choose := func(threshold byte) []byte {
		if firstByte > threshold {
			return reverseBytes(data)
		}
		return sortAscending(data)
	}

	primary127 := choose(127)
	alt100 := choose(100)
	alt200 := choose(200)

	alternatives := []acceptableAnswer{{answer: agentauth.ToHex(primary127), score: 1.0}}

	alt100Hex := agentauth.ToHex(alt100)
	alt200Hex := agentauth.ToHex(alt200)

	if alt100Hex != alternatives[0].answer {
		alternatives = append(alternatives, acceptableAnswer{answer: alt100Hex, score: 0.8})
	}
	if alt200Hex != alternatives[0].answer && alt200Hex != alt100Hex {
		alternatives = append(alternatives, acceptableAnswer{answer: alt200Hex, score: 0.7})
	}

	phrasings := []string{
		"If the first byte of the data is big, reverse the entire byte array.\n" +
			"Otherwise, sort all bytes in ascending order.\n" +
			"Return the hex-encoded result.",
		"Examine the first byte. If it is a big value, flip the array end-to-end.\n" +
			"If it is small, arrange bytes from lowest to highest.\n" +
			"Provide the hex-encoded output.",
	}

	return pickRandom(phrasings), alternatives
}

var allAmbiguousTemplates = []ambiguousTemplate{
	{name: "lucky-number", generate: luckyNumberGenerate},
	{name: "famous-constant", generate: famousConstantGenerate},
	{name: "big-small", generate: bigSmallGenerate},
}

var ambiguousLogicDifficultyConfig = map[agentauth.Difficulty]struct {
	DataSize      int
	TemplateCount int
}{
	agentauth.DifficultyEasy:        {DataSize: 8, TemplateCount: 1},
	agentauth.DifficultyMedium:      {DataSize: 16, TemplateCount: 1},
	agentauth.DifficultyHard:        {DataSize: 32, TemplateCount: 2},
	agentauth.DifficultyAdversarial: {DataSize: 64, TemplateCount: 3},
}

func selectAmbiguousTemplates(count int) []ambiguousTemplate {
	shuffled := append([]ambiguousTemplate(nil), allAmbiguousTemplates...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

func hashAnswers(answers []acceptableAnswer) []scoredAnswerHash {
	out := make([]scoredAnswerHash, len(answers))
	for i, a := range answers {
		out[i] = scoredAnswerHash{answerHash: agentauth.SHA256Hex([]byte(a.answer)), score: a.score}
	}
	return out
}

func scoredAnswersToContext(scored []scoredAnswerHash) []map[string]any {
	out := make([]map[string]any, len(scored))
	for i, s := range scored {
		out[i] = map[string]any{"answerHash": s.answerHash, "score": s.score}
	}
	return out
}

func generateSingleAmbiguous(template ambiguousTemplate, data []byte, difficulty agentauth.Difficulty) agentauth.ChallengePayload {
	instructions, answers := template.generate(data, difficulty)
	scored := hashAnswers(answers)

	return agentauth.ChallengePayload{
		Type:         "ambiguous-logic",
		Instructions: instructions,
		Data:         base64.StdEncoding.EncodeToString(data),
		Steps:        1,
		Context: map[string]any{
			"templateName":  template.name,
			"primaryAnswer": answers[0].answer,
			"scoredAnswers": scoredAnswersToContext(scored),
		},
	}
}

func generateChainedAmbiguous(templates []ambiguousTemplate, data []byte, difficulty agentauth.Difficulty) (agentauth.ChallengePayload, error) {
	currentData := data
	var instructionParts []string
	var allAcceptable []acceptableAnswer
	var templateNames []string

	for i, template := range templates {
		instructions, answers := template.generate(currentData, difficulty)
		instructionParts = append(instructionParts, fmt.Sprintf("--- Part %d ---\n%s", i+1, instructions))
		templateNames = append(templateNames, template.name)

		if i == 0 {
			allAcceptable = answers
		} else {
			var chained []acceptableAnswer
			for _, prev := range allAcceptable {
				prevData, err := agentauth.FromHex(prev.answer)
				if err != nil {
					return agentauth.ChallengePayload{}, err
				}
				_, chainAnswers := template.generate(prevData, difficulty)
				for _, ans := range chainAnswers {
					chained = append(chained, acceptableAnswer{answer: ans.answer, score: prev.score * ans.score})
				}
			}
			allAcceptable = chained
		}

		next, err := agentauth.FromHex(allAcceptable[0].answer)
		if err != nil {
			return agentauth.ChallengePayload{}, err
		}
		currentData = next
	}

	uniqueMap := make(map[string]float64)
	var order []string
	for _, ans := range allAcceptable {
		existing, ok := uniqueMap[ans.answer]
		if !ok || ans.score > existing {
			if !ok {
				order = append(order, ans.answer)
			}
			uniqueMap[ans.answer] = ans.score
		}
	}

	deduplicated := make([]acceptableAnswer, len(order))
	for i, a := range order {
		deduplicated[i] = acceptableAnswer{answer: a, score: uniqueMap[a]}
	}
	sort.SliceStable(deduplicated, func(i, j int) bool { return deduplicated[i].score > deduplicated[j].score })

	scored := hashAnswers(deduplicated)

	fullInstructions := "This is a multi-part ambiguous logic challenge.\n" +
		"Apply each part's transformation in order, using the output of the previous part as input for the next.\n\n" +
		strings.Join(instructionParts, "\n\n")

	return agentauth.ChallengePayload{
		Type:         "ambiguous-logic",
		Instructions: fullInstructions,
		Data:         base64.StdEncoding.EncodeToString(data),
		Steps:        len(templates),
		Context: map[string]any{
			"templateNames": templateNames,
			"primaryAnswer": deduplicated[0].answer,
			"scoredAnswers": scoredAnswersToContext(scored),
		},
	}, nil
}

// AmbiguousLogicDriver poses deliberately under-specified puzzles with
// several acceptable answers of descending plausibility, probing whether
// a solver converges on the intended interpretation.
type AmbiguousLogicDriver struct{}

func (AmbiguousLogicDriver) Name() string               { return "ambiguous-logic" }
func (AmbiguousLogicDriver) Dimensions() []string        { return []string{"reasoning", "ambiguity"} }
func (AmbiguousLogicDriver) EstimatedHumanTimeMs() int64 { return 45_000 }
func (AmbiguousLogicDriver) EstimatedAITimeMs() int64    { return 1_000 }

func (AmbiguousLogicDriver) Generate(difficulty agentauth.Difficulty) (agentauth.ChallengePayload, string, error) {
	config := ambiguousLogicDifficultyConfig[difficulty]
	data := agentauth.RandomBytes(config.DataSize)

	selected := selectAmbiguousTemplates(config.TemplateCount)

	var payload agentauth.ChallengePayload
	if len(selected) == 1 {
		payload = generateSingleAmbiguous(selected[0], data, difficulty)
	} else {
		var err error
		payload, err = generateChainedAmbiguous(selected, data, difficulty)
		if err != nil {
			return agentauth.ChallengePayload{}, "", err
		}
	}

	answer, _ := payload.Context["primaryAnswer"].(string)
	return payload, answer, nil
}

func (AmbiguousLogicDriver) ComputeAnswerHash(_ agentauth.ChallengePayload, answer string) (string, error) {
	return agentauth.SHA256Hex([]byte(answer)), nil
}

func (d AmbiguousLogicDriver) Verify(payload agentauth.ChallengePayload, answerHash, submitted string) (bool, error) {
	submittedHash, err := d.ComputeAnswerHash(payload, submitted)
	if err != nil {
		return false, err
	}
	return agentauth.TimingSafeEqual(answerHash, submittedHash), nil
}
