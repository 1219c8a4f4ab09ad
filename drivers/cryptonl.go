// Package drivers implements the built-in agentauth.ChallengeDriver
// family: byte-pipeline transforms described in natural language
// (crypto-nl), chained computed/recall steps (multi-step), deliberately
// under-specified puzzles with multiple acceptable answers
// (ambiguous-logic), and buggy-pseudocode debugging tasks
// (code-execution).
package drivers

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/rand"
	"sort"

	"github.com/dyshay/agentauth"
)

// byteOperation is one step of a crypto-nl transform pipeline.
type byteOperation struct {
	op     string
	params map[string]any
}

var basicOps = []string{"xor", "reverse", "slice", "sort", "rotate"}
var mediumOps = append(append([]string{}, basicOps...), "sha256", "bitwise_not")
var allOps = append(append([]string{}, mediumOps...), "repeat", "hmac", "base64_encode")

var opsByDifficulty = map[agentauth.Difficulty][]string{
	agentauth.DifficultyEasy:        basicOps,
	agentauth.DifficultyMedium:      mediumOps,
	agentauth.DifficultyHard:        allOps,
	agentauth.DifficultyAdversarial: allOps,
}

var cryptoNLPhrasings = map[string][]func(map[string]any) string{
	"xor": {
		func(p map[string]any) string { return fmt.Sprintf("XOR each byte with 0x%02X", int(p["key"].(int))) },
		func(p map[string]any) string { return fmt.Sprintf("Apply exclusive-or with the value %d to every byte", p["key"]) },
		func(p map[string]any) string { return fmt.Sprintf("Bitwise XOR each octet using the key %d", p["key"]) },
		func(p map[string]any) string { return fmt.Sprintf("For every byte, flip bits using 0x%02x as mask", p["key"]) },
	},
	"reverse": {
		func(map[string]any) string { return "Reverse the byte order" },
		func(map[string]any) string { return "Flip the sequence end-to-end" },
		func(map[string]any) string { return "Mirror the byte array so the last byte becomes first" },
		func(map[string]any) string { return "Invert the positional ordering of all bytes" },
	},
	"slice": {
		func(p map[string]any) string { return fmt.Sprintf("Take bytes from offset %d to %d", p["start"], p["end"]) },
		func(p map[string]any) string { return fmt.Sprintf("Extract the slice [%d:%d] from the data", p["start"], p["end"]) },
		func(p map[string]any) string {
			return fmt.Sprintf("Isolate bytes at positions %d through %d", p["start"], p["end"].(int)-1)
		},
	},
	"sort": {
		func(map[string]any) string { return "Sort all bytes in ascending order" },
		func(map[string]any) string { return "Arrange the bytes from smallest to largest value" },
		func(map[string]any) string { return "Order the octets numerically, lowest first" },
	},
	"rotate": {
		func(p map[string]any) string { return fmt.Sprintf("Rotate the bytes left by %d positions", p["positions"]) },
		func(p map[string]any) string {
			return fmt.Sprintf("Shift all bytes %d positions to the left, wrapping around", p["positions"])
		},
		func(p map[string]any) string { return fmt.Sprintf("Circular left-shift the array by %d", p["positions"]) },
	},
	"sha256": {
		func(map[string]any) string { return "Compute the SHA-256 hash of the current data (producing 32 raw bytes)" },
		func(map[string]any) string { return "Hash the byte array with SHA-256, replacing it with the 32-byte digest" },
		func(map[string]any) string { return "Apply SHA-256 to the data — the result is the raw 32-byte hash" },
	},
	"bitwise_not": {
		func(map[string]any) string { return "Flip every bit in each byte (bitwise NOT, masked to 8 bits)" },
		func(map[string]any) string { return "Apply bitwise complement to every byte (~byte & 0xFF)" },
		func(map[string]any) string { return "Invert all bits in the array — each byte becomes its one's complement" },
	},
	"repeat": {
		func(p map[string]any) string {
			return fmt.Sprintf("Concatenate the array with itself %d times (total %dx copies)", p["times"], p["times"])
		},
		func(p map[string]any) string { return fmt.Sprintf("Repeat the data %d times by appending it to itself", p["times"]) },
		func(p map[string]any) string {
			return fmt.Sprintf("Duplicate the byte sequence so it appears %d times in a row", p["times"])
		},
	},
	"hmac": {
		func(p map[string]any) string {
			return fmt.Sprintf("Compute HMAC-SHA256 of the data using the hex key %s (producing 32 raw bytes)", p["keyHex"])
		},
		func(p map[string]any) string {
			return fmt.Sprintf("HMAC the byte array with SHA-256 and key 0x%s, yielding 32 bytes", p["keyHex"])
		},
		func(p map[string]any) string {
			return fmt.Sprintf("Apply HMAC-SHA256 using the secret key (hex) %s — the result is 32 raw bytes", p["keyHex"])
		},
	},
	"base64_encode": {
		func(map[string]any) string { return "Base64-encode the data, then treat the resulting ASCII string as a new byte array" },
		func(map[string]any) string { return "Encode the bytes as a base64 string and reinterpret its characters as byte values" },
		func(map[string]any) string {
			return "Convert the data to base64 and use the encoded string's character codes as the new bytes"
		},
	},
}

var cryptoNLDifficultyConfig = map[agentauth.Difficulty]struct {
	Ops      int
	DataSize int
}{
	agentauth.DifficultyEasy:        {Ops: 1, DataSize: 16},
	agentauth.DifficultyMedium:      {Ops: 2, DataSize: 32},
	agentauth.DifficultyHard:        {Ops: 4, DataSize: 64},
	agentauth.DifficultyAdversarial: {Ops: 6, DataSize: 128},
}

func pickRandom[T any](arr []T) T {
	return arr[rand.Intn(len(arr))]
}

func randomInt(min, max int) int {
	return rand.Intn(max-min+1) + min
}

func generateOps(count, dataSize int, difficulty agentauth.Difficulty) []byteOperation {
	pool := opsByDifficulty[difficulty]
	ops := make([]byteOperation, 0, count)

	for i := 0; i < count; i++ {
		op := pickRandom(pool)
		switch op {
		case "xor":
			ops = append(ops, byteOperation{op: op, params: map[string]any{"key": randomInt(1, 255)}})
		case "reverse", "sort", "bitwise_not", "sha256", "base64_encode":
			ops = append(ops, byteOperation{op: op, params: map[string]any{}})
		case "slice":
			start := randomInt(0, dataSize/4)
			end := randomInt(start+4, min(start+dataSize/2, dataSize))
			ops = append(ops, byteOperation{op: op, params: map[string]any{"start": start, "end": end}})
		case "rotate":
			ops = append(ops, byteOperation{op: op, params: map[string]any{"positions": randomInt(1, dataSize/2)}})
		case "repeat":
			ops = append(ops, byteOperation{op: op, params: map[string]any{"times": randomInt(2, 3)}})
		case "hmac":
			keyBytes := agentauth.RandomBytes(16)
			ops = append(ops, byteOperation{op: op, params: map[string]any{"keyHex": agentauth.ToHex(keyBytes)}})
		}
	}
	return ops
}

func applyOp(data []byte, op byteOperation) ([]byte, error) {
	switch op.op {
	case "xor":
		key := byte(op.params["key"].(int))
		out := make([]byte, len(data))
		for i, b := range data {
			out[i] = b ^ key
		}
		return out, nil
	case "reverse":
		out := make([]byte, len(data))
		for i, b := range data {
			out[len(data)-1-i] = b
		}
		return out, nil
	case "slice":
		start, end := op.params["start"].(int), op.params["end"].(int)
		if end > len(data) {
			end = len(data)
		}
		if start > end {
			start = end
		}
		return append([]byte(nil), data[start:end]...), nil
	case "sort":
		out := append([]byte(nil), data...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out, nil
	case "rotate":
		if len(data) == 0 {
			return []byte{}, nil
		}
		pos := op.params["positions"].(int) % len(data)
		out := make([]byte, 0, len(data))
		out = append(out, data[pos:]...)
		out = append(out, data[:pos]...)
		return out, nil
	case "sha256":
		sum := sha256.Sum256(data)
		return sum[:], nil
	case "bitwise_not":
		out := make([]byte, len(data))
		for i, b := range data {
			out[i] = ^b
		}
		return out, nil
	case "repeat":
		times := op.params["times"].(int)
		out := make([]byte, 0, len(data)*times)
		for i := 0; i < times; i++ {
			out = append(out, data...)
		}
		return out, nil
	case "hmac":
		keyBytes, err := agentauth.FromHex(op.params["keyHex"].(string))
		if err != nil {
			return nil, err
		}
		return agentauth.HMACSHA256Bytes(keyBytes, data), nil
	case "base64_encode":
		b64 := base64.StdEncoding.EncodeToString(data)
		return []byte(b64), nil
	default:
		return nil, fmt.Errorf("unknown operation: %s", op.op)
	}
}

func opsToInstructions(ops []byteOperation) string {
	lines := make([]string, len(ops))
	for i, op := range ops {
		phrasings := cryptoNLPhrasings[op.op]
		lines[i] = fmt.Sprintf("Step %d: %s", i+1, pickRandom(phrasings)(op.params))
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func executeOps(data []byte, ops []byteOperation) ([]byte, error) {
	result := data
	for _, op := range ops {
		next, err := applyOp(result, op)
		if err != nil {
			return nil, err
		}
		result = next
	}
	return result, nil
}

func opsToContext(ops []byteOperation) []map[string]any {
	out := make([]map[string]any, len(ops))
	for i, op := range ops {
		out[i] = map[string]any{"op": op.op, "params": op.params}
	}
	return out
}

func opsFromContext(raw []map[string]any) []byteOperation {
	out := make([]byteOperation, len(raw))
	for i, m := range raw {
		params, _ := m["params"].(map[string]any)
		out[i] = byteOperation{op: m["op"].(string), params: params}
	}
	return out
}

// CryptoNLDriver solves a pipeline of byte-level transforms described in
// natural language, then hashes the final result.
type CryptoNLDriver struct{}

func (CryptoNLDriver) Name() string              { return "crypto-nl" }
func (CryptoNLDriver) Dimensions() []string       { return []string{"reasoning", "execution"} }
func (CryptoNLDriver) EstimatedHumanTimeMs() int64 { return 60_000 }
func (CryptoNLDriver) EstimatedAITimeMs() int64    { return 500 }

func (d CryptoNLDriver) Generate(difficulty agentauth.Difficulty) (agentauth.ChallengePayload, string, error) {
	config := cryptoNLDifficultyConfig[difficulty]
	data := agentauth.RandomBytes(config.DataSize)
	ops := generateOps(config.Ops, config.DataSize, difficulty)
	instructions := opsToInstructions(ops)

	payload := agentauth.ChallengePayload{
		Type:         "crypto-nl",
		Instructions: instructions + "\n\nThen compute the SHA-256 hex digest of the final result.",
		Data:         base64.StdEncoding.EncodeToString(data),
		Steps:        len(ops),
		Context:      map[string]any{"ops": opsToContext(ops)},
	}

	answer, err := d.solve(payload)
	if err != nil {
		return agentauth.ChallengePayload{}, "", err
	}
	return payload, answer, nil
}

// Solve computes the correct answer for an already-generated payload
// (its data and ops are fixed; only the answer is recomputed), so a
// caller holding a stored challenge's payload can re-derive its answer
// without generating a new one.
func (d CryptoNLDriver) Solve(payload agentauth.ChallengePayload) (string, error) {
	return d.solve(payload)
}

func (CryptoNLDriver) solve(payload agentauth.ChallengePayload) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		return "", err
	}
	rawOps, _ := payload.Context["ops"].([]map[string]any)
	ops := opsFromContext(rawOps)
	result, err := executeOps(data, ops)
	if err != nil {
		return "", err
	}
	return agentauth.SHA256Hex(result), nil
}

func (CryptoNLDriver) ComputeAnswerHash(_ agentauth.ChallengePayload, answer string) (string, error) {
	return agentauth.SHA256Hex([]byte(answer)), nil
}

func (d CryptoNLDriver) Verify(payload agentauth.ChallengePayload, answerHash, submitted string) (bool, error) {
	submittedHash, err := d.ComputeAnswerHash(payload, submitted)
	if err != nil {
		return false, err
	}
	return agentauth.TimingSafeEqual(answerHash, submittedHash), nil
}
