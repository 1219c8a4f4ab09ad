package tokenauth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyshay/agentauth"
)

// Response header names a protected resource attaches after a successful
// guard check.
const (
	HeaderStatus        = "AgentAuth-Status"
	HeaderScore         = "AgentAuth-Score"
	HeaderModelFamily   = "AgentAuth-Model-Family"
	HeaderPoMIConfidence = "AgentAuth-PoMI-Confidence"
	HeaderCapabilities  = "AgentAuth-Capabilities"
	HeaderVersion       = "AgentAuth-Version"
	HeaderChallengeID   = "AgentAuth-Challenge-Id"
	HeaderTokenExpires  = "AgentAuth-Token-Expires"
)

// FormatCapabilities renders a capability score as a comma-separated
// key=value string, e.g.
// "reasoning=0.9,execution=0.85,autonomy=0.8,speed=0.75,consistency=0.88".
func FormatCapabilities(score agentauth.AgentCapabilityScore) string {
	return fmt.Sprintf("reasoning=%v,execution=%v,autonomy=%v,speed=%v,consistency=%v",
		score.Reasoning, score.Execution, score.Autonomy, score.Speed, score.Consistency)
}

// ParseCapabilities parses a capabilities header string back into a
// dimension-name-to-score map. Malformed parts are skipped.
func ParseCapabilities(header string) map[string]float64 {
	result := make(map[string]float64)
	for _, part := range strings.Split(header, ",") {
		key, val, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			continue
		}
		result[strings.TrimSpace(key)] = f
	}
	return result
}
