package timing

import (
	"fmt"
	"math"
	"sync"
	"time"
)

type sessionEntry struct {
	elapsedMs float64
	zone      Zone
	timestamp float64 // ms since epoch
}

// SessionTracker records per-session timing history and flags
// cross-challenge anomalies: zone oscillation, suspiciously uniform
// timing, and solves submitted in rapid succession.
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[string][]sessionEntry
}

// NewSessionTracker builds an empty SessionTracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{sessions: make(map[string][]sessionEntry)}
}

// Record appends one timing observation to a session's history.
func (t *SessionTracker) Record(sessionID string, elapsedMs float64, zone Zone) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionID] = append(t.sessions[sessionID], sessionEntry{
		elapsedMs: elapsedMs,
		zone:      zone,
		timestamp: float64(time.Now().UnixNano()) / 1e6,
	})
}

// Analyze inspects a session's recorded history for anomalies.
func (t *SessionTracker) Analyze(sessionID string) []SessionAnomaly {
	t.mu.Lock()
	entries := append([]sessionEntry(nil), t.sessions[sessionID]...)
	t.mu.Unlock()

	if len(entries) < 2 {
		return nil
	}

	var anomalies []SessionAnomaly

	aiCount, humanCount := 0, 0
	for _, e := range entries {
		if e.zone == ZoneAI {
			aiCount++
		}
		if e.zone == ZoneHuman || e.zone == ZoneSuspicious {
			humanCount++
		}
	}
	if aiCount > 0 && humanCount > 0 && len(entries) >= 3 {
		severity := "medium"
		if humanCount >= aiCount {
			severity = "high"
		}
		anomalies = append(anomalies, SessionAnomaly{
			Type: AnomalyZoneInconsistency,
			Description: fmt.Sprintf(
				"Session oscillates between AI zone (%dx) and human/suspicious zone (%dx) across %d challenges",
				aiCount, humanCount, len(entries)),
			Severity: severity,
		})
	}

	if len(entries) >= 3 {
		mean := 0.0
		for _, e := range entries {
			mean += e.elapsedMs
		}
		mean /= float64(len(entries))
		if mean > 0 {
			variance := 0.0
			for _, e := range entries {
				variance += (e.elapsedMs - mean) * (e.elapsedMs - mean)
			}
			std := math.Sqrt(variance / float64(len(entries)))
			cv := std / mean
			if cv < 0.05 {
				anomalies = append(anomalies, SessionAnomaly{
					Type: AnomalyTimingVarianceLow,
					Description: fmt.Sprintf(
						"Timing variance coefficient %.1f%% is suspiciously low across %d challenges",
						cv*100, len(entries)),
					Severity: "high",
				})
			}
		}
	}

	for i := 1; i < len(entries); i++ {
		gap := entries[i].timestamp - entries[i-1].timestamp
		if gap < 5000 {
			severity := "low"
			if gap < 2000 {
				severity = "high"
			}
			anomalies = append(anomalies, SessionAnomaly{
				Type: AnomalyRapidSuccession,
				Description: fmt.Sprintf(
					"Challenges %d and %d completed %.0fms apart (< 5000ms threshold)",
					i-1, i, gap),
				Severity: severity,
			})
			break
		}
	}

	return anomalies
}

// Clear discards a session's recorded history.
func (t *SessionTracker) Clear(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}
