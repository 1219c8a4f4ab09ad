package timing

import "testing"

func TestSessionTracker_TooFewEntriesNoAnomalies(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("session-1", 300, ZoneAI)

	if anomalies := tr.Analyze("session-1"); len(anomalies) != 0 {
		t.Errorf("expected no anomalies with a single recorded entry, got %+v", anomalies)
	}
}

func TestSessionTracker_ZoneOscillationFlagged(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("session-1", 300, ZoneAI)
	tr.Record("session-1", 15000, ZoneHuman)
	tr.Record("session-1", 280, ZoneAI)

	anomalies := tr.Analyze("session-1")
	found := false
	for _, a := range anomalies {
		if a.Type == AnomalyZoneInconsistency {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a zone_inconsistency anomaly, got %+v", anomalies)
	}
}

func TestSessionTracker_LowVarianceFlagged(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("session-1", 500, ZoneAI)
	tr.Record("session-1", 500, ZoneAI)
	tr.Record("session-1", 500, ZoneAI)

	anomalies := tr.Analyze("session-1")
	found := false
	for _, a := range anomalies {
		if a.Type == AnomalyTimingVarianceLow {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a timing_variance_anomaly anomaly for identical timings, got %+v", anomalies)
	}
}

func TestSessionTracker_Clear(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("session-1", 300, ZoneAI)
	tr.Record("session-1", 310, ZoneAI)
	tr.Clear("session-1")

	if anomalies := tr.Analyze("session-1"); len(anomalies) != 0 {
		t.Errorf("expected no history after Clear, got %+v", anomalies)
	}
}

func TestSessionTracker_IndependentSessions(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("session-a", 300, ZoneAI)
	tr.Record("session-b", 15000, ZoneHuman)

	if len(tr.sessions["session-a"]) != 1 || len(tr.sessions["session-b"]) != 1 {
		t.Error("expected each session to track its own independent history")
	}
}
