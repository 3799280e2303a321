package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
)

func TestRecordTurnCounts(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: true})

	tele.RecordTurn("symptom")
	tele.RecordTurn("symptom")
	tele.RecordTurn("finder")

	counts := tele.TurnCounts()
	if counts["symptom"] != 2 || counts["finder"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestDisabledTelemetryIsInert(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: false})

	tele.RecordTurn("symptom")
	tele.RecordLLMRequest("gpt-4o-mini", time.Second, errors.New("boom"))

	if counts := tele.TurnCounts(); len(counts) != 0 {
		t.Fatalf("counts = %v, want empty", counts)
	}
}

func TestNilTelemetryIsSafe(t *testing.T) {
	var tele *Telemetry
	tele.RecordTurn("symptom")
	tele.RecordLLMRequest("gpt-4o-mini", time.Second, nil)
}
