package metrics

import (
	"bytes"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestRecordAPIRequest(t *testing.T) {
	apiRequestsTotal.Reset()
	apiRequestDuration.Reset()

	RecordAPIRequest("Roadmaps", "GET", "200", 0.12)
	RecordAPIRequest("Roadmaps", "GET", "200", 0.3)

	metric := &dto.Metric{}
	if err := apiRequestsTotal.WithLabelValues("Roadmaps", "GET", "200").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected counter value 2, got %f", metric.Counter.GetValue())
	}
}

func TestRecordProgressCommit(t *testing.T) {
	tests := []struct {
		name    string
		outcome string
	}{
		{"noop", "noop"},
		{"ok", "ok"},
		{"partial", "partial"},
		{"failed", "failed"},
		{"discarded", "discarded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progressCommitsTotal.Reset()

			RecordProgressCommit(tt.outcome)

			metric := &dto.Metric{}
			if err := progressCommitsTotal.WithLabelValues(tt.outcome).Write(metric); err != nil {
				t.Fatalf("Failed to write metric: %v", err)
			}
			if metric.Counter.GetValue() != 1 {
				t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
			}
		})
	}
}

func TestRecordSessionAndEditorEvents(t *testing.T) {
	sessionEventsTotal.Reset()
	editorSavesTotal.Reset()

	RecordSessionEvent("login")
	RecordEditorSave("roadmap", "failed")

	metric := &dto.Metric{}
	if err := sessionEventsTotal.WithLabelValues("login").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}

	metric = &dto.Metric{}
	if err := editorSavesTotal.WithLabelValues("roadmap", "failed").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}
}

func TestWriteText(t *testing.T) {
	sessionEventsTotal.Reset()
	RecordSessionEvent("logout")

	var buf bytes.Buffer
	if err := WriteText(&buf); err != nil {
		t.Fatalf("WriteText returned error: %v", err)
	}
	if !strings.Contains(buf.String(), `skillcraft_session_events_total{event="logout"} 1`) {
		t.Errorf("expected session counter in output, got:\n%s", buf.String())
	}
}
