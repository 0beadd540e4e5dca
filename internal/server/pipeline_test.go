package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/runner-pulse/pulse/internal/config"
	"github.com/runner-pulse/pulse/internal/provision"
)

func runPipeline(t *testing.T, cfg config.PipelineConfig) []provision.Payload {
	t.Helper()
	hub := NewHub()
	sim := NewSimulator(hub, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sim.Run(ctx)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	out := make([]provision.Payload, 0, len(hub.history))
	for _, data := range hub.history {
		var p provision.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("pipeline emitted invalid payload %q: %v", data, err)
		}
		out = append(out, p)
	}
	return out
}

func TestPipelineSuccessRun(t *testing.T) {
	cfg := config.PipelineConfig{
		StepDelay: config.Duration(time.Millisecond),
		RunnerID:  42,
		RunnerURL: "https://runner-42.example.dev",
	}
	events := runPipeline(t, cfg)

	if len(events) == 0 {
		t.Fatal("pipeline emitted no events")
	}

	last := events[len(events)-1]
	if last.Type != "connection_status" || last.Status != provision.StatusSucceeded {
		t.Fatalf("final event = %s/%v, want connection_status succeeded", last.Type, last.Status)
	}
	if last.RunnerID != 42 || last.URL != "https://runner-42.example.dev" {
		t.Errorf("locator = %d/%q, want configured values", last.RunnerID, last.URL)
	}

	// Phases arrive in script order.
	var phases []string
	for _, ev := range events {
		if ev.Status == provision.StatusInProgress {
			phases = append(phases, ev.Type)
		}
	}
	for i, step := range pipelineSteps {
		if i >= len(phases) || phases[i] != step.typ {
			t.Fatalf("phase order mismatch at %d: got %v", i, phases)
		}
	}

	// vm_creation reports an explicit success before the next phase starts.
	for i, ev := range events {
		if ev.Type == "vm_creation" && ev.Status == provision.StatusSucceeded {
			if i+1 < len(events) && events[i+1].Type == "vm_creation" {
				t.Error("vm_creation success should be the phase's last event")
			}
			return
		}
	}
	t.Error("vm_creation never reported success")
}

func TestPipelineFailureInjection(t *testing.T) {
	cfg := config.PipelineConfig{
		StepDelay: config.Duration(time.Millisecond),
		FailAt:    "vm_creation",
	}
	events := runPipeline(t, cfg)

	last := events[len(events)-1]
	if last.Type != "vm_creation" || last.Status != provision.StatusFailed {
		t.Fatalf("final event = %s/%v, want vm_creation failed", last.Type, last.Status)
	}
	for _, ev := range events {
		if ev.Type == "instance_preparation" {
			t.Error("pipeline continued past the injected failure")
		}
	}
}

func TestPipelineOmitURL(t *testing.T) {
	cfg := config.PipelineConfig{
		StepDelay: config.Duration(time.Millisecond),
		OmitURL:   true,
	}
	events := runPipeline(t, cfg)

	last := events[len(events)-1]
	if last.Type != "runner_ready" {
		t.Fatalf("final event = %s, want runner_ready", last.Type)
	}
	if last.URL != "" {
		t.Error("runner_ready must not carry a URL")
	}
}

func TestPipelineCancellation(t *testing.T) {
	hub := NewHub()
	cfg := config.PipelineConfig{StepDelay: config.Duration(time.Hour)}
	sim := NewSimulator(hub, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
