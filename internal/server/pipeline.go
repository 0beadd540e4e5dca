package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/runner-pulse/pulse/internal/config"
	"github.com/runner-pulse/pulse/internal/provision"
)

// pipelineSteps is the sequential provisioning script. Most phases only
// announce themselves; the next phase's arrival implies they finished,
// which is exactly what real backends do.
var pipelineSteps = []struct {
	typ     string
	message string
}{
	{"request_received", "Provision request received"},
	{"request_processing", "Validating request"},
	{"resource_discovery", "Locating capacity"},
	{"resource_allocation", "Reserving resources"},
	{"network_setup", "Configuring network"},
	{"vm_creation", "Booting virtual machine"},
	{"instance_preparation", "Installing runtime"},
	{"resource_tagging", "Applying tags"},
	{"runner_registration", "Registering with control plane"},
}

// Simulator drives a scripted provisioning run against the hub.
type Simulator struct {
	hub *Hub
	cfg config.PipelineConfig
}

func NewSimulator(hub *Hub, cfg config.PipelineConfig) *Simulator {
	return &Simulator{hub: hub, cfg: cfg}
}

// Run executes the pipeline until the context is cancelled. With Loop set,
// the run restarts after each completion with a fresh history.
func (s *Simulator) Run(ctx context.Context) {
	for {
		s.runOnce(ctx)
		if ctx.Err() != nil || !s.cfg.Loop {
			return
		}
		if !s.sleep(ctx, 3*time.Duration(s.cfg.StepDelay)) {
			return
		}
		s.hub.ResetHistory()
	}
}

func (s *Simulator) runOnce(ctx context.Context) {
	for _, step := range pipelineSteps {
		s.emit(step.typ, provision.StatusInProgress, step.message, false)
		if !s.sleep(ctx, time.Duration(s.cfg.StepDelay)) {
			return
		}

		if s.cfg.FailAt == step.typ {
			s.emit(step.typ, provision.StatusFailed, step.message+" failed", false)
			log.Printf("pipeline: injected failure at %s", step.typ)
			return
		}

		// The VM phase reports its own success before the pipeline moves
		// on; the other phases rely on implicit closure.
		if step.typ == "vm_creation" {
			s.emit(step.typ, provision.StatusSucceeded, "Virtual machine running", false)
		}
	}

	if s.cfg.OmitURL {
		s.emit("runner_ready", provision.StatusSucceeded, "Runner ready", false)
		return
	}
	s.emit("connection_status", provision.StatusSucceeded, "Runner reachable", true)
}

func (s *Simulator) emit(typ string, status provision.Status, message string, locator bool) {
	p := provision.Payload{
		Type:      typ,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if locator {
		p.RunnerID = s.cfg.RunnerID
		p.URL = s.cfg.RunnerURL
	}

	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("pipeline: marshal %s: %v", typ, err)
		return
	}
	s.hub.Broadcast(data)
}

// sleep waits for d or until the context is cancelled.
func (s *Simulator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
