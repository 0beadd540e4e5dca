// Package provision aggregates the lifecycle events emitted while a remote
// runner is provisioned into an ordered, monotonically-updated view of
// pipeline progress, and reports the final outcome to the caller exactly
// once per session.
package provision

import (
	"encoding/json"
	"log"
)

// Payload is the wire shape of one lifecycle event as pushed by the backend.
// Only connection_status events carry the runner id and URL.
type Payload struct {
	Type      string `json:"type"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	RunnerID  int64  `json:"runner_id,omitempty"`
	URL       string `json:"url,omitempty"`
}

// NormalizedEvent is the canonical form of a recognized lifecycle event.
type NormalizedEvent struct {
	Stage    Stage
	Label    string
	Status   Status
	Message  string
	RunnerID int64
	URL      string
}

// Display labels for each known event type tag.
var stageLabels = map[Stage]string{
	StageRequestReceived:     "Request received",
	StageRequestProcessing:   "Processing request",
	StageResourceDiscovery:   "Discovering resources",
	StageResourceAllocation:  "Allocating resources",
	StageNetworkSetup:        "Setting up network",
	StageVMCreation:          "Creating virtual machine",
	StageInstancePreparation: "Preparing instance",
	StageResourceTagging:     "Tagging resources",
	StageRunnerRegistration:  "Registering runner",
	StageRunnerReady:         "Runner ready",
	StageConnectionStatus:    "Establishing connection",
	StageGenericError:        "Error",
}

// Normalizer converts raw event payloads into NormalizedEvents. Its only
// side effect is diagnostic logging for dropped payloads.
type Normalizer struct {
	Log *log.Logger // optional; nil silences diagnostics
}

// Normalize maps one raw payload to its canonical event. Payloads with an
// unrecognized type tag are dropped (ok == false). A payload that does not
// parse as JSON at all is not dropped: it becomes a synthetic generic-error
// event with a failed status, so a garbled stream still surfaces in the
// ledger instead of stalling silently.
func (n Normalizer) Normalize(data []byte) (ev NormalizedEvent, ok bool) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		n.logf("unparseable event payload (%v), recording as error", err)
		return NormalizedEvent{
			Stage:   StageGenericError,
			Label:   stageLabels[StageGenericError],
			Status:  StatusFailed,
			Message: "failed to parse event payload",
		}, true
	}

	stage, known := stageFromName[p.Type]
	if !known {
		n.logf("dropping event with unknown type %q", p.Type)
		return NormalizedEvent{}, false
	}

	return NormalizedEvent{
		Stage:    stage,
		Label:    stageLabels[stage],
		Status:   p.Status,
		Message:  p.Message,
		RunnerID: p.RunnerID,
		URL:      p.URL,
	}, true
}

func (n Normalizer) logf(format string, args ...any) {
	if n.Log != nil {
		n.Log.Printf(format, args...)
	}
}
