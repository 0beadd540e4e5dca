package provision

import (
	"encoding/json"
	"time"
)

// Stage identifies one phase of the remote provisioning pipeline.
type Stage int

const (
	StageRequestReceived Stage = iota
	StageRequestProcessing
	StageResourceDiscovery
	StageResourceAllocation
	StageNetworkSetup
	StageVMCreation
	StageInstancePreparation
	StageResourceTagging
	StageRunnerRegistration
	StageRunnerReady
	StageConnectionStatus
	StageGenericError
)

var stageNames = map[Stage]string{
	StageRequestReceived:     "request_received",
	StageRequestProcessing:   "request_processing",
	StageResourceDiscovery:   "resource_discovery",
	StageResourceAllocation:  "resource_allocation",
	StageNetworkSetup:        "network_setup",
	StageVMCreation:          "vm_creation",
	StageInstancePreparation: "instance_preparation",
	StageResourceTagging:     "resource_tagging",
	StageRunnerRegistration:  "runner_registration",
	StageRunnerReady:         "runner_ready",
	StageConnectionStatus:    "connection_status",
	StageGenericError:        "error",
}

var stageFromName = map[string]Stage{
	"request_received":     StageRequestReceived,
	"request_processing":   StageRequestProcessing,
	"resource_discovery":   StageResourceDiscovery,
	"resource_allocation":  StageResourceAllocation,
	"network_setup":        StageNetworkSetup,
	"vm_creation":          StageVMCreation,
	"instance_preparation": StageInstancePreparation,
	"resource_tagging":     StageResourceTagging,
	"runner_registration":  StageRunnerRegistration,
	"runner_ready":         StageRunnerReady,
	"connection_status":    StageConnectionStatus,
	"error":                StageGenericError,
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := stageFromName[name]; ok {
		*s = v
	}
	return nil
}

// Status is the reported state of a single stage.
type Status int

const (
	StatusInProgress Status = iota
	StatusSucceeded
	StatusFailed
)

var statusNames = map[Status]string{
	StatusInProgress: "in_progress",
	StatusSucceeded:  "succeeded",
	StatusFailed:     "failed",
}

var statusFromName = map[string]Status{
	"in_progress": StatusInProgress,
	"succeeded":   StatusSucceeded,
	"failed":      StatusFailed,
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// Terminal reports whether the status closes a stage.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Record is one stage's entry in the ledger. At most one Record exists per
// Stage per session; EndedAt is non-zero exactly when Status is terminal.
type Record struct {
	Stage     Stage     `json:"stage"`
	Label     string    `json:"label"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
	Elapsed   string    `json:"elapsed,omitempty"`
}

// Terminal reports whether the record has been closed.
func (r *Record) Terminal() bool {
	return r.Status.Terminal()
}
