package provision

import (
	"fmt"
	"time"
)

// DefaultStabilizationDelay is the pause between detecting a terminal
// condition and delivering the completion callback, long enough for the
// final ledger state to render before the caller reacts.
const DefaultStabilizationDelay = 2500 * time.Millisecond

// Outcome is the final result of one provisioning session. Status is either
// StatusSucceeded (RunnerID and URL set) or StatusFailed (Message set).
type Outcome struct {
	Status   Status `json:"status"`
	RunnerID int64  `json:"runnerId,omitempty"`
	URL      string `json:"url,omitempty"`
	Message  string `json:"message,omitempty"`
}

// terminalOutcome checks an event against the terminal conditions, in
// priority order. The first match ends the session.
func terminalOutcome(ev NormalizedEvent) (Outcome, bool) {
	switch {
	case ev.Stage == StageConnectionStatus && ev.Status == StatusSucceeded && ev.URL != "":
		return Outcome{Status: StatusSucceeded, RunnerID: ev.RunnerID, URL: ev.URL}, true

	case ev.Stage == StageRunnerReady:
		// A ready signal without connection details leaves the caller with
		// nothing to connect to, so it is treated as a failure. The backend
		// may intend "keep waiting for connection_status" here; kept as-is
		// for compatibility.
		return Outcome{Status: StatusFailed, Message: "ready signal received without connection details"}, true

	case ev.Status == StatusFailed:
		msg := ev.Message
		if msg == "" {
			msg = "provisioning failed"
		}
		return Outcome{Status: StatusFailed, Message: msg}, true
	}
	return Outcome{}, false
}

// Summary renders the outcome as a one-line human-readable string. The
// controller shows it transiently between terminal detection and callback
// delivery; callers may reuse it afterwards.
func (o Outcome) Summary() string {
	if o.Status == StatusSucceeded {
		return fmt.Sprintf("Runner %d ready at %s", o.RunnerID, o.URL)
	}
	return fmt.Sprintf("Provisioning failed: %s", o.Message)
}
