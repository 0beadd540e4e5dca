package provision

import (
	"fmt"
	"time"
)

// formatElapsed renders a duration as minutes:seconds, e.g. "1:05".
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// tracker drives the 1 Hz elapsed-time refresh. It runs only while at least
// one ledger record is in progress and is cancelled synchronously whenever
// the session resets; the tick callback itself decides whether to keep
// going.
type tracker struct {
	interval time.Duration
	stop     chan struct{} // non-nil while the tick goroutine runs
}

func (t *tracker) running() bool {
	return t.stop != nil
}

// start launches the tick goroutine. tick returns false to stop the loop;
// it is also responsible for any session-validity checks.
func (t *tracker) start(tick func() bool) {
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !tick() {
					return
				}
			}
		}
	}()
}

// cancel stops the tick goroutine. Safe to call repeatedly.
func (t *tracker) cancel() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}
