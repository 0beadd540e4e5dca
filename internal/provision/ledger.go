package provision

import (
	"time"
)

// Ledger owns the ordered set of stage records for one session. It is not
// safe for concurrent use on its own; the Controller serializes access.
type Ledger struct {
	records []*Record
	byStage map[Stage]*Record
}

func NewLedger() *Ledger {
	return &Ledger{
		byStage: make(map[Stage]*Record),
	}
}

// Apply folds one normalized event into the ledger. A first event for a
// stage appends a record; later events for the same stage mutate that record
// in place. Because the pipeline is strictly sequential, an event for a new
// stage implicitly closes the previously-last record if it was still in
// progress: the backend does not always emit an explicit success before
// advancing.
func (l *Ledger) Apply(ev NormalizedEvent, now time.Time) {
	var prev *Record
	if len(l.records) > 0 {
		prev = l.records[len(l.records)-1]
	}

	rec, exists := l.byStage[ev.Stage]
	if exists {
		rec.Status = ev.Status
		rec.Message = ev.Message
		if rec.Terminal() {
			rec.EndedAt = now
			rec.Elapsed = formatElapsed(now.Sub(rec.StartedAt))
		} else {
			rec.EndedAt = time.Time{}
			rec.Elapsed = formatElapsed(now.Sub(rec.StartedAt))
		}
	} else {
		rec = &Record{
			Stage:     ev.Stage,
			Label:     ev.Label,
			Status:    ev.Status,
			Message:   ev.Message,
			StartedAt: now,
			Elapsed:   formatElapsed(0),
		}
		if rec.Terminal() {
			rec.EndedAt = now
		}
		l.records = append(l.records, rec)
		l.byStage[ev.Stage] = rec
	}

	if prev != nil && prev.Stage != ev.Stage && prev.Status == StatusInProgress {
		prev.Status = StatusSucceeded
		prev.EndedAt = now
		prev.Elapsed = formatElapsed(now.Sub(prev.StartedAt))
	}
}

// CloseInProgress marks every remaining in-progress record succeeded, so a
// terminal outcome is never displayed next to a stale spinner.
func (l *Ledger) CloseInProgress(now time.Time) {
	for _, rec := range l.records {
		if rec.Status == StatusInProgress {
			rec.Status = StatusSucceeded
			rec.EndedAt = now
			rec.Elapsed = formatElapsed(now.Sub(rec.StartedAt))
		}
	}
}

// RefreshElapsed recomputes the displayed duration of in-progress records.
// Closed records keep the duration cached at close time.
func (l *Ledger) RefreshElapsed(now time.Time) {
	for _, rec := range l.records {
		if rec.Status == StatusInProgress {
			rec.Elapsed = formatElapsed(now.Sub(rec.StartedAt))
		}
	}
}

// AnyInProgress reports whether at least one record is still open.
func (l *Ledger) AnyInProgress() bool {
	for _, rec := range l.records {
		if rec.Status == StatusInProgress {
			return true
		}
	}
	return false
}

// Snapshot returns the records in arrival order as independent copies.
func (l *Ledger) Snapshot() []Record {
	out := make([]Record, len(l.records))
	for i, rec := range l.records {
		out[i] = *rec
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.records)
}

// Reset drops all records.
func (l *Ledger) Reset() {
	l.records = nil
	l.byStage = make(map[Stage]*Record)
}
