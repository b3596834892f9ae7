// Package validation implements the deferred post-read validation queue
// (C8): callbacks a custom read hook registers during an active read,
// drained in priority order once the outermost read completes.
package validation

import (
	"sort"

	"github.com/mabhi256/objstream/internal/model"
)

// Callback is a deferred post-read consistency check.
type Callback func() error

type entry struct {
	cb       Callback
	priority int32
}

// Queue is allocated lazily: a zero-value Queue is ready to use and holds
// no backing array until the first Register call.
type Queue struct {
	entries []entry
}

// Register appends cb at priority. It is the caller's responsibility to
// only call this while a read is active (§4.8) — the decoder enforces
// that at the driver level via NotActiveError.
func (q *Queue) Register(cb Callback, priority int32) error {
	if cb == nil {
		return &model.InvalidObjectError{Reason: "nil validation callback"}
	}
	q.entries = append(q.entries, entry{cb: cb, priority: priority})
	return nil
}

// Drain invokes every registered callback in priority-descending order,
// ties broken by insertion order (§8 property 5), then discards the queue
// regardless of outcome. The first failing callback aborts the remaining
// drain and its error is returned.
func (q *Queue) Drain() error {
	entries := q.entries
	q.entries = nil

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority > entries[j].priority
	})

	for _, e := range entries {
		if err := e.cb(); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many callbacks are currently queued, for diagnostics.
func (q *Queue) Len() int { return len(q.entries) }
