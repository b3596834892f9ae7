// Package handle implements the dense monotonic handle table (C4): every
// object, class descriptor, string, array, and enum constant consumes
// exactly one handle in first-appearance order, and back-references
// resolve against this table uniformly regardless of what kind of item the
// handle names.
package handle

import (
	"github.com/mabhi256/objstream/internal/model"
)

// unshared is the sentinel stored for a handle registered via
// readUnshared; any later lookup against it fails (§3 invariant 2).
type unshared struct{}

// Table is the handle table (C4): a generic key/value registry specialized
// to the monotonic counter this format requires instead of caller-supplied
// keys.
type Table struct {
	next    model.Handle
	entries map[model.Handle]any
}

// New creates a handle table with the counter at the base wire handle.
func New() *Table {
	return &Table{
		next:    model.BaseHandle,
		entries: make(map[model.Handle]any),
	}
}

// Assign returns the next handle and advances the counter (§4.4).
func (t *Table) Assign() model.Handle {
	h := t.next
	t.next++
	return h
}

// Register stores value at handle h. If unshared is true, a poison
// sentinel is stored instead so future back-references to h fail.
func (t *Table) Register(h model.Handle, value any, isUnshared bool) {
	if isUnshared {
		t.entries[h] = unshared{}
		return
	}
	t.entries[h] = value
}

// Reassign overwrites the value already stored at h without touching the
// unshared/shared status, used when a resolveObject substitution swaps the
// materialized identity after the fact (§4.6 "re-register under the same
// handle").
func (t *Table) Reassign(h model.Handle, value any) {
	if _, ok := t.entries[h].(unshared); ok {
		return
	}
	t.entries[h] = value
}

// Lookup resolves a handle to its materialized value. It fails with
// model.StreamCorruptedError on an unknown handle and with
// model.InvalidObjectError on a handle stored as the unshared sentinel.
func (t *Table) Lookup(h model.Handle) (any, error) {
	v, ok := t.entries[h]
	if !ok {
		return nil, &model.StreamCorruptedError{Reason: "reference to unregistered handle"}
	}
	if _, isUnshared := v.(unshared); isUnshared {
		return nil, &model.InvalidObjectError{Reason: "reference to an object read with readUnshared"}
	}
	return v, nil
}

// Reset clears all entries and restarts the counter at the base handle
// (§3 invariant 3, §4.4 Reset).
func (t *Table) Reset() {
	t.next = model.BaseHandle
	t.entries = make(map[model.Handle]any)
}

// Next previews the handle that the next Assign call will return, useful
// for tests asserting monotonicity (§8 property 2).
func (t *Table) Next() model.Handle { return t.next }
