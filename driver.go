package objstream

import (
	"github.com/mabhi256/objstream/internal/model"
)

// ReadObject reads and returns the next top-level item (§6).
func (d *Decoder) ReadObject() (any, error) {
	return d.readTopLevel(false)
}

// ReadUnshared reads the next top-level item, registering it with the
// unshared sentinel so no later REFERENCE token may alias it (§3
// "Unshared").
func (d *Decoder) ReadUnshared() (any, error) {
	return d.readTopLevel(true)
}

// readTopLevel drives one outermost read (C7): nesting depth is
// incremented on entry, and at the 1→0 transition on exit the validation
// queue is drained exactly once regardless of success or failure (§4.7,
// §4.8, §5). RESET tokens encountered transparently while looking for the
// next item (handled inside the framer, see materializer.go) have already
// cleared state by the time readContentUnshared returns.
func (d *Decoder) readTopLevel(unshared bool) (any, error) {
	d.depth++
	outermost := d.depth == 1

	value, err := d.readContentUnshared(unshared)

	if outermost {
		d.depth = 0
		if drainErr := d.queue.Drain(); drainErr != nil && err == nil {
			err = drainErr
		}
	} else {
		d.depth--
	}
	return value, err
}

// handleReset implements the framer's onReset callback (invoked whenever a
// RESET token is seen while the framer is negotiating primitive data) and
// is also called directly for a RESET token reaching readContentUnshared:
// it clears the handle table and restarts the counter at the base handle
// (§3 invariant 3).
func (d *Decoder) handleReset() error {
	d.handles.Reset()
	return nil
}

// readException implements the EXCEPTION token (§4.7): clear the handle
// table, read the encapsulated throwable subgraph, clear again, then fail
// with WriteAbortedError.
func (d *Decoder) readException() error {
	d.handles.Reset()
	cause, err := d.readContentUnshared(false)
	d.handles.Reset()
	if err != nil {
		return err
	}
	return &model.WriteAbortedError{Cause: cause}
}
