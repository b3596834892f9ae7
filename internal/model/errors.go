package model

import "fmt"

// StreamCorruptedError covers §7 StreamCorrupted: unknown token, header
// mismatch, zero-length class name, or a reference to an unregistered
// handle.
type StreamCorruptedError struct {
	Reason string
}

func (e *StreamCorruptedError) Error() string {
	return fmt.Sprintf("stream corrupted: %s", e.Reason)
}

// InvalidClassError covers §7 InvalidClass: a serial-UID mismatch between
// the stream and the locally resolved class, or an unresolved primitive
// array component type.
type InvalidClassError struct {
	ClassName string
	Reason    string
}

func (e *InvalidClassError) Error() string {
	if e.ClassName == "" {
		return fmt.Sprintf("invalid class: %s", e.Reason)
	}
	return fmt.Sprintf("invalid class %s: %s", e.ClassName, e.Reason)
}

// InvalidObjectError covers §7 InvalidObject: a nil validation callback, or
// a REFERENCE token resolving to a handle that was registered unshared.
type InvalidObjectError struct {
	Reason string
}

func (e *InvalidObjectError) Error() string {
	return fmt.Sprintf("invalid object: %s", e.Reason)
}

// ClassNotFoundError covers §7 ClassNotFound: the host's resolution hook
// could not find a named class or proxy.
type ClassNotFoundError struct {
	Name string
	Err  error
}

func (e *ClassNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("class not found: %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("class not found: %s", e.Name)
}

func (e *ClassNotFoundError) Unwrap() error { return e.Err }

// OptionalDataError covers §7 OptionalData: primitive bytes were
// encountered where an object-mode token was expected.
type OptionalDataError struct {
	Remaining int
	EOF       bool // true when the block ended rather than merely being non-empty
}

func (e *OptionalDataError) Error() string {
	if e.EOF {
		return "optional data: end of block data reached"
	}
	return fmt.Sprintf("optional data: %d primitive bytes available before next object", e.Remaining)
}

// NotActiveError covers §7 NotActive: RegisterValidation called while no
// read is active, or DefaultReadObject called a second time for the same
// hierarchy level.
type NotActiveError struct {
	Operation string
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("%s called outside an active read hook", e.Operation)
}

// WriteAbortedError covers §7 WriteAborted: an EXCEPTION token was
// processed; Cause is the decoded throwable subgraph.
type WriteAbortedError struct {
	Cause any
}

func (e *WriteAbortedError) Error() string {
	return fmt.Sprintf("write aborted by embedded exception: %v", e.Cause)
}

// UnexpectedEOFError covers §7 UnexpectedEof: the byte source adapter ran
// out of bytes before satisfying a fixed-width read.
type UnexpectedEOFError struct {
	Requested int
	Got       int
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("unexpected eof: requested %d bytes, got %d", e.Requested, e.Got)
}

// MalformedUTF8Error covers §7 MalformedUtf8: an invalid modified-UTF-8 or
// surrogate sequence.
type MalformedUTF8Error struct {
	Offset int
	Reason string
}

func (e *MalformedUTF8Error) Error() string {
	return fmt.Sprintf("malformed utf-8 at byte %d: %s", e.Offset, e.Reason)
}
