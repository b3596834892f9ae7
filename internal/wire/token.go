package wire

import (
	"github.com/mabhi256/objstream/internal/model"
)

// TokenReader reads, buffers (one-deep pushback), and classifies the next
// type-code byte (C2). Peek is cheap and repeatable; Consume after Peek is
// mandatory before any byte-level read or subsequent Peek (§4.2).
type TokenReader struct {
	r       *Reader
	pending *model.TokenCode
}

// NewTokenReader wraps r.
func NewTokenReader(r *Reader) *TokenReader {
	return &TokenReader{r: r}
}

// Peek returns the next token code, reading and caching at most one byte.
// Calling Peek again before Consume returns the same cached value.
func (t *TokenReader) Peek() (model.TokenCode, error) {
	if t.pending != nil {
		return *t.pending, nil
	}
	b, err := t.r.ReadU8()
	if err != nil {
		return 0, err
	}
	code := model.TokenCode(b)
	t.pending = &code
	return code, nil
}

// Consume discards the cached token code, requiring a fresh Peek/Next
// before the next token is available.
func (t *TokenReader) Consume() {
	t.pending = nil
}

// Next reads and consumes the next token code in one call.
func (t *TokenReader) Next() (model.TokenCode, error) {
	code, err := t.Peek()
	if err != nil {
		return 0, err
	}
	t.Consume()
	return code, nil
}

// Pushback re-queues a token code that was already consumed, so the next
// Peek/Next sees it again. Used by the materializer to hand a consumed
// CLASSDESC/PROXYCLASSDESC token back to the descriptor loader (§3
// invariant 5: at most one pushed-back token at a time).
func (t *TokenReader) Pushback(code model.TokenCode) {
	c := code
	t.pending = &c
}

// HasPending reports whether a token is currently cached (peeked but not
// consumed).
func (t *TokenReader) HasPending() bool {
	return t.pending != nil
}
