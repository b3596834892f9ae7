package wire

import (
	"encoding/binary"
	"math"

	"github.com/mabhi256/objstream/internal/model"
)

// Mode is the block-data framer's current gate: Raw means no block is
// currently open, Block means primitive reads are being served out of the
// current block-data frame's remaining bytes.
type Mode int

const (
	ModeRaw Mode = iota
	ModeBlock
)

// Framer gates between "primitive mode" (bytes consumable as typed
// primitives) and "object mode" (C3). It owns the only mutable "current
// input" state in the decoder, per the design notes' preference for an
// explicit framer object over a scattered mode field.
type Framer struct {
	tok     *TokenReader
	r       *Reader
	mode    Mode
	remain  int
	onReset func() error
}

// NewFramer wraps a token reader and byte reader sharing the same stream.
func NewFramer(tok *TokenReader, r *Reader) *Framer {
	return &Framer{tok: tok, r: r}
}

// SetResetHandler installs the callback invoked when a RESET token is
// encountered while the framer is looking for more block data.
func (f *Framer) SetResetHandler(fn func() error) { f.onReset = fn }

// Available returns the number of primitive bytes servable from the
// currently open block without consuming any further tokens. Calling it
// never advances stream position (§8 property 4).
func (f *Framer) Available() int {
	if f.mode == ModeBlock {
		return f.remain
	}
	return 0
}

// RequireObjectMode fails with OptionalDataError if the framer still has
// unread block-data bytes buffered — entering object mode (about to read a
// token that names an item) requires the framer to be empty (§4.3).
func (f *Framer) RequireObjectMode() error {
	if n := f.Available(); n > 0 {
		return &model.OptionalDataError{Remaining: n}
	}
	return nil
}

// EnsureAvailable tries to make at least one primitive byte available,
// opening new block-data frames and transparently honoring in-band RESET
// tokens along the way. It returns OptionalDataError{EOF: true} if the
// next token is not block data (i.e. no primitive bytes are available and
// the stream wants to switch to object mode).
func (f *Framer) EnsureAvailable() error {
	for f.Available() == 0 {
		code, err := f.tok.Peek()
		if err != nil {
			return err
		}
		switch code {
		case model.TokenBlockData:
			f.tok.Consume()
			n, err := f.r.ReadU8()
			if err != nil {
				return err
			}
			f.mode = ModeBlock
			f.remain = int(n)
		case model.TokenBlockDataLong:
			f.tok.Consume()
			n, err := f.r.ReadU32()
			if err != nil {
				return err
			}
			f.mode = ModeBlock
			f.remain = int(n)
		case model.TokenReset:
			f.tok.Consume()
			if f.onReset != nil {
				if err := f.onReset(); err != nil {
					return err
				}
			}
			f.mode = ModeRaw
			f.remain = 0
			// loop: keep looking for the block data the caller actually wants
		default:
			// leave the token pending for the caller (materializer) to consume
			return &model.OptionalDataError{EOF: true}
		}
	}
	return nil
}

// ReadByte serves one primitive byte out of the current block, opening a
// new one if necessary.
func (f *Framer) ReadByte() (byte, error) {
	if err := f.EnsureAvailable(); err != nil {
		return 0, err
	}
	b, err := f.r.ReadU8()
	if err != nil {
		return 0, err
	}
	f.remain--
	return b, nil
}

// ReadBytes fills buf one byte at a time, transparently spanning block-data
// frame boundaries (and any RESET tokens between them).
func (f *Framer) ReadBytes(buf []byte) error {
	for i := range buf {
		b, err := f.ReadByte()
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

// DiscardN reads and discards n primitive bytes (used by Skip).
func (f *Framer) DiscardN(n int) error {
	for i := 0; i < n; i++ {
		if _, err := f.ReadByte(); err != nil {
			return err
		}
	}
	return nil
}

// ReadBool reads one primitive byte as a boolean.
func (f *Framer) ReadBool() (bool, error) {
	b, err := f.ReadByte()
	return b != 0, err
}

// ReadI8 reads one primitive byte as a signed integer.
func (f *Framer) ReadI8() (int8, error) {
	b, err := f.ReadByte()
	return int8(b), err
}

// ReadU16 reads a big-endian 2-byte unsigned integer from primitive mode.
func (f *Framer) ReadU16() (uint16, error) {
	var buf [2]byte
	if err := f.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadI16 reads a big-endian 2-byte signed integer from primitive mode.
func (f *Framer) ReadI16() (int16, error) {
	v, err := f.ReadU16()
	return int16(v), err
}

// ReadU32 reads a big-endian 4-byte unsigned integer from primitive mode.
func (f *Framer) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := f.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadI32 reads a big-endian 4-byte signed integer from primitive mode.
func (f *Framer) ReadI32() (int32, error) {
	v, err := f.ReadU32()
	return int32(v), err
}

// ReadU64 reads a big-endian 8-byte unsigned integer from primitive mode.
func (f *Framer) ReadU64() (uint64, error) {
	var buf [8]byte
	if err := f.ReadBytes(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// ReadI64 reads a big-endian 8-byte signed integer from primitive mode.
func (f *Framer) ReadI64() (int64, error) {
	v, err := f.ReadU64()
	return int64(v), err
}

// ReadF32 reads a big-endian IEEE-754 single-precision float.
func (f *Framer) ReadF32() (float32, error) {
	v, err := f.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a big-endian IEEE-754 double-precision float.
func (f *Framer) ReadF64() (float64, error) {
	v, err := f.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadUTF reads a 2-byte-length-prefixed modified-UTF-8 string out of
// primitive mode (used by the public ReadUTF accessor, §6).
func (f *Framer) ReadUTF() (string, error) {
	n, err := f.ReadU16()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := f.ReadBytes(buf); err != nil {
		return "", err
	}
	return DecodeModifiedUTF8(buf)
}

// DiscardData consumes primitive/annotation bytes until ENDBLOCKDATA is
// seen at the token level, used to discard an annotation subgraph that the
// decoder does not otherwise materialize. readContent is supplied by the
// caller (the materializer) since discarding may itself recurse into
// objects.
func (f *Framer) DiscardData(readContent func() error) error {
	for {
		if f.Available() > 0 {
			if err := f.DiscardN(f.Available()); err != nil {
				return err
			}
			continue
		}
		if err := f.EnsureAvailable(); err == nil {
			continue // a BLOCKDATA/BLOCKDATALONG/RESET was absorbed, loop to drain it
		} else if !isEOFSignal(err) {
			return err
		}

		code, err := f.tok.Peek()
		if err != nil {
			return err
		}
		if code == model.TokenEndBlockData {
			f.tok.Consume()
			return nil
		}
		if err := readContent(); err != nil {
			return err
		}
	}
}

func isEOFSignal(err error) bool {
	ode, ok := err.(*model.OptionalDataError)
	return ok && ode.EOF
}
