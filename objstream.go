// Package objstream decodes a self-describing binary object-graph format:
// a stream that interleaves a typed-token protocol with raw primitive
// payloads, carries its own class (schema) descriptors, and supports
// cyclic references via a handle table. It is the reader half of a
// symmetric codec; this package implements decoding only.
//
// The wire format, token values, handle numbering, and component
// responsibilities are described in the package's design documents
// (SPEC_FULL.md / DESIGN.md at the module root); in short: every
// non-primitive item on the stream (object, class descriptor, string,
// array, class literal, enum constant) is introduced by a one-byte token
// and assigned a handle in first-appearance order, so that back-references
// anywhere in the graph resolve to the exact value materialized earlier.
package objstream

import (
	"bufio"
	"io"

	"github.com/mabhi256/objstream/internal/classdesc"
	"github.com/mabhi256/objstream/internal/handle"
	"github.com/mabhi256/objstream/internal/model"
	"github.com/mabhi256/objstream/internal/validation"
	"github.com/mabhi256/objstream/internal/wire"
)

// Re-exported error kinds (§7). Callers use errors.As against these.
type (
	StreamCorruptedError = model.StreamCorruptedError
	InvalidClassError  = model.InvalidClassError
	InvalidObjectError = model.InvalidObjectError
	ClassNotFoundError = model.ClassNotFoundError
	OptionalDataError  = model.OptionalDataError
	NotActiveError     = model.NotActiveError
	WriteAbortedError  = model.WriteAbortedError
	UnexpectedEOFError = model.UnexpectedEOFError
	MalformedUTF8Error = model.MalformedUTF8Error
)

// ClassDescriptor and FieldDescriptor are the public views of a parsed
// class descriptor (§3) handed to a Materializer.
type (
	ClassDescriptor = model.ClassDesc
	FieldDescriptor = model.FieldDesc
)

// Decoder is the graph driver (C7) and public reader facade (§6). It reads
// the stream header once at construction and thereafter decodes one
// top-level item per ReadObject/ReadUnshared call.
type Decoder struct {
	src io.Reader

	r       *wire.Reader
	tok     *wire.TokenReader
	fr      *wire.Framer
	handles *handle.Table
	loader  *classdesc.Loader
	queue   validation.Queue

	mat Materializer

	depth                int
	resolveObjectEnabled bool

	// rawExternal is set for the duration of a ReadExternalHook call whose
	// level has SC_BLOCK_DATA clear (§4.6 "bytes are either raw or
	// block-data framed depending on the externalizable-block-data flag"):
	// such a level's bytes were never wrapped in BLOCKDATA frames, so the
	// primitive accessors below must read past the framer entirely.
	rawExternal bool
}

// Option configures a Decoder at construction time.
type Option func(*Decoder)

// WithMaterializer installs the host binding (§1 "Materializer
// abstraction"). Without this option, DefaultMaterializer is used, which
// reconstructs a generic, host-agnostic graph (see hooks.go).
func WithMaterializer(m Materializer) Option {
	return func(d *Decoder) { d.mat = m }
}

// NewDecoder constructs a Decoder over src and reads the 4-byte stream
// header (magic 0xACED, version 0x0005), failing StreamCorruptedError on
// mismatch.
func NewDecoder(src io.Reader, opts ...Option) (*Decoder, error) {
	br, ok := src.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(src)
	}

	d := &Decoder{
		src:     src,
		r:       wire.NewReader(br),
		handles: handle.New(),
	}
	d.tok = wire.NewTokenReader(d.r)
	d.fr = wire.NewFramer(d.tok, d.r)
	d.fr.SetResetHandler(d.handleReset)

	for _, opt := range opts {
		opt(d)
	}
	if d.mat == nil {
		d.mat = NewDefaultMaterializer()
	}
	d.loader = classdesc.New(d.tok, d.r, d.fr, d.handles, classResolverAdapter{d}, contentReaderAdapter{d})

	if err := d.readHeader(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) readHeader() error {
	magic, err := d.r.ReadU16()
	if err != nil {
		return err
	}
	version, err := d.r.ReadU16()
	if err != nil {
		return err
	}
	if magic != model.StreamMagic || version != model.StreamVersion {
		return &model.StreamCorruptedError{Reason: "invalid stream header"}
	}
	return nil
}

// classResolverAdapter adapts Decoder to classdesc.Hooks.
type classResolverAdapter struct{ d *Decoder }

func (a classResolverAdapter) ResolveClass(desc *model.ClassDesc) (any, error) {
	return a.d.mat.ResolveClass(desc)
}

func (a classResolverAdapter) ResolveProxyClass(interfaces []string) (any, error) {
	return a.d.mat.ResolveProxyClass(interfaces)
}

// contentReaderAdapter adapts Decoder to classdesc.ContentReader.
type contentReaderAdapter struct{ d *Decoder }

func (a contentReaderAdapter) ReadContent() (any, error) {
	return a.d.readContent()
}

// Close releases the underlying byte source if it implements io.Closer.
// Ownership of src is the caller's (§5); Close only forwards.
func (d *Decoder) Close() error {
	if c, ok := d.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Available returns the number of primitive bytes immediately readable
// from the current block-data frame without a token transition (§8
// property 4).
func (d *Decoder) Available() int { return d.fr.Available() }

// Skip discards n primitive bytes.
func (d *Decoder) Skip(n int) error {
	if d.rawExternal {
		_, err := d.r.ReadN(n)
		return err
	}
	return d.fr.DiscardN(n)
}

// ReadFully fills buf[off : off+length] with primitive bytes.
func (d *Decoder) ReadFully(buf []byte, off, length int) error {
	if d.rawExternal {
		return d.r.ReadFully(buf[off : off+length])
	}
	return d.fr.ReadBytes(buf[off : off+length])
}

// ReadBool reads one primitive byte as a boolean.
func (d *Decoder) ReadBool() (bool, error) {
	if d.rawExternal {
		return d.r.ReadBool()
	}
	return d.fr.ReadBool()
}

// ReadI8 reads one primitive signed byte.
func (d *Decoder) ReadI8() (int8, error) {
	if d.rawExternal {
		return d.r.ReadI8()
	}
	return d.fr.ReadI8()
}

// ReadU8 reads one primitive unsigned byte.
func (d *Decoder) ReadU8() (uint8, error) {
	if d.rawExternal {
		return d.r.ReadU8()
	}
	return d.fr.ReadByte()
}

// ReadI16 reads a big-endian 2-byte signed integer from primitive mode.
func (d *Decoder) ReadI16() (int16, error) {
	if d.rawExternal {
		return d.r.ReadI16()
	}
	return d.fr.ReadI16()
}

// ReadU16 reads a big-endian 2-byte unsigned integer from primitive mode.
func (d *Decoder) ReadU16() (uint16, error) {
	if d.rawExternal {
		return d.r.ReadU16()
	}
	return d.fr.ReadU16()
}

// ReadI32 reads a big-endian 4-byte signed integer from primitive mode.
func (d *Decoder) ReadI32() (int32, error) {
	if d.rawExternal {
		return d.r.ReadI32()
	}
	return d.fr.ReadI32()
}

// ReadI64 reads a big-endian 8-byte signed integer from primitive mode.
func (d *Decoder) ReadI64() (int64, error) {
	if d.rawExternal {
		return d.r.ReadI64()
	}
	return d.fr.ReadI64()
}

// ReadF32 reads a big-endian IEEE-754 single-precision float.
func (d *Decoder) ReadF32() (float32, error) {
	if d.rawExternal {
		return d.r.ReadF32()
	}
	return d.fr.ReadF32()
}

// ReadF64 reads a big-endian IEEE-754 double-precision float.
func (d *Decoder) ReadF64() (float64, error) {
	if d.rawExternal {
		return d.r.ReadF64()
	}
	return d.fr.ReadF64()
}

// ReadUtf reads a 2-byte-length-prefixed modified-UTF-8 string, either
// straight off the wire or out of block-data mode depending on whether the
// enclosing externalizable level is raw (§4.6).
func (d *Decoder) ReadUtf() (string, error) {
	if d.rawExternal {
		return d.r.ReadUTF()
	}
	return d.fr.ReadUTF()
}

// ReadLine reads primitive bytes up to and including the next '\n' (or
// until no more primitive bytes are available), dropping a trailing '\r'.
// Provided for parity with the classic DataInput surface; deprecated by
// its own upstream contract, kept for compatibility.
func (d *Decoder) ReadLine() (string, error) {
	var buf []byte
	for {
		b, err := d.fr.ReadByte()
		if err != nil {
			if ode, ok := err.(*model.OptionalDataError); ok && ode.EOF && len(buf) > 0 {
				break
			}
			if len(buf) == 0 {
				return "", err
			}
			break
		}
		if b == '\n' {
			break
		}
		buf = append(buf, b)
	}
	if n := len(buf); n > 0 && buf[n-1] == '\r' {
		buf = buf[:n-1]
	}
	return string(buf), nil
}

// EnableResolveObject toggles the resolveObject substitution hook (§4.9
// point 3) and returns the prior setting.
func (d *Decoder) EnableResolveObject(enable bool) bool {
	prior := d.resolveObjectEnabled
	d.resolveObjectEnabled = enable
	return prior
}
