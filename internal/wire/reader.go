// Package wire implements the byte-source adapter (C1), the pushback token
// reader (C2), and the block-data framer (C3) that together let the
// decoder interleave typed primitive reads with tagged-item reads on one
// stream.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"github.com/mabhi256/objstream/internal/model"
)

// Reader provides big-endian typed reads over an underlying io.Reader. It
// has no pushback of its own — Reader.ReadN always advances the stream;
// pushback of whole tokens is the TokenReader's job (token.go).
type Reader struct {
	r         *bufio.Reader
	bytesRead int64
}

// NewReader wraps src in a Reader. If src is already a *bufio.Reader it is
// used directly rather than double-buffered.
func NewReader(src io.Reader) *Reader {
	if br, ok := src.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(src)}
}

// BytesRead returns the total number of bytes consumed from the source so
// far, for diagnostics.
func (r *Reader) BytesRead() int64 { return r.bytesRead }

// ReadFully reads exactly len(buf) bytes into buf.
func (r *Reader) ReadFully(buf []byte) error {
	n, err := io.ReadFull(r.r, buf)
	r.bytesRead += int64(n)
	if err != nil {
		return &model.UnexpectedEOFError{Requested: len(buf), Got: n}
	}
	return nil
}

// ReadN reads and returns exactly n bytes.
func (r *Reader) ReadN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.ReadFully(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadU8 reads a single unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, &model.UnexpectedEOFError{Requested: 1, Got: 0}
	}
	r.bytesRead++
	return b, nil
}

// ReadI8 reads a single signed byte.
func (r *Reader) ReadI8() (int8, error) {
	b, err := r.ReadU8()
	return int8(b), err
}

// ReadBool reads one byte as a boolean (non-zero is true).
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	return b != 0, err
}

// ReadU16 reads a big-endian 2-byte unsigned integer.
func (r *Reader) ReadU16() (uint16, error) {
	buf, err := r.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

// ReadI16 reads a big-endian 2-byte signed integer.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a big-endian 4-byte unsigned integer.
func (r *Reader) ReadU32() (uint32, error) {
	buf, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// ReadI32 reads a big-endian 4-byte signed integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a big-endian 8-byte unsigned integer.
func (r *Reader) ReadU64() (uint64, error) {
	buf, err := r.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

// ReadI64 reads a big-endian 8-byte signed integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF32 reads a big-endian IEEE-754 single-precision float.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a big-endian IEEE-754 double-precision float.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadModifiedUTF8 reads exactly n bytes and decodes them as Java's
// modified-UTF-8: NUL is encoded as the two-byte overlong sequence
// 0xC0 0x80, and characters outside the BMP are written as a surrogate pair,
// each half separately 3-byte-encoded (CESU-8 style) rather than as one
// 4-byte UTF-8 sequence. Decoding proceeds one encoded code unit at a time
// and reassembles surrogate pairs with unicode/utf16.
func (r *Reader) ReadModifiedUTF8(n int) (string, error) {
	buf, err := r.ReadN(n)
	if err != nil {
		return "", err
	}
	return DecodeModifiedUTF8(buf)
}

// ReadUTF reads a 2-byte-length-prefixed modified-UTF-8 string directly
// from the stream (object-mode structural fields such as a class
// descriptor's name are not subject to block-data framing).
func (r *Reader) ReadUTF() (string, error) {
	n, err := r.ReadU16()
	if err != nil {
		return "", err
	}
	return r.ReadModifiedUTF8(int(n))
}

// ReadUTFLong reads an 8-byte-length-prefixed modified-UTF-8 string.
func (r *Reader) ReadUTFLong() (string, error) {
	n, err := r.ReadU64()
	if err != nil {
		return "", err
	}
	return r.ReadModifiedUTF8(int(n))
}

// DecodeModifiedUTF8 decodes a byte slice already read from the stream.
// Shared by Reader.ReadModifiedUTF8 and Framer.ReadUTF; tests exercise it
// directly.
func DecodeModifiedUTF8(buf []byte) (string, error) {
	var units []uint16
	i := 0
	for i < len(buf) {
		b0 := buf[i]
		switch {
		case b0&0x80 == 0: // 1-byte: 0xxxxxxx
			units = append(units, uint16(b0))
			i++
		case b0&0xE0 == 0xC0: // 2-byte: 110xxxxx 10xxxxxx
			if i+1 >= len(buf) || buf[i+1]&0xC0 != 0x80 {
				return "", &model.MalformedUTF8Error{Offset: i, Reason: "truncated 2-byte sequence"}
			}
			v := (uint16(b0&0x1F) << 6) | uint16(buf[i+1]&0x3F)
			units = append(units, v)
			i += 2
		case b0&0xF0 == 0xE0: // 3-byte: 1110xxxx 10xxxxxx 10xxxxxx
			if i+2 >= len(buf) || buf[i+1]&0xC0 != 0x80 || buf[i+2]&0xC0 != 0x80 {
				return "", &model.MalformedUTF8Error{Offset: i, Reason: "truncated 3-byte sequence"}
			}
			v := (uint16(b0&0x0F) << 12) | (uint16(buf[i+1]&0x3F) << 6) | uint16(buf[i+2]&0x3F)
			units = append(units, v)
			i += 3
		default:
			return "", &model.MalformedUTF8Error{Offset: i, Reason: fmt.Sprintf("invalid lead byte 0x%02x", b0)}
		}
	}

	runes := utf16.Decode(units)
	return string(runes), nil
}
