package wire

import (
	"bytes"
	"testing"

	"github.com/mabhi256/objstream/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFramer(data []byte) (*Framer, *TokenReader) {
	r := NewReader(bytes.NewReader(data))
	tok := NewTokenReader(r)
	return NewFramer(tok, r), tok
}

func TestFramer_BlockDataSpansMultipleFrames(t *testing.T) {
	data := []byte{
		byte(model.TokenBlockData), 0x02, 0xAA, 0xBB,
		byte(model.TokenBlockData), 0x02, 0xCC, 0xDD,
	}
	fr, _ := newFramer(data)

	buf := make([]byte, 4)
	require.NoError(t, fr.ReadBytes(buf))
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, buf)
}

func TestFramer_BlockDataLong(t *testing.T) {
	data := append([]byte{byte(model.TokenBlockDataLong), 0x00, 0x00, 0x01, 0x00}, make([]byte, 256)...)
	for i := range data[5:] {
		data[5+i] = byte(i)
	}
	fr, _ := newFramer(data)

	b, err := fr.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0), b)
	assert.Equal(t, 255, fr.Available())
}

func TestFramer_Available_DoesNotAdvance(t *testing.T) {
	data := []byte{byte(model.TokenBlockData), 0x03, 0x01, 0x02, 0x03}
	fr, _ := newFramer(data)

	require.NoError(t, fr.EnsureAvailable())
	assert.Equal(t, 3, fr.Available())
	assert.Equal(t, 3, fr.Available(), "calling Available twice must not consume anything")

	b, err := fr.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)
	assert.Equal(t, 2, fr.Available())
}

func TestFramer_ResetAbsorbedTransparently(t *testing.T) {
	data := []byte{byte(model.TokenReset), byte(model.TokenBlockData), 0x01, 0x42}
	fr, _ := newFramer(data)

	var resetCalled bool
	fr.SetResetHandler(func() error {
		resetCalled = true
		return nil
	})

	b, err := fr.ReadByte()
	require.NoError(t, err)
	assert.True(t, resetCalled)
	assert.Equal(t, byte(0x42), b)
}

func TestFramer_EnsureAvailable_EOFWhenNextTokenIsNotBlockData(t *testing.T) {
	data := []byte{byte(model.TokenObject)}
	fr, tok := newFramer(data)

	err := fr.EnsureAvailable()
	require.Error(t, err)
	var ode *model.OptionalDataError
	require.ErrorAs(t, err, &ode)
	assert.True(t, ode.EOF)

	// The non-block token must still be sitting in the token reader for the
	// materializer to dispatch on, not silently consumed.
	assert.True(t, tok.HasPending())
	code, err := tok.Peek()
	require.NoError(t, err)
	assert.Equal(t, model.TokenObject, code)
}

func TestFramer_RequireObjectMode(t *testing.T) {
	data := []byte{byte(model.TokenBlockData), 0x01, 0x42}
	fr, _ := newFramer(data)

	require.NoError(t, fr.EnsureAvailable())
	err := fr.RequireObjectMode()
	require.Error(t, err)
	var ode *model.OptionalDataError
	require.ErrorAs(t, err, &ode)
	assert.Equal(t, 1, ode.Remaining)

	_, _ = fr.ReadByte()
	assert.NoError(t, fr.RequireObjectMode())
}

func TestFramer_DiscardData_StopsAtEndBlockData(t *testing.T) {
	data := []byte{
		byte(model.TokenBlockData), 0x02, 0x11, 0x22,
		byte(model.TokenEndBlockData),
	}
	fr, _ := newFramer(data)

	called := false
	err := fr.DiscardData(func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called, "no annotation item was present, only primitive bytes")
}

func TestFramer_DiscardData_ReadsAnnotationItems(t *testing.T) {
	// One opaque "item" byte standing in for something the materializer
	// would otherwise parse, followed by the terminator.
	data := []byte{0x99, byte(model.TokenEndBlockData)}
	fr, tok := newFramer(data)

	var calls int
	err := fr.DiscardData(func() error {
		calls++
		// consume the stand-in byte ourselves, the way a real readContent
		// call would consume whatever token introduced the item.
		_, _ = tok.Next()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
