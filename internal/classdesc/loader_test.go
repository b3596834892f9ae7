package classdesc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mabhi256/objstream/internal/handle"
	"github.com/mabhi256/objstream/internal/model"
	"github.com/mabhi256/objstream/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamBuilder assembles raw wire bytes for the loader tests, bypassing
// the object materializer entirely so the class-descriptor grammar can be
// exercised in isolation.
type streamBuilder struct{ buf bytes.Buffer }

func (b *streamBuilder) token(t model.TokenCode) *streamBuilder { b.buf.WriteByte(byte(t)); return b }
func (b *streamBuilder) u8(v byte) *streamBuilder               { b.buf.WriteByte(v); return b }
func (b *streamBuilder) u16(v uint16) *streamBuilder {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}
func (b *streamBuilder) i32(v int32) *streamBuilder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	b.buf.Write(tmp[:])
	return b
}
func (b *streamBuilder) u64(v uint64) *streamBuilder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}
func (b *streamBuilder) utf(s string) *streamBuilder {
	b.u16(uint16(len(s)))
	b.buf.WriteString(s)
	return b
}
func (b *streamBuilder) bytes() []byte { return b.buf.Bytes() }

// fakeHooks is a recording Hooks implementation: ResolveClass returns the
// descriptor's own name so tests can assert on it without a real host
// binding.
type fakeHooks struct {
	resolveClass      func(desc *model.ClassDesc) (any, error)
	resolveProxyClass func(interfaces []string) (any, error)
}

func (f fakeHooks) ResolveClass(desc *model.ClassDesc) (any, error) {
	if f.resolveClass != nil {
		return f.resolveClass(desc)
	}
	return desc.Name, nil
}

func (f fakeHooks) ResolveProxyClass(interfaces []string) (any, error) {
	if f.resolveProxyClass != nil {
		return f.resolveProxyClass(interfaces)
	}
	return interfaces, nil
}

// fakeContent supplies canned answers for ReadContent, used only by field
// descriptors whose type requires a nested signature string.
type fakeContent struct {
	answers []any
	i       int
	t       *testing.T
}

func (f *fakeContent) ReadContent() (any, error) {
	require.Lessf(f.t, f.i, len(f.answers), "unexpected extra ReadContent call")
	v := f.answers[f.i]
	f.i++
	return v, nil
}

func newLoader(t *testing.T, data []byte, hooks Hooks, content ContentReader) (*Loader, *handle.Table) {
	r := wire.NewReader(bytes.NewReader(data))
	tok := wire.NewTokenReader(r)
	fr := wire.NewFramer(tok, r)
	h := handle.New()
	if content == nil {
		content = &fakeContent{t: t}
	}
	return New(tok, r, fr, h, hooks, content), h
}

func TestLoader_ReadOrdinary_NoFieldsNoSuper(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenClassDesc).
		utf("Point").
		u64(0).
		u8(byte(model.ScSerializable)).
		u16(0). // field count
		token(model.TokenEndBlockData).
		token(model.TokenNull) // super

	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, nil)
	cd, err := loader.ReadClassDesc()
	require.NoError(t, err)
	require.NotNil(t, cd)
	assert.Equal(t, "Point", cd.Name)
	assert.Equal(t, uint64(0), cd.SerialUID)
	assert.Empty(t, cd.Fields)
	assert.Nil(t, cd.Super)
	assert.Equal(t, "Point", cd.ResolvedClass)
}

func TestLoader_ReadOrdinary_WithPrimitiveAndReferenceFields(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenClassDesc).
		utf("Point").
		u64(42).
		u8(byte(model.ScSerializable)).
		u16(2)
	// field 0: primitive int "x"
	b.u8(byte(model.FieldInt)).utf("x")
	// field 1: reference "name" with signature delivered via ReadContent
	b.u8(byte(model.FieldObject)).utf("name")
	b.token(model.TokenEndBlockData).token(model.TokenNull)

	content := &fakeContent{t: t, answers: []any{"Ljava.lang.String;"}}
	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, content)

	cd, err := loader.ReadClassDesc()
	require.NoError(t, err)
	require.Len(t, cd.Fields, 2)
	assert.Equal(t, model.FieldInt, cd.Fields[0].Type)
	assert.Equal(t, "x", cd.Fields[0].Name)
	assert.Equal(t, model.FieldObject, cd.Fields[1].Type)
	assert.Equal(t, "name", cd.Fields[1].Name)
	assert.Equal(t, "Ljava.lang.String;", cd.Fields[1].Signature)
	assert.Equal(t, uint64(42), cd.SerialUID)
}

func TestLoader_SelfReferentialAnnotation(t *testing.T) {
	// The descriptor's own handle must already be registered by the time
	// its annotation subgraph is parsed, so a REFERENCE inside the
	// annotation resolving back to the descriptor itself must succeed
	// (§3 invariant 1, §4.5).
	var b streamBuilder
	b.token(model.TokenClassDesc).
		utf("Node").
		u64(0).
		u8(byte(model.ScSerializable)).
		u16(0)
	// annotation: a single REFERENCE back to handle base (the descriptor
	// currently being parsed), then ENDBLOCKDATA.
	b.token(model.TokenReference).i32(int32(model.BaseHandle))
	b.token(model.TokenEndBlockData).token(model.TokenNull)

	r := wire.NewReader(bytes.NewReader(b.bytes()))
	tok := wire.NewTokenReader(r)
	fr := wire.NewFramer(tok, r)
	handles := handle.New()
	content := &selfRefContent{tok: tok, r: r, handles: handles}
	loader := New(tok, r, fr, handles, fakeHooks{}, content)

	cd, err := loader.ReadClassDesc()
	require.NoError(t, err)
	assert.Same(t, cd, content.seen)
}

// selfRefContent consumes a REFERENCE token the way the real materializer's
// readReference does (token already peeked by the framer, then the 4-byte
// handle), then resolves it against the same handle table the loader uses
// — standing in for readContent when an annotation subgraph references the
// descriptor currently being parsed.
type selfRefContent struct {
	tok     *wire.TokenReader
	r       *wire.Reader
	handles *handle.Table
	seen    *model.ClassDesc
}

func (s *selfRefContent) ReadContent() (any, error) {
	if _, err := s.tok.Next(); err != nil {
		return nil, err
	}
	raw, err := s.r.ReadU32()
	if err != nil {
		return nil, err
	}
	v, err := s.handles.Lookup(model.Handle(raw))
	if err != nil {
		return nil, err
	}
	s.seen = v.(*model.ClassDesc)
	return s.seen, nil
}

func TestLoader_EnumDescriptor_ZeroUIDRequired(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenClassDesc).
		utf("Suit").
		u64(0).
		u8(byte(model.ScEnum | model.ScSerializable)).
		u16(0).
		token(model.TokenEndBlockData).
		token(model.TokenNull)

	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, nil)
	cd, err := loader.ReadClassDesc()
	require.NoError(t, err)
	assert.True(t, cd.IsEnum())
}

func TestLoader_EnumDescriptor_NonZeroUIDFails(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenClassDesc).
		utf("Suit").
		u64(7). // must be zero for an enum descriptor
		u8(byte(model.ScEnum | model.ScSerializable)).
		u16(0).
		token(model.TokenEndBlockData).
		token(model.TokenNull)

	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, nil)
	_, err := loader.ReadClassDesc()
	require.Error(t, err)
	assert.IsType(t, &model.InvalidClassError{}, err)
}

func TestLoader_ZeroLengthClassNameFails(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenClassDesc).utf("").u64(0).u8(byte(model.ScSerializable)).u16(0)

	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, nil)
	_, err := loader.ReadClassDesc()
	require.Error(t, err)
	assert.IsType(t, &model.StreamCorruptedError{}, err)
}

func TestLoader_Proxy(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenProxyClassDesc).
		i32(2).
		utf("java.lang.Runnable").
		utf("java.io.Serializable").
		token(model.TokenEndBlockData).
		token(model.TokenNull)

	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, nil)
	cd, err := loader.ReadClassDesc()
	require.NoError(t, err)
	assert.True(t, cd.IsProxy)
	assert.Equal(t, []string{"java.lang.Runnable", "java.io.Serializable"}, cd.Interfaces)
	assert.Equal(t, cd.Interfaces, cd.ResolvedClass)
}

func TestLoader_Null(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenNull)

	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, nil)
	cd, err := loader.ReadClassDesc()
	require.NoError(t, err)
	assert.Nil(t, cd)
}

func TestLoader_Reference_ReturnsSamePointer(t *testing.T) {
	var b streamBuilder
	b.token(model.TokenClassDesc).
		utf("Shared").
		u64(0).
		u8(byte(model.ScSerializable)).
		u16(0).
		token(model.TokenEndBlockData).
		token(model.TokenNull)
	// then a REFERENCE back to the same (only) handle assigned above.
	b.token(model.TokenReference).i32(int32(model.BaseHandle))

	loader, _ := newLoader(t, b.bytes(), fakeHooks{}, nil)
	first, err := loader.ReadClassDesc()
	require.NoError(t, err)

	second, err := loader.ReadClassDesc()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
