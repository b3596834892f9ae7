// Package classdesc implements the class descriptor loader (C5): parsing
// ordinary, proxy, and enum descriptors, their field schemas, annotation
// subgraphs, and super chains, registering each descriptor's handle before
// its fields are read so self-referential annotations resolve correctly.
package classdesc

import (
	"github.com/mabhi256/objstream/internal/handle"
	"github.com/mabhi256/objstream/internal/model"
	"github.com/mabhi256/objstream/internal/wire"
)

// ContentReader reads one arbitrary tagged item, whatever it turns out to
// be, registering its handle as the generic materializer would. The loader
// needs this for two things it cannot do itself without creating an
// import cycle with the materializer: reading a field's signature (which
// arrives as a STRING, LONGSTRING, or REFERENCE token) and discarding a
// descriptor's annotation subgraph.
type ContentReader interface {
	ReadContent() (any, error)
}

// Hooks resolves descriptors to host-native classes (C9, the subset the
// loader itself needs).
type Hooks interface {
	ResolveClass(desc *model.ClassDesc) (any, error)
	ResolveProxyClass(interfaces []string) (any, error)
}

// Loader is C5.
type Loader struct {
	tok     *wire.TokenReader
	r       *wire.Reader
	fr      *wire.Framer
	handles *handle.Table
	hooks   Hooks
	content ContentReader
}

// New builds a Loader sharing the decoder's token reader, byte reader,
// framer, handle table, and resolution hooks.
func New(tok *wire.TokenReader, r *wire.Reader, fr *wire.Framer, handles *handle.Table, hooks Hooks, content ContentReader) *Loader {
	return &Loader{tok: tok, r: r, fr: fr, handles: handles, hooks: hooks, content: content}
}

// ReadClassDesc dispatches on the next token (§4.5): NULL, CLASSDESC,
// PROXYCLASSDESC, or REFERENCE to a previously read descriptor.
func (l *Loader) ReadClassDesc() (*model.ClassDesc, error) {
	code, err := l.tok.Next()
	if err != nil {
		return nil, err
	}
	switch code {
	case model.TokenNull:
		return nil, nil
	case model.TokenReference:
		h, err := l.readHandleRef()
		if err != nil {
			return nil, err
		}
		v, err := l.handles.Lookup(h)
		if err != nil {
			return nil, err
		}
		cd, ok := v.(*model.ClassDesc)
		if !ok {
			return nil, &model.StreamCorruptedError{Reason: "reference does not name a class descriptor"}
		}
		return cd, nil
	case model.TokenClassDesc:
		return l.readOrdinary()
	case model.TokenProxyClassDesc:
		return l.readProxy()
	default:
		return nil, &model.StreamCorruptedError{Reason: "expected class descriptor, got " + code.String()}
	}
}

func (l *Loader) readHandleRef() (model.Handle, error) {
	v, err := l.r.ReadU32()
	if err != nil {
		return 0, err
	}
	return model.Handle(v), nil
}

// readOrdinary parses a regular (non-proxy) CLASSDESC body. The handle is
// assigned and registered before any field is read, so an annotation
// subgraph that references the descriptor itself resolves correctly
// (§3 invariant 1, §4.5).
func (l *Loader) readOrdinary() (*model.ClassDesc, error) {
	cd := &model.ClassDesc{}
	cd.Handle = l.handles.Assign()
	l.handles.Register(cd.Handle, cd, false)

	name, err := l.r.ReadUTF()
	if err != nil {
		return nil, err
	}
	if len(name) == 0 {
		return nil, &model.StreamCorruptedError{Reason: "zero-length class name"}
	}
	cd.Name = name

	uid, err := l.r.ReadU64()
	if err != nil {
		return nil, err
	}
	cd.SerialUID = uid

	flagsByte, err := l.r.ReadU8()
	if err != nil {
		return nil, err
	}
	cd.Flags = model.ClassDescFlags(flagsByte)

	fieldCount, err := l.r.ReadU16()
	if err != nil {
		return nil, err
	}
	cd.Fields = make([]model.FieldDesc, fieldCount)
	for i := range cd.Fields {
		fd, err := l.readFieldDesc()
		if err != nil {
			return nil, err
		}
		cd.Fields[i] = fd
	}

	if err := l.discardAnnotations(); err != nil {
		return nil, err
	}

	super, err := l.ReadClassDesc()
	if err != nil {
		return nil, err
	}
	cd.Super = super

	if err := validateEnumUIDs(cd); err != nil {
		return nil, err
	}

	resolved, err := l.hooks.ResolveClass(cd)
	if err != nil {
		return nil, &model.ClassNotFoundError{Name: cd.Name, Err: err}
	}
	cd.ResolvedClass = resolved

	return cd, nil
}

func (l *Loader) readFieldDesc() (model.FieldDesc, error) {
	typeByte, err := l.r.ReadU8()
	if err != nil {
		return model.FieldDesc{}, err
	}
	ft := model.FieldType(typeByte)

	fname, err := l.r.ReadUTF()
	if err != nil {
		return model.FieldDesc{}, err
	}

	fd := model.FieldDesc{Type: ft, Name: fname}
	if ft == model.FieldObject || ft == model.FieldArray {
		sigAny, err := l.content.ReadContent()
		if err != nil {
			return model.FieldDesc{}, err
		}
		sig, ok := sigAny.(string)
		if !ok {
			return model.FieldDesc{}, &model.StreamCorruptedError{Reason: "field signature did not decode to a string"}
		}
		fd.Signature = NormalizeSignature(sig)
	}
	return fd, nil
}

// discardAnnotations reads and discards the optional annotation subgraph
// (any number of objects/blocks) up to ENDBLOCKDATA (§3 "Class descriptor").
func (l *Loader) discardAnnotations() error {
	return l.fr.DiscardData(func() error {
		_, err := l.content.ReadContent()
		return err
	})
}

// readProxy parses a PROXYCLASSDESC body: an interface-name list in place
// of fields.
func (l *Loader) readProxy() (*model.ClassDesc, error) {
	cd := &model.ClassDesc{IsProxy: true}
	cd.Handle = l.handles.Assign()
	l.handles.Register(cd.Handle, cd, false)

	count, err := l.r.ReadI32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, &model.StreamCorruptedError{Reason: "negative proxy interface count"}
	}
	interfaces := make([]string, count)
	for i := range interfaces {
		name, err := l.r.ReadUTF()
		if err != nil {
			return nil, err
		}
		interfaces[i] = name
	}
	cd.Interfaces = interfaces

	resolved, err := l.hooks.ResolveProxyClass(interfaces)
	if err != nil {
		return nil, &model.ClassNotFoundError{Name: "<proxy>", Err: err}
	}
	cd.ResolvedClass = resolved

	if err := l.discardAnnotations(); err != nil {
		return nil, err
	}

	super, err := l.ReadClassDesc()
	if err != nil {
		return nil, err
	}
	cd.Super = super

	return cd, nil
}

// validateEnumUIDs enforces §4.5 "Enum descriptors": an SC_ENUM descriptor
// and its super must both carry a zero serial-version UID.
func validateEnumUIDs(cd *model.ClassDesc) error {
	if !cd.IsEnum() {
		return nil
	}
	if cd.SerialUID != 0 {
		return &model.InvalidClassError{ClassName: cd.Name, Reason: "enum descriptor must have a zero serialVersionUID"}
	}
	if cd.Super != nil && cd.Super.SerialUID != 0 {
		return &model.InvalidClassError{ClassName: cd.Super.Name, Reason: "enum super descriptor must have a zero serialVersionUID"}
	}
	return nil
}
