package objstream

import (
	"fmt"

	"github.com/mabhi256/objstream/internal/model"
	"github.com/mabhi256/objstream/internal/validation"
)

// Fields is the GetField-style view of one hierarchy level's default field
// data (§4.8): the raw values have already been read off the wire by the
// time a Materializer hook receives one, so Defaulted/Get* never block and
// DefaultReadObject only dispatches to SetField.
type Fields struct {
	dec      *Decoder
	instance any
	level    *ClassDescriptor
	raw      map[string]any

	consumed bool
}

// Defaulted reports whether name was not present in this level's field
// list at all, meaning it keeps whatever zero value the host's instance
// started with.
func (f *Fields) Defaulted(name string) bool {
	_, ok := f.raw[name]
	return !ok
}

func getField[T any](f *Fields, name string, def T) (T, error) {
	v, ok := f.raw[name]
	if !ok {
		return def, nil
	}
	t, ok := v.(T)
	if !ok {
		return def, &model.StreamCorruptedError{Reason: fmt.Sprintf("field %q is not of the requested type", name)}
	}
	return t, nil
}

func (f *Fields) GetByte(name string, def int8) (int8, error)     { return getField(f, name, def) }
func (f *Fields) GetShort(name string, def int16) (int16, error)  { return getField(f, name, def) }
func (f *Fields) GetInt(name string, def int32) (int32, error)    { return getField(f, name, def) }
func (f *Fields) GetLong(name string, def int64) (int64, error)   { return getField(f, name, def) }
func (f *Fields) GetFloat(name string, def float32) (float32, error) {
	return getField(f, name, def)
}
func (f *Fields) GetDouble(name string, def float64) (float64, error) {
	return getField(f, name, def)
}
func (f *Fields) GetBool(name string, def bool) (bool, error) { return getField(f, name, def) }
func (f *Fields) GetChar(name string, def uint16) (uint16, error) {
	return getField(f, name, def)
}

// GetObject returns the field's already-materialized reference value, or
// def if the field is absent (§4.8).
func (f *Fields) GetObject(name string, def any) (any, error) {
	if v, ok := f.raw[name]; ok {
		return v, nil
	}
	return def, nil
}

// DefaultReadObject assigns every field this level declares to instance
// via the owning Decoder's Materializer, in the level's declared field
// order. It may be called at most once per hook
// invocation (§4.8 "at most once").
func (f *Fields) DefaultReadObject() error {
	if f.consumed {
		return &model.NotActiveError{Operation: "DefaultReadObject (fields already consumed for this level)"}
	}
	f.consumed = true
	for _, fd := range f.level.Fields {
		v, ok := f.raw[fd.Name]
		if !ok {
			continue
		}
		if err := f.dec.mat.SetField(f.instance, f.level, fd, v); err != nil {
			return err
		}
	}
	return nil
}

// RegisterValidation defers cb to run once, in priority order, after the
// outermost ReadObject/ReadUnshared call completes (§4.8, §8 property 5).
// It delegates to the owning Decoder so it may also be called from
// ReadExternalHook, which has no Fields of its own.
func (f *Fields) RegisterValidation(cb func() error, priority int32) error {
	return f.dec.RegisterValidation(cb, priority)
}

// RegisterValidation is the Decoder-level form, usable from any active
// hook (custom readObject or externalizable), matching §4.8's "any
// currently active read" scope rather than only the outermost call.
func (d *Decoder) RegisterValidation(cb func() error, priority int32) error {
	if d.depth == 0 {
		return &model.NotActiveError{Operation: "RegisterValidation"}
	}
	return d.queue.Register(validation.Callback(cb), priority)
}

// readLevelFields reads one hierarchy level's default field data: every
// primitive field first (in descriptor order), then every reference field
// (in descriptor order), per §4.6's default field read — independent of
// however the fields happened to be ordered in the parsed descriptor,
// since a strict encoder-independent reader cannot assume the two groups
// arrive pre-sorted. A level with SC_WRITE_METHOD set has its primitive
// bytes framed as block data bounded by an ENDBLOCKDATA (§3 invariant 4);
// everything else reads them as plain structural bytes.
func (d *Decoder) readLevelFields(level *ClassDescriptor) (map[string]any, error) {
	raw := make(map[string]any, len(level.Fields))

	var refFields []model.FieldDesc
	for _, fd := range level.Fields {
		if !fd.Type.IsPrimitive() {
			refFields = append(refFields, fd)
			continue
		}
		v, err := d.readPrimitiveField(level, fd.Type)
		if err != nil {
			return nil, err
		}
		raw[fd.Name] = v
	}
	for _, fd := range refFields {
		v, err := d.readContent()
		if err != nil {
			return nil, err
		}
		raw[fd.Name] = v
	}
	return raw, nil
}

// primitiveSource is the read surface the raw byte reader and the
// block-data framer both implement, so readPrimitiveField can pull a
// field's bytes from whichever one the wire format actually used for it.
type primitiveSource interface {
	ReadI8() (int8, error)
	ReadBool() (bool, error)
	ReadI16() (int16, error)
	ReadU16() (uint16, error)
	ReadI32() (int32, error)
	ReadI64() (int64, error)
	ReadF32() (float32, error)
	ReadF64() (float64, error)
}

// readPrimitiveField reads one primitive field's value, either as a
// structural object-mode read (like a class descriptor's own fields) or,
// for a level with a custom readObject-style hook, out of block-data mode
// (§4.6 "switch framer to block-data mode ... consume through
// ENDBLOCKDATA").
func (d *Decoder) readPrimitiveField(level *ClassDescriptor, ft model.FieldType) (any, error) {
	var src primitiveSource = d.r
	if level.HasWriteMethod() {
		src = d.fr
	}
	switch ft {
	case model.FieldByte:
		return src.ReadI8()
	case model.FieldBool:
		return src.ReadBool()
	case model.FieldShort:
		return src.ReadI16()
	case model.FieldChar:
		return src.ReadU16()
	case model.FieldInt:
		return src.ReadI32()
	case model.FieldLong:
		return src.ReadI64()
	case model.FieldFloat:
		return src.ReadF32()
	case model.FieldDouble:
		return src.ReadF64()
	default:
		return nil, &model.StreamCorruptedError{Reason: "not a primitive field type"}
	}
}
