package objstream

import (
	"errors"

	"github.com/mabhi256/objstream/internal/model"
)

// readContent reads one arbitrary shared item (C6): the entry point used
// for nested reference fields, array elements, class-descriptor
// signatures, and annotation items. It is never itself a top-level call;
// ReadObject/ReadUnshared go through readContentUnshared directly.
func (d *Decoder) readContent() (any, error) {
	return d.readContentUnshared(false)
}

// readContentUnshared is the materializer's token dispatch (§4.6). Before
// looking at the next token it tries to open a pending block-data frame;
// finding one means primitive bytes sit where an item was expected, which
// is itself the OptionalDataException condition (§4.3) — one check serves
// both "framer not empty" and "next token is BLOCKDATA/BLOCKDATALONG", and
// absorbs an in-band RESET transparently along the way.
func (d *Decoder) readContentUnshared(unshared bool) (any, error) {
	if err := d.fr.EnsureAvailable(); err == nil {
		return nil, &model.OptionalDataError{Remaining: d.fr.Available()}
	} else if !isOptionalEOF(err) {
		return nil, err
	}

	code, err := d.tok.Next()
	if err != nil {
		return nil, err
	}

	switch code {
	case model.TokenNull:
		return nil, nil

	case model.TokenReference:
		return d.readReference()

	case model.TokenClass:
		return d.readClassLiteral()

	case model.TokenClassDesc, model.TokenProxyClassDesc:
		d.tok.Pushback(code)
		return d.loader.ReadClassDesc()

	case model.TokenString:
		return d.readStringInstance(unshared, false)

	case model.TokenLongString:
		return d.readStringInstance(unshared, true)

	case model.TokenArray:
		return d.readArrayInstance(unshared)

	case model.TokenObject:
		return d.readObjectInstance(unshared)

	case model.TokenEnum:
		return d.readEnumInstance(unshared)

	case model.TokenException:
		return nil, d.readException()

	case model.TokenReset:
		// Defensive: every call site routes through EnsureAvailable first,
		// which already absorbs a RESET before the token dispatch ever
		// sees one. Handled directly too in case a caller bypasses that.
		if err := d.handleReset(); err != nil {
			return nil, err
		}
		return d.readContentUnshared(unshared)

	default:
		return nil, &model.StreamCorruptedError{Reason: "unexpected token " + code.String()}
	}
}

func isOptionalEOF(err error) bool {
	var ode *model.OptionalDataError
	return errors.As(err, &ode) && ode.EOF
}

func (d *Decoder) readReference() (any, error) {
	raw, err := d.r.ReadU32()
	if err != nil {
		return nil, err
	}
	return d.handles.Lookup(model.Handle(raw))
}

// readClassLiteral reads a CLASS token: a class descriptor naming the
// class object itself, rather than an instance of it (§4.6 "Class
// literal").
func (d *Decoder) readClassLiteral() (any, error) {
	cd, err := d.loader.ReadClassDesc()
	if err != nil {
		return nil, err
	}
	h := d.handles.Assign()
	if cd == nil {
		d.handles.Register(h, nil, false)
		return nil, nil
	}
	// Register the value actually returned, not the descriptor that named
	// it, so a later REFERENCE to this handle resolves to the same class
	// token a custom Materializer handed back (§8 property 1).
	d.handles.Register(h, cd.ResolvedClass, false)
	return cd.ResolvedClass, nil
}

// readStringInstance reads a STRING/LONGSTRING token: modified-UTF-8 text
// with its own handle, prefixed by a 2-byte or 8-byte length respectively.
func (d *Decoder) readStringInstance(unshared, long bool) (any, error) {
	h := d.handles.Assign()
	var s string
	var err error
	if long {
		s, err = d.r.ReadUTFLong()
	} else {
		s, err = d.r.ReadUTF()
	}
	if err != nil {
		return nil, err
	}
	d.handles.Register(h, s, unshared)
	return d.finishRegistration(h, s, unshared)
}

// readArrayInstance reads an ARRAY token: a class descriptor (whose name
// is an array signature, e.g. "[I" or "[Ljava.lang.String;"), a 4-byte
// length, then that many elements — primitive values packed tightly for a
// primitive component type, or recursively read items for everything else
// (§4.6 "Array"). The handle is assigned right after the length so a
// self-referential element can resolve the array currently being built.
func (d *Decoder) readArrayInstance(unshared bool) (any, error) {
	cd, err := d.loader.ReadClassDesc()
	if err != nil {
		return nil, err
	}
	if cd == nil {
		return nil, &model.StreamCorruptedError{Reason: "array with null class descriptor"}
	}
	if len(cd.Name) < 2 || cd.Name[0] != '[' {
		return nil, &model.InvalidClassError{ClassName: cd.Name, Reason: "array class descriptor is not an array signature"}
	}

	size, err := d.r.ReadI32()
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, &model.StreamCorruptedError{Reason: "negative array length"}
	}

	h := d.handles.Assign()
	component := model.FieldType(cd.Name[1])

	if component.IsPrimitive() {
		arr, err := d.readPrimitiveArray(component, int(size))
		if err != nil {
			return nil, err
		}
		d.handles.Register(h, arr, unshared)
		return d.finishRegistration(h, arr, unshared)
	}

	// Registered before elements are filled in, so a self-referential
	// element resolves back to this same array (slices share a backing
	// array across the copy a map/interface lookup returns).
	arr := make([]any, size)
	d.handles.Register(h, arr, unshared)
	for i := range arr {
		v, err := d.readContent()
		if err != nil {
			return nil, err
		}
		arr[i] = v
	}
	return d.finishRegistration(h, arr, unshared)
}

// finishRegistration applies the resolveObject substitution hook to an
// already-registered value and, if substitution produced a different
// value, re-registers it under the same handle (§4.9 point 3).
func (d *Decoder) finishRegistration(h model.Handle, raw any, unshared bool) (any, error) {
	v, err := d.substitute(raw)
	if err != nil {
		return nil, err
	}
	if !unshared {
		d.handles.Reassign(h, v)
	}
	return v, nil
}

func (d *Decoder) readPrimitiveArray(ft model.FieldType, n int) (any, error) {
	switch ft {
	case model.FieldByte:
		out := make([]int8, n)
		for i := range out {
			v, err := d.r.ReadI8()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.FieldBool:
		out := make([]bool, n)
		for i := range out {
			v, err := d.r.ReadBool()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.FieldShort:
		out := make([]int16, n)
		for i := range out {
			v, err := d.r.ReadI16()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.FieldChar:
		out := make([]uint16, n)
		for i := range out {
			v, err := d.r.ReadU16()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.FieldInt:
		out := make([]int32, n)
		for i := range out {
			v, err := d.r.ReadI32()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.FieldLong:
		out := make([]int64, n)
		for i := range out {
			v, err := d.r.ReadI64()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.FieldFloat:
		out := make([]float32, n)
		for i := range out {
			v, err := d.r.ReadF32()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case model.FieldDouble:
		out := make([]float64, n)
		for i := range out {
			v, err := d.r.ReadF64()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, &model.StreamCorruptedError{Reason: "not a primitive array component type"}
	}
}

// readEnumInstance reads an ENUM token: a class descriptor, a handle, and
// the constant's name (itself a nested STRING/LONGSTRING/REFERENCE item,
// §4.6 "Enum constant").
func (d *Decoder) readEnumInstance(unshared bool) (any, error) {
	cd, err := d.loader.ReadClassDesc()
	if err != nil {
		return nil, err
	}
	if cd == nil {
		return nil, &model.StreamCorruptedError{Reason: "enum constant with null class descriptor"}
	}
	h := d.handles.Assign()

	nameAny, err := d.readContent()
	if err != nil {
		return nil, err
	}
	name, ok := nameAny.(string)
	if !ok {
		return nil, &model.StreamCorruptedError{Reason: "enum constant name did not decode to a string"}
	}

	v, err := d.mat.EnumConstant(cd, name)
	if err != nil {
		return nil, &model.InvalidClassError{ClassName: cd.Name, Reason: err.Error()}
	}
	d.handles.Register(h, v, unshared)
	return d.finishRegistration(h, v, unshared)
}

// readObjectInstance reads an OBJECT token (§4.6 "Object"): resolve the
// class descriptor, allocate the (still empty) instance, register its
// handle immediately — before any field is read, so a cyclic field can
// resolve back to this same instance — then walk the descriptor hierarchy
// root to leaf, reading each level's data the way its flags say it was
// written.
func (d *Decoder) readObjectInstance(unshared bool) (any, error) {
	cd, err := d.loader.ReadClassDesc()
	if err != nil {
		return nil, err
	}
	if cd == nil {
		return nil, &model.StreamCorruptedError{Reason: "object with null class descriptor"}
	}

	instance, err := d.mat.NewInstance(cd)
	if err != nil {
		return nil, &model.InvalidClassError{ClassName: cd.Name, Reason: err.Error()}
	}

	h := d.handles.Assign()
	d.handles.Register(h, instance, unshared)

	for _, level := range cd.Hierarchy() {
		if err := d.readObjectLevel(instance, level); err != nil {
			return nil, err
		}
	}

	return d.finishRegistration(h, instance, unshared)
}

// readObjectLevel reads one hierarchy level's serialized form (§4.6):
// externalizable levels hand the whole level to ReadExternalHook;
// everything else reads its default field data first — present on the
// wire regardless of what the local class looks like — then either
// assigns it directly, hands it to a custom ReadObjectHook, or (when the
// class resolver flagged this level as locally absent) discards it via
// ReadObjectNoDataHook. A level with SC_WRITE_METHOD may leave optional
// extra block data behind, which is always discarded afterward exactly
// like a class descriptor's annotation subgraph.
func (d *Decoder) readObjectLevel(instance any, level *ClassDescriptor) error {
	absent := level.ResolvedClass == NoLocalClass

	if level.Externalizable() {
		d.rawExternal = !level.Flags.Has(model.ScBlockData)
		err := d.mat.ReadExternalHook(instance, level, d)
		d.rawExternal = false
		if err != nil {
			return err
		}
		if level.Flags.Has(model.ScBlockData) {
			return d.fr.DiscardData(func() error { _, e := d.readContent(); return e })
		}
		return nil
	}

	raw, err := d.readLevelFields(level)
	if err != nil {
		return err
	}

	switch {
	case absent:
		if err := d.mat.ReadObjectNoDataHook(instance, level); err != nil {
			return err
		}
	case level.HasWriteMethod():
		fields := &Fields{dec: d, instance: instance, level: level, raw: raw}
		if err := d.mat.ReadObjectHook(instance, level, fields); err != nil {
			return err
		}
	default:
		for _, fd := range level.Fields {
			v, ok := raw[fd.Name]
			if !ok {
				continue
			}
			if err := d.mat.SetField(instance, level, fd, v); err != nil {
				return err
			}
		}
	}

	if level.HasWriteMethod() {
		return d.fr.DiscardData(func() error { _, e := d.readContent(); return e })
	}
	return nil
}

// substitute applies the host's resolveObject hook if the caller has
// enabled it (§4.9 point 3); otherwise v passes through unchanged.
func (d *Decoder) substitute(v any) (any, error) {
	if !d.resolveObjectEnabled {
		return v, nil
	}
	return d.mat.ResolveObject(v)
}
