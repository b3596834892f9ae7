package objstream

import (
	"fmt"

	"github.com/mabhi256/objstream/internal/model"
)

// Materializer is the host resolution abstraction (C9): everything the
// core cannot decide on its own because it depends on the host's type
// system — naming a Go type for a stream class, allocating an instance,
// assigning a decoded value to a named field, and running any
// custom-read-method equivalent. The core never uses reflection itself;
// every hook here is the host's to implement.
type Materializer interface {
	// ResolveClass maps a parsed class descriptor to a host-defined token
	// (typically a reflect.Type or a registry key). The returned value is
	// opaque to the core and only round-tripped back through
	// ClassDescriptor.ResolvedClass and the other hooks below. Returning
	// NoLocalClass signals that this level lacks a local representation;
	// the core then still reads the level's field bytes, skips field
	// assignment for it, and invokes ReadObjectNoDataHook instead.
	ResolveClass(desc *ClassDescriptor) (any, error)

	// ResolveProxyClass maps a dynamic-proxy interface list to a host token.
	ResolveProxyClass(interfaces []string) (any, error)

	// NewInstance allocates the (still field-less) instance for an OBJECT
	// token, given the leaf class descriptor of its hierarchy.
	NewInstance(desc *ClassDescriptor) (any, error)

	// SetField assigns one decoded field value onto instance, for the
	// hierarchy level named by level (field names are only unique within a
	// level, not across the whole hierarchy).
	SetField(instance any, level *ClassDescriptor, field FieldDescriptor, value any) error

	// ReadObjectHook runs for a level with SC_WRITE_METHOD set. fields is
	// bound to level and instance; the hook is expected to call
	// fields.DefaultReadObject(), the fields.Get* accessors, and/or
	// fields.RegisterValidation() as needed. Any block data the hook
	// leaves unread is discarded automatically afterward.
	ReadObjectHook(instance any, level *ClassDescriptor, fields *Fields) error

	// ReadExternalHook runs for an Externalizable level. dec is the owning
	// Decoder, exposing both the primitive accessors and ReadObject/
	// ReadUnshared for nested reference fields. If the level's
	// SC_BLOCK_DATA flag is set, any data left unread is discarded
	// automatically afterward; if unset, the hook is solely responsible
	// for consuming exactly its own data.
	ReadExternalHook(instance any, level *ClassDescriptor, dec *Decoder) error

	// ReadObjectNoDataHook runs in place of field assignment for a level
	// where ResolveClass returned NoLocalClass.
	ReadObjectNoDataHook(instance any, level *ClassDescriptor) error

	// EnumConstant resolves a named constant of an enum descriptor to a
	// host value for an ENUM token.
	EnumConstant(level *ClassDescriptor, name string) (any, error)

	// ResolveObject is consulted for every newly materialized object, but
	// only takes effect while EnableResolveObject(true) is in force (§4.9
	// point 3). The default is to return instance unchanged.
	ResolveObject(instance any) (any, error)
}

// NoLocalClass is the ResolveClass sentinel a Materializer returns to mean
// "this hierarchy level has no local class"; see Materializer.ResolveClass.
var NoLocalClass = &struct{ noLocalClass byte }{}

// Object is the generic value DefaultMaterializer produces for an OBJECT
// token: a bag of field values keyed by name, alongside the descriptor
// that named them. Field names are assumed unique across the hierarchy;
// a shadowed name in a subclass overwrites its ancestor's entry.
type Object struct {
	Desc   *ClassDescriptor
	Fields map[string]any
}

func (o *Object) String() string {
	return fmt.Sprintf("%s%v", o.Desc.Name, o.Fields)
}

// EnumValue is the generic value DefaultMaterializer produces for an ENUM
// token.
type EnumValue struct {
	Desc *ClassDescriptor
	Name string
}

func (e *EnumValue) String() string { return e.Desc.Name + "." + e.Name }

// ProxyValue is the generic value DefaultMaterializer produces when a
// proxy class descriptor's instance is materialized.
type ProxyValue struct {
	Interfaces []string
	Fields     map[string]any
}

// DefaultMaterializer reconstructs a host-agnostic graph out of Object,
// EnumValue, ProxyValue, strings, and Go slices/primitives, with no
// reflection and no knowledge of any real Go type. It is what NewDecoder
// installs when WithMaterializer is not given, so the library is usable
// without a host binding (§1 explicitly leaves real reflective
// instantiation to the host; this is the fallback for callers who just
// want the graph shape).
type DefaultMaterializer struct{}

// NewDefaultMaterializer returns a ready-to-use DefaultMaterializer.
func NewDefaultMaterializer() *DefaultMaterializer { return &DefaultMaterializer{} }

func (DefaultMaterializer) ResolveClass(desc *ClassDescriptor) (any, error) {
	return desc, nil
}

func (DefaultMaterializer) ResolveProxyClass(interfaces []string) (any, error) {
	return interfaces, nil
}

func (DefaultMaterializer) NewInstance(desc *ClassDescriptor) (any, error) {
	if desc.IsProxy {
		return &ProxyValue{Interfaces: desc.Interfaces, Fields: map[string]any{}}, nil
	}
	return &Object{Desc: desc, Fields: map[string]any{}}, nil
}

func (DefaultMaterializer) SetField(instance any, level *ClassDescriptor, field FieldDescriptor, value any) error {
	switch v := instance.(type) {
	case *Object:
		v.Fields[field.Name] = value
	case *ProxyValue:
		v.Fields[field.Name] = value
	default:
		return &model.InvalidObjectError{Reason: "DefaultMaterializer.SetField: unexpected instance type"}
	}
	return nil
}

// ReadObjectHook always falls back to a default field read: the generic
// graph has no concept of a custom readObject method.
func (DefaultMaterializer) ReadObjectHook(instance any, level *ClassDescriptor, fields *Fields) error {
	return fields.DefaultReadObject()
}

// ReadExternalHook can only cope with SC_BLOCK_DATA externalizable levels,
// whose payload the core discards automatically once this returns; an
// unframed (pre-1.2 protocol) externalizable level has no generically
// knowable length, so DefaultMaterializer refuses it.
func (DefaultMaterializer) ReadExternalHook(instance any, level *ClassDescriptor, dec *Decoder) error {
	if !level.Flags.Has(model.ScBlockData) {
		return &model.InvalidClassError{ClassName: level.Name, Reason: "externalizable data is not block-framed; a generic reader cannot locate its end"}
	}
	return nil
}

func (DefaultMaterializer) ReadObjectNoDataHook(instance any, level *ClassDescriptor) error {
	return nil
}

func (DefaultMaterializer) EnumConstant(level *ClassDescriptor, name string) (any, error) {
	return &EnumValue{Desc: level, Name: name}, nil
}

func (DefaultMaterializer) ResolveObject(instance any) (any, error) {
	return instance, nil
}

// primitiveClassNames maps a field-descriptor type code to the name of
// the matching Java primitive class literal (e.g. "int" for int.class). Exposed for
// hosts that want to print or compare primitive signatures the way the
// stream's own class literals would (§3 "Field descriptor").
var primitiveClassNames = map[model.FieldType]string{
	model.FieldByte:   "byte",
	model.FieldShort:  "short",
	model.FieldInt:    "int",
	model.FieldLong:   "long",
	model.FieldFloat:  "float",
	model.FieldDouble: "double",
	model.FieldBool:   "boolean",
	model.FieldChar:   "char",
}

// PrimitiveClassName returns the primitive type name for a field type code
// (e.g. FieldInt -> "int"), or ("", false) if ft does not name a
// primitive.
func PrimitiveClassName(ft model.FieldType) (string, bool) {
	name, ok := primitiveClassNames[ft]
	return name, ok
}
