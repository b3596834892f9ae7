package model

// Handle is the small integer assigned in first-appearance order to every
// registerable item (object, class descriptor, string, array, class
// literal, enum constant). It is the unit of back-reference.
type Handle uint32

// FieldDesc is one entry in a class descriptor's ordered field list (§3
// "Field descriptor").
type FieldDesc struct {
	Type      FieldType
	Name      string
	Signature string // only meaningful when Type is FieldObject or FieldArray
}

// ClassDesc is a parsed class descriptor (§3 "Class descriptor"). Proxy
// descriptors populate Interfaces instead of Name/Fields.
type ClassDesc struct {
	Handle Handle

	// Ordinary/enum descriptor fields.
	Name       string
	SerialUID  uint64
	Flags      ClassDescFlags
	Fields     []FieldDesc

	// Proxy descriptor fields.
	IsProxy    bool
	Interfaces []string

	Super *ClassDesc

	// ResolvedClass is whatever the host's ResolveClass (or, for a proxy
	// descriptor, ResolveProxyClass) hook returned for this descriptor; the
	// core treats it as an opaque token.
	ResolvedClass any
}

// IsEnum reports whether this descriptor describes an enum type (§4.5
// "Enum descriptors" — SC_ENUM set). It checks the flag only; the
// zero-UID rule is enforced by the descriptor loader.
func (c *ClassDesc) IsEnum() bool {
	return c.Flags.Has(ScEnum)
}

// Externalizable reports whether instances of this level are read via the
// host's ReadExternal hook rather than default/custom field reads.
func (c *ClassDesc) Externalizable() bool {
	return c.Flags.Has(ScExternalizable)
}

// HasWriteMethod reports whether this level declares a custom
// readObject-style hook (SC_WRITE_METHOD — named for the writer's
// counterpart, since a descriptor only ever records what the encoder did).
func (c *ClassDesc) HasWriteMethod() bool {
	return c.Flags.Has(ScWriteMethod)
}

// Hierarchy returns the descriptor chain from the root ancestor (closest to
// Object) down to c, inclusive — the order default field reads walk in.
func (c *ClassDesc) Hierarchy() []*ClassDesc {
	var chain []*ClassDesc
	for d := c; d != nil; d = d.Super {
		chain = append(chain, d)
	}
	// reverse into root-to-leaf order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
