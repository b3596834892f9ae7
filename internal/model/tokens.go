// Package model holds the wire constants and shared data types for the
// object-graph stream: token codes, class-descriptor flags, field types,
// and the handle numbering scheme.
package model

import "fmt"

// TokenCode is the single byte that introduces every item on the stream.
type TokenCode byte

const (
	TokenNull           TokenCode = 0x70
	TokenReference      TokenCode = 0x71
	TokenClassDesc      TokenCode = 0x72
	TokenObject         TokenCode = 0x73
	TokenString         TokenCode = 0x74
	TokenArray          TokenCode = 0x75
	TokenClass          TokenCode = 0x76
	TokenBlockData      TokenCode = 0x77
	TokenEndBlockData   TokenCode = 0x78
	TokenReset          TokenCode = 0x79
	TokenBlockDataLong  TokenCode = 0x7A
	TokenException      TokenCode = 0x7B
	TokenLongString     TokenCode = 0x7C
	TokenProxyClassDesc TokenCode = 0x7D
	TokenEnum           TokenCode = 0x7E
)

func (t TokenCode) String() string {
	switch t {
	case TokenNull:
		return "NULL"
	case TokenReference:
		return "REFERENCE"
	case TokenClassDesc:
		return "CLASSDESC"
	case TokenObject:
		return "OBJECT"
	case TokenString:
		return "STRING"
	case TokenArray:
		return "ARRAY"
	case TokenClass:
		return "CLASS"
	case TokenBlockData:
		return "BLOCKDATA"
	case TokenEndBlockData:
		return "ENDBLOCKDATA"
	case TokenReset:
		return "RESET"
	case TokenBlockDataLong:
		return "BLOCKDATALONG"
	case TokenException:
		return "EXCEPTION"
	case TokenLongString:
		return "LONGSTRING"
	case TokenProxyClassDesc:
		return "PROXYCLASSDESC"
	case TokenEnum:
		return "ENUM"
	default:
		return fmt.Sprintf("TokenCode(0x%02X)", byte(t))
	}
}

// Valid reports whether t is one of the fifteen tokens the stream may emit.
func (t TokenCode) Valid() bool {
	switch t {
	case TokenNull, TokenReference, TokenClassDesc, TokenObject, TokenString,
		TokenArray, TokenClass, TokenBlockData, TokenEndBlockData, TokenReset,
		TokenBlockDataLong, TokenException, TokenLongString, TokenProxyClassDesc,
		TokenEnum:
		return true
	default:
		return false
	}
}

// Stream header constants (§3).
const (
	StreamMagic   uint16 = 0xACED
	StreamVersion uint16 = 0x0005
)

// BaseHandle is the first handle value assigned on a fresh stream or after
// a RESET token (§3 "Handle").
const BaseHandle = 0x7E0000

// ClassDescFlags is the flags byte of a class descriptor.
type ClassDescFlags byte

const (
	ScWriteMethod    ClassDescFlags = 0x01
	ScSerializable   ClassDescFlags = 0x02
	ScExternalizable ClassDescFlags = 0x04
	ScBlockData      ClassDescFlags = 0x08
	ScEnum           ClassDescFlags = 0x10
)

func (f ClassDescFlags) Has(bit ClassDescFlags) bool { return f&bit != 0 }

// FieldType is the single-character type code of a field descriptor.
type FieldType byte

const (
	FieldByte   FieldType = 'B'
	FieldShort  FieldType = 'S'
	FieldInt    FieldType = 'I'
	FieldLong   FieldType = 'J'
	FieldFloat  FieldType = 'F'
	FieldDouble FieldType = 'D'
	FieldBool   FieldType = 'Z'
	FieldChar   FieldType = 'C'
	FieldObject FieldType = 'L'
	FieldArray  FieldType = '['
)

// IsPrimitive reports whether the field holds a primitive value directly
// in the default-field-read byte stream, as opposed to an object reference.
func (f FieldType) IsPrimitive() bool {
	switch f {
	case FieldByte, FieldShort, FieldInt, FieldLong, FieldFloat, FieldDouble, FieldBool, FieldChar:
		return true
	default:
		return false
	}
}

// PrimitiveSize returns the tightly-packed wire size of a primitive field
// type in bytes, or 0 if f is not primitive.
func (f FieldType) PrimitiveSize() int {
	switch f {
	case FieldByte, FieldBool:
		return 1
	case FieldShort, FieldChar:
		return 2
	case FieldInt, FieldFloat:
		return 4
	case FieldLong, FieldDouble:
		return 8
	default:
		return 0
	}
}

func (f FieldType) String() string {
	switch f {
	case FieldByte:
		return "byte"
	case FieldShort:
		return "short"
	case FieldInt:
		return "int"
	case FieldLong:
		return "long"
	case FieldFloat:
		return "float"
	case FieldDouble:
		return "double"
	case FieldBool:
		return "boolean"
	case FieldChar:
		return "char"
	case FieldObject:
		return "object"
	case FieldArray:
		return "array"
	default:
		return fmt.Sprintf("FieldType(%q)", byte(f))
	}
}
