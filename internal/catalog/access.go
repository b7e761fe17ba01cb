package catalog

import (
	"strings"

	vmcperrors "vmcp/internal/errors"
)

// Storage is the slot width an accessor reads and writes.
type Storage uint8

const (
	Storage32 Storage = iota + 1
	Storage64
	StorageObject
)

func (s Storage) String() string {
	switch s {
	case Storage32:
		return "U32"
	case Storage64:
		return "U64"
	case StorageObject:
		return "OBJECT"
	default:
		return "?"
	}
}

// Access describes how generated accessors read a field.
type Access struct {
	Storage Storage
	CType   string
}

var castStorage = map[string]Storage{
	"U_8":        Storage32,
	"I_8":        Storage32,
	"U_16":       Storage32,
	"I_16":       Storage32,
	"U_32":       Storage32,
	"I_32":       Storage32,
	"BOOLEAN":    Storage32,
	"U_64":       Storage64,
	"I_64":       Storage64,
	"UDATA":      Storage64,
	"IDATA":      Storage64,
	"j9object_t": StorageObject,
}

// FieldAccess derives the accessor encoding of a field variant from its
// signature and optional cast. Double fields and unrecognized casts have no
// encoding and fail with UNSUPPORTED_ENCODING.
func (v *Variant) FieldAccess() (Access, error) {
	if !v.Kind.IsField() {
		return Access{}, vmcperrors.Newf(vmcperrors.InternalError, "%s %s is not a field", v.Kind, v.Name)
	}

	var acc Access
	switch sig := v.Signature; {
	case sig == "":
		return Access{}, vmcperrors.Newf(vmcperrors.InvalidDeclaration,
			"field %s.%s has no signature", v.ClassName, v.Name)
	case sig == "Z" || sig == "C":
		acc = Access{Storage: Storage32, CType: "U_32"}
	case sig == "B" || sig == "S" || sig == "I":
		acc = Access{Storage: Storage32, CType: "I_32"}
	case sig == "F":
		acc = Access{Storage: Storage32, CType: "U_32"}
	case sig == "J":
		acc = Access{Storage: Storage64, CType: "I_64"}
	case sig[0] == 'L' || sig[0] == '[':
		acc = Access{Storage: StorageObject, CType: "j9object_t"}
	default:
		return Access{}, vmcperrors.Newf(vmcperrors.UnsupportedEncoding,
			"field %s.%s: signature %q has no record encoding", v.ClassName, v.Name, sig).
			WithDetails(map[string]string{"signature": sig})
	}

	if v.Cast == "" {
		return acc, nil
	}

	storage, ok := castStorage[v.Cast]
	if !ok && strings.HasSuffix(v.Cast, "*") && acc.Storage == Storage64 {
		// Native pointers are kept in long fields.
		storage, ok = Storage64, true
	}
	if !ok {
		return Access{}, vmcperrors.Newf(vmcperrors.UnsupportedEncoding,
			"field %s.%s: unrecognized cast %q", v.ClassName, v.Name, v.Cast).
			WithDetails(map[string]string{"cast": v.Cast})
	}
	if storage != acc.Storage {
		return Access{}, vmcperrors.Newf(vmcperrors.UnsupportedEncoding,
			"field %s.%s: cast %q does not fit signature %q", v.ClassName, v.Name, v.Cast, v.Signature).
			WithDetails(map[string]string{"cast": v.Cast, "signature": v.Signature})
	}
	acc.CType = v.Cast
	return acc, nil
}
