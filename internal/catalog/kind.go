package catalog

import "fmt"

// Kind is the closed set of symbol reference kinds.
type Kind uint8

const (
	KindUnused Kind = iota
	KindClass
	KindInstanceField
	KindStaticField
	KindVirtualMethod
	KindStaticMethod
	KindSpecialMethod
	KindInterfaceMethod
)

// TypeTag is the per-slot value stored in the packed type-tag table.
// Values follow the VM's J9CPTYPE_* numbering.
type TypeTag uint8

const (
	TagUnused          TypeTag = 0
	TagClass           TypeTag = 1
	TagField           TypeTag = 7
	TagStaticField     TypeTag = 8
	TagInstanceMethod  TypeTag = 9
	TagStaticMethod    TypeTag = 10
	TagSpecialMethod   TypeTag = 11
	TagInterfaceMethod TypeTag = 12
)

var kindInfo = [...]struct {
	name    string
	element string
	tag     TypeTag
}{
	KindUnused:          {"unused", "", TagUnused},
	KindClass:           {"class", "classref", TagClass},
	KindInstanceField:   {"instance field", "fieldref", TagField},
	KindStaticField:     {"static field", "staticfieldref", TagStaticField},
	KindVirtualMethod:   {"virtual method", "virtualmethodref", TagInstanceMethod},
	KindStaticMethod:    {"static method", "staticmethodref", TagStaticMethod},
	KindSpecialMethod:   {"special method", "specialmethodref", TagSpecialMethod},
	KindInterfaceMethod: {"interface method", "interfacemethodref", TagInterfaceMethod},
}

func (k Kind) String() string {
	if int(k) < len(kindInfo) {
		return kindInfo[k].name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Element returns the declaration element name for the kind.
func (k Kind) Element() string {
	if int(k) < len(kindInfo) {
		return kindInfo[k].element
	}
	return ""
}

// Tag returns the split type tag of the kind.
func (k Kind) Tag() TypeTag {
	if int(k) < len(kindInfo) {
		return kindInfo[k].tag
	}
	return TagUnused
}

// IsField reports whether the kind references a field.
func (k Kind) IsField() bool {
	return k == KindInstanceField || k == KindStaticField
}

// IsMethod reports whether the kind references a method.
func (k Kind) IsMethod() bool {
	return k >= KindVirtualMethod && k <= KindInterfaceMethod
}

// IsMember reports whether the kind references a member of a class.
func (k Kind) IsMember() bool {
	return k.IsField() || k.IsMethod()
}

// KindForElement maps a declaration element name to its kind.
func KindForElement(element string) (Kind, bool) {
	for k := KindClass; int(k) < len(kindInfo); k++ {
		if kindInfo[k].element == element {
			return k, true
		}
	}
	return KindUnused, false
}

// Elements returns the declaration element names in kind order.
func Elements() []string {
	out := make([]string, 0, len(kindInfo)-1)
	for k := KindClass; int(k) < len(kindInfo); k++ {
		out = append(out, kindInfo[k].element)
	}
	return out
}

// Unsplit folds a split tag into the coarse table used by builds that do not
// distinguish static fields or static, special and interface methods.
func (t TypeTag) Unsplit() TypeTag {
	switch t {
	case TagStaticField:
		return TagField
	case TagStaticMethod, TagSpecialMethod, TagInterfaceMethod:
		return TagInstanceMethod
	default:
		return t
	}
}

func (t TypeTag) String() string {
	switch t {
	case TagUnused:
		return "UNUSED"
	case TagClass:
		return "CLASS"
	case TagField:
		return "FIELD"
	case TagStaticField:
		return "STATIC_FIELD"
	case TagInstanceMethod:
		return "INSTANCE_METHOD"
	case TagStaticMethod:
		return "STATIC_METHOD"
	case TagSpecialMethod:
		return "SPECIAL_METHOD"
	case TagInterfaceMethod:
		return "INTERFACE_METHOD"
	default:
		return fmt.Sprintf("TAG_%d", uint8(t))
	}
}
