package mapping

import (
	"strings"

	"github.com/agentstation/armory/pkg/errors"
)

// Kind is the closed set of normalization rule kinds.
type Kind int

const (
	// TypeRename replaces an item type.
	TypeRename Kind = iota + 1
	// GroupRename replaces a group or subgroup name.
	GroupRename
	// IgnoreType drops records whose (renamed) type matches.
	IgnoreType
	// BlankIdentifierType clears the identifier of records whose (renamed) type matches.
	BlankIdentifierType
)

// Kinds lists every rule kind in resolution order.
var Kinds = []Kind{TypeRename, GroupRename, IgnoreType, BlankIdentifierType}

// String returns the English label of the kind.
func (k Kind) String() string {
	switch k {
	case TypeRename:
		return "type"
	case GroupRename:
		return "group"
	case IgnoreType:
		return "ignore"
	case BlankIdentifierType:
		return "blank-identifier"
	default:
		return "unknown"
	}
}

// Label returns the label written to rule tables.
func (k Kind) Label() string {
	switch k {
	case TypeRename:
		return "סוג פריט"
	case GroupRename:
		return "מחלקה"
	case IgnoreType:
		return "התעלם"
	case BlankIdentifierType:
		return "מזהה ריק"
	default:
		return ""
	}
}

// IsRename reports whether rules of this kind carry a To value.
func (k Kind) IsRename() bool {
	return k == TypeRename || k == GroupRename
}

// ParseKind recognizes both the table labels and the English names.
func ParseKind(label string) (Kind, bool) {
	label = strings.TrimSpace(label)
	for _, k := range Kinds {
		if label == k.Label() || strings.EqualFold(label, k.String()) {
			return k, true
		}
	}
	switch strings.ToLower(label) {
	case "type-rename", "rename":
		return TypeRename, true
	case "group-rename":
		return GroupRename, true
	case "blank", "blank-id":
		return BlankIdentifierType, true
	}
	return 0, false
}

// MarshalText encodes the kind by its English name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts any label ParseKind accepts.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return errors.NewValidationError("kind", string(text), "unknown mapping kind")
	}
	*k = parsed
	return nil
}
