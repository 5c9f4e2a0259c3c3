package metadata

import (
	"fmt"
	"strings"
)

// EventArgKind kind of event arg
type EventArgKind uint8

// event arg kinds
const (
	PrimitiveArg EventArgKind = iota
	VecArg
	TupleArg
)

// EventArg naive representation of an event argument type.
// It is only used to size an encoded event field by field,
// see Primitives.
type EventArg struct {
	Kind  EventArgKind
	Name  string     // PrimitiveArg
	Inner *EventArg  // VecArg
	Elems []EventArg // TupleArg
}

// Primitive new primitive arg
func Primitive(name string) EventArg {
	return EventArg{Kind: PrimitiveArg, Name: name}
}

// Vec new vector arg
func Vec(inner EventArg) EventArg {
	return EventArg{Kind: VecArg, Inner: &inner}
}

// Tuple new tuple arg
func Tuple(elems ...EventArg) EventArg {
	return EventArg{Kind: TupleArg, Elems: elems}
}

// ParseEventArg parses a type name as found in event metadata.
// Forms other than `Vec<..>` and `(..)` are taken as primitive names.
func ParseEventArg(s string) (EventArg, error) {
	switch {
	case strings.HasPrefix(s, "Vec<"):
		if !strings.HasSuffix(s, ">") {
			return EventArg{}, fmt.Errorf("%w: %q expected closing `>` for `Vec`", ErrInvalidEventArg, s)
		}
		inner, err := ParseEventArg(s[4 : len(s)-1])
		if err != nil {
			return EventArg{}, err
		}
		return Vec(inner), nil
	case strings.HasPrefix(s, "("):
		if !strings.HasSuffix(s, ")") {
			return EventArg{}, fmt.Errorf("%w: %q expected closing `)` for tuple", ErrInvalidEventArg, s)
		}
		parts := strings.Split(s[1:len(s)-1], ",")
		elems := make([]EventArg, 0, len(parts))
		for _, part := range parts {
			elem, err := ParseEventArg(strings.TrimSpace(part))
			if err != nil {
				return EventArg{}, err
			}
			elems = append(elems, elem)
		}
		return Tuple(elems...), nil
	default:
		return Primitive(s), nil
	}
}

// Primitives returns the leaf primitive names, depth first from left to right
func (a EventArg) Primitives() []string {
	switch a.Kind {
	case VecArg:
		return a.Inner.Primitives()
	case TupleArg:
		var primitives []string
		for i := range a.Elems {
			primitives = append(primitives, a.Elems[i].Primitives()...)
		}
		return primitives
	default:
		return []string{a.Name}
	}
}

// String implements the stringer interface
func (a EventArg) String() string {
	switch a.Kind {
	case VecArg:
		return "Vec<" + a.Inner.String() + ">"
	case TupleArg:
		elems := make([]string, len(a.Elems))
		for i, elem := range a.Elems {
			elems[i] = elem.String()
		}
		return "(" + strings.Join(elems, ", ") + ")"
	default:
		return a.Name
	}
}
