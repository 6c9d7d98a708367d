package fsplan

import (
	"fmt"
	"strconv"
)

// Kind discriminates the alternatives a Value can hold.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindObject:
		return "object"
	}
	return "invalid"
}

// ObjectID references an object of the problem by its position in
// the problem's object table.
type ObjectID int32

// Value is the value of a single state variable. The zero Value is
// Invalid.
type Value struct {
	kind Kind
	v    int32
}

// Invalid is the value of a variable that has not been assigned.
var Invalid = Value{}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, v: 1}
	}
	return Value{kind: KindBool}
}

// Int returns an integer Value.
func Int(i int32) Value {
	return Value{kind: KindInt, v: i}
}

// Object returns a Value referencing an object.
func Object(o ObjectID) Value {
	return Value{kind: KindObject, v: int32(o)}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// Bool reports the truth of a boolean Value. Non-boolean values are
// true iff non-zero.
func (v Value) Bool() bool {
	return v.v != 0
}

func (v Value) Int() int32 {
	return v.v
}

func (v Value) Object() ObjectID {
	return ObjectID(v.v)
}

// Raw packs the value into a single integer that is unique among
// values of all kinds.
func (v Value) Raw() uint64 {
	return uint64(v.kind)<<32 | uint64(uint32(v.v))
}

// Compare orders values first by kind, then by payload. It returns
// -1, 0 or +1.
func (v Value) Compare(o Value) int {
	switch {
	case v.kind < o.kind:
		return -1
	case v.kind > o.kind:
		return 1
	case v.v < o.v:
		return -1
	case v.v > o.v:
		return 1
	}
	return 0
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt:
		return strconv.Itoa(int(v.v))
	case KindObject:
		return fmt.Sprintf("#%d", v.v)
	}
	return "<invalid>"
}
