package graph

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the dynamic type carried by a Value.
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
	KindNull
)

// Value is a tagged property value: scalar, list, or mapping. It
// carries a decoded payload directly rather than a byte-packed
// encoding — plans and PTs cross the wire as JSON, so the natural
// representation here is one that marshals without a decode step at
// the boundary.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Flt  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Int(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, Flt: f} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func List(vs ...Value) Value {
	return Value{Kind: KindList, List: vs}
}
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }
func Null() Value                  { return Value{Kind: KindNull} }

// AsString returns the string payload and whether Kind is KindString.
func (v Value) AsString() (string, bool) {
	return v.Str, v.Kind == KindString
}

// AsFloat coerces Int/Float into a float64, for arithmetic evaluation.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.Flt, true
	case KindInt:
		return float64(v.Int), true
	default:
		return 0, false
	}
}

// AsBool returns the bool payload and whether Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	return v.Bool, v.Kind == KindBool
}

// Any unwraps the value into a plain Go value, for logging/JSON egress.
func (v Value) Any() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Flt
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.Any()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.Any()
		}
		return out
	default:
		return nil
	}
}

// FromAny lifts a decoded JSON value (or a literal from an expression
// tree) into a Value.
func FromAny(a any) Value {
	switch x := a.(type) {
	case nil:
		return Null()
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	case []any:
		vs := make([]Value, len(x))
		for i, e := range x {
			vs[i] = FromAny(e)
		}
		return Value{Kind: KindList, List: vs}
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = FromAny(e)
		}
		return Value{Kind: KindMap, Map: m}
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var a any
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*v = FromAny(a)
	return nil
}
