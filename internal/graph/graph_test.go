package graph

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestNewNodeID(t *testing.T) {
	tests := []struct {
		name    string
		uuid    string
		wantErr bool
	}{
		{"valid", "a1b2c3", false},
		{"empty body", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewNodeID(tt.uuid)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewNodeID(%q) = nil error, want error", tt.uuid)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewNodeID(%q) = %v, want no error", tt.uuid, err)
			}
			want := NodeID("UUID:" + tt.uuid)
			if id != want {
				t.Errorf("NewNodeID(%q) = %q, want %q", tt.uuid, id, want)
			}
		})
	}
}

func TestNodeID_Valid(t *testing.T) {
	tests := []struct {
		name string
		id   NodeID
		want bool
	}{
		{"prefixed with body", NodeID("UUID:abc"), true},
		{"prefix only", NodeID("UUID:"), false},
		{"no prefix", NodeID("abc"), false},
		{"empty", NodeID(""), false},
		{"root", RootID, true},
		{"meta", MetaID, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Valid(); got != tt.want {
				t.Errorf("%q.Valid() = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestNodeID_Short(t *testing.T) {
	tests := []struct {
		name string
		id   NodeID
		want string
	}{
		{"long body", NodeID("UUID:a1b2c3d4"), "a1b2"},
		{"short body", NodeID("UUID:ab"), "ab"},
		{"exact four", NodeID("UUID:a1b2"), "a1b2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Short(); got != tt.want {
				t.Errorf("%q.Short() = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestEdgeProps_Label(t *testing.T) {
	tests := []struct {
		name  string
		props EdgeProps
		want  string
	}{
		{"present", EdgeProps{"label": String("knows")}, "knows"},
		{"missing", EdgeProps{}, ""},
		{"wrong type", EdgeProps{"label": Int(1)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.props.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNode_ProxyAndIsProxy(t *testing.T) {
	proxy := &Node{Properties: map[string]Value{"proxy": String("plasma://peer-b:9100")}}
	plain := &Node{Properties: map[string]Value{"name": String("bass")}}

	url, ok := proxy.Proxy()
	if !ok || url != "plasma://peer-b:9100" {
		t.Errorf("Proxy() = (%q, %v), want (%q, true)", url, ok, "plasma://peer-b:9100")
	}
	if !proxy.IsProxy() {
		t.Error("IsProxy() = false, want true for a node with a proxy property")
	}

	if _, ok := plain.Proxy(); ok {
		t.Error("Proxy() ok = true, want false for a node with no proxy property")
	}
	if plain.IsProxy() {
		t.Error("IsProxy() = true, want false for a node with no proxy property")
	}
}

func TestNode_Clone(t *testing.T) {
	n := &Node{
		ID:         NodeID("UUID:x"),
		Properties: map[string]Value{"n": Float(1)},
		Edges: map[NodeID]EdgeProps{
			NodeID("UUID:y"): {"label": String("next")},
		},
	}

	c := n.Clone()
	if c == n {
		t.Fatal("Clone() returned the same pointer")
	}

	c.Properties["n"] = Float(2)
	c.Edges[NodeID("UUID:y")]["label"] = String("mutated")

	if f, _ := n.Properties["n"].AsFloat(); f != 1 {
		t.Errorf("original node's property mutated through clone: got %v, want 1", f)
	}
	if s, _ := n.Edges[NodeID("UUID:y")]["label"].AsString(); s != "next" {
		t.Errorf("original node's edge props mutated through clone: got %q, want %q", s, "next")
	}
}

func TestValue_Conversions(t *testing.T) {
	if s, ok := String("hi").AsString(); !ok || s != "hi" {
		t.Errorf("String(\"hi\").AsString() = (%q, %v), want (%q, true)", s, ok, "hi")
	}
	if f, ok := Int(3).AsFloat(); !ok || f != 3 {
		t.Errorf("Int(3).AsFloat() = (%v, %v), want (3, true)", f, ok)
	}
	if f, ok := Float(1.5).AsFloat(); !ok || f != 1.5 {
		t.Errorf("Float(1.5).AsFloat() = (%v, %v), want (1.5, true)", f, ok)
	}
	if _, ok := String("x").AsFloat(); ok {
		t.Error("String(\"x\").AsFloat() ok = true, want false")
	}
	if b, ok := Bool(true).AsBool(); !ok || !b {
		t.Errorf("Bool(true).AsBool() = (%v, %v), want (true, true)", b, ok)
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	orig := Map(map[string]Value{
		"name":  String("bass"),
		"score": Float(0.8),
		"tags":  List(String("synth"), String("low")),
		"live":  Bool(true),
		"meta":  Null(),
	})

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Value
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if s, _ := got.Map["name"].AsString(); s != "bass" {
		t.Errorf("round-tripped name = %q, want %q", s, "bass")
	}
	if f, _ := got.Map["score"].AsFloat(); f != 0.8 {
		t.Errorf("round-tripped score = %v, want 0.8", f)
	}
	if len(got.Map["tags"].List) != 2 {
		t.Errorf("round-tripped tags length = %d, want 2", len(got.Map["tags"].List))
	}
	if b, _ := got.Map["live"].AsBool(); !b {
		t.Error("round-tripped live = false, want true")
	}
	if got.Map["meta"].Kind != KindNull {
		t.Errorf("round-tripped meta kind = %v, want KindNull", got.Map["meta"].Kind)
	}
}

func TestEdgePredicate_Matches(t *testing.T) {
	edge := EdgeProps{"label": String("synth")}

	tests := []struct {
		name string
		pred EdgePredicate
		want bool
	}{
		{"zero value matches all", EdgePredicate{}, true},
		{"exact label match", EdgePredicate{Label: "synth"}, true},
		{"exact label mismatch", EdgePredicate{Label: "drum"}, false},
		{"pattern match", EdgePredicate{Pattern: regexp.MustCompile("^syn")}, true},
		{"pattern mismatch", EdgePredicate{Pattern: regexp.MustCompile("^dru")}, false},
		{"custom match func", EdgePredicate{Match: func(e EdgeProps) bool { return e.Label() == "synth" }}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Matches(edge); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromAny_UnknownType(t *testing.T) {
	type custom struct{ X int }
	v := FromAny(custom{X: 1})
	if v.Kind != KindString {
		t.Errorf("FromAny(custom) kind = %v, want KindString (stringified fallback)", v.Kind)
	}
}
