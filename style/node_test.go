package style_test

import (
	"testing"

	"stylec/style"
)

func TestNodeSetGet(t *testing.T) {
	n := style.NewNode().
		Set("color", style.Str("red")).
		Set("width", style.Num(10))

	v, ok := n.Get("color")
	if !ok || v.Str == nil || *v.Str != "red" {
		t.Errorf("Get(color) = %+v, %v", v, ok)
	}
	if _, ok := n.Get("height"); ok {
		t.Error("Get(height) found a missing key")
	}

	// Setting an existing key replaces in place, keeping its position.
	n.Set("color", style.Str("blue"))
	if n.Len() != 2 {
		t.Fatalf("Len() = %d after replacement, want 2", n.Len())
	}
	entries := n.Entries()
	if entries[0].Key != "color" || *entries[0].Value.Str != "blue" {
		t.Errorf("entry 0 = %q=%v, want color=blue", entries[0].Key, entries[0].Value.Str)
	}
	if entries[1].Key != "width" {
		t.Errorf("entry 1 = %q, want width", entries[1].Key)
	}
}

func TestNodeEntriesIsolation(t *testing.T) {
	n := style.NewNode().Set("color", style.Str("red"))

	entries := n.Entries()
	entries[0].Key = "mutated"

	if got := n.Entries()[0].Key; got != "color" {
		t.Errorf("caller mutation leaked into the node: %q", got)
	}
}

func TestNilNode(t *testing.T) {
	var n *style.Node

	if n.Len() != 0 {
		t.Errorf("nil Len() = %d", n.Len())
	}
	if got := n.Entries(); got != nil {
		t.Errorf("nil Entries() = %v", got)
	}
	if _, ok := n.Get("color"); ok {
		t.Error("nil Get() found a key")
	}
}

func TestValueConstructors(t *testing.T) {
	if v := style.Str("x"); v.Str == nil || v.Num != nil || v.Node != nil {
		t.Errorf("Str() = %+v", v)
	}
	if v := style.Num(1); v.Num == nil || *v.Num != 1 {
		t.Errorf("Num() = %+v", v)
	}
	if v := style.Subtree(style.NewNode()); v.Node == nil {
		t.Errorf("Subtree() = %+v", v)
	}
	if v := style.Modifiers(style.ModifierSpec{Name: "a"}); len(v.Mods) != 1 {
		t.Errorf("Modifiers() = %+v", v)
	}
	if v := style.Children(style.ChildSpec{Selector: "a"}); len(v.Kids) != 1 {
		t.Errorf("Children() = %+v", v)
	}
}
