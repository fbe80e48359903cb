// Package style implements the declarative style tree and its compiler: a
// nested tree of property/value pairs, pseudo-state scopes, responsive
// breakpoint scopes, modifier classes and child selectors is flattened into
// CSS declarations plus fully-formed auxiliary rules.
package style

// Reserved structural keys. KeyModifier and KeyChild introduce composition
// specs, KeyParam carries the functional-notation argument inside a
// parameterized pseudo scope.
const (
	KeyModifier = "class"
	KeyChild    = "child"
	KeyParam    = "param"
)

type (
	// Value is a single style tree value. Exactly one of the fields is set,
	// the rest stay nil.
	Value struct {
		Str  *string
		Num  *float64
		Node *Node
		Mods []ModifierSpec
		Kids []ChildSpec
	}

	// Entry is one key/value pair of a Node.
	Entry struct {
		Key   string
		Value Value
	}

	// Node is an ordered style tree node. Output order follows entry order,
	// so entries are kept as a sequence rather than a map.
	Node struct {
		entries []Entry
	}

	// ModifierSpec produces a class-qualified compound selector rule against
	// the scope it is nested in.
	ModifierSpec struct {
		Name  string
		Style *Node
	}

	// ChildSpec produces a descendant selector rule against the scope it is
	// nested in. Selector is used verbatim, no syntax validation.
	ChildSpec struct {
		Selector string
		Style    *Node
	}
)

// Str makes a string declaration value.
func Str(s string) Value {
	return Value{Str: &s}
}

// Num makes a numeric declaration value. Numbers are serialized with an
// implicit pixel unit unless the property is on the unitless list.
func Num(n float64) Value {
	return Value{Num: &n}
}

// Subtree makes a nested scope value for pseudo and breakpoint keys.
func Subtree(n *Node) Value {
	return Value{Node: n}
}

// Modifiers makes a modifier spec sequence value for the KeyModifier key.
func Modifiers(specs ...ModifierSpec) Value {
	return Value{Mods: specs}
}

// Children makes a child spec sequence value for the KeyChild key.
func Children(specs ...ChildSpec) Value {
	return Value{Kids: specs}
}

// NewNode returns an empty node.
func NewNode() *Node {
	return &Node{}
}

// Set appends the entry, replacing the value in place when the key already
// exists. Returns the node for chaining.
func (n *Node) Set(key string, v Value) *Node {
	for i := range n.entries {
		if n.entries[i].Key == key {
			n.entries[i].Value = v
			return n
		}
	}
	n.entries = append(n.entries, Entry{Key: key, Value: v})
	return n
}

// Get returns the value stored under key.
func (n *Node) Get(key string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	for i := range n.entries {
		if n.entries[i].Key == key {
			return n.entries[i].Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of entries. Safe to call on a nil node.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.entries)
}

// Entries returns a copy of the entry sequence in insertion order.
func (n *Node) Entries() []Entry {
	if n == nil {
		return nil
	}
	out := make([]Entry, len(n.entries))
	copy(out, n.entries)
	return out
}

// without returns a shallow copy of the node with the given key removed.
// The compiler uses it to consume KeyParam before descending, the receiver
// is never modified.
func (n *Node) without(key string) *Node {
	if n == nil {
		return nil
	}
	out := &Node{entries: make([]Entry, 0, len(n.entries))}
	for _, e := range n.entries {
		if e.Key == key {
			continue
		}
		out.entries = append(out.entries, e)
	}
	return out
}
