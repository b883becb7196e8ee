// Package tree models answer content as a tagged-variant tree of maps, sequences and scalars,
// and searches it for case-insensitive substrings.
package tree

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindScalar Kind = iota
	KindMap
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindSequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// ScalarType records the source type of a scalar so it can be encoded back faithfully.
type ScalarType uint8

const (
	ScalarString ScalarType = iota
	ScalarNumber
	ScalarBool
	ScalarNull
)

// Entry is one key/value pair of a map node. Entries keep their source order.
type Entry struct {
	Key   string
	Value *Node
}

// Node is a content tree node. Exactly one of Entries (KindMap), Items (KindSequence)
// or Scalar/Text (KindScalar) is meaningful, selected by Kind.
type Node struct {
	Kind    Kind
	Scalar  ScalarType
	Text    string
	Entries []Entry
	Items   []*Node
}

// String returns a string scalar.
func String(s string) *Node {
	return &Node{Kind: KindScalar, Scalar: ScalarString, Text: s}
}

// Number returns a numeric scalar from its literal text (e.g. "42", "3.5").
func Number(text string) *Node {
	return &Node{Kind: KindScalar, Scalar: ScalarNumber, Text: text}
}

// Bool returns a boolean scalar.
func Bool(b bool) *Node {
	if b {
		return &Node{Kind: KindScalar, Scalar: ScalarBool, Text: "true"}
	}
	return &Node{Kind: KindScalar, Scalar: ScalarBool, Text: "false"}
}

// Null returns a null scalar.
func Null() *Node {
	return &Node{Kind: KindScalar, Scalar: ScalarNull}
}

// Map returns a map node with the given entries in order.
func Map(entries ...Entry) *Node {
	return &Node{Kind: KindMap, Entries: entries}
}

// Seq returns a sequence node.
func Seq(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Items: items}
}

// Field is shorthand for building map entries.
func Field(key string, value *Node) Entry {
	return Entry{Key: key, Value: value}
}

// IsContainer reports whether n is a map or a sequence.
func (n *Node) IsContainer() bool {
	return n != nil && (n.Kind == KindMap || n.Kind == KindSequence)
}

// TextValue returns the textual form of a scalar used for matching.
// Null and nil nodes yield the empty string.
func (n *Node) TextValue() string {
	if n == nil || n.Kind != KindScalar || n.Scalar == ScalarNull {
		return ""
	}
	return n.Text
}

// Get returns the value of the first entry with key in a map node.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != KindMap {
		return nil, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func (n *Node) kindName() string {
	if n == nil {
		return "nil"
	}
	return n.Kind.String()
}
