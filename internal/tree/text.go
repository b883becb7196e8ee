package tree

import "strings"

// SearchText flattens n into plain text for the SQL pre-filter: every map key and scalar
// value, space separated, unescaped. Any term Contains can find is a substring of it.
func SearchText(n *Node) string {
	var b strings.Builder
	appendSearchText(&b, n)
	return b.String()
}

func appendSearchText(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindMap:
		for _, e := range n.Entries {
			writeWord(b, e.Key)
			appendSearchText(b, e.Value)
		}
	case KindSequence:
		for _, item := range n.Items {
			appendSearchText(b, item)
		}
	default:
		writeWord(b, n.TextValue())
	}
}

func writeWord(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(s)
}
