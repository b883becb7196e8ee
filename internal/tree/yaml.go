package tree

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML lets bundle files declare content trees in YAML (or JSON, which yaml.v3 also reads).
// Mapping order is preserved.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := fromYAML(value)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

func fromYAML(v *yaml.Node) (*Node, error) {
	switch v.Kind {
	case yaml.DocumentNode:
		if len(v.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(v.Content[0])
	case yaml.AliasNode:
		if v.Alias == nil {
			return Null(), nil
		}
		return fromYAML(v.Alias)
	case yaml.MappingNode:
		node := &Node{Kind: KindMap}
		for i := 0; i+1 < len(v.Content); i += 2 {
			value, err := fromYAML(v.Content[i+1])
			if err != nil {
				return nil, err
			}
			node.Entries = append(node.Entries, Entry{Key: v.Content[i].Value, Value: value})
		}
		return node, nil
	case yaml.SequenceNode:
		node := &Node{Kind: KindSequence}
		for _, c := range v.Content {
			item, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			node.Items = append(node.Items, item)
		}
		return node, nil
	case yaml.ScalarNode:
		return scalarFromYAML(v)
	}
	return nil, fmt.Errorf("tree: unsupported YAML node kind %d at line %d", v.Kind, v.Line)
}

// scalarFromYAML normalizes numbers to JSON-compatible literals; anything that cannot be
// represented that way (hex ints beyond int64, .inf, .nan) is kept as a string.
func scalarFromYAML(v *yaml.Node) (*Node, error) {
	switch v.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := v.Decode(&b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := v.Decode(&i); err == nil {
			return Number(strconv.FormatInt(i, 10)), nil
		}
		return String(v.Value), nil
	case "!!float":
		var f float64
		if err := v.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
		return String(v.Value), nil
	default:
		return String(v.Value), nil
	}
}
