package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	yaml "go.yaml.in/yaml/v3"
)

// ParseYAML decodes a single YAML document into a Value. Mapping order is
// kept. Non-finite floats keep their literal and fail later numeric reads.
func ParseYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if doc.Kind == 0 {
		return Null(), nil
	}
	return fromNode(&doc)
}

func ParseYAMLObject(data []byte) (*Object, error) {
	v, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return asObject(v)
}

// Alias expansion limits follow the decoder in go.yaml.in/yaml/v3: past
// aliasCheckFloor nodes, the share produced by aliases must stay under
// allowedAliasRatio.
const (
	aliasCheckFloor   = 400000
	aliasCheckCeiling = 4000000
)

var ErrExcessiveAliasing = errors.New("yaml document contains excessive aliasing")

func allowedAliasRatio(nodes int) float64 {
	switch {
	case nodes <= aliasCheckFloor:
		return 0.99
	case nodes >= aliasCheckCeiling:
		return 0.10
	default:
		return 0.10 + 0.89*(1-float64(nodes-aliasCheckFloor)/float64(aliasCheckCeiling-aliasCheckFloor))
	}
}

// nodeWalker converts a yaml.Node tree, expanding aliases with cycle and
// expansion checks.
type nodeWalker struct {
	active     map[*yaml.Node]bool
	nodes      int
	aliasNodes int
	aliasDepth int
}

func fromNode(n *yaml.Node) (Value, error) {
	w := &nodeWalker{active: make(map[*yaml.Node]bool)}
	return w.walk(n)
}

func (w *nodeWalker) count() error {
	w.nodes++
	if w.aliasDepth > 0 {
		w.aliasNodes++
	}
	if w.nodes > aliasCheckFloor && float64(w.aliasNodes)/float64(w.nodes) > allowedAliasRatio(w.nodes) {
		return ErrExcessiveAliasing
	}
	return nil
}

func (w *nodeWalker) walk(n *yaml.Node) (Value, error) {
	if err := w.count(); err != nil {
		return Value{}, err
	}
	if n.Anchor != "" {
		w.active[n] = true
		defer delete(w.active, n)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return w.walk(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return Value{}, fmt.Errorf("line %d: unknown anchor %q", n.Line, n.Value)
		}
		if w.active[n.Alias] {
			return Value{}, fmt.Errorf("line %d: anchor %q contains itself", n.Line, n.Value)
		}
		w.aliasDepth++
		v, err := w.walk(n.Alias)
		w.aliasDepth--
		return v, err
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			v, err := w.walk(valNode)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", keyNode.Value, err)
			}
			obj.Set(keyNode.Value, v)
		}
		return ObjectValue(obj), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for i, child := range n.Content {
			v, err := w.walk(child)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return Value{}, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return Number(n.Value), nil
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return Number(n.Value), nil
		}
		if json.Valid([]byte(n.Value)) {
			return Number(n.Value), nil
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	parsed, err := fromNode(n)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (o *Object) UnmarshalYAML(n *yaml.Node) error {
	v, err := fromNode(n)
	if err != nil {
		return err
	}
	parsed, err := asObject(v)
	if err != nil {
		return err
	}
	if parsed == nil {
		*o = Object{}
		return nil
	}
	*o = *parsed
	return nil
}
