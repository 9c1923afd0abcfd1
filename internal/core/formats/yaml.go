package formats

import (
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// YAML reads and writes a sequence of flat mappings, the YAML spelling of
// the JSON record layout.
func YAML() core.Codec {
	return core.Codec{
		Format:      core.FormatYAML,
		Label:       "YAML records",
		Extensions:  []string{"yml"},
		ContentType: "application/yaml",
		Decode:      decodeYAML,
		Encode:      encodeYAML,
	}
}

func decodeYAML(data []byte) (*core.Table, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, core.Malformed("%v", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return core.NewTable(), nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.SequenceNode {
		return nil, core.Malformed("top-level value must be a sequence of mappings, got %s", yamlKind(root))
	}

	recs := newRecords()
	for n, item := range root.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.MappingNode {
			return nil, core.Malformed("element %d is %s, want mapping", n+1, yamlKind(item))
		}

		row := make(map[string]core.Cell, len(item.Content)/2)
		keys := make([]string, 0, len(item.Content)/2)
		for i := 0; i+1 < len(item.Content); i += 2 {
			key := resolveAlias(item.Content[i])
			if key.Kind != yaml.ScalarNode {
				return nil, core.Malformed("element %d has a %s key", n+1, yamlKind(key))
			}
			cell, err := yamlCell(resolveAlias(item.Content[i+1]))
			if err != nil {
				return nil, core.Malformed("element %d key %q: %v", n+1, key.Value, err)
			}
			if _, dup := row[key.Value]; !dup {
				keys = append(keys, key.Value)
			}
			row[key.Value] = cell
		}
		recs.add(row, keys)
	}

	return recs.table(), nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func yamlKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.ScalarNode:
		return "a scalar"
	default:
		return "an unsupported node"
	}
}

func yamlCell(n *yaml.Node) (core.Cell, error) {
	if n.Kind != yaml.ScalarNode {
		return core.Cell{}, core.Malformed("nested %s values are not supported", yamlKind(n))
	}

	switch n.ShortTag() {
	case "!!null":
		return core.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return core.Cell{}, err
		}
		return core.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return core.Cell{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return core.Text(n.Value), nil
		}
		if numericRegex.MatchString(n.Value) {
			return core.NumberLiteral(n.Value, f), nil
		}
		return core.Number(f), nil
	default:
		return core.Text(n.Value), nil
	}
}

func encodeYAML(w io.Writer, t *core.Table) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, row := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, c := range row {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Columns[i]},
				yamlScalar(c),
			)
		}
		seq.Content = append(seq.Content, m)
	}
	if len(seq.Content) == 0 {
		seq.Style = yaml.FlowStyle
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}); err != nil {
		return err
	}
	return enc.Close()
}

func yamlScalar(c core.Cell) *yaml.Node {
	switch c.Kind {
	case core.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case core.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(c.Bool)}
	case core.KindNumber:
		if c.Number == math.Trunc(c.Number) && math.Abs(c.Number) < 1e15 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(c.Number), 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(c.Number, 'g', -1, 64)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Text}
	}
}
