package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Template syntax:
//
//	{{field}}            scalar substitution
//	{{#field}}...{{/field}}  block; repeats per element only when the field
//	                     carries a ListExpand binding in the Config
//	{{.}}                the current sequence element inside a block
//
// Unknown scalar tags render empty. Mismatched or unclosed blocks are
// compile errors naming the offending tag.

type node interface{}

type textNode struct {
	text string
}

type tagNode struct {
	name string
}

type blockNode struct {
	name     string
	children []node
}

// Template is a compiled document bound to the render configuration it was
// compiled with.
type Template struct {
	nodes []node
	cfg   *Config
}

// Compile parses the raw template bytes against a render configuration.
func Compile(src []byte, cfg *Config) (*Template, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	nodes, rest, err := parse(string(src), "")
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("unexpected trailing content after template end")
	}
	return &Template{nodes: nodes, cfg: cfg}, nil
}

// parse consumes input until EOF or the closing tag of openBlock.
// It returns the parsed nodes and the unconsumed remainder.
func parse(input, openBlock string) ([]node, string, error) {
	var nodes []node
	for {
		start := strings.Index(input, "{{")
		if start < 0 {
			if openBlock != "" {
				return nil, "", fmt.Errorf("unclosed block tag %q", openBlock)
			}
			if input != "" {
				nodes = append(nodes, textNode{text: input})
			}
			return nodes, "", nil
		}
		if start > 0 {
			nodes = append(nodes, textNode{text: input[:start]})
		}
		end := strings.Index(input[start:], "}}")
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated tag near %q", snippet(input[start:]))
		}
		tag := strings.TrimSpace(input[start+2 : start+end])
		input = input[start+end+2:]

		switch {
		case tag == "":
			return nil, "", fmt.Errorf("empty template tag")
		case strings.HasPrefix(tag, "#"):
			name := strings.TrimSpace(tag[1:])
			if name == "" {
				return nil, "", fmt.Errorf("block tag with empty field name")
			}
			children, rest, err := parse(input, name)
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, blockNode{name: name, children: children})
			input = rest
		case strings.HasPrefix(tag, "/"):
			name := strings.TrimSpace(tag[1:])
			if openBlock == "" {
				return nil, "", fmt.Errorf("closing tag %q without open block", name)
			}
			if name != openBlock {
				return nil, "", fmt.Errorf("closing tag %q does not match open block %q", name, openBlock)
			}
			return nodes, input, nil
		default:
			nodes = append(nodes, tagNode{name: tag})
		}
	}
}

func snippet(s string) string {
	if len(s) > 20 {
		return s[:20]
	}
	return s
}

// Render substitutes the payload into the compiled template.
func (t *Template) Render(payload map[string]interface{}) ([]byte, error) {
	var b strings.Builder
	scope := scopeStack{payload}
	if err := renderNodes(&b, t.nodes, scope, t.cfg); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

type scopeStack []map[string]interface{}

func (s scopeStack) lookup(name string) (interface{}, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if v, ok := s[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func renderNodes(b *strings.Builder, nodes []node, scope scopeStack, cfg *Config) error {
	for _, n := range nodes {
		switch nd := n.(type) {
		case textNode:
			b.WriteString(nd.text)
		case tagNode:
			v, _ := scope.lookup(nd.name)
			b.WriteString(formatValue(v))
		case blockNode:
			if err := renderBlock(b, nd, scope, cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderBlock(b *strings.Builder, nd blockNode, scope scopeStack, cfg *Config) error {
	value, _ := scope.lookup(nd.name)
	list, isList := value.([]interface{})
	_, expand := cfg.Policy(nd.name)

	// Blocks only repeat when a row-expansion policy is bound for the field.
	if !expand || !isList {
		return renderNodes(b, nd.children, scope, cfg)
	}

	for _, elem := range list {
		elemScope := map[string]interface{}{".": elem}
		if m, ok := elem.(map[string]interface{}); ok {
			for k, v := range m {
				elemScope[k] = v
			}
		}
		if err := renderNodes(b, nd.children, append(scope, elemScope), cfg); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
