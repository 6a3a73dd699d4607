package render

import (
	"strings"
	"testing"
)

func TestRenderScalarTags(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		payload map[string]interface{}
		want    string
	}{
		{
			name:    "string field",
			src:     "Hello {{name}}!",
			payload: map[string]interface{}{"name": "World"},
			want:    "Hello World!",
		},
		{
			name:    "numeric field from decoded json",
			src:     "total={{total}}",
			payload: map[string]interface{}{"total": float64(5)},
			want:    "total=5",
		},
		{
			name:    "fractional float keeps precision",
			src:     "{{ratio}}",
			payload: map[string]interface{}{"ratio": 0.25},
			want:    "0.25",
		},
		{
			name:    "unknown field renders empty",
			src:     "[{{missing}}]",
			payload: map[string]interface{}{},
			want:    "[]",
		},
		{
			name:    "bool and int",
			src:     "{{ok}}/{{count}}",
			payload: map[string]interface{}{"ok": true, "count": 3},
			want:    "true/3",
		},
		{
			name:    "whitespace inside tag is trimmed",
			src:     "{{ name }}",
			payload: map[string]interface{}{"name": "x"},
			want:    "x",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl, err := Compile([]byte(tc.src), NewConfig())
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			out, err := tpl.Render(tc.payload)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if string(out) != tc.want {
				t.Fatalf("got %q, want %q", out, tc.want)
			}
		})
	}
}

func TestRenderBlockExpandsOnlyWithPolicy(t *testing.T) {
	src := "{{#items}}{{name}}:{{qty}};{{/items}}"
	payload := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "a", "qty": float64(1)},
			map[string]interface{}{"name": "b", "qty": float64(2)},
		},
	}

	cfg := NewConfig().BindListExpand("items")
	tpl, err := Compile([]byte(src), cfg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := tpl.Render(payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "a:1;b:2;" {
		t.Fatalf("with policy: got %q, want %q", out, "a:1;b:2;")
	}

	// Same template and payload, but no binding: the block renders once in
	// the enclosing scope and the element fields resolve empty.
	tpl, err = Compile([]byte(src), NewConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err = tpl.Render(payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != ":;" {
		t.Fatalf("without policy: got %q, want %q", out, ":;")
	}
}

func TestRenderBlockScalarElements(t *testing.T) {
	src := "{{#tags}}[{{.}}]{{/tags}}"
	payload := map[string]interface{}{
		"tags": []interface{}{"x", "y", float64(3)},
	}
	tpl, err := Compile([]byte(src), NewConfig().BindListExpand("tags"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := tpl.Render(payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "[x][y][3]" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderBlockOuterScopeVisible(t *testing.T) {
	src := "{{#rows}}{{title}}-{{v}};{{/rows}}"
	payload := map[string]interface{}{
		"title": "T",
		"rows": []interface{}{
			map[string]interface{}{"v": "1"},
			map[string]interface{}{"v": "2"},
		},
	}
	tpl, err := Compile([]byte(src), NewConfig().BindListExpand("rows"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := tpl.Render(payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "T-1;T-2;" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderNestedBlocks(t *testing.T) {
	src := "{{#groups}}{{label}}:{{#members}}{{.}},{{/members}};{{/groups}}"
	payload := map[string]interface{}{
		"groups": []interface{}{
			map[string]interface{}{
				"label":   "g1",
				"members": []interface{}{"a", "b"},
			},
		},
	}
	cfg := NewConfig().BindListExpand("groups").BindListExpand("members")
	tpl, err := Compile([]byte(src), cfg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := tpl.Render(payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "g1:a,b,;" {
		t.Fatalf("got %q", out)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unclosed block", "{{#items}}{{name}}", `unclosed block tag "items"`},
		{"mismatched close", "{{#a}}x{{/b}}", `closing tag "b" does not match open block "a"`},
		{"stray close", "x{{/a}}", `closing tag "a" without open block`},
		{"unterminated tag", "before {{name", "unterminated tag near"},
		{"empty tag", "{{}}", "empty template tag"},
		{"empty block name", "{{#}}x{{/}}", "block tag with empty field name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile([]byte(tc.src), NewConfig())
			if err == nil {
				t.Fatalf("expected compile error for %q", tc.src)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestCompileNilConfig(t *testing.T) {
	tpl, err := Compile([]byte("hi {{x}}"), nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := tpl.Render(map[string]interface{}{"x": "there"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(out) != "hi there" {
		t.Fatalf("got %q", out)
	}
}
