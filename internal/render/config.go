// Package render holds the render configuration, the table-expansion policy
// inference pass, and the document compiler that turns template bytes plus a
// payload into output bytes.
package render

import "sort"

// Policy is a per-field directive attached to the render configuration.
type Policy interface {
	policyName() string
}

// ListExpand marks a field whose template block is repeated once per
// sequence element. Without it a {{#field}} block is not treated as a
// repeating row.
type ListExpand struct{}

func (ListExpand) policyName() string { return "list_expand" }

// Config is the mutable render-configuration builder handed to transform
// scripts and to the policy inference pass before compilation.
type Config struct {
	bindings map[string]Policy
}

func NewConfig() *Config {
	return &Config{bindings: map[string]Policy{}}
}

// Bind registers a policy under a field name, replacing any prior binding.
func (c *Config) Bind(field string, p Policy) *Config {
	c.bindings[field] = p
	return c
}

// BindListExpand registers the row-expansion policy for a field. Exposed so
// transform scripts can register bindings through the config handle.
func (c *Config) BindListExpand(field string) *Config {
	return c.Bind(field, ListExpand{})
}

func (c *Config) Policy(field string) (Policy, bool) {
	p, ok := c.bindings[field]
	return p, ok
}

func (c *Config) Fields() []string {
	fields := make([]string, 0, len(c.bindings))
	for f := range c.bindings {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
