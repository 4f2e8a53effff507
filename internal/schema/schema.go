// Package schema holds the HCL shapes of synthetic test definition files.
// These are the raw decode targets; internal/hcl translates them into the
// model types the engine executes.
package schema

import "github.com/hashicorp/hcl/v2"

// ConfigBlock is the free-form 'config' block of a node; its body is decoded
// into the node type's typed configuration struct via the registry.
type ConfigBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Node represents a `node` block: one executable step of a test.
type Node struct {
	Type   string       `hcl:"node_type,label"`
	Name   string       `hcl:"instance_name,label"`
	Config *ConfigBlock `hcl:"config,block"`
}

// Edge represents an `edge` block: a directed dependency between two nodes.
type Edge struct {
	From      string `hcl:"from"`
	To        string `hcl:"to"`
	Condition string `hcl:"condition,optional"`
}

// Test represents a `test` block: one synthetic test definition.
type Test struct {
	Name           string  `hcl:"name,label"`
	Schedule       string  `hcl:"schedule,optional"`
	Enabled        *bool   `hcl:"enabled,optional"`
	TimeoutSeconds float64 `hcl:"timeout_seconds,optional"`
	Nodes          []*Node `hcl:"node,block"`
	Edges          []*Edge `hcl:"edge,block"`
}

// Suite represents the top-level structure of a definition file.
type Suite struct {
	Tests []*Test  `hcl:"test,block"`
	Body  hcl.Body `hcl:",remain"`
}
