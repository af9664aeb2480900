// Package tool declares the fixed catalog of CI tools exposed over MCP.
//
// A Definition is pure data: name, description and the arguments it
// accepts. Defaults are not part of the catalog; the dispatcher applies
// them when it builds the outbound call.
package tool

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool names. Names are namespaced with "/".
const (
	Dispatch = "ci/dispatch"
	Runs     = "ci/runs"
	Run      = "ci/run"
	Cancel   = "ci/cancel"
)

// Argument types, as JSON Schema type names.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeObject  = "object"
)

// Argument describes one accepted argument of a tool.
type Argument struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Definition declares the static interface of a tool.
// Arguments keep declaration order.
type Definition struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Arguments   []Argument `json:"arguments"`
	// ReadOnly marks tools that never change remote state.
	ReadOnly bool `json:"read_only,omitempty"`
}

// Required returns the names of required arguments in declaration order.
func (d Definition) Required() []string {
	var out []string
	for _, a := range d.Arguments {
		if a.Required {
			out = append(out, a.Name)
		}
	}
	return out
}

// InputSchema renders the arguments as a draft 2020-12 object schema.
// A fresh value is returned on every call so callers may not mutate the catalog.
func (d Definition) InputSchema() *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(d.Arguments))
	for _, a := range d.Arguments {
		props[a.Name] = &jsonschema.Schema{Type: a.Type, Description: a.Description}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   d.Required(),
	}
}

// SchemaJSON returns the input schema as JSON bytes.
func (d Definition) SchemaJSON() ([]byte, error) {
	return json.Marshal(d.InputSchema())
}

func (d Definition) clone() Definition {
	out := d
	out.Arguments = append([]Argument(nil), d.Arguments...)
	return out
}

// CI returns the four CI tool definitions in declaration order.
func CI() []Definition {
	runID := Argument{Name: "run_id", Type: TypeInteger, Description: "Run ID", Required: true}
	return []Definition{
		{
			Name:        Dispatch,
			Description: "Trigger a GitHub Actions workflow_dispatch.",
			Arguments: []Argument{
				{Name: "ref", Type: TypeString, Description: "Branch/sha to run on (default main)"},
				{Name: "inputs", Type: TypeObject, Description: "Optional workflow inputs"},
				{Name: "workflow", Type: TypeString, Description: "Workflow file name or ID (default build.yml)"},
			},
		},
		{
			Name:        Runs,
			Description: "List recent workflow runs.",
			Arguments: []Argument{
				{Name: "per_page", Type: TypeInteger, Description: "How many to list (default 10)"},
				{Name: "status", Type: TypeString, Description: "queued,in_progress,completed"},
				{Name: "branch", Type: TypeString, Description: "Filter by branch"},
			},
			ReadOnly: true,
		},
		{
			Name:        Run,
			Description: "Get a single run's status.",
			Arguments:   []Argument{runID},
			ReadOnly:    true,
		},
		{
			Name:        Cancel,
			Description: "Cancel a run.",
			Arguments:   []Argument{runID},
		},
	}
}
