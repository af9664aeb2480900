package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wilhg/mcp-ci/pkg/config"
	"github.com/wilhg/mcp-ci/pkg/errmodel"
)

// defaultPerPage is used when ci/runs gets no per_page (or 0).
const defaultPerPage = 10

// Falsy arguments fall back to defaults: an empty ref or workflow, a
// zero per_page, or a null inputs object all mean "not supplied".
// Scalar arguments are taken leniently: numbers may arrive as strings and
// string arguments may arrive as numbers or booleans.

type dispatchArgs struct {
	Ref      scalar         `json:"ref"`
	Inputs   map[string]any `json:"inputs"`
	Workflow scalar         `json:"workflow"`
}

func (a *dispatchArgs) applyDefaults(s config.Settings) {
	if a.Ref == "" {
		a.Ref = scalar(s.DefaultRef)
	}
	if a.Workflow == "" {
		a.Workflow = scalar(s.DefaultWorkflow)
	}
	if a.Inputs == nil {
		a.Inputs = map[string]any{}
	}
}

type runsArgs struct {
	PerPage *perPage `json:"per_page"`
	Status  scalar   `json:"status"`
	Branch  scalar   `json:"branch"`
}

func (a *runsArgs) applyDefaults() {
	if a.PerPage == nil || *a.PerPage == 0 {
		n := perPage(defaultPerPage)
		a.PerPage = &n
	}
}

type runArgs struct {
	RunID *runID `json:"run_id"`
}

func (a runArgs) require() (int64, error) {
	if a.RunID == nil {
		return 0, errmodel.Validation("missing_fields", "run_id is required", map[string]any{"fields": []string{"run_id"}})
	}
	return int64(*a.RunID), nil
}

// runID is a workflow run identifier. It accepts a JSON integer or a
// string holding one, since clients differ in how they send large ids.
type runID int64

func (id *runID) UnmarshalJSON(b []byte) error {
	n, err := parseInt("run_id", b)
	if err != nil {
		return err
	}
	*id = runID(n)
	return nil
}

// perPage is the ci/runs page size. Like runID it takes an integer or a
// numeric string; an empty string counts as not supplied.
type perPage int

func (p *perPage) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == `""` {
		*p = 0
		return nil
	}
	n, err := parseInt("per_page", b)
	if err != nil {
		return err
	}
	*p = perPage(n)
	return nil
}

// scalar is a string argument that also accepts a JSON number or boolean.
// Zero and false are falsy and decode to the empty string.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null" || string(b) == "false":
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalar(v)
	case string(b) == "true":
		*s = "true"
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("invalid number %s", b)
		}
		if f == 0 {
			*s = ""
			return nil
		}
		*s = scalar(b)
	default:
		return fmt.Errorf("expected a string, got %s", b)
	}
	return nil
}

// parseInt reads an integer from a JSON number or a quoted number.
func parseInt(field string, b []byte) (int64, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %s", field, b)
	}
	return n, nil
}

// decodeArgs converts the loosely typed argument bag into the tool's
// argument struct.
func decodeArgs(toolName string, args map[string]any, dst any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return invalidArgs(toolName, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return invalidArgs(toolName, err)
	}
	return nil
}

func invalidArgs(toolName string, err error) error {
	return errmodel.Validation("invalid_arguments",
		fmt.Sprintf("invalid arguments for %s: %v", toolName, err),
		map[string]any{"tool": toolName})
}
