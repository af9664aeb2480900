package tool

import (
	"encoding/json"

	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
)

// compileSchema compiles a JSON schema held in memory under a per-tool URL.
func compileSchema(name string, schema []byte) (*santhosh.Schema, error) {
	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, err
	}
	url := "mem://tools/" + name + ".json"
	c := santhosh.NewCompiler()
	c.DefaultDraft(santhosh.Draft2020)
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// validateValue round-trips data through JSON so Go values (int, structs)
// are checked the way they would arrive on the wire.
func validateValue(sch *santhosh.Schema, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return sch.Validate(v)
}
