package dispatch

import (
	"bytes"
	"encoding/json"
)

// Content is one block of a tool result. Only "text" blocks are produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the uniform envelope returned for every tool call, success or failure.
// It always holds exactly one text block.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Text returns the text of the single content block.
func (r Result) Text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

func textResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

func errorResult(text string) Result {
	r := textResult(text)
	r.IsError = true
	return r
}

// renderJSON pretty-prints v with two-space indentation and without
// HTML escaping, so URLs and workflow inputs come back verbatim.
func renderJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
