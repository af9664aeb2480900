package dispatch

import (
	"context"
	"encoding/json"

	"github.com/wilhg/mcp-ci/pkg/github"
	"github.com/wilhg/mcp-ci/pkg/tool"
)

// handlerFunc runs one tool: it builds the outbound call, issues it and
// shapes the payload that gets rendered into the envelope.
type handlerFunc func(ctx context.Context, d *Dispatcher, args map[string]any) (any, error)

var handlers = map[string]handlerFunc{
	tool.Dispatch: dispatchWorkflow,
	tool.Runs:     listRuns,
	tool.Run:      getRun,
	tool.Cancel:   cancelRun,
}

type dispatchPayload struct {
	Triggered bool           `json:"triggered"`
	Workflow  string         `json:"workflow"`
	Ref       string         `json:"ref"`
	Inputs    map[string]any `json:"inputs"`
}

// runSummary is the per-run projection of ci/runs. Values are copied
// verbatim, so provider nulls survive and absent fields are omitted.
type runSummary struct {
	ID         json.RawMessage `json:"id,omitempty"`
	Name       json.RawMessage `json:"name,omitempty"`
	Event      json.RawMessage `json:"event,omitempty"`
	Status     json.RawMessage `json:"status,omitempty"`
	Conclusion json.RawMessage `json:"conclusion,omitempty"`
	HeadBranch json.RawMessage `json:"head_branch,omitempty"`
	URL        json.RawMessage `json:"url,omitempty"`
	CreatedAt  json.RawMessage `json:"created_at,omitempty"`
}

type runsPayload struct {
	Count int          `json:"count"`
	Runs  []runSummary `json:"runs"`
}

// runDetail is the projection of ci/run.
type runDetail struct {
	ID         json.RawMessage `json:"id,omitempty"`
	Name       json.RawMessage `json:"name,omitempty"`
	Event      json.RawMessage `json:"event,omitempty"`
	Status     json.RawMessage `json:"status,omitempty"`
	Conclusion json.RawMessage `json:"conclusion,omitempty"`
	HeadBranch json.RawMessage `json:"head_branch,omitempty"`
	URL        json.RawMessage `json:"url,omitempty"`
	CreatedAt  json.RawMessage `json:"created_at,omitempty"`
	UpdatedAt  json.RawMessage `json:"updated_at,omitempty"`
}

type cancelPayload struct {
	Cancelled bool  `json:"cancelled"`
	RunID     int64 `json:"run_id"`
}

func dispatchWorkflow(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	var a dispatchArgs
	if err := decodeArgs(tool.Dispatch, args, &a); err != nil {
		return nil, err
	}
	a.applyDefaults(d.settings)

	workflow, ref := string(a.Workflow), string(a.Ref)
	call := github.DispatchWorkflowCall(d.settings.Owner, d.settings.Repo, workflow,
		github.DispatchWorkflowRequest{Ref: ref, Inputs: a.Inputs})
	// GitHub answers 204 with no body; the payload below confirms the
	// request was accepted, not that a run started.
	if _, err := d.api.Do(ctx, call); err != nil {
		return nil, err
	}
	return dispatchPayload{Triggered: true, Workflow: workflow, Ref: ref, Inputs: a.Inputs}, nil
}

func listRuns(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	var a runsArgs
	if err := decodeArgs(tool.Runs, args, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()

	call := github.ListWorkflowRunsCall(d.settings.Owner, d.settings.Repo, github.ListRunsOptions{
		PerPage: int(*a.PerPage),
		Status:  string(a.Status),
		Branch:  string(a.Branch),
	})
	body, err := d.api.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	var list github.WorkflowRunList
	if err := github.Decode(body, &list); err != nil {
		return nil, err
	}
	runs := make([]runSummary, 0, len(list.WorkflowRuns))
	for _, r := range list.WorkflowRuns {
		runs = append(runs, runSummary{
			ID:         r.ID,
			Name:       r.Name,
			Event:      r.Event,
			Status:     r.Status,
			Conclusion: r.Conclusion,
			HeadBranch: r.HeadBranch,
			URL:        r.HTMLURL,
			CreatedAt:  r.CreatedAt,
		})
	}
	return runsPayload{Count: len(runs), Runs: runs}, nil
}

func getRun(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	var a runArgs
	if err := decodeArgs(tool.Run, args, &a); err != nil {
		return nil, err
	}
	runID, err := a.require()
	if err != nil {
		return nil, err
	}
	body, err := d.api.Do(ctx, github.GetWorkflowRunCall(d.settings.Owner, d.settings.Repo, runID))
	if err != nil {
		return nil, err
	}
	var r github.WorkflowRun
	if err := github.Decode(body, &r); err != nil {
		return nil, err
	}
	return runDetail{
		ID:         r.ID,
		Name:       r.Name,
		Event:      r.Event,
		Status:     r.Status,
		Conclusion: r.Conclusion,
		HeadBranch: r.HeadBranch,
		URL:        r.HTMLURL,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func cancelRun(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	var a runArgs
	if err := decodeArgs(tool.Cancel, args, &a); err != nil {
		return nil, err
	}
	runID, err := a.require()
	if err != nil {
		return nil, err
	}
	if _, err := d.api.Do(ctx, github.CancelWorkflowRunCall(d.settings.Owner, d.settings.Repo, runID)); err != nil {
		return nil, err
	}
	return cancelPayload{Cancelled: true, RunID: runID}, nil
}
