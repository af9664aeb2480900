package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// WorkflowRun is the subset of a workflow run resource the tools project.
// Fields hold the provider's JSON as sent: a null stays null and an
// absent field stays empty.
type WorkflowRun struct {
	ID         json.RawMessage `json:"id,omitempty"`
	Name       json.RawMessage `json:"name,omitempty"`
	Event      json.RawMessage `json:"event,omitempty"`
	Status     json.RawMessage `json:"status,omitempty"`
	Conclusion json.RawMessage `json:"conclusion,omitempty"`
	HeadBranch json.RawMessage `json:"head_branch,omitempty"`
	HTMLURL    json.RawMessage `json:"html_url,omitempty"`
	CreatedAt  json.RawMessage `json:"created_at,omitempty"`
	UpdatedAt  json.RawMessage `json:"updated_at,omitempty"`
}

// WorkflowRunList is the body of GET /repos/{owner}/{repo}/actions/runs.
type WorkflowRunList struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// DispatchWorkflowRequest is the body of a workflow_dispatch call.
type DispatchWorkflowRequest struct {
	Ref    string         `json:"ref"`
	Inputs map[string]any `json:"inputs"`
}

// ListRunsOptions filters a workflow run listing.
type ListRunsOptions struct {
	PerPage int
	Status  string
	Branch  string
}

// queryParams renders per_page, status and branch in that order,
// skipping empty filters.
func (o ListRunsOptions) queryParams() string {
	var b strings.Builder
	add := func(k, v string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	add("per_page", strconv.Itoa(o.PerPage))
	if o.Status != "" {
		add("status", o.Status)
	}
	if o.Branch != "" {
		add("branch", o.Branch)
	}
	return b.String()
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

// DispatchWorkflowCall triggers workflow (file name or numeric ID) on request.Ref.
// GitHub answers 204 No Content.
func DispatchWorkflowCall(owner, repo, workflow string, request DispatchWorkflowRequest) Call {
	return Call{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/actions/workflows/%s/dispatches", repoPath(owner, repo), url.PathEscape(workflow)),
		Body:   request,
	}
}

// ListWorkflowRunsCall lists recent runs of the repository.
func ListWorkflowRunsCall(owner, repo string, opts ListRunsOptions) Call {
	return Call{
		Method: http.MethodGet,
		Path:   repoPath(owner, repo) + "/actions/runs?" + opts.queryParams(),
	}
}

// GetWorkflowRunCall fetches one run.
func GetWorkflowRunCall(owner, repo string, runID int64) Call {
	return Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/actions/runs/%d", repoPath(owner, repo), runID),
	}
}

// CancelWorkflowRunCall asks GitHub to cancel a run. GitHub answers
// 202 Accepted with an empty object.
func CancelWorkflowRunCall(owner, repo string, runID int64) Call {
	return Call{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/actions/runs/%d/cancel", repoPath(owner, repo), runID),
	}
}
