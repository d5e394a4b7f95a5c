// Package workflow models the subset of the GitHub Actions workflow schema
// used by the generated CDK workflows.
package workflow

import (
	"fmt"

	"github.com/savaki/cicd-helper/internal/errors"
)

// Permission is the access level granted to a GITHUB_TOKEN scope
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Permissions maps a token scope (contents, id-token, ...) to its level
type Permissions map[string]Permission

// WorkflowDispatch enables manual runs. It carries no inputs.
type WorkflowDispatch struct{}

// BranchFilter restricts push or delete events to matching branches.
// Patterns prefixed with ! exclude.
type BranchFilter struct {
	Branches []string `yaml:"branches,omitempty"`
}

// WorkflowRunFilter reacts to the completion of other workflows
type WorkflowRunFilter struct {
	Workflows []string `yaml:"workflows"`
	Types     []string `yaml:"types,omitempty"`
}

// Schedule is a single cron entry
type Schedule struct {
	Cron string `yaml:"cron"`
}

// Triggers is the `on` section of a workflow
type Triggers struct {
	WorkflowDispatch *WorkflowDispatch  `yaml:"workflow_dispatch,omitempty"`
	Push             *BranchFilter      `yaml:"push,omitempty"`
	Delete           *BranchFilter      `yaml:"delete,omitempty"`
	WorkflowRun      *WorkflowRunFilter `yaml:"workflow_run,omitempty"`
	Schedule         []Schedule         `yaml:"schedule,omitempty"`
}

// Concurrency limits a workflow to one active run per group
type Concurrency struct {
	Group            string `yaml:"group"`
	CancelInProgress bool   `yaml:"cancel-in-progress"`
}

// Step is a single action or shell command within a job
type Step struct {
	Name string            `yaml:"name,omitempty"`
	ID   string            `yaml:"id,omitempty"`
	If   string            `yaml:"if,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
	Run  string            `yaml:"run,omitempty"`
}

// Job runs its steps in order on one runner
type Job struct {
	Name        string      `yaml:"name,omitempty"`
	RunsOn      []string    `yaml:"runs-on"`
	Permissions Permissions `yaml:"permissions,omitempty"`
	Environment string      `yaml:"environment,omitempty"`
	If          string      `yaml:"if,omitempty"`
	Steps       []Step      `yaml:"steps"`
}

// Workflow is a single file under .github/workflows
type Workflow struct {
	Name        string          `yaml:"name"`
	On          Triggers        `yaml:"on"`
	Concurrency *Concurrency    `yaml:"concurrency,omitempty"`
	Jobs        map[string]*Job `yaml:"jobs"`
}

// Option configures a Workflow at construction time
type Option func(*Workflow)

// WithLimitConcurrency allows a single run of the workflow at a time.
// Queued runs wait rather than cancelling the active one.
func WithLimitConcurrency() Option {
	return func(w *Workflow) {
		w.Concurrency = &Concurrency{
			Group:            "${{ github.workflow }}",
			CancelInProgress: false,
		}
	}
}

// WithJob adds a job under id. A later WithJob with the same id replaces
// the earlier one; use AddJob to detect collisions.
func WithJob(id string, job *Job) Option {
	return func(w *Workflow) {
		w.Jobs[id] = job
	}
}

// New creates an empty workflow with the given name
func New(name string, opts ...Option) *Workflow {
	w := &Workflow{
		Name: name,
		Jobs: map[string]*Job{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetTriggers replaces the workflow's `on` section
func (w *Workflow) SetTriggers(t Triggers) {
	w.On = t
}

// AddJob registers a job under the given id
func (w *Workflow) AddJob(id string, job *Job) error {
	if _, ok := w.Jobs[id]; ok {
		return fmt.Errorf("%w: %s in workflow %s", errors.ErrDuplicateJob, id, w.Name)
	}
	w.Jobs[id] = job
	return nil
}

// FileName returns the file name the workflow is written to
func (w *Workflow) FileName() string {
	return FileName(w.Name)
}

// FileName returns the file name for a workflow name
func FileName(name string) string {
	return name + ".yml"
}
