// Package trigger decides when a deployment workflow runs, based on the
// environment's position in the promotion order.
package trigger

import (
	"fmt"
	"slices"

	"github.com/savaki/cicd-helper/internal/constants"
	"github.com/savaki/cicd-helper/internal/workflow"
)

// Kind enumerates the mutually exclusive trigger outcomes
type Kind int

const (
	// ManualOnly runs only on workflow_dispatch
	ManualOnly Kind = iota
	// PushMain runs on every push to main
	PushMain
	// UpstreamCompletion runs when the previous environment's workflow completes
	UpstreamCompletion
	// BranchPush runs on pushes to any branch outside BranchExclusions
	BranchPush
)

func (k Kind) String() string {
	switch k {
	case ManualOnly:
		return "manual-only"
	case PushMain:
		return "push-main"
	case UpstreamCompletion:
		return "upstream-completion"
	case BranchPush:
		return "branch-push"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SuccessCondition gates jobs triggered by workflow_run on a successful upstream run
const SuccessCondition = "github.event.workflow_run.conclusion == 'success'"

// Choice is the result of Select
type Choice struct {
	Kind Kind
	// Previous is the upstream environment, set only for UpstreamCompletion
	Previous string
}

// Select picks the trigger for env's deployment workflow.
// Branch deployments ignore ordered entirely. Otherwise the first
// environment deploys on push to main, later ones chain off the
// environment before them, and anything not listed is manual only.
func Select(env string, branchMode bool, ordered []string) Choice {
	if branchMode {
		return Choice{Kind: BranchPush}
	}

	switch idx := slices.Index(ordered, env); {
	case idx < 0:
		return Choice{Kind: ManualOnly}
	case idx == 0:
		return Choice{Kind: PushMain}
	default:
		return Choice{Kind: UpstreamCompletion, Previous: ordered[idx-1]}
	}
}

// UpstreamWorkflow returns the name of the workflow this choice waits on,
// or "" when it does not chain
func (c Choice) UpstreamWorkflow(prefix string) string {
	if c.Kind != UpstreamCompletion {
		return ""
	}
	return prefix + "-" + c.Previous
}

// Triggers renders the choice as a workflow `on` section. Manual dispatch
// is always enabled.
func (c Choice) Triggers(prefix string) workflow.Triggers {
	t := workflow.Triggers{
		WorkflowDispatch: &workflow.WorkflowDispatch{},
	}

	switch c.Kind {
	case BranchPush:
		t.Push = &workflow.BranchFilter{Branches: BranchPatterns()}
	case PushMain:
		t.Push = &workflow.BranchFilter{Branches: []string{constants.MainBranch}}
	case UpstreamCompletion:
		t.WorkflowRun = &workflow.WorkflowRunFilter{
			Workflows: []string{c.UpstreamWorkflow(prefix)},
			Types:     []string{"completed"},
		}
	}

	return t
}

// JobCondition returns the `if` expression the deploy job needs, if any
func (c Choice) JobCondition() string {
	if c.Kind == UpstreamCompletion {
		return SuccessCondition
	}
	return ""
}

func (c Choice) String() string {
	if c.Kind == UpstreamCompletion {
		return fmt.Sprintf("%v(%s)", c.Kind, c.Previous)
	}
	return c.Kind.String()
}

// BranchPatterns matches every branch except the excluded ones
func BranchPatterns() []string {
	patterns := []string{"**"}
	for _, branch := range constants.BranchExclusions {
		patterns = append(patterns, "!"+branch)
	}
	return patterns
}
