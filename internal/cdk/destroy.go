package cdk

import (
	"slices"

	"github.com/savaki/cicd-helper/internal/constants"
	"github.com/savaki/cicd-helper/internal/trigger"
	"github.com/savaki/cicd-helper/internal/workflow"
)

const (
	branchDeleted    = "github.event.ref_type == 'branch' && github.event_name == 'delete'"
	manualDispatch   = "github.event_name == 'workflow_dispatch'"
	pullRequestEvent = "github.event_name == 'pull_request'"

	// destroyCondition skips main branch pull requests
	destroyCondition = "github.head_ref != 'main' || (" + branchDeleted + ") || " + manualDispatch

	fetchBranchScript = `BRANCH=$(cat ${{ github.event_path }} | jq --raw-output '.ref'); echo "${{ github.repository }} has ${BRANCH} branch"; echo "DESTROY_BRANCH_NAME=$BRANCH" >> $GITHUB_OUTPUT`
)

// DestroyWorkflow builds the workflow that tears down a branch deployment.
// It runs on manual dispatch and when a non-excluded branch is deleted.
func DestroyWorkflow(p Params) *workflow.Workflow {
	run := "npm run " + TaskName(p.Env, "destroy", TaskOptions{Branch: true, Type: "all"})

	steps := CommonSteps(p.NodeVersion, p.Account, p.Region, p.DeployRole)
	steps = append(steps,
		workflow.Step{
			Name: "Fetch Deleted Branch Name",
			ID:   "destroy-branch",
			If:   branchDeleted,
			Run:  fetchBranchScript,
		},
		workflow.Step{
			Name: "Destroy Branch Stack (Workflow Dispatch)",
			If:   manualDispatch,
			Run:  run,
			Env:  map[string]string{"GIT_BRANCH_REF": "${{ github.ref_name }}"},
		},
		workflow.Step{
			Name: "Destroy Branch Stack (Branch Deletion)",
			If:   branchDeleted,
			Run:  run,
			Env:  map[string]string{"GIT_BRANCH_REF": "${{ steps.destroy-branch.outputs.DESTROY_BRANCH_NAME }}"},
		},
		workflow.Step{
			Name: "Destroy Branch Stack (Pull Request Closure)",
			If:   pullRequestEvent,
			Run:  run,
			Env:  map[string]string{"GIT_BRANCH_REF": "${{ github.head_ref }}"},
		},
	)

	w := workflow.New(DestroyWorkflowName(p.Env), workflow.WithJob("destroy", &workflow.Job{
		Name:        "Remove deployment of feature branch",
		RunsOn:      slices.Clone(constants.RunsOn),
		Environment: p.Env,
		Permissions: Permissions(),
		If:          destroyCondition,
		Steps:       steps,
	}))
	w.SetTriggers(workflow.Triggers{
		WorkflowDispatch: &workflow.WorkflowDispatch{},
		Delete:           &workflow.BranchFilter{Branches: trigger.BranchPatterns()},
	})
	return w
}
