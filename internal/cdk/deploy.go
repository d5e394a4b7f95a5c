// Package cdk builds the GitHub workflows that deploy and destroy AWS CDK
// stacks for an environment.
package cdk

import (
	"fmt"
	"slices"
	"strings"

	"github.com/savaki/cicd-helper/internal/constants"
	"github.com/savaki/cicd-helper/internal/trigger"
	"github.com/savaki/cicd-helper/internal/workflow"
)

// Params describes one environment's deployment
type Params struct {
	Account     string
	Region      string
	Env         string
	DeployRole  string
	NodeVersion string
	// DeployForBranch adds per-branch deploy and destroy workflows
	DeployForBranch bool
	// OrderedEnvironments is the promotion order used to chain deployments
	OrderedEnvironments []string
	// Schedules are extra cron triggers for the main deployment workflow
	Schedules []string
}

// Registrar accepts built workflows. *workflow.Registry satisfies it.
type Registrar interface {
	Add(w *workflow.Workflow) error
}

// CreateDeploymentWorkflows registers the deployment workflow for p.Env and,
// when branch deployments are enabled, the branch deploy and destroy
// workflows as well.
func CreateDeploymentWorkflows(reg Registrar, p Params) error {
	if err := reg.Add(DeploymentWorkflow(p, false)); err != nil {
		return err
	}

	if !p.DeployForBranch {
		return nil
	}

	if err := reg.Add(DeploymentWorkflow(p, true)); err != nil {
		return err
	}
	return reg.Add(DestroyWorkflow(p))
}

// DeployWorkflowName returns cdk-deploy-{env}[-branch]
func DeployWorkflowName(env string, branch bool) string {
	name := constants.DeployWorkflowPrefix + "-" + env
	if branch {
		name += "-" + constants.BranchSuffix
	}
	return name
}

// DestroyWorkflowName returns cdk-destroy-{env}-branch
func DestroyWorkflowName(env string) string {
	return constants.DestroyWorkflowPrefix + "-" + env + "-" + constants.BranchSuffix
}

// DeploymentWorkflow builds the deploy workflow for p.Env. Branch workflows
// run on feature branch pushes; the main workflow follows the promotion order.
func DeploymentWorkflow(p Params, branch bool) *workflow.Workflow {
	var ordered []string
	if !branch {
		ordered = p.OrderedEnvironments
	}
	choice := trigger.Select(p.Env, branch, ordered)

	triggers := choice.Triggers(constants.DeployWorkflowPrefix)
	if !branch {
		for _, expr := range p.Schedules {
			triggers.Schedule = append(triggers.Schedule, workflow.Schedule{Cron: expr})
		}
	}

	upper := strings.ToUpper(p.Env)
	steps := CommonSteps(p.NodeVersion, p.Account, p.Region, p.DeployRole)
	steps = append(steps,
		workflow.Step{
			Name: fmt.Sprintf("Run CDK synth for the %s environment", upper),
			Run:  "npm run " + TaskName(p.Env, "synth", TaskOptions{Branch: branch}),
		},
		workflow.Step{
			Name: fmt.Sprintf("Deploy CDK to the %s environment on AWS account %s", upper, p.Account),
			Run:  "npm run " + TaskName(p.Env, "deploy", TaskOptions{Branch: branch, Type: "all"}),
		},
	)

	name := fmt.Sprintf("Deploy CDK stacks to %s AWS account", p.Env)
	if branch {
		name += " (Branch)"
	}

	opts := []workflow.Option{
		workflow.WithJob("deploy", &workflow.Job{
			Name:        name,
			RunsOn:      slices.Clone(constants.RunsOn),
			Environment: p.Env,
			Permissions: Permissions(),
			If:          choice.JobCondition(),
			Steps:       steps,
		}),
	}
	if !branch {
		opts = append(opts, workflow.WithLimitConcurrency())
	}

	w := workflow.New(DeployWorkflowName(p.Env, branch), opts...)
	w.SetTriggers(triggers)
	return w
}
