package cdk

import (
	"github.com/savaki/cicd-helper/internal/config"
)

// ParamsFor returns the deployment parameters for every environment in the
// project, in promotion order
func ParamsFor(project *config.Project) []Params {
	ordered := project.Ordered()

	var results []Params
	for _, env := range project.Environments {
		results = append(results, Params{
			Account:             env.Account,
			Region:              env.Region,
			Env:                 env.Name,
			DeployRole:          project.DeployRole,
			NodeVersion:         project.NodeVersion,
			DeployForBranch:     env.DeployForBranch,
			OrderedEnvironments: ordered,
			Schedules:           env.Schedule,
		})
	}
	return results
}

// CreateProjectWorkflows registers the workflows of every environment
func CreateProjectWorkflows(reg Registrar, project *config.Project) error {
	for _, p := range ParamsFor(project) {
		if err := CreateDeploymentWorkflows(reg, p); err != nil {
			return err
		}
	}
	return nil
}
