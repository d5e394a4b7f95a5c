package cdk

import (
	"fmt"

	"github.com/savaki/cicd-helper/internal/constants"
	"github.com/savaki/cicd-helper/internal/workflow"
)

// Permissions shared by the deploy and destroy jobs. id-token is required
// for OIDC role assumption.
func Permissions() workflow.Permissions {
	return workflow.Permissions{
		"actions":  workflow.PermissionWrite,
		"contents": workflow.PermissionRead,
		"id-token": workflow.PermissionWrite,
	}
}

// CommonSteps checks out the repo, installs node, optionally assumes the
// deploy role, then installs dependencies
func CommonSteps(nodeVersion, account, region, role string) []workflow.Step {
	version := "latest"
	if nodeVersion != "" {
		version = ">=" + nodeVersion
	}

	steps := []workflow.Step{
		{
			Name: "Checkout repository",
			Uses: constants.CheckoutAction,
		},
		{
			Name: "Setup nodejs environment",
			Uses: constants.SetupNodeAction,
			With: map[string]string{
				"node-version": version,
				"cache":        "npm",
			},
		},
	}

	if account != "" && region != "" && role != "" {
		steps = append(steps, AWSCredentialsStep(account, region, role))
	}

	return append(steps, workflow.Step{
		Name: "Install dependencies",
		Run:  "npm ci",
	})
}

// AWSCredentialsStep assumes role in account through GitHub OIDC
func AWSCredentialsStep(account, region, role string) workflow.Step {
	return workflow.Step{
		Name: "Configure AWS credentials",
		Uses: constants.AWSCredentialsAction,
		With: map[string]string{
			"role-to-assume": RoleARN(account, role),
			"aws-region":     region,
		},
	}
}

// RoleARN builds the IAM role ARN for role in account
func RoleARN(account, role string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", account, role)
}
