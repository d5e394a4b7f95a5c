package errors

import "errors"

var (
	ErrDuplicateWorkflow   = errors.New("workflow already registered")
	ErrDuplicateJob        = errors.New("job already defined")
	ErrEmptyWorkflowName   = errors.New("workflow name is required")
	ErrNoEnvironments      = errors.New("at least one environment is required")
	ErrDuplicateEnv        = errors.New("duplicate environment")
	ErrInvalidEnvName      = errors.New("invalid environment name")
	ErrInvalidAccountID    = errors.New("invalid AWS account id")
	ErrRegionRequired      = errors.New("region is required")
	ErrInvalidSchedule     = errors.New("invalid cron schedule")
	ErrOutOfDate           = errors.New("generated workflows are out of date")
	ErrPolicyViolation     = errors.New("workflow policy violation")
	ErrAccountMismatch     = errors.New("caller account does not match configured account")
	ErrRoleNotFound        = errors.New("deploy role not found")
	ErrRoleNotTrusted      = errors.New("deploy role does not trust GitHub OIDC")
	ErrGitHubAuthRequired  = errors.New("GITHUB_TOKEN or GitHub App credentials are required")
	ErrInvalidRepoFormat   = errors.New("repo must be in format 'owner/repo'")
	ErrEnvironmentNotFound = errors.New("environment not found in configuration")
	ErrWorkflowNotFound    = errors.New("workflow is not generated for this project")
	ErrDeployRoleRequired  = errors.New("deploy_role is required")
	ErrNotBootstrapped     = errors.New("account is not CDK bootstrapped")
	ErrBootstrapOutdated   = errors.New("CDK bootstrap version is too old")
)
