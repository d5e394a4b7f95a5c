package policy

import (
	"context"
	"strings"
	"testing"

	"github.com/savaki/cicd-helper/internal/cdk"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_GeneratedWorkflows(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	reg := workflow.NewRegistry()
	for _, env := range []string{"dev", "stg", "prd"} {
		require.NoError(t, cdk.CreateDeploymentWorkflows(reg, cdk.Params{
			Account:             "111111111111",
			Region:              "us-east-1",
			Env:                 env,
			DeployRole:          "github-deploy",
			NodeVersion:         "20",
			DeployForBranch:     env == "dev",
			OrderedEnvironments: []string{"dev", "stg", "prd"},
			Schedules:           []string{"0 6 * * 1"},
		}))
	}
	require.NoError(t, cdk.CreateDeploymentWorkflows(reg, cdk.Params{Env: "sandbox"}))

	for _, w := range reg.Workflows() {
		t.Run(w.Name, func(t *testing.T) {
			result, err := validator.ValidateWorkflow(context.Background(), w)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "violations: %v", result.Violations)
			assert.Empty(t, result.Violations)
		})
	}
}

func TestValidator_Validate(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name          string
		workflow      string
		expectAllow   bool
		wantViolation string
	}{
		{
			name: "valid minimal workflow",
			workflow: `
name: build
"on":
  workflow_dispatch: {}
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: npm ci
`,
			expectAllow: true,
		},
		{
			name: "unquoted on key",
			workflow: `
name: build
on:
  push:
    branches: [main]
jobs:
  build:
    runs-on: [ubuntu-latest]
    steps:
      - run: npm test
`,
			expectAllow: true,
		},
		{
			name: "missing jobs",
			workflow: `
name: build
"on":
  workflow_dispatch: {}
`,
			wantViolation: "schema:",
		},
		{
			name: "step with both uses and run",
			workflow: `
"on":
  workflow_dispatch: {}
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        run: echo hi
`,
			wantViolation: "schema:",
		},
		{
			name: "invalid permission level",
			workflow: `
"on":
  workflow_dispatch: {}
jobs:
  build:
    runs-on: ubuntu-latest
    permissions:
      contents: admin
    steps:
      - run: npm ci
`,
			wantViolation: "schema:",
		},
		{
			name: "credentials without id-token",
			workflow: `
"on":
  workflow_dispatch: {}
jobs:
  deploy:
    runs-on: ubuntu-latest
    environment: dev
    permissions:
      contents: read
    steps:
      - name: Configure AWS credentials
        uses: aws-actions/configure-aws-credentials@v4
`,
			wantViolation: "job deploy assumes an AWS role without id-token: write permission",
		},
		{
			name: "credentials without environment",
			workflow: `
"on":
  workflow_dispatch: {}
jobs:
  deploy:
    runs-on: ubuntu-latest
    permissions:
      id-token: write
    steps:
      - uses: aws-actions/configure-aws-credentials@v4
`,
			wantViolation: "job deploy deploys to AWS without a GitHub environment",
		},
		{
			name: "unpinned action",
			workflow: `
"on":
  workflow_dispatch: {}
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - name: Checkout repository
        uses: actions/checkout
`,
			wantViolation: `job build step "Checkout repository" uses unpinned action actions/checkout`,
		},
		{
			name: "workflow_run without success gate",
			workflow: `
"on":
  workflow_run:
    workflows: [cdk-deploy-dev]
    types: [completed]
jobs:
  deploy:
    runs-on: ubuntu-latest
    steps:
      - run: npm run stg:deploy:all
`,
			wantViolation: "job deploy runs on workflow_run without requiring a successful upstream run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.Validate(context.Background(), []byte(tt.workflow))
			require.NoError(t, err)

			assert.Equal(t, tt.expectAllow, result.Allowed, "violations: %v", result.Violations)
			if tt.wantViolation == "" {
				assert.Empty(t, result.Violations)
				return
			}

			found := false
			for _, v := range result.Violations {
				if strings.Contains(v, tt.wantViolation) {
					found = true
				}
			}
			assert.True(t, found, "expected violation containing %q, got %v", tt.wantViolation, result.Violations)
		})
	}
}

func TestValidator_InvalidYAML(t *testing.T) {
	validator, err := NewValidator()
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), []byte("jobs: [unterminated"))
	assert.Error(t, err)
}
