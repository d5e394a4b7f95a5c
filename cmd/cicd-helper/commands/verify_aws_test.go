package commands

import (
	"context"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/savaki/cicd-helper/internal/di"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/cicd-helper/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSTS struct {
	account string
}

func (s stubSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String(s.account)}, nil
}

type stubIAM struct {
	account string
}

func (s stubIAM) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	name := aws.ToString(params.RoleName)
	if name != "github-deploy" {
		return nil, &iamtypes.NoSuchEntityException{Message: aws.String("role not found")}
	}
	policy := `{"Statement":[{"Principal":{"Federated":"arn:aws:iam::` + s.account + `:oidc-provider/token.actions.githubusercontent.com"}}]}`
	return &iam.GetRoleOutput{Role: &iamtypes.Role{
		RoleName:                 aws.String(name),
		Arn:                      aws.String("arn:aws:iam::" + s.account + ":role/" + name),
		AssumeRolePolicyDocument: aws.String(url.QueryEscape(policy)),
	}}, nil
}

type stubCloudFormation struct {
	bootstrapped bool
}

func (s stubCloudFormation) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	if !s.bootstrapped {
		return nil, &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id CDKToolkit does not exist"}
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []cftypes.Stack{
		{StackName: params.StackName, StackStatus: cftypes.StackStatusUpdateComplete},
	}}, nil
}

type stubSSM struct{}

func (stubSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Name: params.Name, Value: aws.String("21")}}, nil
}

// awsDoubles replaces the AWS backed services with stubs acting as account
func awsDoubles(account string, bootstrapped bool) []di.Option {
	return []di.Option{
		di.WithDecorators(
			func(*services.RoleVerifier) *services.RoleVerifier {
				return services.NewRoleVerifierWithClients(stubIAM{account: account}, stubSTS{account: account})
			},
			func(*services.BootstrapChecker) *services.BootstrapChecker {
				return services.NewBootstrapCheckerWithClients(stubCloudFormation{bootstrapped: bootstrapped}, stubSSM{})
			},
		),
	}
}

const verifyProject = `deploy_role: github-deploy
region: us-east-1
environments:
  - name: local
  - name: dev
    account: "111111111111"
  - name: prd
    account: "222222222222"
    region: us-west-2
`

func TestVerifyAWS(t *testing.T) {
	path := writeProjectFile(t, verifyProject)

	tests := []struct {
		name         string
		account      string
		bootstrapped bool
		args         []string
		wantErr      error
		want         []string
		notWant      []string
	}{
		{
			name:         "single environment",
			account:      "111111111111",
			bootstrapped: true,
			args:         []string{"--env", "dev"},
			want: []string{
				"✓ dev: arn:aws:iam::111111111111:role/github-deploy trusts GitHub Actions",
				"✓ dev: CDK bootstrap version 21 in us-east-1",
			},
			notWant: []string{"prd:", "local:"},
		},
		{
			name:         "region override",
			account:      "222222222222",
			bootstrapped: true,
			args:         []string{"--env", "prd"},
			want:         []string{"✓ prd: CDK bootstrap version 21 in us-west-2"},
		},
		{
			name:         "environment without account is skipped",
			account:      "111111111111",
			bootstrapped: true,
			args:         []string{"--env", "local"},
			notWant:      []string{"local:"},
		},
		{
			name:         "all environments stop at account mismatch",
			account:      "111111111111",
			bootstrapped: true,
			wantErr:      errors.ErrAccountMismatch,
			want:         []string{"✓ dev:"},
		},
		{
			name:    "not bootstrapped",
			account: "111111111111",
			args:    []string{"--env", "dev"},
			wantErr: errors.ErrNotBootstrapped,
		},
		{
			name:    "bootstrap check skipped",
			account: "111111111111",
			args:    []string{"--env", "dev", "--skip-bootstrap"},
			want:    []string{"✓ dev: arn:aws:iam::111111111111:role/github-deploy trusts GitHub Actions"},
			notWant: []string{"CDK bootstrap"},
		},
		{
			name:    "unknown environment",
			account: "111111111111",
			args:    []string{"--env", "qa"},
			wantErr: errors.ErrEnvironmentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", path, "verify-aws"}, tt.args...)
			out, err := runWith(t, awsDoubles(tt.account, tt.bootstrapped), args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestVerifyAWS_DeployRoleRequired(t *testing.T) {
	path := writeProjectFile(t, `environments:
  - name: dev
    account: "111111111111"
    region: us-east-1
`)

	_, err := runWith(t, awsDoubles("111111111111", true), "--config", path, "verify-aws")
	assert.ErrorIs(t, err, errors.ErrDeployRoleRequired)
}
