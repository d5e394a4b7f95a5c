package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/constants"
	cerrors "github.com/savaki/cicd-helper/internal/errors"
)

// CloudFormationAPI is the subset of the CloudFormation client used by BootstrapChecker
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// SSMAPI is the subset of the SSM client used by BootstrapChecker
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// BootstrapChecker confirms `cdk bootstrap` has been run in a region, since
// the generated deploy steps fail without the toolkit stack
type BootstrapChecker struct {
	cfClient  CloudFormationAPI
	ssmClient SSMAPI
}

// BootstrapStatus describes the toolkit stack found in a region
type BootstrapStatus struct {
	Region      string
	StackStatus string
	Version     int
}

func NewBootstrapChecker(cfg aws.Config) *BootstrapChecker {
	return NewBootstrapCheckerWithClients(cloudformation.NewFromConfig(cfg), ssm.NewFromConfig(cfg))
}

func NewBootstrapCheckerWithClients(cfClient CloudFormationAPI, ssmClient SSMAPI) *BootstrapChecker {
	return &BootstrapChecker{
		cfClient:  cfClient,
		ssmClient: ssmClient,
	}
}

// Check looks up the CDKToolkit stack and the bootstrap version parameter in
// region. Both are regional, so the region overrides the client default.
func (b *BootstrapChecker) Check(ctx context.Context, region string) (*BootstrapStatus, error) {
	logger := zerolog.Ctx(ctx)

	result, err := b.cfClient.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(constants.CDKToolkitStack),
	}, func(o *cloudformation.Options) {
		if region != "" {
			o.Region = region
		}
	})
	if err != nil {
		if isStackMissing(err) {
			return nil, fmt.Errorf("%w: no %s stack in %s", cerrors.ErrNotBootstrapped, constants.CDKToolkitStack, region)
		}
		return nil, fmt.Errorf("failed to describe stack %s: %w", constants.CDKToolkitStack, err)
	}
	if len(result.Stacks) == 0 {
		return nil, fmt.Errorf("%w: no %s stack in %s", cerrors.ErrNotBootstrapped, constants.CDKToolkitStack, region)
	}

	stack := result.Stacks[0]
	status := &BootstrapStatus{
		Region:      region,
		StackStatus: string(stack.StackStatus),
	}

	logger.Debug().
		Str("region", region).
		Str("status", status.StackStatus).
		Msg("Found CDK toolkit stack")

	if !isUsableStatus(stack.StackStatus) {
		return status, fmt.Errorf("%w: %s stack in %s is %s", cerrors.ErrNotBootstrapped, constants.CDKToolkitStack, region, status.StackStatus)
	}

	param, err := b.ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(constants.CDKBootstrapVersionParam),
	}, func(o *ssm.Options) {
		if region != "" {
			o.Region = region
		}
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return status, fmt.Errorf("%w: parameter %s missing in %s", cerrors.ErrNotBootstrapped, constants.CDKBootstrapVersionParam, region)
		}
		return status, fmt.Errorf("failed to get parameter %s: %w", constants.CDKBootstrapVersionParam, err)
	}
	if param.Parameter == nil || param.Parameter.Value == nil {
		return status, fmt.Errorf("%w: parameter %s missing in %s", cerrors.ErrNotBootstrapped, constants.CDKBootstrapVersionParam, region)
	}

	version, err := strconv.Atoi(aws.ToString(param.Parameter.Value))
	if err != nil {
		return status, fmt.Errorf("invalid bootstrap version %q: %w", aws.ToString(param.Parameter.Value), err)
	}
	status.Version = version

	if version < constants.MinBootstrapVersion {
		return status, fmt.Errorf("%w: version %d in %s, need %d or newer", cerrors.ErrBootstrapOutdated, version, region, constants.MinBootstrapVersion)
	}

	return status, nil
}

func isUsableStatus(status cftypes.StackStatus) bool {
	return slices.Contains([]cftypes.StackStatus{
		cftypes.StackStatusCreateComplete,
		cftypes.StackStatusUpdateComplete,
		cftypes.StackStatusUpdateRollbackComplete,
	}, status)
}

// isStackMissing matches the ValidationError CloudFormation returns for an
// unknown stack name
func isStackMissing(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) &&
		apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}
