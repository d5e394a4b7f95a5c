package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/savaki/cicd-helper/internal/cdk"
	"github.com/savaki/cicd-helper/internal/constants"
	cerrors "github.com/savaki/cicd-helper/internal/errors"
)

// IAMAPI is the subset of the IAM client used by RoleVerifier
type IAMAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
}

// STSAPI is the subset of the STS client used by RoleVerifier
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// RoleVerifier confirms that the deploy role referenced by the generated
// workflows exists and can be assumed from GitHub Actions
type RoleVerifier struct {
	iamClient IAMAPI
	stsClient STSAPI
}

// RoleCheck is the outcome of a successful verification
type RoleCheck struct {
	Account      string
	RoleName     string
	RoleARN      string
	TrustsGitHub bool
}

func NewRoleVerifier(cfg aws.Config) *RoleVerifier {
	return NewRoleVerifierWithClients(iam.NewFromConfig(cfg), sts.NewFromConfig(cfg))
}

func NewRoleVerifierWithClients(iamClient IAMAPI, stsClient STSAPI) *RoleVerifier {
	return &RoleVerifier{
		iamClient: iamClient,
		stsClient: stsClient,
	}
}

// GetAWSAccountID retrieves the account of the current credentials
func (v *RoleVerifier) GetAWSAccountID(ctx context.Context) (string, error) {
	result, err := v.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}

	if result.Account == nil {
		return "", fmt.Errorf("account ID is nil")
	}

	return *result.Account, nil
}

// Verify checks that the current credentials belong to account and that
// roleName exists there with a trust policy naming the GitHub OIDC provider
func (v *RoleVerifier) Verify(ctx context.Context, account, roleName string) (*RoleCheck, error) {
	callerAccount, err := v.GetAWSAccountID(ctx)
	if err != nil {
		return nil, err
	}
	if account != "" && callerAccount != account {
		return nil, fmt.Errorf("%w: credentials are for %s, expected %s", cerrors.ErrAccountMismatch, callerAccount, account)
	}

	result, err := v.iamClient.GetRole(ctx, &iam.GetRoleInput{
		RoleName: aws.String(roleName),
	})
	if err != nil {
		if isNoSuchEntity(err) {
			return nil, fmt.Errorf("%w: %s", cerrors.ErrRoleNotFound, roleName)
		}
		return nil, fmt.Errorf("failed to get role %s: %w", roleName, err)
	}

	check := &RoleCheck{
		Account:  callerAccount,
		RoleName: roleName,
		RoleARN:  cdk.RoleARN(callerAccount, roleName),
	}
	if result.Role != nil {
		if arn := aws.ToString(result.Role.Arn); arn != "" {
			check.RoleARN = arn
		}
		trusts, err := trustsGitHub(aws.ToString(result.Role.AssumeRolePolicyDocument))
		if err != nil {
			return nil, err
		}
		check.TrustsGitHub = trusts
	}

	if !check.TrustsGitHub {
		return check, fmt.Errorf("%w: %s", cerrors.ErrRoleNotTrusted, check.RoleARN)
	}

	return check, nil
}

// trustsGitHub reports whether the (URL encoded) trust policy references
// the GitHub Actions OIDC provider
func trustsGitHub(document string) (bool, error) {
	if document == "" {
		return false, nil
	}
	decoded, err := url.QueryUnescape(document)
	if err != nil {
		return false, fmt.Errorf("failed to decode trust policy: %w", err)
	}
	return strings.Contains(decoded, constants.GitHubOIDCProvider), nil
}

func isNoSuchEntity(err error) bool {
	var noSuchEntity *types.NoSuchEntityException
	if errors.As(err, &noSuchEntity) {
		return true
	}

	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchEntity"
}
