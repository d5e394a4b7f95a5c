package constants

// Workflow naming used for the generated CDK workflows
const (
	// DeployWorkflowPrefix prefixes every deployment workflow; chained
	// environments reference the upstream workflow as {prefix}-{env}
	DeployWorkflowPrefix = "cdk-deploy"

	// DestroyWorkflowPrefix prefixes the branch teardown workflow
	DestroyWorkflowPrefix = "cdk-destroy"

	// BranchSuffix is appended to workflows that serve per-branch deployments
	BranchSuffix = "branch"

	// MainBranch is the branch that feeds the first environment
	MainBranch = "main"
)

// Pinned actions used by the generated steps
const (
	CheckoutAction       = "actions/checkout@v4"
	SetupNodeAction      = "actions/setup-node@v4"
	AWSCredentialsAction = "aws-actions/configure-aws-credentials@v4"
)

// GitHubOIDCProvider is the issuer GitHub Actions presents when assuming a role
const GitHubOIDCProvider = "token.actions.githubusercontent.com"

// CDK bootstrap resources created by `cdk bootstrap` with the default qualifier
const (
	CDKToolkitStack          = "CDKToolkit"
	CDKBootstrapVersionParam = "/cdk-bootstrap/hnb659fds/version"

	// MinBootstrapVersion is the oldest bootstrap stack CDK v2 deploys into
	MinBootstrapVersion = 6
)

// RunsOn is the runner label shared by every generated job
var RunsOn = []string{"ubuntu-latest"}

// BranchExclusions are the branches that never get a per-branch deployment
var BranchExclusions = []string{"main", "hotfix/*", "github-actions/*", "dependabot/**"}
