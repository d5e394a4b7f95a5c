package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/config"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/cicd-helper/internal/services"
	"github.com/urfave/cli/v2"
)

// VerifyAWSCommand returns the verify-aws command that checks the deploy
// role of each environment
func VerifyAWSCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "verify-aws",
		Usage: "Check that each account can run the generated deploy workflows",
		Description: `Using the current AWS credentials, confirm for each environment that:
  - the credentials belong to the environment's account
  - deploy_role exists in that account
  - the role's trust policy references token.actions.githubusercontent.com
  - the environment's region has been CDK bootstrapped (CDKToolkit stack and
    /cdk-bootstrap/hnb659fds/version parameter)

Environments without an account are skipped. Run once per account with the
matching credentials, or pass --env to check a single environment.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Only verify this environment",
			},
			&cli.BoolFlag{
				Name:  "skip-bootstrap",
				Usage: "Do not check for the CDK bootstrap stack",
			},
		},
		Action: verifyAWSAction,
	}
}

func verifyAWSAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(project *config.Project, verifier *services.RoleVerifier, bootstrap *services.BootstrapChecker) error {
		if project.DeployRole == "" {
			return errors.ErrDeployRoleRequired
		}

		environments := project.Environments
		if name := c.String("env"); name != "" {
			env, err := project.Environment(name)
			if err != nil {
				return err
			}
			environments = []config.Environment{env}
		}

		for _, env := range environments {
			if env.Account == "" {
				logger.Warn().Str("env", env.Name).Msg("No account configured, skipping")
				continue
			}

			check, err := verifier.Verify(c.Context, env.Account, project.DeployRole)
			if err != nil {
				return fmt.Errorf("environment %s: %w", env.Name, err)
			}

			fmt.Fprintf(c.App.Writer, "✓ %s: %s trusts GitHub Actions\n", env.Name, check.RoleARN)

			if c.Bool("skip-bootstrap") {
				continue
			}
			status, err := bootstrap.Check(c.Context, env.Region)
			if err != nil {
				return fmt.Errorf("environment %s: %w", env.Name, err)
			}
			fmt.Fprintf(c.App.Writer, "✓ %s: CDK bootstrap version %d in %s\n", env.Name, status.Version, status.Region)
		}
		return nil
	})
}
