package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/cdk"
	"github.com/savaki/cicd-helper/internal/di"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/cicd-helper/internal/services"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/urfave/cli/v2"
)

func workflowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "env",
			Aliases:  []string{"e"},
			Usage:    "Environment name",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Use the feature branch deploy workflow",
		},
		&cli.BoolFlag{
			Name:  "destroy",
			Usage: "Use the feature branch destroy workflow",
		},
	}
}

// workflowName resolves the --env, --branch and --destroy flags to a
// workflow registered for the project
func workflowName(c *cli.Context, reg *workflow.Registry) (string, error) {
	env := c.String("env")

	name := cdk.DeployWorkflowName(env, c.Bool("branch"))
	if c.Bool("destroy") {
		name = cdk.DestroyWorkflowName(env)
	}

	if _, ok := reg.Get(name); !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrWorkflowNotFound, name)
	}
	return name, nil
}

// DispatchCommand returns the dispatch command that manually starts a
// generated workflow
func DispatchCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "dispatch",
		Usage: "Start a generated workflow with workflow_dispatch",
		Description: `Every generated workflow accepts workflow_dispatch, so any environment can be
redeployed by hand.

Examples:
  # Redeploy stg from main
  cicd-helper dispatch --repo acme/infra --env stg

  # Tear down the dev deployment of a feature branch
  cicd-helper dispatch --repo acme/infra --env dev --destroy --ref feature/login`,
		Flags: append(append(githubFlags(), workflowFlags()...),
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Git ref to run the workflow on",
				Value: "main",
			},
		),
		Action: dispatchAction,
	}
}

func dispatchAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	owner, repo, err := services.ParseRepo(c.String("repo"))
	if err != nil {
		return err
	}

	container, err := newContainer(c, di.WithGitHubAuth(githubAuth(c)))
	if err != nil {
		return err
	}

	return container.Invoke(func(reg *workflow.Registry, gh *services.GitHubService) error {
		name, err := workflowName(c, reg)
		if err != nil {
			return err
		}

		ref := c.String("ref")
		if err := gh.Dispatch(c.Context, owner, repo, name, ref); err != nil {
			return err
		}

		logger.Info().Str("workflow", name).Str("ref", ref).Msg("Dispatched workflow")
		fmt.Fprintf(c.App.Writer, "✓ dispatched %s on %s in %s/%s\n", name, ref, owner, repo)
		return nil
	})
}
