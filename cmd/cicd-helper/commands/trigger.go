package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/config"
	"github.com/savaki/cicd-helper/internal/constants"
	"github.com/savaki/cicd-helper/internal/trigger"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// TriggerCommand returns the trigger command that explains when an
// environment's deploy workflow runs
func TriggerCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "trigger",
		Aliases: []string{"t"},
		Usage:   "Show the trigger selected for an environment",
		Description: `Print which event starts the deploy workflow of an environment and the
rendered "on" block.

Examples:
  # Using the promotion order from cicd-helper.yaml
  cicd-helper trigger --env stg

  # Without a project file
  cicd-helper trigger --env stg --order dev,stg,prd

  # Feature branch workflow
  cicd-helper trigger --env dev --branch`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Aliases:  []string{"e"},
				Usage:    "Environment name",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "branch",
				Aliases: []string{"b"},
				Usage:   "Select for the feature branch workflow",
			},
			&cli.StringSliceFlag{
				Name:    "order",
				Aliases: []string{"o"},
				Usage:   "Promotion order, overrides the project file",
			},
		},
		Action: triggerAction,
	}
}

func triggerAction(c *cli.Context) error {
	env := c.String("env")
	branch := c.Bool("branch")

	ordered := c.StringSlice("order")
	if len(ordered) == 0 && !branch {
		container, err := newContainer(c)
		if err != nil {
			return err
		}
		err = container.Invoke(func(project *config.Project) {
			ordered = project.Ordered()
		})
		if err != nil {
			return err
		}
	}

	choice := trigger.Select(env, branch, ordered)

	zerolog.Ctx(c.Context).Debug().
		Str("env", env).
		Bool("branch", branch).
		Strs("order", ordered).
		Stringer("kind", choice.Kind).
		Msg("Selected trigger")

	on, err := yaml.Marshal(map[string]any{
		"on": choice.Triggers(constants.DeployWorkflowPrefix),
	})
	if err != nil {
		return fmt.Errorf("failed to render triggers: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "%s: %s\n", env, choice)
	if condition := choice.JobCondition(); condition != "" {
		fmt.Fprintf(c.App.Writer, "job condition: %s\n", condition)
	}
	fmt.Fprintf(c.App.Writer, "\n%s", on)
	return nil
}
