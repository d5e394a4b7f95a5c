package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/policy"
	"github.com/savaki/cicd-helper/internal/synth"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/urfave/cli/v2"
)

// SynthCommand returns the synth command that writes the generated workflows
func SynthCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "synth",
		Aliases: []string{"s"},
		Usage:   "Write generated workflows to the workflow directory",
		Description: `Render every deploy and destroy workflow described by the project file.

Files are only rewritten when their content changes. Previously generated
workflows that are no longer part of the project are removed; hand-written
workflows in the same directory are never touched.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-lint",
				Usage: "Write workflows without validating them first",
			},
		},
		Action: synthAction,
	}
}

func synthAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(reg *workflow.Registry, synthesizer *synth.Synthesizer, validator *policy.Validator) error {
		if !c.Bool("skip-lint") {
			if err := lintRegistry(c, validator, reg); err != nil {
				return err
			}
		}

		result, err := synthesizer.Synth(c.Context, reg)
		if err != nil {
			return fmt.Errorf("failed to synthesize workflows: %w", err)
		}

		logger.Info().
			Str("dir", synthesizer.Dir()).
			Int("written", len(result.Written)).
			Int("unchanged", len(result.Unchanged)).
			Int("removed", len(result.Removed)).
			Msg("Synthesized workflows")

		out := c.App.Writer
		for _, name := range result.Written {
			fmt.Fprintf(out, "✓ wrote %s\n", name)
		}
		for _, name := range result.Removed {
			fmt.Fprintf(out, "✓ removed %s\n", name)
		}
		if len(result.Written) == 0 && len(result.Removed) == 0 {
			fmt.Fprintf(out, "✓ %d workflow(s) up to date\n", len(result.Unchanged))
		}
		return nil
	})
}
