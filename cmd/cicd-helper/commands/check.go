package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/synth"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/urfave/cli/v2"
)

// CheckCommand returns the check command that fails when generated workflows
// on disk differ from the project file
func CheckCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify the workflow directory matches the project file",
		Description: `Compare the rendered workflows with the files on disk without writing.

Prints a unified diff for every missing, changed or stale file and exits
non-zero when anything differs. Intended for CI.`,
		Action: checkAction,
	}
}

func checkAction(c *cli.Context) error {
	logger := zerolog.Ctx(c.Context)

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	return container.Invoke(func(reg *workflow.Registry, synthesizer *synth.Synthesizer) error {
		report, err := synthesizer.Check(reg)
		if err != nil {
			return fmt.Errorf("failed to check workflows: %w", err)
		}

		if report.UpToDate() {
			fmt.Fprintf(c.App.Writer, "✓ %d workflow(s) up to date\n", reg.Len())
			return nil
		}

		for _, d := range report.Diffs {
			logger.Warn().Str("file", d.Name).Str("status", string(d.Status)).Msg("Workflow out of date")
			fmt.Fprint(c.App.Writer, d.Diff)
		}
		fmt.Fprintf(c.App.Writer, "\nRun \"cicd-helper synth\" to update %s\n", synthesizer.Dir())

		return report.Err()
	})
}
