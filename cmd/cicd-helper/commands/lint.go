package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/cicd-helper/internal/policy"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/urfave/cli/v2"
)

// LintCommand returns the lint command that validates workflows
func LintCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Validate workflows against the GitHub schema and deployment policy",
		ArgsUsage: "[workflow.yml ...]",
		Description: `Validate workflows against the GitHub Actions workflow schema and the
deployment policy:
  - jobs that assume an AWS role need id-token: write and an environment
  - every action is pinned to a version
  - jobs triggered by workflow_run only run after a successful upstream run

Without arguments the workflows generated from the project file are checked.
With arguments the given files are checked instead, which also works for
hand-written workflows.`,
		Action: lintAction,
	}
}

func lintAction(c *cli.Context) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}

	if c.NArg() == 0 {
		return container.Invoke(func(reg *workflow.Registry, validator *policy.Validator) error {
			return lintRegistry(c, validator, reg)
		})
	}

	return container.Invoke(func(validator *policy.Validator) error {
		var failed []string
		for _, path := range c.Args().Slice() {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read workflow %s: %w", path, err)
			}
			result, err := validator.Validate(c.Context, content)
			if err != nil {
				return fmt.Errorf("failed to validate %s: %w", path, err)
			}
			if !printResult(c, filepath.Base(path), result) {
				failed = append(failed, path)
			}
		}
		return lintErr(failed)
	})
}

// lintRegistry validates every registered workflow
func lintRegistry(c *cli.Context, validator *policy.Validator, reg *workflow.Registry) error {
	var failed []string
	for _, w := range reg.Workflows() {
		result, err := validator.ValidateWorkflow(c.Context, w)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", w.Name, err)
		}
		if !printResult(c, w.FileName(), result) {
			failed = append(failed, w.FileName())
		}
	}
	return lintErr(failed)
}

func printResult(c *cli.Context, name string, result *policy.ValidationResult) bool {
	logger := zerolog.Ctx(c.Context)

	if result.Allowed {
		logger.Debug().Str("file", name).Msg("Workflow passed validation")
		return true
	}

	fmt.Fprintf(c.App.Writer, "✗ %s\n", name)
	for _, v := range result.Violations {
		fmt.Fprintf(c.App.Writer, "  - %s\n", v)
	}
	return false
}

func lintErr(failed []string) error {
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", errors.ErrPolicyViolation, strings.Join(failed, ", "))
}
