package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/di"
	"github.com/savaki/cicd-helper/internal/services"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/urfave/cli/v2"
)

// RunsCommand returns the runs command that lists recent workflow runs
func RunsCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recent runs of a generated workflow",
		Flags: append(append(githubFlags(), workflowFlags()...),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of runs to show",
				Value:   5,
			},
		),
		Action: runsAction,
	}
}

func runsAction(c *cli.Context) error {
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

		runs, err := gh.LatestRuns(c.Context, owner, repo, name, c.Int("limit"))
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintf(c.App.Writer, "No runs found for %s\n", name)
			return nil
		}

		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tEVENT\tBRANCH\tSTATUS\tCREATED")
		for _, run := range runs {
			status := run.Status
			if run.Conclusion != "" {
				status = run.Conclusion
			}
			fmt.Fprintf(w, "#%d\t%s\t%s\t%s\t%s\n", run.Number, run.Event, run.Branch, status, run.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}
