// Package commands implements the cicd-helper command line.
package commands

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/di"
	"github.com/savaki/cicd-helper/internal/services"
	"github.com/urfave/cli/v2"
)

// containerOptions is the App.Metadata key holding extra di options
const containerOptions = "di.options"

// NewApp returns the cicd-helper application with every command registered.
// opts are applied to the dependency container of every command.
func NewApp(logger *zerolog.Logger, opts ...di.Option) *cli.App {
	return &cli.App{
		Metadata: map[string]any{
			containerOptions: opts,
		},
		Name:  "cicd-helper",
		Usage: "Generate GitHub Actions workflows that deploy and destroy CDK stacks",
		Description: `Generates one deploy workflow per environment, chained in promotion order.

The first environment deploys on every push to main. Each later environment
deploys once the previous environment's workflow completes successfully.
Environments with deploy_for_branch also get feature branch deploy and
destroy workflows.

Commands:
  - synth and check keep .github/workflows in sync with cicd-helper.yaml
  - lint validates workflows against the GitHub schema and deployment policy
  - verify-aws, dispatch and runs talk to AWS and GitHub`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the project file (defaults to ./cicd-helper.yaml)",
				EnvVars: []string{"CICD_HELPER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := di.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			l := logger.Level(level)
			c.Context = l.WithContext(c.Context)
			return nil
		},
		Commands: []*cli.Command{
			SynthCommand(logger),
			CheckCommand(logger),
			LintCommand(logger),
			TriggerCommand(logger),
			VerifyAWSCommand(logger),
			DispatchCommand(logger),
			RunsCommand(logger),
		},
	}
}

// newContainer builds the dependency container for a command. Paths in the
// project file resolve against the directory holding it.
func newContainer(c *cli.Context, opts ...di.Option) (di.Container, error) {
	configFile := c.String("config")

	root := "."
	if configFile != "" {
		root = filepath.Dir(configFile)
	}

	options := []di.Option{
		di.WithContext(c.Context),
		di.WithConfigFile(configFile),
		di.WithProjectRoot(root),
	}
	options = append(options, opts...)
	if extra, ok := c.App.Metadata[containerOptions].([]di.Option); ok {
		options = append(options, extra...)
	}

	return di.New(options...)
}

func githubFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "repo",
			Aliases:  []string{"r"},
			Usage:    "Repository in format 'owner/repo'",
			Required: true,
			EnvVars:  []string{"GITHUB_REPOSITORY"},
		},
		&cli.StringFlag{
			Name:    "github-token",
			Usage:   "GitHub token (takes precedence over GitHub App credentials)",
			EnvVars: []string{"GITHUB_TOKEN"},
		},
		&cli.Int64Flag{
			Name:    "app-id",
			Usage:   "GitHub App ID",
			EnvVars: []string{"GITHUB_APP_ID"},
		},
		&cli.Int64Flag{
			Name:    "installation-id",
			Usage:   "GitHub App installation ID",
			EnvVars: []string{"GITHUB_INSTALLATION_ID"},
		},
		&cli.StringFlag{
			Name:    "private-key",
			Usage:   "Path to the GitHub App private key",
			EnvVars: []string{"GITHUB_APP_PRIVATE_KEY_FILE"},
		},
	}
}

func githubAuth(c *cli.Context) services.GitHubAuth {
	return services.GitHubAuth{
		Token:          c.String("github-token"),
		AppID:          c.Int64("app-id"),
		InstallationID: c.Int64("installation-id"),
		PrivateKeyFile: c.String("private-key"),
	}
}
