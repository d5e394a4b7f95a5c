package di

import (
	"context"

	"github.com/savaki/cicd-helper/internal/services"
)

// ConfigFile is the path of the project file. Empty means cicd-helper.yaml
// in the working directory.
type ConfigFile string

// ProjectRoot is the directory workflow_dir and .gitignore resolve against
type ProjectRoot string

// Option is a function that configures the dependency injection container.
type Option func(*options)

func WithContext(ctx context.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

func WithConfigFile(path string) Option {
	return func(opts *options) {
		opts.configFile = ConfigFile(path)
	}
}

func WithProjectRoot(dir string) Option {
	return func(opts *options) {
		opts.root = ProjectRoot(dir)
	}
}

func WithGitHubAuth(auth services.GitHubAuth) Option {
	return func(opts *options) {
		opts.githubAuth = auth
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *Database { return &Database{} },
//	    func(db *Database) *Service { return &Service{DB: db} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

// WithDecorators adds functions that receive a provided value and return its
// replacement, e.g. to point a client at a test server.
//
// Example:
//
//	WithDecorators(
//	    func(c *github.Client) *github.Client { c.BaseURL = baseURL; return c },
//	)
func WithDecorators(decorators ...any) Option {
	return func(opts *options) {
		opts.decorators = append(opts.decorators, decorators...)
	}
}

type options struct {
	ctx        context.Context
	configFile ConfigFile
	root       ProjectRoot
	githubAuth services.GitHubAuth
	providers  []any
	decorators []any
}
