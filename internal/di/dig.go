// Package di provides a lightweight wrapper around uber's dig dependency injection framework.
// It simplifies container setup and provides type-safe dependency retrieval with generics.
package di

import (
	"context"

	"github.com/savaki/cicd-helper/internal/policy"
	"github.com/savaki/cicd-helper/internal/services"
	"go.uber.org/dig"
)

// Container defines a dependency injection container based on uber's dig.
// This interface allows for easy testing and mocking of the DI container.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error

	// Decorate registers a function that replaces or modifies a provided value.
	Decorate(decorator any, opts ...dig.DecorateOption) error

	// Scope creates a scoped sub-container with its own set of values.
	Scope(name string, opts ...dig.ScopeOption) *dig.Scope
}

// MustGet returns an instance constructed via dependency injection or panics.
// This is a convenience function for retrieving a dependency from the container
// when you're certain it exists. If the dependency cannot be resolved, it will panic.
//
// Example:
//
//	db := MustGet[*Database](container)
func MustGet[T any](container Container) (want T) {
	callback := func(got T) {
		want = got
	}
	if err := container.Invoke(callback); err != nil {
		panic(err)
	}
	return want
}

// New creates a new dependency injection container. Constructors are only
// run when a dependency is first requested, so commands that never touch AWS
// or GitHub never load credentials for them.
//
// Example:
//
//	container, err := New(
//	    WithConfigFile("cicd-helper.yaml"),
//	    WithProviders(
//	        func(reg *workflow.Registry) *Linter { return &Linter{Registry: reg} },
//	    ),
//	)
func New(opts ...Option) (Container, error) {
	// Build options
	o := options{
		ctx:  context.Background(),
		root: ".",
	}
	for _, opt := range opts {
		opt(&o)
	}

	// Create dig container
	container := dig.New()
	if err := container.Provide(func() context.Context { return o.ctx }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() ConfigFile { return o.configFile }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() ProjectRoot { return o.root }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() services.GitHubAuth { return o.githubAuth }); err != nil {
		return nil, err
	}

	// Register all provided constructors
	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	// Register all provided constructors
	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	for _, decorator := range o.decorators {
		if err := container.Decorate(decorator); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideAWSConfig,
	ProvideProject,
	ProvideRegistry,
	ProvideSynthesizer,
	ProvideGitHubClient,
	policy.NewValidator,
	services.NewRoleVerifier,
	services.NewBootstrapChecker,
	services.NewGitHubService,
}
