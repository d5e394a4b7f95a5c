// Package config loads the project configuration that drives workflow
// generation from a YAML file, with environment variable overrides.
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/gox/slicex"
	"github.com/spf13/viper"
)

const (
	DefaultConfigName  = "cicd-helper"
	DefaultNodeVersion = "20"
	DefaultWorkflowDir = ".github/workflows"
	EnvPrefix          = "CICD_HELPER"
)

var (
	envNamePattern   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	accountIDPattern = regexp.MustCompile(`^[0-9]{12}$`)
)

// Environment is a single deployment target. The order environments appear
// in the project file is the promotion order.
type Environment struct {
	Name            string   `mapstructure:"name"`
	Account         string   `mapstructure:"account"`
	Region          string   `mapstructure:"region"`
	DeployForBranch bool     `mapstructure:"deploy_for_branch"`
	Schedule        []string `mapstructure:"schedule"`
}

// Project holds all configuration for workflow generation
type Project struct {
	DeployRole   string        `mapstructure:"deploy_role"`
	NodeVersion  string        `mapstructure:"node_version"`
	Region       string        `mapstructure:"region"`
	WorkflowDir  string        `mapstructure:"workflow_dir"`
	Environments []Environment `mapstructure:"environments"`
}

// Load reads the project file at path. When path is empty, cicd-helper.yaml
// is looked up in the working directory. Scalar settings may be overridden
// with CICD_HELPER_* environment variables, e.g. CICD_HELPER_DEPLOY_ROLE.
func Load(path string) (*Project, error) {
	v := viper.New()
	v.SetDefault("deploy_role", "")
	v.SetDefault("node_version", DefaultNodeVersion)
	v.SetDefault("region", "")
	v.SetDefault("workflow_dir", DefaultWorkflowDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var project Project
	if err := v.Unmarshal(&project); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", v.ConfigFileUsed(), err)
	}

	for i := range project.Environments {
		if project.Environments[i].Region == "" {
			project.Environments[i].Region = project.Region
		}
	}

	return &project, nil
}

// Validate checks that the project describes a usable set of environments
func (p *Project) Validate() error {
	if len(p.Environments) == 0 {
		return errors.ErrNoEnvironments
	}

	seen := map[string]struct{}{}
	for _, env := range p.Environments {
		if !envNamePattern.MatchString(env.Name) {
			return fmt.Errorf("%w: %q", errors.ErrInvalidEnvName, env.Name)
		}
		if _, ok := seen[env.Name]; ok {
			return fmt.Errorf("%w: %s", errors.ErrDuplicateEnv, env.Name)
		}
		seen[env.Name] = struct{}{}

		if env.Account != "" && !accountIDPattern.MatchString(env.Account) {
			return fmt.Errorf("%w: environment %s has account %q, expected 12 digits", errors.ErrInvalidAccountID, env.Name, env.Account)
		}
		if env.Account != "" && env.Region == "" {
			return fmt.Errorf("%w: environment %s", errors.ErrRegionRequired, env.Name)
		}
		for _, expr := range env.Schedule {
			if err := validateSchedule(expr); err != nil {
				return fmt.Errorf("%w: environment %s: %q: %v", errors.ErrInvalidSchedule, env.Name, expr, err)
			}
		}
	}

	return nil
}

// validateSchedule accepts the five field cron syntax GitHub Actions
// understands. Descriptors such as @daily and time zone prefixes are rejected.
func validateSchedule(expr string) error {
	if strings.HasPrefix(expr, "@") || strings.Contains(expr, "TZ=") {
		return fmt.Errorf("descriptors and time zones are not supported by GitHub Actions")
	}
	_, err := cron.ParseStandard(expr)
	return err
}

// Ordered returns the environment names in promotion order
func (p *Project) Ordered() []string {
	return slicex.Map(p.Environments, func(env Environment) string {
		return env.Name
	})
}

// Environment looks up an environment by name
func (p *Project) Environment(name string) (Environment, error) {
	for _, env := range p.Environments {
		if env.Name == name {
			return env, nil
		}
	}
	return Environment{}, fmt.Errorf("%w: %s", errors.ErrEnvironmentNotFound, name)
}
