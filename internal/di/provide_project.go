package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/cicd-helper/internal/cdk"
	"github.com/savaki/cicd-helper/internal/config"
	"github.com/savaki/cicd-helper/internal/synth"
	"github.com/savaki/cicd-helper/internal/workflow"
)

// ProvideProject loads and validates the project file
func ProvideProject(ctx context.Context, path ConfigFile) (*config.Project, error) {
	project, err := config.Load(string(path))
	if err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project configuration: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Strs("environments", project.Ordered()).
		Str("workflow_dir", project.WorkflowDir).
		Msg("Loaded project configuration")

	return project, nil
}

// ProvideRegistry builds every deploy and destroy workflow of the project
func ProvideRegistry(project *config.Project) (*workflow.Registry, error) {
	reg := workflow.NewRegistry()
	if err := cdk.CreateProjectWorkflows(reg, project); err != nil {
		return nil, fmt.Errorf("failed to create workflows: %w", err)
	}
	return reg, nil
}

func ProvideSynthesizer(root ProjectRoot, project *config.Project) *synth.Synthesizer {
	return synth.New(string(root), project.WorkflowDir)
}
