package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/cicd-helper/internal/services"
	"github.com/savaki/cicd-helper/internal/synth"
	"github.com/savaki/cicd-helper/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

const project = `deploy_role: github-deploy
region: us-east-1
environments:
  - name: dev
    account: "111111111111"
    deploy_for_branch: true
  - name: prd
    account: "222222222222"
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cicd-helper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_ProvidesOptions(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	container, err := New(
		WithContext(ctx),
		WithConfigFile("custom.yaml"),
		WithProjectRoot("/src/app"),
		WithGitHubAuth(services.GitHubAuth{Token: "ghp_test"}),
	)
	require.NoError(t, err)

	err = container.Invoke(func(got context.Context, path ConfigFile, root ProjectRoot, auth services.GitHubAuth) {
		assert.Equal(t, "value", got.Value(key{}))
		assert.Equal(t, ConfigFile("custom.yaml"), path)
		assert.Equal(t, ProjectRoot("/src/app"), root)
		assert.Equal(t, "ghp_test", auth.Token)
	})
	require.NoError(t, err)
}

func TestNew_Defaults(t *testing.T) {
	container, err := New()
	require.NoError(t, err)

	assert.NotNil(t, MustGet[context.Context](container))
	assert.Equal(t, ProjectRoot("."), MustGet[ProjectRoot](container))
	assert.Equal(t, ConfigFile(""), MustGet[ConfigFile](container))
}

func TestNew_ProjectProviders(t *testing.T) {
	path := writeProject(t, project)
	dir := filepath.Dir(path)

	container, err := New(WithConfigFile(path), WithProjectRoot(dir))
	require.NoError(t, err)

	reg := MustGet[*workflow.Registry](container)
	assert.Equal(t, []string{"cdk-deploy-dev", "cdk-deploy-dev-branch", "cdk-deploy-prd", "cdk-destroy-dev-branch"}, reg.Names())

	s := MustGet[*synth.Synthesizer](container)
	assert.Equal(t, filepath.Join(dir, ".github/workflows"), s.Dir())

	// constructed once per container
	assert.Same(t, reg, MustGet[*workflow.Registry](container))
}

func TestNew_InvalidProject(t *testing.T) {
	path := writeProject(t, "environments: []\n")

	container, err := New(WithConfigFile(path))
	require.NoError(t, err)

	err = container.Invoke(func(reg *workflow.Registry) {})
	assert.ErrorIs(t, dig.RootCause(err), errors.ErrNoEnvironments)

	assert.Panics(t, func() {
		MustGet[*workflow.Registry](container)
	})
}

func TestNew_GitHubAuthRequired(t *testing.T) {
	container, err := New()
	require.NoError(t, err)

	err = container.Invoke(func(*services.GitHubService) {})
	assert.ErrorIs(t, dig.RootCause(err), errors.ErrGitHubAuthRequired)
}

func TestWithProviders(t *testing.T) {
	type Linter struct {
		Registry *workflow.Registry
	}

	path := writeProject(t, project)
	container, err := New(
		WithConfigFile(path),
		WithProviders(func(reg *workflow.Registry) *Linter {
			return &Linter{Registry: reg}
		}),
	)
	require.NoError(t, err)

	linter := MustGet[*Linter](container)
	assert.Equal(t, 4, linter.Registry.Len())

	// core types cannot be provided twice; replace them with WithDecorators
	_, err = New(WithProviders(workflow.NewRegistry))
	assert.Error(t, err)
}

func TestWithDecorators(t *testing.T) {
	path := writeProject(t, project)

	container, err := New(
		WithConfigFile(path),
		WithDecorators(func(reg *workflow.Registry) *workflow.Registry {
			require.NoError(t, reg.Add(workflow.New("extra")))
			return reg
		}),
	)
	require.NoError(t, err)

	reg := MustGet[*workflow.Registry](container)
	_, ok := reg.Get("extra")
	assert.True(t, ok)
	assert.Equal(t, 5, reg.Len())
}

func TestContainer_Interface(t *testing.T) {
	var _ Container = (*dig.Container)(nil)
}
