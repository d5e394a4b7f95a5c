package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v68/github"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/savaki/cicd-helper/internal/workflow"
)

// GitHubAuth selects how the GitHub client authenticates. A personal access
// token wins over GitHub App credentials when both are set.
type GitHubAuth struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyFile string
}

// NewGitHubClient creates an authenticated GitHub client
func NewGitHubClient(auth GitHubAuth) (*github.Client, error) {
	if auth.Token != "" {
		return github.NewClient(nil).WithAuthToken(auth.Token), nil
	}

	if auth.AppID == 0 || auth.InstallationID == 0 || auth.PrivateKeyFile == "" {
		return nil, errors.ErrGitHubAuthRequired
	}

	transport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, auth.AppID, auth.InstallationID, auth.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}

	return github.NewClient(&http.Client{Transport: transport}), nil
}

type GitHubService struct {
	client *github.Client
}

// WorkflowRun is a summary of a single workflow run
type WorkflowRun struct {
	ID         int64
	Number     int
	Event      string
	Branch     string
	Status     string
	Conclusion string
	URL        string
	CreatedAt  time.Time
}

func NewGitHubService(client *github.Client) *GitHubService {
	return &GitHubService{
		client: client,
	}
}

// Dispatch fires workflow_dispatch for a generated workflow at ref
func (g *GitHubService) Dispatch(ctx context.Context, owner, repo, workflowName, ref string) error {
	_, err := g.client.Actions.CreateWorkflowDispatchEventByFileName(ctx, owner, repo, workflow.FileName(workflowName), github.CreateWorkflowDispatchEventRequest{
		Ref: ref,
	})
	if err != nil {
		return fmt.Errorf("failed to dispatch workflow %s: %w", workflowName, err)
	}
	return nil
}

// LatestRuns returns up to limit of the most recent runs of a workflow
func (g *GitHubService) LatestRuns(ctx context.Context, owner, repo, workflowName string, limit int) ([]WorkflowRun, error) {
	if limit <= 0 {
		limit = 5
	}

	result, _, err := g.client.Actions.ListWorkflowRunsByFileName(ctx, owner, repo, workflow.FileName(workflowName), &github.ListWorkflowRunsOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for workflow %s: %w", workflowName, err)
	}

	var runs []WorkflowRun
	for _, run := range result.WorkflowRuns {
		if len(runs) == limit {
			break
		}
		runs = append(runs, WorkflowRun{
			ID:         run.GetID(),
			Number:     run.GetRunNumber(),
			Event:      run.GetEvent(),
			Branch:     run.GetHeadBranch(),
			Status:     run.GetStatus(),
			Conclusion: run.GetConclusion(),
			URL:        run.GetHTMLURL(),
			CreatedAt:  run.GetCreatedAt().Time,
		})
	}

	return runs, nil
}

// ParseRepo splits "owner/repo"
func ParseRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w, got: %s", errors.ErrInvalidRepoFormat, fullName)
	}
	return parts[0], parts[1], nil
}
