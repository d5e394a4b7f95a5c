package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/savaki/cicd-helper/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGitHubService(t *testing.T, handler http.Handler) *GitHubService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	return NewGitHubService(client)
}

func TestGitHubService_Dispatch(t *testing.T) {
	var gotRef string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/infra/actions/workflows/cdk-deploy-dev.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Ref string `json:"ref"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRef = body.Ref
		w.WriteHeader(http.StatusNoContent)
	})

	svc := testGitHubService(t, mux)
	require.NoError(t, svc.Dispatch(context.Background(), "acme", "infra", "cdk-deploy-dev", "main"))
	assert.Equal(t, "main", gotRef)
}

func TestGitHubService_Dispatch_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/infra/actions/workflows/cdk-deploy-dev.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	svc := testGitHubService(t, mux)
	err := svc.Dispatch(context.Background(), "acme", "infra", "cdk-deploy-dev", "main")
	assert.ErrorContains(t, err, "failed to dispatch workflow cdk-deploy-dev")
}

func TestGitHubService_LatestRuns(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/infra/actions/workflows/cdk-deploy-stg.yml/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`{
			"total_count": 3,
			"workflow_runs": [
				{"id": 30, "run_number": 3, "event": "workflow_run", "head_branch": "main", "status": "completed", "conclusion": "success", "html_url": "https://github.com/acme/infra/actions/runs/30", "created_at": "2026-01-02T15:04:05Z"},
				{"id": 20, "run_number": 2, "event": "workflow_dispatch", "head_branch": "main", "status": "in_progress", "html_url": "https://github.com/acme/infra/actions/runs/20", "created_at": "2026-01-01T15:04:05Z"},
				{"id": 10, "run_number": 1, "event": "workflow_run", "head_branch": "main", "status": "completed", "conclusion": "failure"}
			]
		}`))
	})

	svc := testGitHubService(t, mux)
	runs, err := svc.LatestRuns(context.Background(), "acme", "infra", "cdk-deploy-stg", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, int64(30), runs[0].ID)
	assert.Equal(t, 3, runs[0].Number)
	assert.Equal(t, "workflow_run", runs[0].Event)
	assert.Equal(t, "success", runs[0].Conclusion)
	assert.Equal(t, 2026, runs[0].CreatedAt.Year())

	assert.Equal(t, "in_progress", runs[1].Status)
	assert.Empty(t, runs[1].Conclusion)
}

func TestNewGitHubClient(t *testing.T) {
	client, err := NewGitHubClient(GitHubAuth{Token: "ghp_test"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewGitHubClient(GitHubAuth{})
	assert.ErrorIs(t, err, errors.ErrGitHubAuthRequired)

	_, err = NewGitHubClient(GitHubAuth{AppID: 1, InstallationID: 2, PrivateKeyFile: "/does/not/exist.pem"})
	assert.Error(t, err)
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo("acme/infra")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "infra", repo)

	for _, bad := range []string{"acme", "/infra", "acme/", ""} {
		_, _, err := ParseRepo(bad)
		assert.ErrorIs(t, err, errors.ErrInvalidRepoFormat, bad)
	}
}
