package di

import (
	"github.com/google/go-github/v68/github"
	"github.com/savaki/cicd-helper/internal/services"
)

// ProvideGitHubClient authenticates with the token or GitHub App
// credentials passed via WithGitHubAuth
func ProvideGitHubClient(auth services.GitHubAuth) (*github.Client, error) {
	return services.NewGitHubClient(auth)
}
