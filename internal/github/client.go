// Package github provisions tenant source repositories. It instantiates
// repositories from templates, rewrites placeholder configuration, injects
// encrypted CI secrets, and manages the per-organization teams.
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v72/github"
	"golang.org/x/oauth2"
)

// RepositoriesService is the subset of the GitHub repositories API the
// provisioner uses.
type RepositoriesService interface {
	CreateFromTemplate(ctx context.Context, templateOwner, templateRepo string, req *github.TemplateRepoRequest) (*github.Repository, *github.Response, error)
	Edit(ctx context.Context, owner, repo string, repository *github.Repository) (*github.Repository, *github.Response, error)
	Delete(ctx context.Context, owner, repo string) (*github.Response, error)
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
	UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
}

// GitService is the subset of the GitHub git-data API the provisioner uses.
type GitService interface {
	GetRef(ctx context.Context, owner, repo, ref string) (*github.Reference, *github.Response, error)
	CreateRef(ctx context.Context, owner, repo string, ref *github.Reference) (*github.Reference, *github.Response, error)
}

// TeamsService is the subset of the GitHub teams API the provisioner uses.
type TeamsService interface {
	CreateTeam(ctx context.Context, org string, team github.NewTeam) (*github.Team, *github.Response, error)
	GetTeamBySlug(ctx context.Context, org, slug string) (*github.Team, *github.Response, error)
	DeleteTeamBySlug(ctx context.Context, org, slug string) (*github.Response, error)
	AddTeamRepoBySlug(ctx context.Context, org, slug, owner, repo string, opts *github.TeamAddTeamRepoOptions) (*github.Response, error)
}

// ActionsService is the subset of the GitHub actions API the provisioner uses.
type ActionsService interface {
	GetRepoPublicKey(ctx context.Context, owner, repo string) (*github.PublicKey, *github.Response, error)
	CreateOrUpdateRepoSecret(ctx context.Context, owner, repo string, secret *github.EncryptedSecret) (*github.Response, error)
	CreateWorkflowDispatchEventByFileName(ctx context.Context, owner, repo, workflowFileName string, event github.CreateWorkflowDispatchEventRequest) (*github.Response, error)
}

// Client provisions repositories and teams in one GitHub organization.
type Client struct {
	owner   string
	repos   RepositoriesService
	git     GitService
	teams   TeamsService
	actions ActionsService
	logger  *slog.Logger

	// sleep paces the repository readiness poll. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates an authenticated client for the given organization.
func NewClient(ctx context.Context, token, owner string, logger *slog.Logger) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	return &Client{
		owner:   owner,
		repos:   gh.Repositories,
		git:     gh.Git,
		teams:   gh.Teams,
		actions: gh.Actions,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// RepoURL builds the browse URL for a repository in the organization.
func (c *Client) RepoURL(repoName string) string {
	return "https://github.com/" + c.owner + "/" + repoName
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func errorStatus(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

func isNotFound(err error) bool {
	return errorStatus(err) == http.StatusNotFound
}

// isAlreadyExists covers both 409 conflicts and GitHub's 422 validation
// response for name collisions ("name already exists on this account").
func isAlreadyExists(err error) bool {
	switch errorStatus(err) {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(err.Error()), "already exists")
	}
	return false
}

// isEmptyRepository detects the 409 GitHub returns while a freshly templated
// repository has no readable git data yet.
func isEmptyRepository(err error) bool {
	return errorStatus(err) == http.StatusConflict &&
		strings.Contains(strings.ToLower(err.Error()), "empty")
}
