package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v72/github"

	"github.com/wizbi/wizbi/internal/constants"
)

// TemplateData carries the values substituted for placeholder tokens inside
// a newly instantiated repository.
type TemplateData struct {
	ProjectID   string
	DisplayName string
	Region      string
	RepoURL     string
}

func (d TemplateData) replacements() map[string]string {
	return map[string]string{
		constants.PlaceholderProjectID:   d.ProjectID,
		constants.PlaceholderDisplayName: d.DisplayName,
		constants.PlaceholderRegion:      d.Region,
		constants.PlaceholderRepoURL:     d.RepoURL,
	}
}

// CreateRepoFromTemplate instantiates a private repository from the named
// template, waits until it is readable, grants the organization team admin on
// it, creates the dev branch and rewrites the placeholder files on both
// branches. Returns the repository's browse URL.
func (c *Client) CreateRepoFromTemplate(ctx context.Context, repoName, teamSlug, templateName string, data TemplateData) (string, error) {
	log := c.logger.With("repo", repoName)

	req := &github.TemplateRepoRequest{
		Name:    github.Ptr(repoName),
		Owner:   github.Ptr(c.owner),
		Private: github.Ptr(true),
	}
	_, _, err := c.repos.CreateFromTemplate(ctx, c.owner, templateName, req)
	if isAlreadyExists(err) {
		log.Info("repository already exists, continuing")
	} else if err != nil {
		return "", fmt.Errorf("create repository from template: %w", err)
	}

	mainSHA, err := c.waitRepoReady(ctx, repoName)
	if err != nil {
		return "", err
	}

	if _, err := c.teams.AddTeamRepoBySlug(ctx, c.owner, teamSlug, c.owner, repoName, &github.TeamAddTeamRepoOptions{
		Permission: constants.TeamAdminPermission,
	}); err != nil {
		return "", fmt.Errorf("grant team permission: %w", err)
	}

	if err := c.createBranch(ctx, repoName, constants.DevBranch, mainSHA); err != nil {
		return "", err
	}

	replacements := data.replacements()
	for _, branch := range []string{constants.MainBranch, constants.DevBranch} {
		for _, path := range constants.TemplatedFiles {
			if err := c.rewriteFile(ctx, repoName, branch, path, replacements); err != nil {
				return "", err
			}
		}
	}

	return c.RepoURL(repoName), nil
}

// waitRepoReady polls the main branch ref until the repository's git data is
// readable. Template instantiation is asynchronous on GitHub's side, so the
// first reads can fail with "not found" or "empty repository"; anything else
// is a real error. Returns the main branch head SHA.
func (c *Client) waitRepoReady(ctx context.Context, repoName string) (string, error) {
	for attempt := 1; attempt <= constants.RepoReadyMaxAttempts; attempt++ {
		ref, _, err := c.git.GetRef(ctx, c.owner, repoName, "heads/"+constants.MainBranch)
		if err == nil {
			return ref.GetObject().GetSHA(), nil
		}
		if !isNotFound(err) && !isEmptyRepository(err) {
			return "", fmt.Errorf("check repository readiness: %w", err)
		}

		c.logger.Debug("repository not ready yet", "repo", repoName, "attempt", attempt)
		if err := c.sleep(ctx, constants.RepoReadyDelay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("repository %s not ready after %d attempts", repoName, constants.RepoReadyMaxAttempts)
}

// createBranch points a new branch at the given commit. An existing branch is
// left untouched.
func (c *Client) createBranch(ctx context.Context, repoName, branch, sha string) error {
	ref := &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.Ptr(sha)},
	}
	_, _, err := c.git.CreateRef(ctx, c.owner, repoName, ref)
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s branch: %w", branch, err)
	}
	return nil
}

// rewriteFile substitutes placeholder tokens in one file on one branch. A
// missing file is only a warning, and an unchanged file is skipped so the
// history stays free of empty commits.
func (c *Client) rewriteFile(ctx context.Context, repoName, branch, path string, replacements map[string]string) error {
	fileContent, _, _, err := c.repos.GetContents(ctx, c.owner, repoName, path, &github.RepositoryContentGetOptions{
		Ref: branch,
	})
	if isNotFound(err) {
		c.logger.Warn("templated file missing", "repo", repoName, "branch", branch, "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s on %s: %w", path, branch, err)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return fmt.Errorf("decode %s on %s: %w", path, branch, err)
	}

	rendered := renderPlaceholders(content, replacements)
	if rendered == content {
		return nil
	}

	_, _, err = c.repos.UpdateFile(ctx, c.owner, repoName, path, &github.RepositoryContentFileOptions{
		Message: github.Ptr("Configure " + path + " for project"),
		Content: []byte(rendered),
		SHA:     fileContent.SHA,
		Branch:  github.Ptr(branch),
	})
	if err != nil {
		return fmt.Errorf("update %s on %s: %w", path, branch, err)
	}
	return nil
}

func renderPlaceholders(content string, replacements map[string]string) string {
	for token, value := range replacements {
		content = strings.ReplaceAll(content, token, value)
	}
	return content
}

// DeleteRepo removes a repository, treating "not found" as success.
func (c *Client) DeleteRepo(ctx context.Context, repoName string) error {
	_, err := c.repos.Delete(ctx, c.owner, repoName)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	return nil
}
