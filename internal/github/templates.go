package github

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/go-github/v72/github"

	"github.com/wizbi/wizbi/internal/constants"
)

var manifestNamePattern = regexp.MustCompile(`("name"\s*:\s*")[^"]*(")`)

// CreateTemplate authors a new project template from the base template
// repository: instantiate, wait for readiness, rename the package manifest,
// and mark the result as a template so projects can be created from it.
func (c *Client) CreateTemplate(ctx context.Context, name, description, baseTemplateRepo string) (string, error) {
	log := c.logger.With("template", name)

	req := &github.TemplateRepoRequest{
		Name:        github.Ptr(name),
		Owner:       github.Ptr(c.owner),
		Private:     github.Ptr(true),
		Description: github.Ptr(description),
	}
	_, _, err := c.repos.CreateFromTemplate(ctx, c.owner, baseTemplateRepo, req)
	if isAlreadyExists(err) {
		log.Info("template repository already exists, continuing")
	} else if err != nil {
		return "", fmt.Errorf("create template repository: %w", err)
	}

	if _, err := c.waitRepoReady(ctx, name); err != nil {
		return "", err
	}

	if err := c.renameManifest(ctx, name); err != nil {
		return "", err
	}

	_, _, err = c.repos.Edit(ctx, c.owner, name, &github.Repository{
		IsTemplate:  github.Ptr(true),
		Description: github.Ptr(description),
	})
	if err != nil {
		return "", fmt.Errorf("mark repository as template: %w", err)
	}

	return c.RepoURL(name), nil
}

// renameManifest points the package manifest's name field at the new template
// so instantiated projects do not inherit the base template's name.
func (c *Client) renameManifest(ctx context.Context, repoName string) error {
	const path = "package.json"

	fileContent, _, _, err := c.repos.GetContents(ctx, c.owner, repoName, path, &github.RepositoryContentGetOptions{
		Ref: constants.MainBranch,
	})
	if isNotFound(err) {
		c.logger.Warn("package manifest missing", "repo", repoName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read package manifest: %w", err)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return fmt.Errorf("decode package manifest: %w", err)
	}

	// Only the first name field is the manifest's own; nested ones (author,
	// contributors) must be left alone.
	match := manifestNamePattern.FindStringSubmatchIndex(content)
	if match == nil {
		return nil
	}
	renamed := content[:match[3]] + repoName + content[match[4]:]
	if renamed == content {
		return nil
	}

	_, _, err = c.repos.UpdateFile(ctx, c.owner, repoName, path, &github.RepositoryContentFileOptions{
		Message: github.Ptr("Rename package manifest"),
		Content: []byte(renamed),
		SHA:     fileContent.SHA,
		Branch:  github.Ptr(constants.MainBranch),
	})
	if err != nil {
		return fmt.Errorf("update package manifest: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template repository, treating "not found" as
// success.
func (c *Client) DeleteTemplate(ctx context.Context, name string) error {
	return c.DeleteRepo(ctx, name)
}
