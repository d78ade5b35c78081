package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v72/github"
)

// CreateTeam creates a closed team for an organization and returns its ID and
// slug. An existing team with the same name is looked up and reused.
func (c *Client) CreateTeam(ctx context.Context, name, slug string) (int64, string, error) {
	team, _, err := c.teams.CreateTeam(ctx, c.owner, github.NewTeam{
		Name:    name,
		Privacy: github.Ptr("closed"),
	})
	if isAlreadyExists(err) {
		existing, _, getErr := c.teams.GetTeamBySlug(ctx, c.owner, slug)
		if getErr != nil {
			return 0, "", fmt.Errorf("look up existing team: %w", getErr)
		}
		return existing.GetID(), existing.GetSlug(), nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("create team: %w", err)
	}
	return team.GetID(), team.GetSlug(), nil
}

// DeleteTeam removes a team, treating "not found" as success.
func (c *Client) DeleteTeam(ctx context.Context, slug string) error {
	_, err := c.teams.DeleteTeamBySlug(ctx, c.owner, slug)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}
