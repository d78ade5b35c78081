package github

import (
	"context"

	"github.com/google/go-github/v72/github"

	"github.com/wizbi/wizbi/internal/constants"
)

// TriggerDeployment dispatches the deploy workflow on both branches. The
// trigger is best-effort: a failed dispatch is logged and never fails the
// caller, since the workflow can be started by hand.
func (c *Client) TriggerDeployment(ctx context.Context, repoName string) {
	for _, ref := range []string{constants.MainBranch, constants.DevBranch} {
		_, err := c.actions.CreateWorkflowDispatchEventByFileName(ctx, c.owner, repoName, constants.DeployWorkflowFile,
			github.CreateWorkflowDispatchEventRequest{Ref: ref})
		if err != nil {
			c.logger.Warn("deploy workflow dispatch failed", "repo", repoName, "ref", ref, "error", err)
			continue
		}
		c.logger.Info("deploy workflow dispatched", "repo", repoName, "ref", ref)
	}
}
