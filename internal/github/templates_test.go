package github

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTemplateRenamesManifestOnly(t *testing.T) {
	fake := &fakeGitHub{
		contents: map[string]string{
			"package.json": `{
  "name": "tpl-base",
  "version": "1.0.0",
  "author": {"name": "Platform Team"},
  "contributors": [{"name": "Someone Else"}]
}`,
		},
	}
	client := newTestClient(fake)

	url, err := client.CreateTemplate(context.Background(), "tpl-api", "API starter", "tpl-base")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/wizbi/tpl-api", url)

	assert.Equal(t, []string{"tpl-base->tpl-api"}, fake.templateReqs)

	// Only the manifest's own name changes; nested name fields survive.
	require.Contains(t, fake.updatedFiles, "main:package.json")
	assert.Equal(t, `{
  "name": "tpl-api",
  "version": "1.0.0",
  "author": {"name": "Platform Team"},
  "contributors": [{"name": "Someone Else"}]
}`, fake.updatedFiles["main:package.json"])

	require.Len(t, fake.editedRepos, 1)
	assert.True(t, fake.editedRepos[0].GetIsTemplate())
}

func TestCreateTemplateManifestAlreadyNamed(t *testing.T) {
	fake := &fakeGitHub{
		contents: map[string]string{
			"package.json": `{"name": "tpl-api"}`,
		},
	}
	client := newTestClient(fake)

	_, err := client.CreateTemplate(context.Background(), "tpl-api", "API starter", "tpl-base")
	require.NoError(t, err)

	assert.NotContains(t, fake.updatedFiles, "main:package.json")
}

func TestCreateTemplateMissingManifestTolerated(t *testing.T) {
	fake := &fakeGitHub{contents: map[string]string{}}
	client := newTestClient(fake)

	_, err := client.CreateTemplate(context.Background(), "tpl-api", "API starter", "tpl-base")
	require.NoError(t, err)

	require.Len(t, fake.editedRepos, 1)
	assert.True(t, fake.editedRepos[0].GetIsTemplate())
}
