package github

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/go-github/v72/github"
	"golang.org/x/crypto/nacl/box"
)

// CreateRepoSecrets uploads each secret as a GitHub Actions repository
// secret. Values are sealed to the repository's public key before leaving the
// process; plaintext is never persisted or logged.
func (c *Client) CreateRepoSecrets(ctx context.Context, repoName string, values map[string][]byte) error {
	key, _, err := c.actions.GetRepoPublicKey(ctx, c.owner, repoName)
	if err != nil {
		return fmt.Errorf("get repository public key: %w", err)
	}

	recipientKey, err := decodePublicKey(key.GetKey())
	if err != nil {
		return err
	}

	for name, value := range values {
		sealed, err := box.SealAnonymous(nil, value, recipientKey, rand.Reader)
		if err != nil {
			return fmt.Errorf("seal secret %s: %w", name, err)
		}

		secret := &github.EncryptedSecret{
			Name:           name,
			KeyID:          key.GetKeyID(),
			EncryptedValue: base64.StdEncoding.EncodeToString(sealed),
		}
		if _, err := c.actions.CreateOrUpdateRepoSecret(ctx, c.owner, repoName, secret); err != nil {
			return fmt.Errorf("upload secret %s: %w", name, err)
		}

		c.logger.Info("repository secret set", "repo", repoName, "secret", name)
	}

	return nil
}

func decodePublicKey(encoded string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode repository public key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("unexpected public key length %d", len(raw))
	}

	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
