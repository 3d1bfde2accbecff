package crypto

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// VaultKeySource fetches signing key material from a Vault KV v2 secret.
// The secret is expected to carry the PEM-encoded private key under the
// "private_key" field.
type VaultKeySource struct {
	client    *vault.Client
	mountPath string
	secretKey string
}

// NewVaultKeySource builds a source against the given Vault address and
// token. mountPath is the KV v2 mount (for example "secret"), secretKey
// the path of the signing key secret under it.
func NewVaultKeySource(address, token, mountPath, secretKey string) (*VaultKeySource, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = address
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(token)
	return &VaultKeySource{client: client, mountPath: mountPath, secretKey: secretKey}, nil
}

// Load fetches the key material and constructs a KeyManager from it.
func (s *VaultKeySource) Load(ctx context.Context) (*KeyManager, error) {
	secret, err := s.client.KVv2(s.mountPath).Get(ctx, s.secretKey)
	if err != nil {
		return nil, fmt.Errorf("read signing key from vault: %w", err)
	}
	pemData, ok := secret.Data["private_key"].(string)
	if !ok || pemData == "" {
		return nil, fmt.Errorf("vault secret %s/%s has no private_key field", s.mountPath, s.secretKey)
	}
	key, err := ParseRSAPrivateKeyPEM([]byte(pemData))
	if err != nil {
		return nil, err
	}
	return newKeyManager(key)
}
