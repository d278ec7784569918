package vault

import (
	"fmt"
	"os"

	v "github.com/hashicorp/vault/api"
)

type Vault = v.Client

type VaultManager struct {
	Api      *Vault
	Services *Vault
}

func NewVaultManager() (VaultManager, error) {
	config := v.Config{
		Address: os.Getenv("VAULT_ADDR"),
	}

	api, err := v.NewClient(&config)
	if err != nil {
		return VaultManager{}, fmt.Errorf("failed to create Vault client: %w", err)
	}

	services, err := v.NewClient(&config)
	if err != nil {
		return VaultManager{}, fmt.Errorf("failed to create Vault client: %w", err)
	}

	vault_manager := VaultManager{
		Api:      api,
		Services: services,
	}
	return vault_manager, nil
}

func (manager *VaultManager) Health() bool {
	api_health, err := manager.Api.Sys().Health()
	if err != nil {
		return false
	}
	services_health, err := manager.Services.Sys().Health()
	if err != nil {
		return false
	}

	return (api_health.Initialized && !api_health.Sealed) &&
		(services_health.Initialized && !services_health.Sealed)
}

func (manager *VaultManager) readSecretValue(client *Vault, path string) (string, error) {
	secret, err := client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret found at path: %s", path)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid secret data format at path: %s", path)
	}
	key, ok := data["value"].(string)
	if !ok {
		return "", fmt.Errorf("key not found or invalid in secret data at path: %s", path)
	}
	return key, nil
}

func (manager *VaultManager) GetCachePwd() (string, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		return os.Getenv("CACHE_PASSWORD"), nil
	}
	return manager.readSecretValue(manager.Services, "services/data/cache/textwar_pwd")
}

func (manager *VaultManager) GetDbPwd() (string, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		return os.Getenv("DB_PASSWORD"), nil
	}
	return manager.readSecretValue(manager.Services, "services/data/db/textwar_pwd")
}

// GetApiKey reads a named external API credential, e.g. OPENAI_API_KEY,
// TEXTWAR_JWT_KEY or STORAGE_SERVICE_KEY. When VAULT_ADDR is unset the value
// falls back to the environment so local runs do not need a Vault.
func (manager *VaultManager) GetApiKey(name string) (string, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		value := os.Getenv(name)
		if value == "" {
			return "", fmt.Errorf("no vault configured and %s not set in environment", name)
		}
		return value, nil
	}
	path := fmt.Sprintf("api/data/%s", name)
	return manager.readSecretValue(manager.Api, path)
}
