package translate

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"

	"tolk/internal/config"
	"tolk/internal/services"
)

// KeyringService is the service name under which API keys are stored in the
// system keyring. The user (account) is the backend name.
const KeyringService = "tolk"

// resolveAPIKey returns the configured key, falling back to the system
// keyring when enabled. A missing keyring entry is not an error.
func resolveAPIKey(cfg config.ModelConfig) (string, error) {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, nil
	}
	if !cfg.Keyring {
		return "", nil
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = config.BackendLLM
	}
	secret, err := keyring.Get(KeyringService, backend)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", services.Wrap(services.ErrConfiguration, "translate", "keyring", "read api key", err)
	}
	return strings.TrimSpace(secret), nil
}

// StoreAPIKey saves an API key for backend in the system keyring.
func StoreAPIKey(backend, secret string) error {
	backend = strings.TrimSpace(backend)
	if backend == "" {
		return services.Wrap(services.ErrValidation, "translate", "keyring", "backend required", nil)
	}
	if err := keyring.Set(KeyringService, backend, strings.TrimSpace(secret)); err != nil {
		return services.Wrap(services.ErrConfiguration, "translate", "keyring", "store api key", err)
	}
	return nil
}
