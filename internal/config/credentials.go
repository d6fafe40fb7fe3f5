package config

import "fmt"

// SecretSource looks up named secrets.
type SecretSource interface {
	Get(key string) (string, error)
}

// ResolveAPIToken returns the bot token from the config or environment, or
// from secrets when only api_token_secret is set. Placeholder values count
// as missing.
func (c *Config) ResolveAPIToken(secrets SecretSource) (string, error) {
	if t := c.Telegram.APIToken; t != "" && !IsPlaceholder(t) {
		return t, nil
	}
	name := c.Telegram.APITokenSecret
	if name == "" {
		return "", fmt.Errorf("%w: telegram.api_token", ErrMissing)
	}
	if secrets == nil {
		return "", fmt.Errorf("%w: secret store for %s", ErrMissing, name)
	}
	token, err := secrets.Get(name)
	if err != nil {
		return "", fmt.Errorf("failed to read api token secret %s: %w", name, err)
	}
	return token, nil
}
