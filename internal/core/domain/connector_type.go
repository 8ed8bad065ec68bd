package domain

import (
	"fmt"
	"strings"
)

// AuthMethod defines how a connector authenticates.
type AuthMethod string

const (
	// AuthMethodNone requires no authentication.
	AuthMethodNone AuthMethod = "none"
	// AuthMethodPAT uses a Personal Access Token or integration secret.
	AuthMethodPAT AuthMethod = "pat"
	// AuthMethodOAuth uses an OAuth 2.0 access token obtained elsewhere.
	AuthMethodOAuth AuthMethod = "oauth"
)

// RequiresAuth returns true if the method needs bearer material.
func (m AuthMethod) RequiresAuth() bool {
	return m != AuthMethodNone && m != ""
}

// ConnectorType describes a supported connector.
type ConnectorType struct {
	// ID is the unique identifier (e.g., "github", "google-drive").
	ID string
	// Name is the human-readable display name.
	Name string
	// Description provides a brief explanation of the connector.
	Description string
	// AuthMethod is the declared auth-type tag for the connector.
	AuthMethod AuthMethod
	// ConfigKeys lists the configuration fields read by this connector.
	ConfigKeys []ConfigKey
}

// RequiresAuth returns true if this connector requires authentication.
func (c *ConnectorType) RequiresAuth() bool {
	return c.AuthMethod.RequiresAuth()
}

// ValidateConfig checks that every required key has a value.
// The returned error names the first missing key.
func (c *ConnectorType) ValidateConfig(config map[string]string) error {
	var missing []string
	for _, key := range c.ConfigKeys {
		if !key.Required {
			continue
		}
		if strings.TrimSpace(config[key.Key]) == "" {
			missing = append(missing, key.Key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrMissingConfig, c.ID, strings.Join(missing, ", "))
	}
	return nil
}

// ConfigKey describes a configuration field for a connector.
type ConfigKey struct {
	// Key is the configuration key name.
	Key string
	// Label is the human-readable label for display.
	Label string
	// Description explains what this field is for.
	Description string
	// Default is the default value for this field.
	Default string
	// Required indicates whether this field must be provided.
	Required bool
	// Secret indicates whether this field should be masked on output.
	Secret bool
}
