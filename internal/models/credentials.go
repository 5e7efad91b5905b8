package models

import "github.com/speechgate/speechgate/internal/invokeerr"

// CredentialKeyAPIKey is the field the host places the provider secret under.
const CredentialKeyAPIKey = "api_key"

// Credentials is the caller-supplied secret bundle. It is declared as any
// because the host delivers whatever the caller sent; shape checks happen at
// every public entry point, with no cached validation state in between.
type Credentials any

// APIKey extracts the non-empty api_key from creds. Any shape problem is a
// CredentialsInvalid failure.
func APIKey(creds Credentials) (string, error) {
	mapping, ok := creds.(map[string]any)
	if !ok {
		if typed, okTyped := creds.(map[string]string); okTyped {
			if key := typed[CredentialKeyAPIKey]; key != "" {
				return key, nil
			}
			return "", invokeerr.New(invokeerr.KindCredentialsInvalid, "api key is required")
		}
		return "", invokeerr.New(invokeerr.KindCredentialsInvalid, "credentials must be a mapping")
	}
	key, _ := mapping[CredentialKeyAPIKey].(string)
	if key == "" {
		return "", invokeerr.New(invokeerr.KindCredentialsInvalid, "api key is required")
	}
	return key, nil
}
