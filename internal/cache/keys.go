package cache

import "strings"

const (
	GlobalKeyPrefix = "studyquiz"

	// Credential hash fields.
	FieldToken       = "token"
	FieldLastSection = "last_section"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// CredentialKey is the hash holding the bearer token and last section for one profile.
func CredentialKey(profile string) string {
	if strings.TrimSpace(profile) == "" {
		profile = "default"
	}
	return GenerateCacheKey("auth", "credential", profile)
}
