package cache

import "strings"

const (
	GlobalKeyPrefix = "quizlens"

	serviceSession = "session"
	objectState    = "state"
	objectImage    = "image"
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

// SessionStateKey is where the state of one session is stored.
func SessionStateKey(sessionID string) string {
	return GenerateCacheKey(serviceSession, objectState, sessionID)
}

// SessionImageKey is where an uploaded image's bytes are stored.
func SessionImageKey(imageID string) string {
	return GenerateCacheKey(serviceSession, objectImage, imageID)
}
