// Package cache provides the translation memo table and the shared stores
// that can sit behind it.
package cache

// Backend is a key/value store shared between memo tables.
type Backend interface {
	// Get retrieves a stored translation. Returns empty string and false if
	// not found or expired.
	Get(key string) (string, bool)

	// SetIfAbsent stores value unless key already holds one, and reports
	// whether it was stored.
	SetIfAbsent(key string, value string) (bool, error)
}
