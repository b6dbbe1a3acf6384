package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LookupFunc looks up a key from an environment. The boolean is false when
// the key is absent; a present key may hold an empty value.
type LookupFunc func(key string) (string, bool)

// OSLookup reads the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapLookup serves lookups from vars.
func MapLookup(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := vars[key]
		return value, ok
	}
}

// Chain consults each lookup in order and returns the first hit. Nil
// lookups are skipped.
func Chain(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if value, ok := lookup(key); ok {
				return value, true
			}
		}
		return "", false
	}
}

// FileLookup reads dotenv files. Later files override earlier ones. With no
// paths it returns a lookup that never hits.
func FileLookup(paths ...string) (LookupFunc, error) {
	if len(paths) == 0 {
		return MapLookup(nil), nil
	}

	merged := make(map[string]string)
	for _, path := range paths {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range vars {
			merged[k] = v
		}
	}
	return MapLookup(merged), nil
}
