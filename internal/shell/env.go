package shell

import (
	"fmt"
	"sort"

	"github.com/joho/godotenv"
)

// LoadEnvFiles reads KEY=VALUE files and returns them as sorted environment
// entries. Keys in later files override earlier ones.
func LoadEnvFiles(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	vars, err := godotenv.Read(paths...)
	if err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}
