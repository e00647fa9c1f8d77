// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotenvFile is the environment file looked up in a project root.
const DotenvFile = ".env"

// LoadDotenv reads dir/.env. A missing file yields an empty map.
func LoadDotenv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, DotenvFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}
	return env, nil
}
