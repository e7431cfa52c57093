package safety

import (
	"fmt"
	"path/filepath"
	"strings"
)

// shellUnsafe lists characters that would break out of the single-quoted or
// bare shell words the reporter prints.
const shellUnsafe = "'\"`$\\;&|<>(){}*?!~#\n\r\t "

// CleanShellPath validates a path that is printed into copy-paste shell
// commands. It must be absolute and free of shell metacharacters.
func CleanShellPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is empty")
	}
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("path must be absolute: %q", p)
	}
	if i := strings.IndexAny(p, shellUnsafe); i >= 0 {
		return "", fmt.Errorf("path contains shell metacharacter %q: %q", p[i], p)
	}
	clean := filepath.Clean(p)
	if clean == "/" {
		return "", fmt.Errorf("path resolves to the root directory")
	}
	return clean, nil
}
