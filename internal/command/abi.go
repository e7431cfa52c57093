package command

import (
	"context"
	"errors"
	"regexp"
)

// ErrABINotFound is returned when pkg output carries no ABI line.
var ErrABINotFound = errors.New("ABI not found in pkg output")

var abiRegex = regexp.MustCompile(`(?m)^\s*ABI\s*=\s*"([^"]+)"`)

// ResolveABI runs `pkg -vv` and returns the platform ABI token,
// for example "FreeBSD:14:amd64".
func (r *Runner) ResolveABI(ctx context.Context) (string, error) {
	args := []string{"-vv"}
	out, err := r.run(ctx, r.pkgPath, args...)
	if err != nil {
		return "", err
	}
	if out.exitCode != 0 || out.stderr != "" {
		return "", newToolError(r.pkgPath, args, out)
	}

	abi, ok := parseABI(out.stdout)
	if !ok {
		return "", ErrABINotFound
	}

	r.logger.Debug("resolved ABI", "abi", abi)
	return abi, nil
}

// parseABI extracts the token from a line of the form `ABI = "<token>";`.
func parseABI(data []byte) (string, bool) {
	m := abiRegex.FindSubmatch(data)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}
