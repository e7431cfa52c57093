// Package report renders benchmark results for people and for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/FlorianHeigl/fastest-pkg/internal/mirror"
	"github.com/FlorianHeigl/fastest-pkg/internal/safety"
)

// DefaultRepoConfig is where pkg(8) reads per-repository overrides.
const DefaultRepoConfig = "/usr/local/etc/pkg/repos/FreeBSD.conf"

// Stanza returns the pkg repository stanza pinning the FreeBSD repo to host.
// ${ABI} is left for pkg to expand.
func Stanza(host string) string {
	return fmt.Sprintf(`FreeBSD: { url: "http://%s/${ABI}/latest" }`, host)
}

// FormatRate renders bytes per second as KB/s with one decimal, using
// 1 KB = 1000 bytes.
func FormatRate(bytesPerSecond float64) string {
	return fmt.Sprintf("%.1f KB/s", bytesPerSecond/1000)
}

// WriteMeasurement writes a single "<mirror>\t<rate>" line.
func WriteMeasurement(w io.Writer, r mirror.Result) error {
	_, err := fmt.Fprintf(w, "%s\t%s\n", r.Mirror, FormatRate(r.BytesPerSecond))
	return err
}

// WriteSummary names the fastest mirror and prints the shell commands that
// install its stanza at repoConfig. It returns mirror.ErrNoResults when
// results is empty.
func WriteSummary(w io.Writer, results []mirror.Result, repoConfig string) error {
	fastest, err := mirror.Fastest(results)
	if err != nil {
		return err
	}

	path, err := safety.CleanShellPath(repoConfig)
	if err != nil {
		return fmt.Errorf("repository config path: %w", err)
	}

	ew := &errWriter{w: w}
	ew.printf("\nFastest:\n")
	ew.printf("%s\t%s\n", fastest.Mirror, FormatRate(fastest.BytesPerSecond))
	ew.printf("\nWrite configuration:\n")
	ew.printf("mkdir -p %s/\n", filepath.Dir(path))
	ew.printf("echo '%s' > %s\n", Stanza(fastest.Mirror), path)
	return ew.err
}

// WriteJSON writes results, fastest first, as a JSON array. An empty input
// produces [].
func WriteJSON(w io.Writer, results []mirror.Result) error {
	ranked := mirror.Rank(results)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ranked); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// errWriter keeps the first write error so a block of output can be
// checked once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
