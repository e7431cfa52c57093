package command

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// curlArgs makes curl silent, follow redirects, discard the body, accept
// any certificate and print only the average download speed in bytes/s.
var curlArgs = []string{"-s", "-L", "-o", "/dev/null", "-k", "-w", "%{speed_download}"}

// Probe downloads url with curl and returns the achieved rate in bytes per
// second. ok is false when the transfer produced no rate; err is set only
// for tool-level failures.
func (r *Runner) Probe(ctx context.Context, url string) (float64, bool, error) {
	args := append(append([]string{}, curlArgs...), url)
	out, err := r.run(ctx, r.curlPath, args...)
	if err != nil {
		return 0, false, err
	}

	// With -s curl keeps stderr empty for transfer failures, so anything
	// written there is a problem with the tool itself.
	if out.stderr != "" {
		return 0, false, newToolError(r.curlPath, args, out)
	}

	rate, ok, err := parseSpeed(out.stdout)
	if err != nil {
		return 0, false, &ToolError{Tool: r.curlPath, Args: args, Err: err}
	}
	if !ok {
		r.logger.Debug("probe produced no rate", "url", url, "exit_code", out.exitCode)
		return 0, false, nil
	}
	return rate, true, nil
}

// parseSpeed parses curl's %{speed_download} output.
func parseSpeed(data []byte) (float64, bool, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, false, nil
	}
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("unexpected speed output %q: %w", s, err)
	}
	if !(rate > 0) || math.IsInf(rate, 1) {
		return 0, false, nil
	}
	return rate, true, nil
}
