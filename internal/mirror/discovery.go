package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// MinPriority is the SRV priority a mirror must exceed to be benchmarked.
// Entries at or below it are the primary/anycast records and are skipped.
const MinPriority = 10

const (
	// DefaultService is the SRV record listing the FreeBSD package mirrors.
	DefaultService = "_http._tcp.pkg.all.freebsd.org"

	defaultLookupTimeout = 5 * time.Second
	defaultResolvConf    = "/etc/resolv.conf"
)

// ErrLookupFailed is returned when the mirror directory cannot be resolved.
var ErrLookupFailed = errors.New("mirror lookup failed")

// Discovery resolves the mirror directory through a DNS SRV query.
type Discovery struct {
	service    string
	servers    []string
	timeout    time.Duration
	resolvConf string
	logger     *slog.Logger
}

// NewDiscovery creates a Discovery for the given SRV service name. When
// servers is empty the nameservers from /etc/resolv.conf are used.
func NewDiscovery(service string, servers []string, timeout time.Duration, logger *slog.Logger) *Discovery {
	if service == "" {
		service = DefaultService
	}
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Discovery{
		service:    service,
		servers:    servers,
		timeout:    timeout,
		resolvConf: defaultResolvConf,
		logger:     logger,
	}
}

// Lookup sends one SRV query and returns the advertised mirrors in answer order.
func (d *Discovery) Lookup(ctx context.Context) ([]Candidate, error) {
	servers, err := d.nameservers()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(d.service), dns.TypeSRV)

	var lastErr error
	for _, server := range servers {
		resp, err := d.exchange(ctx, q, server)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d.logger.Debug("nameserver did not answer", "server", server, "error", err)
			lastErr = err
			continue
		}

		if resp.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("%w: %s returned %s for %s", ErrLookupFailed, server, dns.RcodeToString[resp.Rcode], d.service)
		}

		candidates := parseSRV(resp.Answer)
		d.logger.Info("mirror directory resolved", "service", d.service, "server", server, "mirrors", len(candidates))
		return candidates, nil
	}

	return nil, fmt.Errorf("%w: no nameserver answered for %s: %w", ErrLookupFailed, d.service, lastErr)
}

// exchange asks a single server over UDP and repeats the question over TCP
// when the UDP answer is truncated.
func (d *Discovery) exchange(ctx context.Context, q *dns.Msg, server string) (*dns.Msg, error) {
	client := &dns.Client{Net: "udp", Timeout: d.timeout}
	resp, _, err := client.ExchangeContext(ctx, q, server)
	if err != nil {
		return nil, err
	}
	if !resp.Truncated {
		return resp, nil
	}

	d.logger.Debug("truncated SRV answer, switching to tcp", "server", server)
	client.Net = "tcp"
	resp, _, err = client.ExchangeContext(ctx, q, server)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// nameservers returns the configured servers, falling back to resolv.conf.
func (d *Discovery) nameservers() ([]string, error) {
	if len(d.servers) > 0 {
		out := make([]string, 0, len(d.servers))
		for _, s := range d.servers {
			out = append(out, withDefaultPort(strings.TrimSpace(s), "53"))
		}
		return out, nil
	}

	cc, err := dns.ClientConfigFromFile(d.resolvConf)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.resolvConf, err)
	}
	if len(cc.Servers) == 0 {
		return nil, fmt.Errorf("no nameservers in %s", d.resolvConf)
	}

	out := make([]string, 0, len(cc.Servers))
	for _, s := range cc.Servers {
		out = append(out, net.JoinHostPort(s, cc.Port))
	}
	return out, nil
}

func withDefaultPort(server, port string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), port)
}

// parseSRV extracts SRV targets from an answer section, ignoring other RR
// types and "." targets (service not available at that entry).
func parseSRV(answer []dns.RR) []Candidate {
	var candidates []Candidate
	for _, rr := range answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}
		host := strings.TrimSuffix(srv.Target, ".")
		if host == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Hostname: host,
			Priority: srv.Priority,
			Weight:   srv.Weight,
			Port:     srv.Port,
		})
	}
	return candidates
}

// Eligible keeps the candidates whose priority is above MinPriority,
// preserving their order.
func Eligible(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.Priority > MinPriority {
			out = append(out, c)
		}
	}
	return out
}
