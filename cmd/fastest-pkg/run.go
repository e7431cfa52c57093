package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/FlorianHeigl/fastest-pkg/internal/command"
	"github.com/FlorianHeigl/fastest-pkg/internal/config"
	"github.com/FlorianHeigl/fastest-pkg/internal/mirror"
	"github.com/FlorianHeigl/fastest-pkg/internal/report"
)

type abiResolver interface {
	ResolveABI(ctx context.Context) (string, error)
}

type mirrorDirectory interface {
	Lookup(ctx context.Context) ([]mirror.Candidate, error)
}

// pipeline is one run: lookup, ABI, benchmark, report.
type pipeline struct {
	directory  mirrorDirectory
	abi        abiResolver
	bench      *mirror.Benchmarker
	repoConfig string
	jsonOutput bool
	stdout     io.Writer
	logger     *slog.Logger
}

// newPipeline wires the components selected by cfg.
func newPipeline(cfg *config.Config, logger *slog.Logger, stdout io.Writer) *pipeline {
	runner := command.NewRunner(cfg.Tools.Pkg, cfg.Tools.Curl, logger)

	var prober mirror.Prober = runner
	if cfg.Benchmark.Prober == config.ProberHTTP {
		prober = command.NewHTTPProber("fastest-pkg/"+version, logger)
	}

	return &pipeline{
		directory:  mirror.NewDiscovery(cfg.DNS.Service, cfg.DNS.Servers, cfg.DNS.Timeout, logger),
		abi:        runner,
		bench:      mirror.NewBenchmarker(prober, cfg.Benchmark.Workers, cfg.Benchmark.ProbeTimeout, logger),
		repoConfig: cfg.Output.RepoConfig,
		stdout:     stdout,
		logger:     logger,
	}
}

func (p *pipeline) run(ctx context.Context) error {
	candidates, err := p.directory.Lookup(ctx)
	if err != nil {
		return err
	}

	abi, err := p.abi.ResolveABI(ctx)
	if err != nil {
		return fmt.Errorf("resolving ABI: %w", err)
	}

	var writeErr error
	if !p.jsonOutput {
		p.bench.OnResult = func(r mirror.Result) {
			if err := report.WriteMeasurement(p.stdout, r); err != nil && writeErr == nil {
				writeErr = err
			}
		}
	}

	results, err := p.bench.Run(ctx, candidates, abi)
	if err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("writing output: %w", writeErr)
	}

	if p.jsonOutput {
		return report.WriteJSON(p.stdout, results)
	}
	return report.WriteSummary(p.stdout, results, p.repoConfig)
}
