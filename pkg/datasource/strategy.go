package datasource

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/observability"
)

// fetch runs the effective strategy over the candidate registries.
func (s *Service) fetch(ctx context.Context, d Descriptor, req LookupRequest, candidates []string) (*ReleaseResult, error) {
	strategy := req.RegistryStrategy
	if strategy == "" {
		strategy = d.strategy()
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("registry.strategy", string(strategy)),
		attribute.Int("registry.candidates", len(candidates)),
	)

	switch strategy {
	case StrategyFirst:
		return s.first(ctx, d, req, candidates)
	case StrategyMerge:
		return s.merge(ctx, d, req, candidates)
	default:
		return s.hunt(ctx, d, req, candidates)
	}
}

func (s *Service) first(ctx context.Context, d Descriptor, req LookupRequest, candidates []string) (*ReleaseResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > 1 {
		s.logger.Warn("Excess registryUrls found for datasource lookup - using first configured only",
			"datasource", d.ID,
			"packageName", req.PackageName,
			"registryUrls", candidates,
		)
	}
	res, err := s.query(ctx, d, req, candidates[0])
	switch s.classify(ctx, d, req, candidates[0], err) {
	case errors.HostFailureHard:
		return nil, err
	case errors.HostFailureNone:
		return res, nil
	default:
		return nil, nil
	}
}

// hunt returns the first result with releases. A disabled host ends the
// lookup without a result. A result without releases is only returned when
// no later registry has any.
func (s *Service) hunt(ctx context.Context, d Descriptor, req LookupRequest, candidates []string) (*ReleaseResult, error) {
	var fallback *ReleaseResult
	for _, registryURL := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.query(ctx, d, req, registryURL)
		switch s.classify(ctx, d, req, registryURL, err) {
		case errors.HostFailureHard:
			return nil, err
		case errors.HostFailureDisabled:
			return nil, nil
		case errors.HostFailureSoft:
			continue
		}
		if res == nil {
			continue
		}
		if len(res.Releases) > 0 {
			return res, nil
		}
		if fallback == nil {
			fallback = res
		}
	}
	return fallback, nil
}

// merge queries every registry and combines the results. Any hard failure
// discards what was collected so far.
func (s *Service) merge(ctx context.Context, d Descriptor, req LookupRequest, candidates []string) (*ReleaseResult, error) {
	var collected []*ReleaseResult
	for _, registryURL := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.query(ctx, d, req, registryURL)
		switch s.classify(ctx, d, req, registryURL, err) {
		case errors.HostFailureHard:
			return nil, err
		case errors.HostFailureNone:
			if res != nil {
				collected = append(collected, res)
			}
		}
	}
	if len(collected) == 0 {
		return nil, nil
	}
	return mergeResults(s.schemeFor(d, req), collected), nil
}

// classify maps a registry error onto its failure kind and records it.
func (s *Service) classify(ctx context.Context, d Descriptor, req LookupRequest, registryURL string, err error) errors.HostFailure {
	kind := errors.HostFailureOf(err)
	if kind == errors.HostFailureNone {
		return kind
	}
	observability.Lookup().OnRegistryFailure(ctx, d.ID, registryURL, kind.String())

	span := trace.SpanFromContext(ctx)
	span.AddEvent("registry failure", trace.WithAttributes(
		attribute.String("registry.url", registryURL),
		attribute.String("failure.kind", kind.String()),
	))

	fields := []any{"datasource", d.ID, "packageName", req.PackageName, "registryUrl", registryURL, "err", err}
	switch kind {
	case errors.HostFailureHard:
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("Registry host failure, aborting lookup", fields...)
	case errors.HostFailureDisabled:
		s.logger.Debug("Registry host is disabled", fields...)
	default:
		s.logger.Debug("Registry lookup failed", fields...)
	}
	return kind
}
