package datasource

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCacheTTL is how long release results are cached when neither the
// configuration nor the datasource says otherwise.
const DefaultCacheTTL = 15 * time.Minute

// PackageCache stores JSON-serializable values by namespace and key.
// [cache.Packages] implements it.
//
// [cache.Packages]: github.com/matzehuels/releasetower/pkg/cache.Packages
type PackageCache interface {
	Get(ctx context.Context, namespace, key string, v any) (bool, error)
	Set(ctx context.Context, namespace, key string, v any, ttl time.Duration) error
}

// Config holds the process-wide settings consulted by the engine.
type Config struct {
	// CachePrivatePackages allows caching results marked private.
	CachePrivatePackages bool
	// DefaultCacheTTL applies when no override matches; 0 means DefaultCacheTTL.
	DefaultCacheTTL time.Duration
	// CacheTTLOverride maps a cache namespace or datasource id to a TTL in minutes.
	CacheTTLOverride map[string]int
}

func cacheNamespace(datasourceID string) string {
	return "datasource-releases-" + datasourceID
}

func cacheKey(registryURL, packageName string) string {
	return registryURL + ":" + packageName
}

func (s *Service) cacheTTL(d Descriptor) time.Duration {
	for _, k := range []string{cacheNamespace(d.ID), d.ID} {
		if m, ok := s.config.CacheTTLOverride[k]; ok && m > 0 {
			return time.Duration(m) * time.Minute
		}
	}
	if d.CacheTTL > 0 {
		return d.CacheTTL
	}
	return s.config.DefaultCacheTTL
}

// query fetches the releases of one registry, going through the cache
// when the datasource allows it. Cache failures never fail a lookup.
func (s *Service) query(ctx context.Context, d Descriptor, req LookupRequest, registryURL string) (*ReleaseResult, error) {
	ctx, span := s.tracer.Start(ctx, "datasource.registry", trace.WithAttributes(
		attribute.String("registry.url", registryURL),
	))
	defer span.End()

	ns, key := cacheNamespace(d.ID), cacheKey(registryURL, req.PackageName)
	cacheable := d.Caching && s.cache != nil

	if cacheable {
		var cached ReleaseResult
		ok, err := s.cache.Get(ctx, ns, key, &cached)
		switch {
		case err != nil:
			s.logger.Debug("Release cache read failed", "namespace", ns, "key", key, "err", err)
		case ok:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached, nil
		}
	}

	res, err := d.Source.GetReleases(ctx, ReleasesQuery{
		PackageName: req.PackageName,
		RegistryURL: registryURL,
		Constraints: req.Constraints,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	res = res.Clone()
	res.RegistryURL = registryURL
	s.enrich(d.ID, req.PackageName, res)
	span.SetAttributes(attribute.Int("releases", len(res.Releases)))

	if cacheable && (!res.IsPrivate || s.config.CachePrivatePackages) {
		if err := s.cache.Set(ctx, ns, key, res, s.cacheTTL(d)); err != nil {
			s.logger.Debug("Release cache write failed", "namespace", ns, "key", key, "err", err)
		}
	}
	return res, nil
}
