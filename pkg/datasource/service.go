package datasource

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/releasetower/pkg/datasource/metadata"
	"github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/observability"
)

const tracerName = "github.com/matzehuels/releasetower/pkg/datasource"

// Options configures a [Service].
type Options struct {
	Registry *Registry
	// Cache stores per-registry results; nil disables caching.
	Cache  PackageCache
	Config Config
	// Logger receives lookup warnings; nil discards them.
	Logger *log.Logger
	// Overrides is the manual metadata table; nil uses [metadata.Manual].
	Overrides *metadata.Table
}

// Service resolves releases and digests using the datasources of a Registry.
type Service struct {
	registry  *Registry
	cache     PackageCache
	config    Config
	logger    *log.Logger
	overrides *metadata.Table
	tracer    trace.Tracer
}

// New creates a Service. A nil registry behaves as an empty one.
func New(opts Options) *Service {
	s := &Service{
		registry:  opts.Registry,
		cache:     opts.Cache,
		config:    opts.Config,
		logger:    opts.Logger,
		overrides: opts.Overrides,
		tracer:    otel.Tracer(tracerName),
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.overrides == nil {
		s.overrides = metadata.Manual()
	}
	if s.config.DefaultCacheTTL <= 0 {
		s.config.DefaultCacheTTL = DefaultCacheTTL
	}
	return s
}

// GetPkgReleases looks up the releases of a package.
//
// It returns nil, nil when the package name is empty, the datasource is
// unknown, or no registry has the package. The only errors returned are
// hard host failures, context cancellation and invalid request options.
func (s *Service) GetPkgReleases(ctx context.Context, req LookupRequest) (res *ReleaseResult, err error) {
	if req.PackageName == "" {
		s.logger.Warn("No packageName for getReleases", "datasource", req.Datasource)
		return nil, nil
	}
	d, ok := s.registry.Get(req.Datasource)
	if !ok {
		s.logger.Error("Unknown datasource", "datasource", req.Datasource, "packageName", req.PackageName)
		return nil, nil
	}

	ctx, span := s.tracer.Start(ctx, "datasource.GetPkgReleases", trace.WithAttributes(
		attribute.String("datasource", d.ID),
		attribute.String("package.name", req.PackageName),
	))
	defer span.End()

	hooks := observability.Lookup()
	hooks.OnLookupStart(ctx, d.ID, req.PackageName)
	start := time.Now()
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Releases)
		}
		hooks.OnLookupComplete(ctx, d.ID, req.PackageName, n, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	scheme, schemeID, known := lookupScheme(d, req)
	if !known {
		s.logger.Warn("Unknown versioning scheme, using default",
			"datasource", d.ID, "versioning", schemeID, "default", defaultVersioning)
	}

	candidates, _ := s.resolveRegistryURLs(d, req.RegistryURLs, req.DefaultRegistryURLs)
	raw, err := s.fetch(ctx, d, req, candidates)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.postprocess(d, req, scheme, raw)
}

// SupportsDigests reports whether the datasource can resolve digests.
func (s *Service) SupportsDigests(id string) bool {
	d, ok := s.registry.Get(id)
	return ok && d.SupportsDigests()
}

// GetDatasources returns every registered datasource keyed by id.
func (s *Service) GetDatasources() map[string]Descriptor {
	return s.registry.Descriptors()
}

// GetDatasourceList returns the registered datasource ids in sorted order.
func (s *Service) GetDatasourceList() []string {
	return s.registry.List()
}

// Registry returns the registry the service resolves datasources from.
func (s *Service) Registry() *Registry { return s.registry }

// GetDigest resolves the digest of newValue (or of the current value when
// empty). The registry is the first candidate URL of the lookup.
func (s *Service) GetDigest(ctx context.Context, req DigestRequest, newValue string) (string, error) {
	d, ok := s.registry.Get(req.Datasource)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown datasource %q", req.Datasource)
	}
	digester, ok := d.Source.(Digester)
	if !ok {
		return "", errors.New(errors.ErrCodeCapabilityMissing, "datasource %s does not support digests", d.ID)
	}

	name := req.PackageName
	if req.ReplacementName != "" {
		name = req.ReplacementName
	}
	if name == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "package name is required")
	}

	ctx, span := s.tracer.Start(ctx, "datasource.GetDigest", trace.WithAttributes(
		attribute.String("datasource", d.ID),
		attribute.String("package.name", name),
	))
	defer span.End()

	candidates, _ := s.resolveRegistryURLs(d, req.RegistryURLs, req.DefaultRegistryURLs)
	var registryURL string
	if len(candidates) > 0 {
		registryURL = candidates[0]
	}

	digest, err := digester.Digest(ctx, DigestQuery{
		PackageName:   name,
		RegistryURL:   registryURL,
		CurrentValue:  req.CurrentValue,
		CurrentDigest: req.CurrentDigest,
	}, newValue)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return digest, nil
}
