package datasource

import (
	"context"
	"slices"
	"time"
)

// Datasource lists the releases of a package from one registry.
//
// GetReleases returns nil, nil when the package does not exist in the
// registry at q.RegistryURL. Implementations must return a fresh result on
// every call; the engine never mutates it.
type Datasource interface {
	GetReleases(ctx context.Context, q ReleasesQuery) (*ReleaseResult, error)
}

// Digester is implemented by datasources that can resolve an immutable
// content digest for a version. Its presence is the only signal that a
// datasource supports digests.
type Digester interface {
	Digest(ctx context.Context, q DigestQuery, newValue string) (string, error)
}

// ReleasesFunc adapts a function to the [Datasource] interface.
type ReleasesFunc func(ctx context.Context, q ReleasesQuery) (*ReleaseResult, error)

// GetReleases calls f.
func (f ReleasesFunc) GetReleases(ctx context.Context, q ReleasesQuery) (*ReleaseResult, error) {
	return f(ctx, q)
}

// RegistryURLs holds a datasource's default registries: either a fixed
// list or a producer evaluated at lookup time.
type RegistryURLs struct {
	static  []string
	dynamic func() []string
}

// StaticURLs returns a fixed list of registry URLs.
func StaticURLs(urls ...string) RegistryURLs {
	return RegistryURLs{static: slices.Clone(urls)}
}

// DynamicURLs returns registry URLs computed by fn on every lookup.
func DynamicURLs(fn func() []string) RegistryURLs {
	return RegistryURLs{dynamic: fn}
}

// Resolve evaluates the URLs. The returned slice is owned by the caller.
func (u RegistryURLs) Resolve() []string {
	if u.dynamic != nil {
		return slices.Clone(u.dynamic())
	}
	return slices.Clone(u.static)
}

// IsDynamic reports whether the URLs come from a producer function.
func (u RegistryURLs) IsDynamic() bool { return u.dynamic != nil }

// Descriptor is a registered datasource and its lookup policy.
type Descriptor struct {
	ID     string
	Source Datasource

	// DefaultVersioning is the versioning scheme id; empty means semver-coerced.
	DefaultVersioning   string
	DefaultRegistryURLs RegistryURLs

	// NoCustomRegistries makes the engine ignore caller-supplied registry URLs.
	NoCustomRegistries bool

	// RegistryStrategy is the default strategy; empty means hunt.
	RegistryStrategy Strategy

	Caching  bool
	CacheTTL time.Duration
}

// SupportsDigests reports whether the datasource implements [Digester].
func (d Descriptor) SupportsDigests() bool {
	_, ok := d.Source.(Digester)
	return ok
}

// Info is the serializable summary of a descriptor.
type Info struct {
	ID                    string   `json:"id" yaml:"id"`
	DefaultVersioning     string   `json:"defaultVersioning" yaml:"defaultVersioning"`
	DefaultRegistryURLs   []string `json:"defaultRegistryUrls" yaml:"defaultRegistryUrls"`
	CustomRegistrySupport bool     `json:"customRegistrySupport" yaml:"customRegistrySupport"`
	RegistryStrategy      Strategy `json:"registryStrategy" yaml:"registryStrategy"`
	Caching               bool     `json:"caching" yaml:"caching"`
	SupportsDigests       bool     `json:"supportsDigests" yaml:"supportsDigests"`
}

// Info describes d with defaults applied.
func (d Descriptor) Info() Info {
	return Info{
		ID:                    d.ID,
		DefaultVersioning:     d.versioning(),
		DefaultRegistryURLs:   d.DefaultRegistryURLs.Resolve(),
		CustomRegistrySupport: !d.NoCustomRegistries,
		RegistryStrategy:      d.strategy(),
		Caching:               d.Caching,
		SupportsDigests:       d.SupportsDigests(),
	}
}

func (d Descriptor) strategy() Strategy {
	if d.RegistryStrategy == "" {
		return StrategyHunt
	}
	return d.RegistryStrategy
}

func (d Descriptor) versioning() string {
	if d.DefaultVersioning == "" {
		return defaultVersioning
	}
	return d.DefaultVersioning
}
