package cache

// Keyer builds backend keys for the things this repository caches.
type Keyer interface {
	// HTTPKey keys a raw registry response.
	HTTPKey(namespace, key string) string
	// PackageKey keys a namespaced package-level value such as a release result.
	PackageKey(namespace, key string) string
}

// DefaultKeyer produces readable keys of the form kind:namespace:key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the unprefixed keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// PackageKey implements Keyer.
func (DefaultKeyer) PackageKey(namespace, key string) string {
	return "pkg:" + namespace + ":" + key
}
