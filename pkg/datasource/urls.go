package datasource

import "slices"

// resolveRegistryURLs computes the ordered candidate registries for a
// lookup. ignored reports whether caller URLs were dropped because the
// datasource does not support custom registries.
func (s *Service) resolveRegistryURLs(d Descriptor, registryURLs, defaultRegistryURLs []string) (candidates []string, ignored bool) {
	if len(registryURLs) > 0 {
		if !d.NoCustomRegistries {
			return slices.Clone(registryURLs), false
		}
		s.logger.Warn("Custom registries are not allowed for this datasource and will be ignored",
			"datasource", d.ID,
			"registryUrls", registryURLs,
			"defaultRegistryUrls", d.DefaultRegistryURLs.Resolve(),
		)
		ignored = true
	}
	if len(defaultRegistryURLs) > 0 {
		return slices.Clone(defaultRegistryURLs), ignored
	}
	return d.DefaultRegistryURLs.Resolve(), ignored
}
