package snykapi

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// DefaultRegion is the region used when the operator does not pick one.
const DefaultRegion = "SNYK-US-01"

func builtinRegionEndpoints() map[string]string {
	return map[string]string{
		"SNYK-US-01": "https://api.snyk.io",
		"SNYK-US-02": "https://api.us.snyk.io",
		"SNYK-EU-01": "https://api.eu.snyk.io",
		"SNYK-AU-01": "https://api.au.snyk.io",
	}
}

// RegionEndpoints returns the region to base URL mapping, with overrides
// merged over the built-in table. Overrides may add new regions or replace
// the endpoint of a built-in one.
func RegionEndpoints(overrides map[string]string) map[string]string {
	endpoints := builtinRegionEndpoints()
	for region, url := range overrides {
		endpoints[region] = url
	}
	return endpoints
}

// KnownRegions returns the sorted region names available for selection.
func KnownRegions(overrides map[string]string) []string {
	endpoints := RegionEndpoints(overrides)
	regions := make([]string, 0, len(endpoints))
	for region := range endpoints {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// ResolveRegion maps a region name to its API base URL. An unknown region
// is an error rather than a silent fallback to the default endpoint.
func ResolveRegion(region string, overrides map[string]string) (string, error) {
	endpoints := RegionEndpoints(overrides)
	url, ok := endpoints[region]
	if !ok {
		return "", errors.Newf("unknown region %q (known: %v)", region, KnownRegions(overrides))
	}
	return url, nil
}
