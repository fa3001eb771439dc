package scraper

import (
	"sort"
	"strings"
)

// Factory builds a Site for a listing base URL. An empty baseURL selects the
// site's own default.
type Factory func(baseURL string) Site

var registry = map[string]Factory{}

func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

func Get(name, baseURL string) (Site, bool) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return f(baseURL), true
}

// Names lists registered sites, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
