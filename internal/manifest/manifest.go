// Package manifest models the collection of modules a schema is assembled
// from.
package manifest

import (
	"sort"

	"github.com/hanpama/gqlmodules/internal/resolver"
)

// Manifest maps dotted module names ("Query.user", "Subscription.events")
// to their contributions. BaseURL locates module files and plays no part in
// assembly.
type Manifest struct {
	Modules map[string]Module
	BaseURL string
}

// Module is the contribution of one manifest entry. Both fields are
// optional.
type Module struct {
	Schema   string
	Resolver resolver.Resolver
}

// Names returns the module names in the order every derived sequence
// follows.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m.Modules))
	for name := range m.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
