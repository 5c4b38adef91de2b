// Package hierarchy rebuilds the chain of trust of CAs and certificates from a flat collection of
// records that only reference their issuer by id.
//
// Every function in this package is pure: it reads the collection it is given and returns new values.
// Malformed input (missing issuers, cycles, chains deeper than the cap) degrades to a truncated result
// instead of an error, because the records come from a remote system the console does not control.
package hierarchy

import (
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/samber/lo"
)

// MaxPathDepth bounds the number of entities in a resolved path. It guards against malformed data,
// the platform itself does not enforce a depth.
const MaxPathDepth = 10

// StopReason tells why the walk to the root ended.
type StopReason string

const (
	StopRoot           StopReason = "root"             // Reached a self-signed entity.
	StopMissingIssuer  StopReason = "missing_issuer"   // The issuer is not part of the collection.
	StopCycle          StopReason = "cycle"            // The next issuer is already on the path.
	StopMaxDepth       StopReason = "max_depth"        // The depth cap was reached.
	StopTargetNotFound StopReason = "target_not_found" // The target is not part of the collection.
)

// Path is an ordered root-first sequence of entities.
type Path struct {
	Entities []model.Entity
	Stop     StopReason
	// Truncated is set when the walk ended before a self-signed root was reached.
	Truncated bool
}

func (p Path) IDs() []string {
	return lo.Map(p.Entities, func(e model.Entity, _ int) string { return e.ID })
}

func (p Path) Empty() bool {
	return len(p.Entities) == 0
}

// Root returns the first entity of the path. It is only a trust anchor when the path is not truncated.
func (p Path) Root() (model.Entity, bool) {
	if len(p.Entities) == 0 {
		return model.Entity{}, false
	}
	return p.Entities[0], true
}

type resolveOptions struct {
	maxDepth      int
	includeTarget bool
}

type ResolveOption func(*resolveOptions)

// WithMaxDepth overrides MaxPathDepth. Values below 1 are ignored.
func WithMaxDepth(depth int) ResolveOption {
	return func(o *resolveOptions) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithoutTarget drops the target itself from the returned path. The walk and the stop reason are
// unaffected.
func WithoutTarget() ResolveOption {
	return func(o *resolveOptions) {
		o.includeTarget = false
	}
}

func withTarget() ResolveOption {
	return func(o *resolveOptions) {
		o.includeTarget = true
	}
}

// ResolvePathToRoot walks from targetID up through the issuer references found in collection and returns
// the path root-first, target-last.
//
// The result never contains the same id twice and never holds more than the depth cap. When several
// entities of the collection share an id, the last one wins.
func ResolvePathToRoot(targetID string, collection []model.Entity, opts ...ResolveOption) Path {
	options := resolveOptions{
		maxDepth:      MaxPathDepth,
		includeTarget: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	byID := lo.KeyBy(collection, func(e model.Entity) string { return e.ID })
	current, ok := byID[targetID]
	if !ok {
		return Path{Stop: StopTargetNotFound}
	}

	leafFirst := make([]model.Entity, 0, 4)
	seen := make(map[string]struct{}, 4)
	var stop StopReason
	for {
		if len(leafFirst) >= options.maxDepth {
			stop = StopMaxDepth
			break
		}
		if _, dup := seen[current.ID]; dup {
			stop = StopCycle
			break
		}
		seen[current.ID] = struct{}{}
		leafFirst = append(leafFirst, current)

		if current.IsSelfSigned() {
			stop = StopRoot
			break
		}
		issuer, ok := byID[current.IssuerRef]
		if !ok {
			stop = StopMissingIssuer
			break
		}
		current = issuer
	}

	entities := lo.Reverse(leafFirst)
	if !options.includeTarget {
		entities = entities[:len(entities)-1]
	}
	return Path{
		Entities:  entities,
		Stop:      stop,
		Truncated: stop != StopRoot,
	}
}
