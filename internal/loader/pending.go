package loader

import (
	"errors"
	"sync"
)

// FragmentKind selects one of the three pending queues.
type FragmentKind int

const (
	// FragmentResultMap queues result-shape definitions.
	FragmentResultMap FragmentKind = iota
	// FragmentCacheRef queues cache-delegation links.
	FragmentCacheRef
	// FragmentStatement queues executable-statement definitions.
	FragmentStatement
)

// String returns the fragment kind name used in reports.
func (k FragmentKind) String() string {
	switch k {
	case FragmentResultMap:
		return "result map"
	case FragmentCacheRef:
		return "cache ref"
	case FragmentStatement:
		return "statement"
	default:
		return "fragment"
	}
}

// Resolver is one deferred unit of work plus whatever partial state it needs
// to resume. Resolve either completes the fragment or returns the
// not-yet-resolvable signal; any other error is fatal to the load.
type Resolver interface {
	// Resolve retries the deferred work.
	Resolve() error
	// Identity names the fragment for reports.
	Identity() string
	// Resource is the originating configuration source.
	Resource() string
}

// PendingRegistry holds the configuration fragments that could not resolve
// yet, one queue per fragment kind. Queues are shared mutable state: each is
// guarded for the duration of one full pass, and removal happens in place
// during the guarded iteration so concurrent admission cannot lose updates.
// Entries never expire; whatever is left at the end of the load is reported
// through UnresolvedSummary.
type pendingEntry struct {
	resolver Resolver
	// lastRef is the reference the most recent attempt was waiting on
	lastRef string
}

type PendingRegistry struct {
	mu     [3]sync.Mutex
	queues [3][]*pendingEntry
}

// NewPendingRegistry returns an empty registry.
func NewPendingRegistry() *PendingRegistry {
	return &PendingRegistry{}
}

// Enqueue adds a deferred fragment to the kind's queue. The cause, when it
// carries the not-yet-resolvable signal, records which reference the fragment
// is waiting on for the final report.
func (p *PendingRegistry) Enqueue(kind FragmentKind, r Resolver, cause error) {
	entry := &pendingEntry{resolver: r}
	var inc *IncompleteError
	if errors.As(cause, &inc) {
		entry.lastRef = inc.Reference
	}
	p.mu[kind].Lock()
	defer p.mu[kind].Unlock()
	p.queues[kind] = append(p.queues[kind], entry)
}

// Snapshot returns the current entries of one queue in admission order.
func (p *PendingRegistry) Snapshot(kind FragmentKind) []Resolver {
	p.mu[kind].Lock()
	defer p.mu[kind].Unlock()
	out := make([]Resolver, len(p.queues[kind]))
	for i, entry := range p.queues[kind] {
		out[i] = entry.resolver
	}
	return out
}

// Remove deletes one entry from a queue, preserving order.
func (p *PendingRegistry) Remove(kind FragmentKind, r Resolver) {
	p.mu[kind].Lock()
	defer p.mu[kind].Unlock()
	q := p.queues[kind]
	for i, entry := range q {
		if entry.resolver == r {
			p.queues[kind] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

// Len reports the total number of pending fragments across all queues.
func (p *PendingRegistry) Len() int {
	n := 0
	for kind := range p.queues {
		p.mu[kind].Lock()
		n += len(p.queues[kind])
		p.mu[kind].Unlock()
	}
	return n
}

// runPass iterates one queue under its guard, attempting every entry that was
// present when the pass began exactly once. Entries whose Resolve succeeds
// are removed in place; entries that signal not-yet-resolvable stay queued.
// Entries admitted during the pass wait for the next one. A fatal resolution
// error aborts the pass.
func (p *PendingRegistry) runPass(kind FragmentKind) error {
	p.mu[kind].Lock()
	defer p.mu[kind].Unlock()

	initial := len(p.queues[kind])
	kept := p.queues[kind][:0]
	for i, entry := range p.queues[kind] {
		if i >= initial {
			kept = append(kept, entry)
			continue
		}
		err := entry.resolver.Resolve()
		switch {
		case err == nil:
			// resolved, drop from the queue
		case IsIncomplete(err):
			var inc *IncompleteError
			if errors.As(err, &inc) {
				entry.lastRef = inc.Reference
			}
			kept = append(kept, entry)
		default:
			// fatal: keep the remaining entries and surface the error
			kept = append(kept, p.queues[kind][i:]...)
			p.queues[kind] = kept
			return err
		}
	}
	p.queues[kind] = kept
	return nil
}

// RunPass attempts every pending fragment once, all three queues. Running a
// pass over an empty registry is a no-op.
func (p *PendingRegistry) RunPass() error {
	for _, kind := range []FragmentKind{FragmentResultMap, FragmentCacheRef, FragmentStatement} {
		if err := p.runPass(kind); err != nil {
			return err
		}
	}
	return nil
}

// UnresolvedSummary reports every still-pending fragment as one aggregated
// error, or nil when all queues are empty.
func (p *PendingRegistry) UnresolvedSummary() error {
	var fragments []UnresolvedFragment
	for _, kind := range []FragmentKind{FragmentResultMap, FragmentCacheRef, FragmentStatement} {
		p.mu[kind].Lock()
		for _, entry := range p.queues[kind] {
			fragments = append(fragments, UnresolvedFragment{
				Kind:      kind,
				Identity:  entry.resolver.Identity(),
				Resource:  entry.resolver.Resource(),
				Reference: entry.lastRef,
			})
		}
		p.mu[kind].Unlock()
	}
	if len(fragments) == 0 {
		return nil
	}
	return &UnresolvedError{Fragments: fragments}
}
