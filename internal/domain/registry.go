package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"weak"

	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

// Registry tracks which originals are patched, by what, and with which text.
//
// Every method takes the registry mutex: rebinding the slot and updating the
// two maps is one critical section, so concurrent callers are serialized
// rather than interleaved.
type Registry struct {
	compiler SourceCompiler
	attach   AttachmentStrategy
	lookup   *SourceLookup

	mu           sync.Mutex
	replacements map[*live.Unit]*live.Unit // replacement -> original
	records      map[*live.Unit]m.SourceRecord
	owner        weak.Pointer[Session]
}

// NewRegistry constructs an empty Registry. lookup places edits at the
// declaration of their original; when nil the binary's line is used.
func NewRegistry(compiler SourceCompiler, attach AttachmentStrategy, lookup *SourceLookup) *Registry {
	return &Registry{
		compiler:     compiler,
		attach:       attach,
		lookup:       lookup,
		replacements: make(map[*live.Unit]*live.Unit),
		records:      make(map[*live.Unit]m.SourceRecord),
	}
}

// SetOwner records the session reporting on shutdown. The registry does not
// keep it alive.
func (r *Registry) SetOwner(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owner = weak.Make(s)
}

// Install compiles text and attaches the result in place of u's original.
// u may be the original or its active replacement. On error nothing changes.
func (r *Registry) Install(ctx context.Context, u *live.Unit, text string) (*live.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	original, err := r.resolveLocked(u, false)
	if err != nil {
		return nil, err
	}

	replacement, err := r.compiler.Compile(ctx, original, text)
	if err != nil {
		return nil, err
	}

	loc, err := r.attach.Locate(original)
	if err != nil {
		return nil, err
	}

	if err := r.attach.Attach(loc, replacement); err != nil {
		return nil, fmt.Errorf("attach %s: %w", loc, err)
	}

	if prev, ok := r.records[original]; ok {
		delete(r.replacements, prev.Replacement)
	}

	r.replacements[replacement] = original
	r.records[original] = m.SourceRecord{
		Text:        text,
		Hash:        replacement.Hash(),
		Replacement: replacement,
		Location:    r.location(ctx, original),
	}

	slog.Info("Installed edit", "unit", loc.String(), "hash", SyntheticName(replacement.Hash()))

	return replacement, nil
}

func (r *Registry) location(ctx context.Context, original *live.Unit) m.Location {
	if r.lookup == nil {
		return m.LocationOf(original)
	}

	return r.lookup.Location(ctx, original)
}

// Revert re-attaches the original of u, which may be the original or its
// active replacement.
func (r *Registry) Revert(_ context.Context, u *live.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	original, err := r.resolveLocked(u, true)
	if err != nil {
		return err
	}

	return r.revertLocked(original)
}

// RevertAll reverts every tracked original in location order. It does not
// stop at the first failure; all failures are returned joined.
func (r *Registry) RevertAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for _, original := range r.originalsLocked() {
		if err := r.revertLocked(original); err != nil {
			slog.Error("Failed to revert edit", "unit", original.Target(), "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 && len(r.records) > 0 {
		errs = append(errs, fmt.Errorf("%d edits still tracked after revert", len(r.records)))
	}

	return errors.Join(errs...)
}

// DumpActive lists the active edits, one per original, sorted by location.
func (r *Registry) DumpActive() []m.Edit {
	r.mu.Lock()
	defer r.mu.Unlock()

	originals := r.originalsLocked()
	edits := make([]m.Edit, 0, len(originals))

	for _, original := range originals {
		rec := r.records[original]
		edits = append(edits, m.Edit{
			Location: rec.Location,
			Target:   original.Target(),
			Kind:     original.Kind().String(),
			Hash:     rec.Hash,
			Source:   rec.Text,
		})
	}

	return edits
}

// OnShutdown reports the active edits to the owning session, if it is still
// around. It never fails so the next shutdown handler always runs.
func (r *Registry) OnShutdown(ctx context.Context) error {
	if r.Len() == 0 {
		return nil
	}

	edits := r.DumpActive()

	r.mu.Lock()
	owner := r.owner.Value()
	r.mu.Unlock()

	if owner == nil {
		slog.Info("Edits active at shutdown", "count", len(edits))
		return nil
	}

	owner.reportActive(ctx, edits)

	return nil
}

// Original returns the pristine original behind u, or u itself.
func (r *Registry) Original(u *live.Unit) *live.Unit {
	r.mu.Lock()
	defer r.mu.Unlock()

	if original, ok := r.replacements[u]; ok {
		return original
	}

	return u
}

// CurrentSource returns the text installed for u's original.
func (r *Registry) CurrentSource(u *live.Unit) (m.SourceRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if original, ok := r.replacements[u]; ok {
		u = original
	}

	rec, ok := r.records[u]

	return rec, ok
}

// Len returns the number of patched originals.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

// resolveLocked maps u to its original. A replacement that is no longer
// active is unknown. With tracked set, an untracked original is unknown too.
func (r *Registry) resolveLocked(u *live.Unit, tracked bool) (*live.Unit, error) {
	if u == nil {
		return nil, fmt.Errorf("nil unit")
	}

	if original, ok := r.replacements[u]; ok {
		return original, nil
	}

	if u.IsReplacement() {
		return nil, &UnknownUnitError{Target: u.Target()}
	}

	if _, ok := r.records[u]; tracked && !ok {
		return nil, &UnknownUnitError{Target: u.Target()}
	}

	return u, nil
}

func (r *Registry) revertLocked(original *live.Unit) error {
	loc, err := r.attach.Locate(original)
	if err != nil {
		return err
	}

	if err := r.attach.Attach(loc, original); err != nil {
		return fmt.Errorf("attach %s: %w", loc, err)
	}

	if current, ok := loc.current(); !ok || current != original {
		return fmt.Errorf("%s does not hold its original after revert", loc)
	}

	delete(r.replacements, r.records[original].Replacement)
	delete(r.records, original)

	slog.Info("Reverted edit", "unit", loc.String())

	return nil
}

func (r *Registry) originalsLocked() []*live.Unit {
	originals := make([]*live.Unit, 0, len(r.records))
	for original := range r.records {
		originals = append(originals, original)
	}

	sort.Slice(originals, func(i, j int) bool {
		a, b := r.records[originals[i]].Location, r.records[originals[j]].Location
		if a != b {
			return a.Less(b)
		}

		return originals[i].Target() < originals[j].Target()
	})

	return originals
}
