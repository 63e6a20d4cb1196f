package domain

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"inplace.dev/pkg/inplace/internal/adapter"
	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

const lookupConcurrency = 8

// Reporter receives the active edits when a session ends with edits still
// installed.
type Reporter interface {
	ReportEdits(ctx context.Context, edits []m.Edit) error
}

// SessionConfig holds the collaborators of a Session. Nil adapters are
// replaced by the local implementations.
type SessionConfig struct {
	Modules     []*live.Module
	Files       adapter.GoFileAdapter
	FS          adapter.SourceFSAdapter
	Editor      adapter.EditorAdapter
	Interpreter adapter.Interpreter
	Reports     adapter.ReportStore
	Journal     adapter.Journal // optional history of installs and reverts
	Reporter    Reporter
	DumpOnExit  bool
	Logger      *slog.Logger
}

// Session is one interactive patching session: it owns the registry, the
// editor session and the shutdown chain, and resolves dotted targets such as
// "playground.Rect.Area" against the modules it was started with.
type Session struct {
	id       string
	log      *slog.Logger
	modules  []*live.Module
	lookup   *SourceLookup
	compiler *Compiler
	registry *Registry
	attach   AttachmentStrategy
	editor   *EditorSession
	reports  adapter.ReportStore
	journal  adapter.Journal
	reporter Reporter
	dump     bool
	shutdown *ShutdownChain
	close    sync.Once
}

// NewSession creates a session and registers its shutdown handlers.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Files == nil {
		cfg.Files = adapter.NewLocalGoFileAdapter("")
	}

	if cfg.FS == nil {
		cfg.FS = adapter.NewLocalSourceFSAdapter("")
	}

	if cfg.Editor == nil {
		cfg.Editor = adapter.NewLocalEditorAdapter("")
	}

	if cfg.Interpreter == nil {
		cfg.Interpreter = adapter.NewYaegiInterpreter(nil, nil)
	}

	if cfg.Reports == nil {
		cfg.Reports = adapter.NewReportStore()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	id := uuid.NewString()
	lookup := NewSourceLookup(cfg.Files)
	compiler := NewCompiler(cfg.Interpreter, lookup)
	attach := NewAttachmentStrategy()
	registry := NewRegistry(compiler, attach, lookup)

	s := &Session{
		id:       id,
		log:      cfg.Logger.With("session", id),
		modules:  cfg.Modules,
		lookup:   lookup,
		compiler: compiler,
		registry: registry,
		attach:   attach,
		editor:   NewEditorSession(registry, lookup, cfg.FS, cfg.Editor),
		reports:  cfg.Reports,
		journal:  cfg.Journal,
		reporter: cfg.Reporter,
		dump:     cfg.DumpOnExit,
		shutdown: NewShutdownChain(),
	}

	registry.SetOwner(s)
	s.shutdown.Register("report active edits", registry.OnShutdown)
	s.shutdown.Register("revert active edits", s.RevertAll)

	if s.journal != nil {
		s.shutdown.Register("close journal", func(context.Context) error { return s.journal.Close() })
		s.log.Info("Journaling edits", "path", s.journal.Path())
	}

	s.log.Debug("Session started", "modules", len(cfg.Modules))

	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Registry returns the session's patch registry.
func (s *Session) Registry() *Registry { return s.registry }

// Shutdown returns the chain run by Close; hosts may add their own handlers.
func (s *Session) Shutdown() *ShutdownChain { return s.shutdown }

// Resolve maps a target to the original unit of its slot. Targets are
// "module.Func" or "module.Class.Method".
func (s *Session) Resolve(target string) (*live.Unit, error) {
	current, err := s.slotUnit(target)
	if err != nil {
		return nil, err
	}

	return s.registry.Original(current), nil
}

func (s *Session) slotUnit(target string) (*live.Unit, error) {
	for _, mod := range s.modules {
		rest, ok := strings.CutPrefix(target, mod.Name()+".")
		if !ok {
			continue
		}

		if className, name, ok := strings.Cut(rest, "."); ok {
			if class, ok := mod.Lookup(className); ok {
				if u, ok := class.Unit(name); ok {
					return u, nil
				}
			}

			continue
		}

		if u, ok := mod.Unit(rest); ok {
			return u, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
}

// Edit opens target in the editor and installs the result.
func (s *Session) Edit(ctx context.Context, target string) (*live.Unit, error) {
	original, err := s.Resolve(target)
	if err != nil {
		return nil, err
	}

	text, err := s.editor.OpenForEdit(ctx, original)
	if err != nil {
		return nil, err
	}

	return s.install(ctx, original, text)
}

// Install compiles text and installs it for target.
func (s *Session) Install(ctx context.Context, target, text string) (*live.Unit, error) {
	original, err := s.Resolve(target)
	if err != nil {
		return nil, err
	}

	return s.install(ctx, original, text)
}

func (s *Session) install(ctx context.Context, original *live.Unit, text string) (*live.Unit, error) {
	replacement, err := s.registry.Install(ctx, original, text)
	if err != nil {
		s.log.Warn("Install failed", "unit", original.Target(), "error", err)
		return nil, err
	}

	s.record(ctx, m.JournalEntry{Action: m.ActionInstall, Target: original.Target(), Hash: replacement.Hash(), Text: text})

	return replacement, nil
}

// Revert restores the original of target.
func (s *Session) Revert(ctx context.Context, target string) error {
	original, err := s.Resolve(target)
	if err != nil {
		return err
	}

	if err := s.registry.Revert(ctx, original); err != nil {
		return err
	}

	s.record(ctx, m.JournalEntry{Action: m.ActionRevert, Target: original.Target()})

	return nil
}

// RevertAll restores every patched original.
func (s *Session) RevertAll(ctx context.Context) error {
	before := s.registry.DumpActive()
	err := s.registry.RevertAll(ctx)

	still := make(map[string]bool)
	for _, e := range s.registry.DumpActive() {
		still[e.Target] = true
	}

	for _, e := range before {
		if !still[e.Target] {
			s.record(ctx, m.JournalEntry{Action: m.ActionRevert, Target: e.Target})
		}
	}

	return err
}

// History returns the journaled installs and reverts, oldest first. It is
// empty when the session has no journal.
func (s *Session) History(ctx context.Context) ([]m.JournalEntry, error) {
	if s.journal == nil {
		return nil, nil
	}

	var entries []m.JournalEntry

	err := s.journal.Range(ctx, func(e m.JournalEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	return entries, nil
}

func (s *Session) record(ctx context.Context, entry m.JournalEntry) {
	if s.journal == nil {
		return
	}

	entry.Time = time.Now()

	if _, err := s.journal.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Warn("Failed to journal edit", "action", entry.Action, "unit", entry.Target, "error", err)
	}
}

// Dump lists the active edits by location.
func (s *Session) Dump() []m.Edit {
	return s.registry.DumpActive()
}

// SaveDump writes the active edits to a YAML file.
func (s *Session) SaveDump(ctx context.Context, path m.Path) error {
	return s.reports.SaveEdits(ctx, path, s.Dump())
}

// Show returns the text target currently runs, as it would be presented for
// editing.
func (s *Session) Show(ctx context.Context, target string) (string, error) {
	original, err := s.Resolve(target)
	if err != nil {
		return "", err
	}

	return s.editor.Presented(ctx, original)
}

// Source returns compiled text by content hash.
func (s *Session) Source(hash string) (string, bool) {
	return s.compiler.Source(hash)
}

// Diff returns a unified diff from the original source of target to its
// active edit.
func (s *Session) Diff(ctx context.Context, target string) (string, error) {
	original, err := s.Resolve(target)
	if err != nil {
		return "", err
	}

	rec, ok := s.registry.CurrentSource(original)
	if !ok {
		return "", &UnknownUnitError{Target: original.Target()}
	}

	before, err := s.lookup.Presentable(ctx, original)
	if err != nil {
		return "", fmt.Errorf("source of %s: %w", original.Target(), err)
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(rec.Text),
		FromFile: rec.Location.String(),
		ToFile:   SyntheticName(rec.Hash) + ".go",
		Context:  3,
	})
}

// Units describes every slot of the session's modules, sorted by target.
// Source availability is checked concurrently.
func (s *Session) Units(ctx context.Context) ([]m.UnitInfo, error) {
	var originals []*live.Unit

	for _, mod := range s.modules {
		originals = append(originals, mod.Units()...)
		for _, class := range mod.Classes() {
			originals = append(originals, class.Units()...)
		}
	}

	infos := make([]m.UnitInfo, len(originals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)

	for i, u := range originals {
		original := s.registry.Original(u)
		_, patched := s.registry.CurrentSource(original)

		infos[i] = m.UnitInfo{
			Target:   original.Target(),
			Kind:     original.Kind().String(),
			Type:     original.Type().String(),
			Location: m.LocationOf(original),
			Patched:  patched,
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			src, err := s.lookup.Lookup(gctx, original)
			if err == nil {
				infos[i].Source = true
				infos[i].Location.Line = src.Line
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Target < infos[j].Target })

	return infos, nil
}

// Call invokes whatever is attached to target's slot. Each argument is a
// YAML value decoded into the matching parameter type, so a struct receiver
// is written as "{w: 2, h: 3}".
func (s *Session) Call(ctx context.Context, target string, args []string) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := s.slotUnit(target)
	if err != nil {
		return nil, err
	}

	values, err := decodeArgs(u.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", target, err)
	}

	return u.Call(values...)
}

func decodeArgs(ft reflect.Type, args []string) ([]any, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}

	if len(args) < fixed || (!ft.IsVariadic() && len(args) != fixed) {
		return nil, fmt.Errorf("want %d arguments, got %d", fixed, len(args))
	}

	values := make([]any, len(args))

	for i, arg := range args {
		want := ft.In(min(i, ft.NumIn()-1))
		if i >= fixed {
			want = want.Elem()
		}

		ptr := reflect.New(want)
		if err := yaml.Unmarshal([]byte(arg), ptr.Interface()); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}

		values[i] = ptr.Elem().Interface()
	}

	return values, nil
}

// Close runs the shutdown chain. Only the first call has an effect.
func (s *Session) Close(ctx context.Context) {
	s.close.Do(func() {
		failed := s.shutdown.Run(ctx)
		s.log.Debug("Session closed", "failed_handlers", failed)
	})
}

func (s *Session) reportActive(ctx context.Context, edits []m.Edit) {
	s.log.Info("Edits active at shutdown", "count", len(edits))

	if !s.dump || s.reporter == nil {
		return
	}

	if err := s.reporter.ReportEdits(ctx, edits); err != nil {
		s.log.Error("Failed to report active edits", "error", err)
	}
}
