// Package workflow drives one run of the tool: restore the dependency
// registry from segment annotations, let the analyst load more
// dependencies, then clean up import comments and reconcile renamed export
// names against the import table.
package workflow

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/redlarch/deptrack/internal/annot"
	"github.com/redlarch/deptrack/internal/loader"
	"github.com/redlarch/deptrack/internal/lookup"
	"github.com/redlarch/deptrack/internal/match"
	"github.com/redlarch/deptrack/internal/registry"
	"github.com/redlarch/deptrack/internal/session"
	"github.com/redlarch/deptrack/internal/ui"
)

// Orchestrator owns the run sequence. It mutates the session through the
// loader and the matcher and talks to the analyst through the UI.
type Orchestrator struct {
	sess    *session.Session
	reg     *registry.Registry
	ldr     *loader.Loader
	ui      ui.UI
	depsDir string
}

// New creates an Orchestrator. depsDir is offered as the default answer to
// the dependency-folder question.
func New(sess *session.Session, reg *registry.Registry, ldr *loader.Loader, u ui.UI, depsDir string) *Orchestrator {
	return &Orchestrator{
		sess:    sess,
		reg:     reg,
		ldr:     ldr,
		ui:      u,
		depsDir: depsDir,
	}
}

// Run executes one full pass: restore, load, post-process. Cancelling the
// load-mode question ends the run right there; the session is left exactly
// as the restore pass found it.
func (o *Orchestrator) Run(ctx context.Context) error {
	restored := o.restore()
	if restored > 0 {
		o.ui.Infof("%d previously loaded dependencies", restored)
	}

	choice, err := o.ui.ChooseLoadMode(ctx)
	if err != nil {
		return fmt.Errorf("choosing load mode: %w", err)
	}

	switch choice {
	case ui.ChoiceBatch:
		if err := o.batchLoad(ctx); err != nil {
			return err
		}
	case ui.ChoiceSingle:
		if err := o.singleLoad(ctx); err != nil {
			return err
		}
	case ui.ChoiceCancel:
		slog.Debug("run cancelled")
		return nil
	}

	return o.postProcess(ctx)
}

// restore rebuilds the registry from segment annotations. Segments that
// carry no annotation yet are claimed for the primary binary with the
// sentinel, so the first run initializes what later runs decode. Returns
// the number of registry records restored.
func (o *Orchestrator) restore() int {
	for i := 0; i < o.sess.SegmentCount(); i++ {
		if _, ok := o.sess.SegmentComment(i); !ok {
			o.sess.SetSegmentComment(i, annot.EncodeSentinel())
		}
	}

	restored := o.reg.Reconstruct(o.segmentComments())
	slog.Info("registry restored", "dependencies", restored)
	return restored
}

// segmentComments yields the annotation slot of every segment that has one.
func (o *Orchestrator) segmentComments() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < o.sess.SegmentCount(); i++ {
			text, ok := o.sess.SegmentComment(i)
			if !ok {
				continue
			}
			if !yield(text) {
				return
			}
		}
	}
}

// batchLoad resolves every import module against a dependency folder by
// case-insensitive filename prefix. The module count is snapshotted before
// the loop: import modules introduced by a freshly loaded dependency are
// picked up by the next run, not this one. A dependency that cannot be
// found or loaded is reported and skipped; one bad file never aborts the
// batch.
func (o *Orchestrator) batchLoad(ctx context.Context) error {
	dir, err := o.ui.AskFolder(ctx, o.depsDir)
	if err != nil {
		return fmt.Errorf("asking for dependency folder: %w", err)
	}

	count := len(o.sess.ImportModules())
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := o.sess.ImportModules()[i].Name

		path, found, err := lookup.FindByPrefix(dir, name)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", dir, err)
		}
		if !found {
			o.ui.Warnf("no file for module %s in %s", name, dir)
			continue
		}

		o.loadOne(ctx, path)
	}
	return nil
}

// singleLoad loads one explicitly chosen file.
func (o *Orchestrator) singleLoad(ctx context.Context) error {
	filename, err := o.ui.AskFile(ctx)
	if err != nil {
		return fmt.Errorf("asking for dependency file: %w", err)
	}
	o.loadOne(ctx, filename)
	return nil
}

// loadOne loads a file and reports the outcome. Failures are recoverable:
// they are surfaced to the analyst but never abort the run.
func (o *Orchestrator) loadOne(ctx context.Context, filename string) {
	outcome, err := o.ldr.Load(ctx, filename)
	switch outcome {
	case loader.OutcomeLoaded:
		o.ui.Infof("loaded %s", filename)
	case loader.OutcomeAlreadyLoaded:
		slog.Debug("dependency already loaded", "file", filename)
	case loader.OutcomeLoadFailed:
		o.ui.Warnf("could not load %s: %v", filename, err)
	}
}

// postProcess wipes the auto-generated repeatable comments from every
// import entry, lists what the session depends on, and runs the name
// matcher so truncated export names point back at the imports they satisfy.
// The wipe runs first: the matcher writes its own repeatable comments into
// the same slots.
func (o *Orchestrator) postProcess(ctx context.Context) error {
	modules := o.sess.ImportModules()

	for _, m := range modules {
		for _, sym := range m.Symbols {
			o.sess.SetComment(sym.Address, "", true)
		}
	}

	for filename := range o.reg.Enumerate() {
		o.ui.Infof("dependency: %s", filename)
	}

	exports := make([]match.Export, 0, len(o.sess.PublicFunctions()))
	for _, f := range o.sess.PublicFunctions() {
		exports = append(exports, match.Export{Address: f.Address, Name: f.Name})
	}

	imports := make([][]match.Import, 0, len(modules))
	for _, m := range modules {
		entries := make([]match.Import, 0, len(m.Symbols))
		for _, sym := range m.Symbols {
			entries = append(entries, match.Import{Address: sym.Address, Name: sym.Name})
		}
		imports = append(imports, entries)
	}

	matcher := match.New(o.sess)
	if err := matcher.Run(ctx, exports, imports, o.ui.Progress); err != nil {
		return fmt.Errorf("matching names: %w", err)
	}
	return nil
}
