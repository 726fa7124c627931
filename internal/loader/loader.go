// Package loader implements the idempotent dependency load operation: open
// the file, auto-detect its format, merge it into the session, tag the new
// segments with the originating filename, and register the load.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/redlarch/deptrack/internal/annot"
	"github.com/redlarch/deptrack/internal/binfmt"
	"github.com/redlarch/deptrack/internal/common"
	"github.com/redlarch/deptrack/internal/registry"
	"github.com/redlarch/deptrack/internal/session"
)

// thunkWindow is how many bytes of an export body are examined for a jump
// thunk.
const thunkWindow = 16

// ErrUnencodableFilename is returned for filenames that cannot be stored in
// a segment annotation slot.
var ErrUnencodableFilename = errors.New("filename cannot be encoded into an annotation")

// Outcome is the three-way result of a load attempt.
type Outcome int

const (
	// OutcomeLoaded means the file was loaded and registered.
	OutcomeLoaded Outcome = iota

	// OutcomeAlreadyLoaded means the file was registered by an earlier
	// load (possibly in a previous run of the tool). It is a normal
	// outcome, not an error.
	OutcomeAlreadyLoaded

	// OutcomeLoadFailed means opening, detection or the session merge
	// failed. The accompanying error carries the cause; the session
	// stays usable.
	OutcomeLoadFailed
)

// String returns a string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomeAlreadyLoaded:
		return "already_loaded"
	case OutcomeLoadFailed:
		return "load_failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// ModuleReader abstracts format detection and parsing so tests can feed
// synthetic modules through the loader.
type ModuleReader interface {
	Detect(r io.ReaderAt) (binfmt.Plan, error)
	Read(plan binfmt.Plan, path string, r io.ReaderAt) (*binfmt.Module, error)
}

// defaultReader delegates to the binfmt package.
type defaultReader struct{}

func (defaultReader) Detect(r io.ReaderAt) (binfmt.Plan, error) {
	return binfmt.Detect(r)
}

func (defaultReader) Read(plan binfmt.Plan, path string, r io.ReaderAt) (*binfmt.Module, error) {
	return binfmt.Read(plan, path, r)
}

// Loader loads dependency files into a session exactly once each.
type Loader struct {
	registry *registry.Registry
	sess     *session.Session
	opts     session.LoadOption
	fs       common.FileSystem
	reader   ModuleReader
}

// New creates a Loader with the real file system and format readers.
func New(reg *registry.Registry, sess *session.Session, opts session.LoadOption) *Loader {
	return NewWithCollaborators(reg, sess, opts, common.NewDefaultFileSystem(), defaultReader{})
}

// NewWithCollaborators creates a Loader with custom file system and module
// reader collaborators.
func NewWithCollaborators(reg *registry.Registry, sess *session.Session, opts session.LoadOption, fs common.FileSystem, reader ModuleReader) *Loader {
	return &Loader{
		registry: reg,
		sess:     sess,
		opts:     opts,
		fs:       fs,
		reader:   reader,
	}
}

// Load loads the file at filename into the session. The registry reflects
// loads that have already happened, so the membership check runs before any
// side effect; a second Load of the same filename returns
// OutcomeAlreadyLoaded without touching the session.
//
// All resources acquired along the way are released on every exit path.
func (l *Loader) Load(ctx context.Context, filename string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return OutcomeLoadFailed, err
	}
	if !annot.Encodable(filename) {
		return OutcomeLoadFailed, fmt.Errorf("%w: %q", ErrUnencodableFilename, filename)
	}
	if l.registry.Contains(filename) {
		return OutcomeAlreadyLoaded, nil
	}

	f, err := l.fs.Open(filename)
	if err != nil {
		return OutcomeLoadFailed, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()

	plan, err := l.reader.Detect(f)
	if err != nil {
		return OutcomeLoadFailed, fmt.Errorf("detecting format of %s: %w", filename, err)
	}

	mod, err := l.reader.Read(plan, filename, f)
	if err != nil {
		return OutcomeLoadFailed, fmt.Errorf("reading %s: %w", filename, err)
	}

	res, err := l.sess.LoadModule(mod, l.opts)
	if err != nil {
		return OutcomeLoadFailed, fmt.Errorf("merging %s into session: %w", filename, err)
	}

	l.tagSegments(res.AddedSegments, filename)
	l.annotateThunks(mod, res.Delta)

	if err := l.registry.Insert(filename); err != nil {
		// Unreachable after the Contains check above, but the registry
		// is the source of truth, so surface it rather than ignore it.
		return OutcomeLoadFailed, err
	}

	slog.Info("loaded dependency",
		"file", filename,
		"format", plan.Format.String(),
		"segments", len(res.AddedSegments))
	return OutcomeLoaded, nil
}

// tagSegments writes the originating filename into every new segment that
// has no annotation yet and renames it to the file's display name.
// Segments that already carry an annotation, for instance from a previous
// partial run, are left untouched.
func (l *Loader) tagSegments(added []int, filename string) {
	display := displayName(filename)
	for _, i := range added {
		if _, ok := l.sess.SegmentComment(i); ok {
			continue
		}
		l.sess.SetSegmentName(i, display)
		l.sess.SetSegmentComment(i, annot.Encode(filename))
	}
}

// annotateThunks marks exports whose body is a single unconditional jump,
// so the analyst sees where a forwarding export actually lands.
func (l *Loader) annotateThunks(mod *binfmt.Module, delta uint64) {
	for _, exp := range mod.Exports {
		code := mod.Bytes(exp.Addr, thunkWindow)
		if code == nil {
			continue
		}
		target, ok := binfmt.ResolveJumpThunk(code, exp.Addr)
		if !ok {
			continue
		}
		l.sess.SetComment(exp.Addr+delta, fmt.Sprintf("jump thunk -> %#x", target+delta), false)
	}
}

// displayName returns the final path component of filename, handling both
// path separator conventions since the session may reference files from
// either platform.
func displayName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		return filename[i+1:]
	}
	return filename
}
