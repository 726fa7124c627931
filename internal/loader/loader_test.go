package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redlarch/deptrack/internal/annot"
	"github.com/redlarch/deptrack/internal/binfmt"
	"github.com/redlarch/deptrack/internal/common"
	"github.com/redlarch/deptrack/internal/registry"
	"github.com/redlarch/deptrack/internal/session"
)

// fakeFS serves fixed file contents so tests can use Windows-style paths.
type fakeFS struct {
	files map[string][]byte
}

type fakeFile struct{ *bytes.Reader }

func (fakeFile) Close() error { return nil }

func (f *fakeFS) Open(path string) (common.File, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fakeFile{bytes.NewReader(data)}, nil
}

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (f *fakeFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	f.files[path] = data
	return nil
}

func (f *fakeFS) FileExists(path string) (bool, error) {
	_, ok := f.files[path]
	return ok, nil
}

func (f *fakeFS) MkdirAll(path string, perm os.FileMode) error { return nil }

// fakeReader hands back a canned module regardless of file content.
type fakeReader struct {
	mod       *binfmt.Module
	detectErr error
	readErr   error
}

func (r *fakeReader) Detect(io.ReaderAt) (binfmt.Plan, error) {
	if r.detectErr != nil {
		return binfmt.Plan{}, r.detectErr
	}
	return binfmt.Plan{Format: binfmt.FormatPE}, nil
}

func (r *fakeReader) Read(binfmt.Plan, string, io.ReaderAt) (*binfmt.Module, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	return r.mod, nil
}

func depModule() *binfmt.Module {
	return &binfmt.Module{
		Format: binfmt.FormatPE,
		Segments: []binfmt.Segment{
			{Name: ".text", Addr: 0x1000, Size: 0x100, Kind: binfmt.SegmentCode},
		},
		Exports: []binfmt.Export{{Name: "Alpha", Addr: 0x1000}},
	}
}

func newTestLoader(mod *binfmt.Module) (*Loader, *registry.Registry, *session.Session, *fakeFS) {
	reg := registry.New()
	sess := session.New("primary.exe")
	fs := &fakeFS{files: map[string][]byte{
		`C:\libs\a.dll`: []byte("MZ..."),
	}}
	l := NewWithCollaborators(reg, sess, session.DefaultLoadOptions, fs, &fakeReader{mod: mod})
	return l, reg, sess, fs
}

func TestLoader_LoadThenAlreadyLoaded(t *testing.T) {
	l, reg, _, _ := newTestLoader(depModule())
	ctx := context.Background()

	outcome, err := l.Load(ctx, `C:\libs\a.dll`)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLoaded, outcome)

	outcome, err = l.Load(ctx, `C:\libs\a.dll`)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyLoaded, outcome)

	assert.Equal(t, []string{`C:\libs\a.dll`}, reg.Filenames())
}

func TestLoader_TagsNewSegments(t *testing.T) {
	l, _, sess, _ := newTestLoader(depModule())

	_, err := l.Load(context.Background(), `C:\libs\a.dll`)
	require.NoError(t, err)

	require.Equal(t, 1, sess.SegmentCount())
	seg := sess.Segment(0)
	assert.Equal(t, "a.dll", seg.Name, "segment renamed to the display name")

	text, ok := sess.SegmentComment(0)
	require.True(t, ok)
	name, kind := annot.Decode(text)
	assert.Equal(t, annot.KindDependency, kind)
	assert.Equal(t, `C:\libs\a.dll`, name)
}

func TestLoader_OpenFailure(t *testing.T) {
	l, reg, _, _ := newTestLoader(depModule())

	outcome, err := l.Load(context.Background(), `C:\libs\missing.dll`)
	assert.Equal(t, OutcomeLoadFailed, outcome)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 0, reg.Len(), "failed loads are not registered")
}

func TestLoader_DetectFailure(t *testing.T) {
	reg := registry.New()
	sess := session.New("primary.exe")
	fs := &fakeFS{files: map[string][]byte{"a.bin": []byte("????")}}
	l := NewWithCollaborators(reg, sess, session.DefaultLoadOptions, fs,
		&fakeReader{detectErr: binfmt.ErrUnknownFormat})

	outcome, err := l.Load(context.Background(), "a.bin")
	assert.Equal(t, OutcomeLoadFailed, outcome)
	assert.ErrorIs(t, err, binfmt.ErrUnknownFormat)
	assert.Equal(t, 0, sess.SegmentCount())
}

func TestLoader_ReadFailure(t *testing.T) {
	reg := registry.New()
	sess := session.New("primary.exe")
	fs := &fakeFS{files: map[string][]byte{"a.bin": []byte("MZ")}}
	l := NewWithCollaborators(reg, sess, session.DefaultLoadOptions, fs,
		&fakeReader{readErr: errors.New("truncated header")})

	outcome, err := l.Load(context.Background(), "a.bin")
	assert.Equal(t, OutcomeLoadFailed, outcome)
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLoader_EmptyModuleFailure(t *testing.T) {
	l, reg, _, fs := newTestLoader(&binfmt.Module{})
	fs.files["empty.dll"] = []byte("MZ")

	outcome, err := l.Load(context.Background(), "empty.dll")
	assert.Equal(t, OutcomeLoadFailed, outcome)
	assert.ErrorIs(t, err, session.ErrNoSegments)
	assert.Equal(t, 0, reg.Len())
}

func TestLoader_UnencodableFilename(t *testing.T) {
	l, reg, _, _ := newTestLoader(depModule())

	outcome, err := l.Load(context.Background(), "bad\nname.dll")
	assert.Equal(t, OutcomeLoadFailed, outcome)
	assert.ErrorIs(t, err, ErrUnencodableFilename)
	assert.Equal(t, 0, reg.Len())
}

func TestLoader_CancelledContext(t *testing.T) {
	l, reg, _, _ := newTestLoader(depModule())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := l.Load(ctx, `C:\libs\a.dll`)
	assert.Equal(t, OutcomeLoadFailed, outcome)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, reg.Len())
}

func TestLoader_ThunkAnnotation(t *testing.T) {
	mod := depModule()
	// Export body is jmp +0x10.
	mod.Segments[0].Data = append([]byte{0xe9, 0x10, 0x00, 0x00, 0x00}, make([]byte, 0x20)...)

	l, _, sess, _ := newTestLoader(mod)
	_, err := l.Load(context.Background(), `C:\libs\a.dll`)
	require.NoError(t, err)

	// Module base 0x1000 maps to session base 0, so the export lands at 0.
	text, ok := sess.Comment(0)
	require.True(t, ok)
	assert.Equal(t, "jump thunk -> 0x15", text)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "loaded", OutcomeLoaded.String())
	assert.Equal(t, "already_loaded", OutcomeAlreadyLoaded.String())
	assert.Equal(t, "load_failed", OutcomeLoadFailed.String())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "a.dll", displayName(`C:\libs\a.dll`))
	assert.Equal(t, "libfoo.so", displayName("/usr/lib/libfoo.so"))
	assert.Equal(t, "bare.dll", displayName("bare.dll"))
}
