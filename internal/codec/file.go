package codec

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jeanpaul/cookbook/internal/store"
)

const (
	// DefaultPath is where the collection lives unless configured otherwise.
	DefaultPath = "collection.ron"

	// DefaultRatio is how many times the file size is reserved for its
	// decompressed form.
	DefaultRatio = 10

	// minCapacity keeps tiny files from tripping the decoder's window floor.
	minCapacity = 64 << 10
)

// File binds a codec to a path on disk.
type File struct {
	codec *Codec
	path  string
	ratio int
}

// NewFile returns a file handle. An empty path means DefaultPath and a
// non-positive ratio means DefaultRatio.
func NewFile(c *Codec, path string, ratio int) *File {
	if path == "" {
		path = DefaultPath
	}
	if ratio <= 0 {
		ratio = DefaultRatio
	}
	return &File{codec: c, path: path, ratio: ratio}
}

func (f *File) Path() string { return f.path }

// Save writes the store atomically: a temp file next to the target is
// written, synced and renamed over it. An existing file keeps its mode; a new
// one is created 0644.
func (f *File) Save(st *store.Store) error {
	data, err := f.codec.Encode(st)
	if err != nil {
		return withPath(err, f.path)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return &PersistenceError{Op: "save", Path: f.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	// CreateTemp makes the file 0600; keep the target's mode instead.
	mode := fs.FileMode(0644)
	if info, err := os.Stat(f.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		cleanup()
		return &PersistenceError{Op: "save", Path: f.path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return &PersistenceError{Op: "save", Path: f.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return &PersistenceError{Op: "save", Path: f.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &PersistenceError{Op: "save", Path: f.path, Err: err}
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		cleanup()
		return &PersistenceError{Op: "save", Path: f.path, Err: err}
	}

	f.codec.log.Info("collection saved",
		zap.String("path", f.path),
		zap.Int("items", st.Len()),
		zap.Int("bytes", len(data)))
	return nil
}

// Load reads and decodes the file. The decompression capacity is the file
// size times the ratio.
func (f *File) Load() (*store.Store, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: f.path, Err: err}
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: f.path, Err: err}
	}

	capacity := int(info.Size()) * f.ratio
	if capacity < minCapacity {
		capacity = minCapacity
	}

	st, err := f.codec.Decode(data, capacity)
	if err != nil {
		return nil, withPath(err, f.path)
	}
	f.codec.log.Info("collection loaded", zap.String("path", f.path), zap.Int("items", st.Len()))
	return st, nil
}

// OpenOrSeed loads the file, or returns a freshly seeded store when it does
// not exist yet. Every other failure is returned as is.
func (f *File) OpenOrSeed() (*store.Store, bool, error) {
	st, err := f.Load()
	if err == nil {
		return st, true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		f.codec.log.Info("no collection on disk, starting from seeds", zap.String("path", f.path))
		return store.New(), false, nil
	}
	return nil, false, err
}

func withPath(err error, path string) error {
	var perr *PersistenceError
	if errors.As(err, &perr) && perr.Path == "" {
		perr.Path = path
	}
	var sv *SchemaViolation
	if errors.As(err, &sv) && sv.Path == "" {
		sv.Path = path
	}
	return err
}
