package natstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"howett.net/plist"
)

const (
	// DefaultPath is the NAT preference plist macOS keeps the Internet
	// Sharing configuration in.
	DefaultPath = "/Library/Preferences/SystemConfiguration/com.apple.nat.plist"

	// revisionKey is the root-level monotonic counter this tool maintains
	// for optimistic concurrency. The GUI ignores unknown root keys and
	// preserves them on its own rewrites.
	revisionKey = "Revision"
)

// Store reads and writes the persisted sharing record.
type Store struct {
	fs afero.Fs

	// Path is the plist location; overridable for tests and non-standard
	// SystemConfiguration roots.
	Path string
}

// New creates a Store over the given filesystem at the default plist path.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs, Path: DefaultPath}
}

// Read loads the current record and its revision. A missing file yields an
// empty disabled record at revision zero: sharing that was never configured
// is indistinguishable from sharing that was disabled and cleaned up.
func (s *Store) Read() (*Record, Revision, error) {
	info, err := s.fs.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Record{raw: map[string]any{}}, Revision{}, nil
		}
		return nil, Revision{}, fmt.Errorf("%w: stat %s: %v", ErrStoreUnavailable, s.Path, err)
	}

	data, err := afero.ReadFile(s.fs, s.Path)
	if err != nil {
		return nil, Revision{}, fmt.Errorf("%w: read %s: %v", ErrStoreUnavailable, s.Path, err)
	}

	var root map[string]any
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return nil, Revision{}, fmt.Errorf("%w: parse %s: %v", ErrCorruptState, s.Path, err)
	}

	rec, err := decodeRecord(root)
	if err != nil {
		return nil, Revision{}, err
	}

	rev := Revision{ModTime: info.ModTime()}
	if seq, ok := plistInt64(root[revisionKey]); ok {
		rev.Seq = seq
	}
	return rec, rev, nil
}

// WriteAtomic validates the record and persists it, failing with
// ErrConcurrentModification if the on-disk revision no longer matches
// expected. The plist is written to a temporary file in the same directory
// and renamed into place, so readers observe either the old or the new
// complete record.
func (s *Store) WriteAtomic(rec *Record, expected Revision) (Revision, error) {
	if err := rec.Validate(); err != nil {
		return Revision{}, err
	}

	current, err := s.currentRevision()
	if err != nil {
		return Revision{}, err
	}
	if !current.Equal(expected) {
		return Revision{}, fmt.Errorf("%w: expected revision %d, store at %d", ErrConcurrentModification, expected.Seq, current.Seq)
	}

	seq := expected.Seq + 1
	data, err := plist.Marshal(rec.encodeRoot(seq), plist.BinaryFormat)
	if err != nil {
		return Revision{}, fmt.Errorf("%w: encode record: %v", ErrInvalidRecord, err)
	}

	if err := s.replaceFile(data); err != nil {
		return Revision{}, err
	}

	info, err := s.fs.Stat(s.Path)
	if err != nil {
		return Revision{}, fmt.Errorf("%w: stat after write: %v", ErrStoreUnavailable, err)
	}
	return Revision{Seq: seq, ModTime: info.ModTime()}, nil
}

// currentRevision reads just the revision of the on-disk record.
func (s *Store) currentRevision() (Revision, error) {
	info, err := s.fs.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Revision{}, nil
		}
		return Revision{}, fmt.Errorf("%w: stat %s: %v", ErrStoreUnavailable, s.Path, err)
	}

	data, err := afero.ReadFile(s.fs, s.Path)
	if err != nil {
		return Revision{}, fmt.Errorf("%w: read %s: %v", ErrStoreUnavailable, s.Path, err)
	}
	var root map[string]any
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return Revision{}, fmt.Errorf("%w: parse %s: %v", ErrCorruptState, s.Path, err)
	}

	rev := Revision{ModTime: info.ModTime()}
	if seq, ok := plistInt64(root[revisionKey]); ok {
		rev.Seq = seq
	}
	return rev, nil
}

// replaceFile writes data to a temp file next to the target and renames it
// into place. Rename within a directory is atomic on APFS/HFS+.
func (s *Store) replaceFile(data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStoreUnavailable, dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".com.apple.nat.plist.*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrStoreUnavailable, err)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%w: chmod temp file: %v", ErrStoreUnavailable, err)
	}

	if err := s.fs.Rename(tmpName, s.Path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%w: rename into place: %v", ErrStoreUnavailable, err)
	}
	return nil
}
