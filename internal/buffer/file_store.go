package buffer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/patch"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileStore reads and writes documents on the local filesystem.
type FileStore struct {
	// Encoding is the IANA name used when decoding and encoding.
	Encoding string
	// Backup keeps the original bytes at Path[.BackupID]+BackupSuffix
	// before replacing.
	Backup       bool
	BackupSuffix string
	BackupID     string
}

// NewFileStore creates a FileStore for the given encoding.
func NewFileStore(encodingName string) *FileStore {
	return &FileStore{Encoding: encodingName, BackupSuffix: ".bak"}
}

var _ Store = (*FileStore)(nil)

// Load reads filePath and decodes it. Decode failures are returned as
// patch.ErrEncoding so they fail a run the same way a patch failure does.
func (s *FileStore) Load(filePath string) (*File, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("'%s' is a directory", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file '%s': %w", filePath, err)
	}

	f := &File{Path: filePath, Encoding: s.Encoding, Mode: info.Mode().Perm(), raw: data}
	text, bom, err := decode(data, s.Encoding)
	if err != nil {
		return nil, fmt.Errorf("file '%s': %w", filePath, err)
	}
	f.BOM = bom
	f.Document = patch.NewDocument(text)
	logger.DebugTagf("buffer", "Loaded %s: %d bytes, %d lines, encoding %s", filePath, len(data), f.Document.LineCount(), s.Encoding)
	return f, nil
}

// Save encodes doc and atomically replaces f.Path with it: the bytes go to a
// temporary file in the same directory which is then renamed over the target.
func (s *FileStore) Save(f *File, doc patch.Document) error {
	data, err := encode(doc.String(), f.Encoding, f.BOM)
	if err != nil {
		return fmt.Errorf("file '%s': %w", f.Path, err)
	}

	dir, base := filepath.Split(f.Path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for '%s': %w", f.Path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write '%s': %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync '%s': %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close '%s': %w", tmpPath, err)
	}
	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("failed to set mode on '%s': %w", tmpPath, err)
	}

	if s.Backup && f.raw != nil {
		backup := s.BackupPath(f.Path)
		if err := os.WriteFile(backup, f.raw, mode); err != nil {
			return fmt.Errorf("failed to write backup '%s': %w", backup, err)
		}
		logger.DebugTagf("buffer", "Backup written to %s", backup)
	}

	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("failed to replace '%s': %w", f.Path, err)
	}
	committed = true
	f.raw = data
	f.Document = doc
	logger.DebugTagf("buffer", "Saved %s: %d bytes", f.Path, len(data))
	return nil
}

// BackupPath returns where Save keeps the original of filePath.
func (s *FileStore) BackupPath(filePath string) string {
	if s.BackupID != "" {
		return filePath + "." + s.BackupID + s.BackupSuffix
	}
	return filePath + s.BackupSuffix
}

func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}

func decode(data []byte, name string) (string, bool, error) {
	if isUTF8(name) {
		bom := bytes.HasPrefix(data, utf8BOM)
		if bom {
			data = data[len(utf8BOM):]
		}
		if !utf8.Valid(data) {
			return "", false, patch.EncodingError("utf-8", fmt.Errorf("invalid byte at offset %d", firstInvalid(data)))
		}
		return string(data), bom, nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", false, patch.EncodingError(name, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false, patch.EncodingError(name, err)
	}
	return string(out), false, nil
}

func encode(text, name string, bom bool) ([]byte, error) {
	if isUTF8(name) {
		if !bom {
			return []byte(text), nil
		}
		return append(append([]byte(nil), utf8BOM...), text...), nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, patch.EncodingError(name, err)
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		e := patch.EncodingError(name, err)
		e.Detail = fmt.Sprintf("cannot encode as %s", name)
		return nil, e
	}
	return out, nil
}

func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// IsNotExist reports whether err means the target file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
