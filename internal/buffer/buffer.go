// internal/buffer/buffer.go
package buffer

import (
	"io/fs"

	"github.com/bethropolis/blockpatch/internal/patch"
)

// Store defines how target documents are read and written back.
type Store interface {
	Load(filePath string) (*File, error)
	// Save replaces the file's content with doc in a single write.
	Save(f *File, doc patch.Document) error
}

// File is a loaded target: its decoded Document plus what is needed to
// write it back the way it was read.
type File struct {
	Path     string
	Encoding string
	Mode     fs.FileMode
	BOM      bool // a UTF-8 byte order mark was stripped on load
	Document patch.Document

	raw []byte
}
