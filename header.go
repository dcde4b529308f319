package ustar

import (
	"io/fs"
	"path"
	"time"
)

// Entry type flags, stored as the single type byte of the header.
// The zero value encodes as a regular file.
const (
	TypeReg     byte = '0'
	TypeLink    byte = '1'
	TypeSymlink byte = '2'
	TypeChar    byte = '3'
	TypeBlock   byte = '4'
	TypeDir     byte = '5'
	TypeFifo    byte = '6'
)

// Header describes one archive entry. Some fields may not be populated.
type Header struct {
	Name     string    // Name of the entry; at most 100 bytes.
	LinkName string    // Target of a link entry; at most 100 bytes.
	Mode     uint32    // Permission bits, octal-encoded on disk.
	UID      int       // Numeric user id of owner.
	GID      int       // Numeric group id of owner.
	Size     int64     // Payload length in bytes; 0 for directories.
	ModTime  time.Time // Modification time, epoch seconds on disk.
	Type     byte      // Entry type; zero encodes as TypeReg.
}

// IsDir reports whether the header describes a directory entry.
func (h *Header) IsDir() bool {
	return h.Type == TypeDir
}

// FileInfo returns an fs.FileInfo for the Header.
func (h *Header) FileInfo() fs.FileInfo {
	return headerFileInfo{h}
}

// headerFileInfo implements fs.FileInfo.
type headerFileInfo struct {
	h *Header
}

func (fi headerFileInfo) Name() string       { return path.Base(fi.h.Name) }
func (fi headerFileInfo) Size() int64        { return fi.h.Size }
func (fi headerFileInfo) ModTime() time.Time { return fi.h.ModTime }
func (fi headerFileInfo) IsDir() bool        { return fi.h.IsDir() }
func (fi headerFileInfo) Sys() any           { return fi.h }

func (fi headerFileInfo) Mode() fs.FileMode {
	mode := fs.FileMode(fi.h.Mode).Perm()
	switch fi.h.Type {
	case TypeDir:
		mode |= fs.ModeDir
	case TypeSymlink:
		mode |= fs.ModeSymlink
	case TypeChar:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case TypeBlock:
		mode |= fs.ModeDevice
	case TypeFifo:
		mode |= fs.ModeNamedPipe
	}
	return mode
}
