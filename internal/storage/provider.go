// Package storage defines the vault file-system abstraction the card scanner reads from.
package storage

// Kind classifies a vault path.
type Kind int

const (
	KindFile Kind = iota + 1
	KindDir
)

// Entry is one child of a vault folder.
type Entry struct {
	Path  string // relative to vault root, forward slashes
	IsDir bool
}

// Provider is the interface for vault document access.
type Provider interface {
	// Stat reports whether path (relative to vault root) is a file or a folder.
	// A missing path returns an error wrapping os.ErrNotExist.
	Stat(path string) (Kind, error)
	// Children lists the direct children of dir in lexical order.
	Children(dir string) ([]Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
}
