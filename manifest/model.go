// Package manifest holds the in-memory NZB model and the streaming parser
// and serializer for it.
package manifest

import (
	"time"
)

// Segment is one article of a file. ID is the bare message-id, without
// angle brackets.
type Segment struct {
	ID     string
	Size   int64
	Number int
}

type File struct {
	Poster string
	// LastModified is in epoch milliseconds.
	LastModified int64
	Subject      string
	// Name is extracted from Subject and may be empty.
	Name     string
	Groups   []string
	Segments []Segment
	// Size is either the subject-declared byte count or the sum of the
	// segment sizes, fixed once the file element closes.
	Size int64
}

func (f *File) Date() time.Time {
	return time.UnixMilli(f.LastModified).UTC()
}

type Manifest struct {
	Name  string
	Head  map[string]string
	Files []*File
	Size  int64
}

func New(name string) *Manifest {
	return &Manifest{
		Name:  name,
		Head:  make(map[string]string),
		Files: make([]*File, 0),
	}
}

// File returns the first file with the given extracted name.
func (m *Manifest) File(name string) *File {
	for _, f := range m.Files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Segments is the number of segments across all files.
func (m *Manifest) Segments() int {
	n := 0
	for _, f := range m.Files {
		n += len(f.Segments)
	}
	return n
}

func (m *Manifest) recomputeSize() {
	m.Size = 0
	for _, f := range m.Files {
		m.Size += f.Size
	}
}
