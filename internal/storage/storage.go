package storage

import (
	"io"
)

// Storage gives access to the dataset files the catalog is built from.
type Storage interface {
	OpenFile(name string) (io.ReadSeekCloser, error)
	SaveFile(name string, r io.Reader) error
	Exists(name string) bool
}
