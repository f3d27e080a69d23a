package assets

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindDir
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Entry is a name observed while listing a path. Sources that know nothing
// about entry types leave Kind as KindUnknown.
type Entry struct {
	Name string
	Kind Kind

	// only meaningful for Kind == KindFile, -1 when the source cannot tell
	Size int64
}

type Source interface {
	// List returns the names directly under p. Leaves and childless paths
	// list as empty; a *ListError is returned when p cannot be listed at all.
	List(p Path) ([]string, error)

	// Open opens a leaf for sequential reading, or fails with an *OpenError.
	Open(p Path) (io.ReadCloser, error)
}

// TypedSource is a Source able to report entry kinds alongside names, which
// lets callers skip the classify-by-listing round trip.
type TypedSource interface {
	Source

	ListEntries(p Path) ([]Entry, error)
}

var errIsDir = errors.New("is a directory")

type ListError struct {
	Path Path
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list %q: %v", e.Path.String(), e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

type OpenError struct {
	Path Path
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %q: %v", e.Path.String(), e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ValidateName checks that name is usable as a single path segment.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty entry name")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid entry name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("entry name %q contains a path separator", name)
	}
	return nil
}

type untyped struct {
	src Source
}

// Untyped hides any kind metadata src can provide, so consumers fall back
// to classifying entries by listing them.
func Untyped(src Source) Source {
	return &untyped{src: src}
}

func (u *untyped) List(p Path) ([]string, error) {
	return u.src.List(p)
}

func (u *untyped) Open(p Path) (io.ReadCloser, error) {
	return u.src.Open(p)
}

func names(entries []Entry) []string {
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.Name
	}
	return result
}
