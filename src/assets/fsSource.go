package assets

import (
	"io"
	"io/fs"
)

// FSSource serves assets out of any fs.FS, typically an embed.FS compiled
// into the host binary.
type FSSource struct {
	fsys fs.FS
}

func FS(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) ListEntries(p Path) ([]Entry, error) {
	info, err := fs.Stat(s.fsys, p.fsName())
	if err != nil {
		return nil, &ListError{Path: p, Err: err}
	}
	if !info.IsDir() {
		return []Entry{}, nil
	}

	ents, err := fs.ReadDir(s.fsys, p.fsName())
	if err != nil {
		return nil, &ListError{Path: p, Err: err}
	}

	result := make([]Entry, len(ents))
	for i, e := range ents {
		result[i].Name = e.Name()
		result[i].Size = -1
		if e.IsDir() {
			result[i].Kind = KindDir
			continue
		}
		result[i].Kind = KindFile
		if fi, err := e.Info(); err == nil {
			result[i].Size = fi.Size()
		}
	}

	return result, nil
}

func (s *FSSource) List(p Path) ([]string, error) {
	ents, err := s.ListEntries(p)
	if err != nil {
		return nil, err
	}
	return names(ents), nil
}

func (s *FSSource) Open(p Path) (io.ReadCloser, error) {
	f, err := s.fsys.Open(p.fsName())
	if err != nil {
		return nil, &OpenError{Path: p, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: p, Err: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, &OpenError{Path: p, Err: fs.ErrInvalid}
	}

	return f, nil
}
