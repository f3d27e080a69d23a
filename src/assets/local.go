package assets

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
	"io"
	"path/filepath"
)

type LocalConfig struct {
	Path     string   `yaml:"path"`
	Ignore   []string `yaml:"ignore"`
	Classify string   `yaml:"classify"` // "metadata" or "listing"
}

// Local is an asset bundle unpacked in a directory on disk.
type Local struct {
	log *zap.SugaredLogger
	cfg *LocalConfig
	fs  billy.Filesystem
}

func NewLocal(log *zap.SugaredLogger, cfg *LocalConfig) *Local {
	return NewLocalFS(log, cfg, osfs.New(cfg.Path))
}

// NewLocalFS builds a Local over an already opened filesystem whose root is
// the asset root. cfg.Path is only used for logging and watching.
func NewLocalFS(log *zap.SugaredLogger, cfg *LocalConfig, fs billy.Filesystem) *Local {
	return &Local{
		log: log,
		cfg: cfg,
		fs:  fs,
	}
}

func (l *Local) Root() string {
	return l.cfg.Path
}

func (l *Local) ListEntries(p Path) ([]Entry, error) {
	l.log.Debugf("Listing %s", p)

	name := l.fsPath(p)
	info, err := l.fs.Stat(name)
	if err != nil {
		return nil, &ListError{Path: p, Err: err}
	}
	if !info.IsDir() {
		return []Entry{}, nil
	}

	ents, err := l.fs.ReadDir(name)
	if err != nil {
		return nil, &ListError{Path: p, Err: err}
	}

	result := make([]Entry, 0, len(ents))
	for _, ent := range ents {
		if l.ignored(ent.Name()) {
			continue
		}

		e := Entry{Name: ent.Name(), Kind: KindFile, Size: ent.Size()}
		if ent.IsDir() {
			e.Kind = KindDir
			e.Size = -1
		}
		result = append(result, e)
	}

	return result, nil
}

func (l *Local) List(p Path) ([]string, error) {
	ents, err := l.ListEntries(p)
	if err != nil {
		return nil, err
	}
	return names(ents), nil
}

func (l *Local) Open(p Path) (io.ReadCloser, error) {
	name := l.fsPath(p)
	info, err := l.fs.Stat(name)
	if err != nil {
		return nil, &OpenError{Path: p, Err: err}
	}
	if info.IsDir() {
		return nil, &OpenError{Path: p, Err: errIsDir}
	}

	f, err := l.fs.Open(name)
	if err != nil {
		return nil, &OpenError{Path: p, Err: err}
	}
	return f, nil
}

func (l *Local) ignored(name string) bool {
	for _, ign := range l.cfg.Ignore {
		if ok, _ := filepath.Match(ign, name); ok {
			return true
		}
	}
	return false
}

func (l *Local) fsPath(p Path) string {
	if p.IsRoot() {
		return "/"
	}
	return l.fs.Join(append([]string{"/"}, p.segs...)...)
}
