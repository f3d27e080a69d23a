package materialize

import (
	"asset-unpack/src/assets"
	"errors"
	"fmt"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
)

var errInjected = errors.New("injected fault")

// mapSource is an untyped bundle built from slash separated file paths.
// Unknown paths list as empty, like an Android AssetManager.
type mapSource struct {
	files   map[string]string
	listErr map[string]error
	openErr map[string]error
	readErr map[string]error
	panics  map[string]bool

	mu     sync.Mutex
	lists  map[string]int
	opened int
	closed int
}

func newMapSource(files map[string]string) *mapSource {
	return &mapSource{
		files:   files,
		listErr: map[string]error{},
		openErr: map[string]error{},
		readErr: map[string]error{},
		panics:  map[string]bool{},
		lists:   map[string]int{},
	}
}

func (s *mapSource) List(p assets.Path) ([]string, error) {
	key := p.String()
	s.mu.Lock()
	s.lists[key]++
	s.mu.Unlock()

	if err := s.listErr[key]; err != nil {
		return nil, &assets.ListError{Path: p, Err: err}
	}

	prefix := ""
	if key != "" {
		prefix = key + "/"
	}
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []string{}
	seen := map[string]bool{}
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		seg := strings.SplitN(k[len(prefix):], "/", 2)[0]
		if !seen[seg] {
			seen[seg] = true
			result = append(result, seg)
		}
	}
	return result, nil
}

func (s *mapSource) Open(p assets.Path) (io.ReadCloser, error) {
	key := p.String()
	if s.panics[key] {
		panic("corrupt asset " + key)
	}
	if err := s.openErr[key]; err != nil {
		return nil, &assets.OpenError{Path: p, Err: err}
	}
	content, ok := s.files[key]
	if !ok {
		return nil, &assets.OpenError{Path: p, Err: os.ErrNotExist}
	}

	var r io.Reader = strings.NewReader(content)
	if err := s.readErr[key]; err != nil {
		r = io.MultiReader(strings.NewReader(content[:len(content)/2]), &failingReader{err: err})
	}

	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &trackedReader{Reader: r, src: s}, nil
}

func (s *mapSource) openHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened - s.closed
}

type failingReader struct {
	err error
}

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }

type trackedReader struct {
	io.Reader
	src *mapSource
}

func (t *trackedReader) Close() error {
	t.src.mu.Lock()
	t.src.closed++
	t.src.mu.Unlock()
	return nil
}

// recordingFS logs every directory and file creation, checks that the
// parent already exists at that moment, and injects failures.
type recordingFS struct {
	billy.Filesystem
	root string

	mu         sync.Mutex
	ops        []string
	violations []string
	failMkdir  map[string]error
	failCreate map[string]error
}

func newRecordingFS(fs billy.Filesystem, root string) *recordingFS {
	return &recordingFS{
		Filesystem: fs,
		root:       root,
		failMkdir:  map[string]error{},
		failCreate: map[string]error{},
	}
}

func (f *recordingFS) record(op, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op+" "+filepath.ToSlash(name))
	if name == f.root {
		return
	}
	parent := filepath.Dir(name)
	if info, err := f.Filesystem.Stat(parent); err != nil || !info.IsDir() {
		f.violations = append(f.violations, fmt.Sprintf("%s %s before %s existed", op, name, parent))
	}
}

func (f *recordingFS) MkdirAll(name string, perm os.FileMode) error {
	f.record("mkdir", name)
	if err := f.failMkdir[filepath.ToSlash(name)]; err != nil {
		return err
	}
	return f.Filesystem.MkdirAll(name, perm)
}

func (f *recordingFS) Create(name string) (billy.File, error) {
	f.record("create", name)
	if err := f.failCreate[filepath.ToSlash(name)]; err != nil {
		return nil, err
	}
	return f.Filesystem.Create(name)
}

func (f *recordingFS) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]string, len(f.ops))
	copy(result, f.ops)
	return result
}

func (f *recordingFS) index(op string) int {
	for i, o := range f.recorded() {
		if o == op {
			return i
		}
	}
	return -1
}

// readTree returns every file under root keyed by its slash separated path
// relative to root. Directories map to "/".
func readTree(t *testing.T, fs billy.Filesystem, root string) map[string]string {
	t.Helper()
	result := map[string]string{}
	err := util.Walk(fs, fs.Join("/", root), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fs.Join("/", root), path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			result[filepath.ToSlash(rel)] = "/"
			return nil
		}
		b, err := util.ReadFile(fs, path)
		if err != nil {
			return err
		}
		result[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return result
}

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func failureKinds(r *Report) map[string]FailureKind {
	result := map[string]FailureKind{}
	for _, f := range r.Failures() {
		result[f.Path.String()] = f.Kind
	}
	return result
}
