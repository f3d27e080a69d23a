package assets

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Action uint8

const (
	Create Action = iota + 1
	Write
	Delete
)

type FileEvent struct {
	Path   string // relative to the watched root, slash separated
	Kind   Kind
	Action Action
}

// Watcher reports changes below a Local source root. Directories created
// while watching are picked up automatically.
type Watcher struct {
	log     *zap.SugaredLogger
	root    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	events  chan FileEvent
	closed  sync.Once
}

func NewWatcher(log *zap.SugaredLogger, root string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		log:     log,
		root:    filepath.Clean(root),
		watcher: watcher,
		done:    make(chan struct{}),
		events:  make(chan FileEvent),
	}
	if err := w.watchTree(w.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closed.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		w.log.Debugf("Watching %s", path)
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop() {
	defer close(w.events)

	for {
		select {
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			fe, ok := w.translate(e)
			if !ok {
				continue
			}
			select {
			case w.events <- fe:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorf("error watching %s: %v", w.root, err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) translate(e fsnotify.Event) (FileEvent, bool) {
	fe := FileEvent{Path: w.relPath(e.Name), Kind: KindUnknown}

	switch {
	case e.Op.Has(fsnotify.Remove), e.Op.Has(fsnotify.Rename):
		fe.Action = Delete
		return fe, true
	case e.Op.Has(fsnotify.Create):
		fe.Action = Create
	case e.Op.Has(fsnotify.Write):
		fe.Action = Write
	default:
		return fe, false
	}

	stat, err := os.Stat(e.Name)
	if err != nil {
		w.log.Errorf("error stating %s: %v", e.Name, err)
		return fe, false
	}

	fe.Kind = KindFile
	if stat.IsDir() {
		fe.Kind = KindDir
		if fe.Action == Create {
			if err := w.watchTree(e.Name); err != nil {
				w.log.Errorf("error watching %s: %v", e.Name, err)
			}
		}
	}

	w.log.Debugf("Found changed asset %s", fe.Path)
	return fe, true
}

func (w *Watcher) relPath(path string) string {
	rel := strings.TrimPrefix(path, w.root)
	return strings.TrimPrefix(filepath.ToSlash(rel), "/")
}
