package materialize

import (
	"asset-unpack/src/assets"
	"asset-unpack/src/taskqueue"
	"context"
	"errors"
	"fmt"
	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"io"
	"os"
	"time"
)

// Component names the logger every materialization line is written to.
const Component = "assets"

const dirPerm = 0755

type Options struct {
	// Workers above 1 materialize sibling subtrees concurrently.
	Workers int `yaml:"workers"`

	// BufferSize is the transfer buffer size, DefaultBufferSize if zero.
	BufferSize int `yaml:"buffer_size"`
}

type Materializer struct {
	log  *zap.SugaredLogger
	opts Options
	pool *bufferPool
}

func New(log *zap.SugaredLogger, opts Options) *Materializer {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Materializer{
		log:  log.Named(Component),
		opts: opts,
		pool: newBufferPool(opts.BufferSize),
	}
}

// Materialize reproduces the tree exposed by src under root on dst.
// Failures below the root are contained, logged and collected in the report;
// the only returned error is a *FatalError for an unusable root, in which
// case nothing was written.
func (m *Materializer) Materialize(ctx context.Context, src assets.Source, dst billy.Filesystem, root string) (*Report, error) {
	r := &run{
		ctx:    ctx,
		log:    m.log.With("run", uuid.NewString()),
		src:    src,
		dst:    dst,
		pool:   m.pool,
		report: &Report{Started: time.Now()},
	}
	defer func() { r.report.Finished = time.Now() }()

	if err := prepareRoot(dst, root); err != nil {
		fe := &FatalError{Root: root, Err: err}
		r.log.Errorf("Failed to create destination directory: %v", fe)
		return r.report, fe
	}

	r.log.Infof("Starting to copy assets to %q", root)
	children, err := assets.ListChildren(src, assets.Root())
	if err != nil {
		r.fail(ListFailure, assets.Root(), err)
	} else if m.opts.Workers > 1 {
		r.concurrent(m.opts.Workers, root, children)
	} else {
		r.sequential(root, children)
	}

	if err := ctx.Err(); err != nil {
		r.report.cancel(err)
		r.log.Warnf("Copying assets interrupted: %v", err)
	}
	r.log.Infof("Finished copying assets: %d dirs, %d files, %d bytes, %d failures",
		r.report.Dirs(), r.report.Files(), r.report.Bytes(), r.report.FailureCount())
	return r.report, nil
}

func prepareRoot(dst billy.Filesystem, root string) error {
	info, err := dst.Stat(root)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", info.Name())
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return dst.MkdirAll(root, dirPerm)
}

// item is an entry waiting to be classified, paired with its destination.
type item struct {
	path  assets.Path
	dest  string
	entry assets.Entry
}

type run struct {
	ctx    context.Context
	log    *zap.SugaredLogger
	src    assets.Source
	dst    billy.Filesystem
	pool   *bufferPool
	report *Report
}

func (r *run) items(p assets.Path, dest string, children []assets.Entry) []item {
	result := make([]item, len(children))
	for i, e := range children {
		result[i] = item{path: p.Join(e.Name), dest: r.dst.Join(dest, e.Name), entry: e}
	}
	return result
}

// sequential walks depth-first, pre-order, keeping pending entries on an
// explicit stack. A subtree is finished before its next sibling starts.
func (r *run) sequential(root string, children []assets.Entry) {
	stack := pushReversed(nil, r.items(assets.Root(), root, children))
	for len(stack) > 0 {
		if r.ctx.Err() != nil {
			return
		}

		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch kind, sub := r.visit(it); kind {
		case assets.KindFile:
			r.copyLeaf(it)
		case assets.KindDir:
			stack = pushReversed(stack, r.items(it.path, it.dest, sub))
		}
	}
}

func pushReversed(stack []item, items []item) []item {
	for i := len(items) - 1; i >= 0; i-- {
		stack = append(stack, items[i])
	}
	return stack
}

// concurrent runs one task per directory and one per leaf. A directory is
// created before the task for its children is queued.
func (r *run) concurrent(workers int, root string, children []assets.Entry) {
	tq := taskqueue.NewTaskQueue(workers, false)
	tq.Push(r.dirTask(tq, assets.Root(), root, children))
	if err := tq.Run(r.ctx); err != nil && r.ctx.Err() == nil {
		r.log.Errorf("Worker failed: %v", err)
	}
}

func (r *run) dirTask(tq *taskqueue.TaskQueue, p assets.Path, dest string, children []assets.Entry) taskqueue.Task {
	return func() error {
		for _, it := range r.items(p, dest, children) {
			if err := r.ctx.Err(); err != nil {
				return err
			}

			switch kind, sub := r.visit(it); kind {
			case assets.KindFile:
				leaf := it
				tq.Push(func() error {
					r.copyLeaf(leaf)
					return nil
				})
			case assets.KindDir:
				tq.Push(r.dirTask(tq, it.path, it.dest, sub))
			}
		}
		return nil
	}
}

// visit classifies it. Directories are created here and returned with their
// children; KindUnknown means the entry was skipped.
func (r *run) visit(it item) (assets.Kind, []assets.Entry) {
	if err := assets.ValidateName(it.entry.Name); err != nil {
		r.fail(ListFailure, it.path, err)
		return assets.KindUnknown, nil
	}

	c, err := assets.Classify(r.src, it.path, it.entry)
	if err != nil {
		r.fail(ListFailure, it.path, err)
	}
	if c.Kind == assets.KindFile {
		return assets.KindFile, nil
	}

	r.log.Debugf("Creating directory: %s", it.dest)
	if err := r.dst.MkdirAll(it.dest, dirPerm); err != nil {
		r.fail(DirectoryCreateFailure, it.path, err)
		return assets.KindUnknown, nil
	}
	r.report.dirCreated()

	if c.Listed {
		return assets.KindDir, c.Children
	}
	children, err := assets.ListChildren(r.src, it.path)
	if err != nil {
		r.fail(ListFailure, it.path, err)
		return assets.KindUnknown, nil
	}
	return assets.KindDir, children
}

func (r *run) copyLeaf(it item) {
	defer func() {
		if p := recover(); p != nil {
			r.fail(LeafTransferFailure, it.path, fmt.Errorf("panic copying %s: %v", it.path, p))
		}
	}()

	r.log.Debugf("Copying file: %s to %s", it.path, it.dest)
	n, err := r.transfer(it)
	if err != nil {
		r.fail(LeafTransferFailure, it.path, err)
		return
	}
	r.report.fileCopied(n)
}

func (r *run) transfer(it item) (n int64, err error) {
	in, err := r.src.Open(it.path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := r.dst.Create(it.dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", it.dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", it.dest, cerr)
		}
	}()

	buf := r.pool.get()
	defer r.pool.put(buf)

	// hide ReadFrom/WriteTo so the copy always goes through buf
	n, err = io.CopyBuffer(struct{ io.Writer }{out}, struct{ io.Reader }{in}, *buf)
	if err != nil {
		return n, fmt.Errorf("copy to %s after %d bytes: %w", it.dest, n, err)
	}
	return n, nil
}

func (r *run) fail(kind FailureKind, p assets.Path, err error) {
	f := &Failure{Kind: kind, Path: p, Err: err}
	r.log.Errorf("Failed to %s asset %q: %v", kind, p.String(), err)
	r.report.fail(f)
}
