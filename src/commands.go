package main

import (
	"asset-unpack/src/assets"
	"asset-unpack/src/materialize"
	"context"
	"fmt"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"time"
)

// applyArgs lets positional source and destination arguments override the
// configuration file.
func (a *app) applyArgs(args []string) {
	if len(args) > 0 {
		a.cfg.Source.Path = args[0]
	}
	if len(args) > 1 {
		a.cfg.Dest.Path = args[1]
	}
}

func newUnpackCmd(a *app) *cobra.Command {
	var (
		workers    int
		bufferSize int
		classify   string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "unpack [source] [dest]",
		Short: "Copy the asset tree into the destination directory",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyArgs(args)
			flags := cmd.Flags()
			if flags.Changed("workers") {
				a.cfg.Options.Workers = workers
			}
			if flags.Changed("buffer-size") {
				a.cfg.Options.BufferSize = bufferSize
			}
			if flags.Changed("classify") {
				a.cfg.Source.Classify = classify
			}
			if flags.Changed("watch") {
				a.cfg.Watch = watch
			}
			if err := a.cfg.validate(); err != nil {
				return err
			}
			if err := a.cfg.validateDest(); err != nil {
				return err
			}
			return unpack(cmd.Context(), a.log, a.cfg)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 1, "number of concurrent copy workers")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", materialize.DefaultBufferSize, "transfer buffer size in bytes")
	cmd.Flags().StringVar(&classify, "classify", classifyMetadata, "entry classification: metadata or listing")
	cmd.Flags().BoolVar(&watch, "watch", false, "unpack again whenever the source changes")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [source]",
		Short: "Print the asset tree at debug level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyArgs(args)
			if err := a.cfg.validate(); err != nil {
				return err
			}
			_, src := a.cfg.openSource(a.log)
			t, err := assets.Snapshot(a.log, src)
			if err != nil {
				return err
			}
			t.Dump(a.log)
			a.log.Infof("%d assets in %s", t.Leaves(), a.cfg.Source.Path)
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [source] [dest]",
		Short: "Check that every asset is present in the destination",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyArgs(args)
			if err := a.cfg.validate(); err != nil {
				return err
			}
			if err := a.cfg.validateDest(); err != nil {
				return err
			}
			return verify(a.log, a.cfg)
		},
	}
}

func unpack(ctx context.Context, log *zap.SugaredLogger, cfg *config) error {
	local, src := cfg.openSource(log)
	m := materialize.New(log, cfg.Options)
	dst := osfs.New(cfg.Dest.Path)

	report, err := m.Materialize(ctx, src, dst, "")
	if err != nil {
		return err
	}
	log.Infof("Unpacked %s into %s: %v", cfg.Source.Path, cfg.Dest.Path, report)

	if !cfg.Watch {
		return nil
	}
	return watch(ctx, log, local.Root(), cfg.WatchDebounce, func() {
		report, err := m.Materialize(ctx, src, dst, "")
		if err != nil {
			return
		}
		log.Infof("Unpacked %s into %s: %v", cfg.Source.Path, cfg.Dest.Path, report)
	})
}

// watch calls rerun once the source root has been quiet for debounce after
// a change, until ctx is done.
func watch(ctx context.Context, log *zap.SugaredLogger, root string, debounce time.Duration, rerun func()) error {
	w, err := assets.NewWatcher(log, root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	defer func() {
		_ = w.Close()
	}()

	log.Infof("Watching %s for changes", root)
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events():
			if !ok {
				return nil
			}
			log.Debugf("Asset %s changed", e.Path)
			timer = time.After(debounce)
		case <-timer:
			timer = nil
			rerun()
		}
	}
}

func verify(log *zap.SugaredLogger, cfg *config) error {
	_, src := cfg.openSource(log)
	srcTree, err := assets.Snapshot(log, src)
	if err != nil {
		return err
	}

	dst := assets.NewLocal(log, &assets.LocalConfig{Path: cfg.Dest.Path})
	dstTree, err := assets.Snapshot(log, dst)
	if err != nil {
		return err
	}

	diff := dstTree.Compare(srcTree)
	for _, x := range diff {
		log.Errorw("diff", zap.Stringer("x", x))
	}
	if len(diff) > 0 {
		return fmt.Errorf("%d differences between %s and %s", len(diff), cfg.Source.Path, cfg.Dest.Path)
	}
	log.Infof("%s matches %s", cfg.Dest.Path, cfg.Source.Path)
	return nil
}
