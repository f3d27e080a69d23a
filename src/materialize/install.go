package materialize

import (
	"asset-unpack/src/assets"
	"context"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
)

// Install is the startup hook form of Materialize: it copies src into the
// directory dstRoot on the local disk and reports only through log. Hosts
// call it once before their assets are needed and carry on regardless of
// the outcome.
func Install(ctx context.Context, log *zap.SugaredLogger, src assets.Source, dstRoot string, opts Options) {
	m := New(log, opts)
	report, err := m.Materialize(ctx, src, osfs.New(dstRoot), "")
	if err != nil {
		return
	}
	if report.FailureCount() > 0 {
		m.log.Warnf("Some assets were not installed into %s, see errors above", dstRoot)
	}
}
