package snapshot

import (
	"context"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

// loader is the read surface Bootstrap needs.
type loader interface {
	Load(ctx context.Context, namespace string) ([]byte, error)
}

// Bootstrap rehydrates the tab store for a namespace. A missing row
// starts a fresh store; a readable-but-damaged payload falls back to
// the store's own per-partition repair. Only an actual storage failure
// is returned.
func Bootstrap(ctx context.Context, repo loader, namespace string, onFlush pos.FlushFunc, log *logger.Logger) (*pos.Store, error) {
	ctx = log.WithField(ctx, "namespace", namespace)

	payload, err := repo.Load(ctx, namespace)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			log.Info(ctx, "no persisted tabs, starting fresh")
			return pos.NewStore(onFlush), nil
		}
		return nil, err
	}

	snap, err := pos.DecodeSnapshot(payload)
	if err != nil {
		log.Warn(ctx, "unreadable tab snapshot, starting fresh")
		return pos.NewStore(onFlush), nil
	}
	return pos.RestoreStore(snap, onFlush), nil
}
