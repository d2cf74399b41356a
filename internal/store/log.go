// Package store persists finished attempts and their artifacts.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"job-applier/internal/config"
	"job-applier/internal/entity"
	"job-applier/internal/ports"
	"job-applier/pkg/apperr"
	"job-applier/pkg/logg"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const logName = "ApplicationLog"

// ApplicationLog is a badgerhold-backed append-only attempt log.
type ApplicationLog struct {
	mu     sync.Mutex
	store  *badgerhold.Store
	logger *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewApplicationLog(params Params) (*ApplicationLog, error) {
	return Open(params.Config.StoreConfig.Path, params.Logger)
}

// Open opens (or creates) the log under dir.
func Open(dir string, logger *zap.Logger) (*ApplicationLog, error) {
	const op = "OpenApplicationLog"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.WrapWithReason(op, apperr.CodeInternal, err, "create store directory")
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaStage:  apperr.StagePersistence,
			apperr.MetaReason: "open badger store",
		})
	}

	logger = logger.With(zap.String(logg.Layer, logName))
	logger.Debug("Application log opened", zap.String("path", dir))

	return &ApplicationLog{store: store, logger: logger}, nil
}

func appliedQuery(jobURL, applicantKey string) *badgerhold.Query {
	return badgerhold.Where("JobURL").Eq(jobURL).
		And("ApplicantKey").Eq(applicantKey).
		And("Outcome").Eq(entity.OutcomeApplied)
}

func (l *ApplicationLog) HasApplied(_ context.Context, jobURL, applicantKey string) (bool, error) {
	const op = "HasApplied"

	var found []entity.LogRecord
	if err := l.store.Find(&found, appliedQuery(jobURL, applicantKey).Limit(1)); err != nil {
		return false, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaStage: apperr.StagePersistence,
			apperr.MetaURL:   jobURL,
		})
	}

	return len(found) > 0, nil
}

// Append stores rec. An applied record is only written when no applied
// record exists for the same key; the check and the insert share one
// transaction.
func (l *ApplicationLog) Append(_ context.Context, rec *entity.LogRecord) error {
	const op = "Append"

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.Badger().Update(func(tx *badger.Txn) error {
		if rec.Outcome == entity.OutcomeApplied {
			var existing []entity.LogRecord
			if err := l.store.TxFind(tx, &existing, appliedQuery(rec.JobURL, rec.ApplicantKey).Limit(1)); err != nil {
				return err
			}

			if len(existing) > 0 {
				return ports.ErrAlreadyApplied
			}
		}

		return l.store.TxInsert(tx, rec.AttemptID, rec)
	})

	switch {
	case err == nil:
		l.logger.Info("Attempt recorded",
			zap.String(logg.AttemptID, rec.AttemptID),
			zap.String(logg.URL, rec.JobURL),
			zap.String(logg.Outcome, string(rec.Outcome)),
		)

		return nil
	case errors.Is(err, ports.ErrAlreadyApplied):
		return fmt.Errorf("%s %s: %w", op, rec.JobURL, err)
	default:
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaStage:   apperr.StagePersistence,
			apperr.MetaAttempt: rec.AttemptID,
		})
	}
}

// List returns every record, oldest first.
func (l *ApplicationLog) List(_ context.Context) ([]*entity.LogRecord, error) {
	const op = "List"

	var records []entity.LogRecord
	if err := l.store.Find(&records, (&badgerhold.Query{}).SortBy("Timestamp")); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaStage: apperr.StagePersistence,
		})
	}

	out := make([]*entity.LogRecord, len(records))
	for i := range records {
		out[i] = &records[i]
	}

	return out, nil
}

func (l *ApplicationLog) Close() error {
	if l.store != nil {
		return l.store.Close()
	}

	return nil
}
