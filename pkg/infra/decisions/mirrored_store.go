package decisions

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
)

// mirroredStore writes to the primary store synchronously and hands the record
// to the mirror worker once the primary write succeeded. Reads go to the primary.
type mirroredStore struct {
	decision.Store
	worker MirrorWorker
}

func NewMirroredStore(primary decision.Store, worker MirrorWorker) decision.Store {
	if worker == nil {
		return primary
	}
	return &mirroredStore{Store: primary, worker: worker}
}

func (s *mirroredStore) Append(ctx context.Context, record *decision.Record) error {
	if err := s.Store.Append(ctx, record); err != nil {
		return err
	}
	s.worker.Enqueue(record)
	return nil
}

func (s *mirroredStore) Close() error {
	s.worker.Shutdown()
	return s.Store.Close()
}
