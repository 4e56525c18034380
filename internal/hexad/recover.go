package hexad

import (
	"context"

	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/wal"
)

// Recover replays the WAL found in dir and re-applies every record not yet
// reflected in the sub-stores (spec.md §4.4 "Recovery rule"). Records are
// skipped when their sequence is less than or equal to the entity's
// LastAppliedSequence, making replay idempotent across repeated crashes.
// Recovery must complete before the store accepts any new write.
func (s *Store) Recover(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reader, err := wal.OpenReader(dir)
	if err != nil {
		return err
	}

	return reader.Replay(func(rec wal.Record, crcErr error) error {
		if crcErr != nil {
			s.log.Warn("hexad: skipping corrupt WAL record during recovery",
				zap.Uint64("sequence", rec.Sequence), zap.Error(crcErr))
			return nil
		}
		if rec.Modality == modality.All {
			return nil // checkpoint/log marker, not a hexad mutation
		}

		var st HexadStatus
		found, err := s.status.Get(ctx, rec.EntityID, &st)
		if err != nil {
			return err
		}
		if found && rec.Sequence <= st.LastAppliedSequence {
			return nil
		}

		op := modalityOp{op: rec.Operation, id: rec.EntityID, payload: rec.Payload}
		if err := s.applyModalityMutation(ctx, rec.Modality, op); err != nil {
			return &ModalityError{Modality: rec.Modality, Message: err.Error(), Err: err}
		}
		if _, err := s.updateStatus(ctx, rec.EntityID, []modality.Modality{rec.Modality},
			map[modality.Modality]modalityOp{rec.Modality: op}, rec.Sequence); err != nil {
			return err
		}
		return nil
	})
}
