package drift

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"verisimdb/internal/hexad"
	"verisimdb/internal/modality"
)

// ReDeriver recomputes the payload for one modality given the rest of an
// entity's current snapshot. Its algorithmic surface is intentionally left
// to the caller (spec.md §4.6: "out of scope beyond this interface") — the
// Normalizer supplies only the dispatch, concurrency guard, and the
// write-back through the hexad store's update path.
type ReDeriver func(ctx context.Context, h hexad.Hexad) (hexad.Input, error)

// Normalizer consumes DriftEvents and re-derives the modality named by the
// event's type, writing the correction back through the hexad store's
// update path so the WAL and transaction semantics are reused (spec.md
// §4.6). At most one normalisation per entity id is in flight at a time.
type Normalizer struct {
	store      *hexad.Store
	log        *zap.Logger
	rederivers map[Type]ReDeriver

	inFlight sync.Map // map[string]struct{}
}

// NewNormalizer constructs a Normalizer over store. Register re-derivation
// strategies per drift Type with RegisterReDeriver before calling Run.
func NewNormalizer(store *hexad.Store, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{store: store, log: log, rederivers: make(map[Type]ReDeriver)}
}

// RegisterReDeriver installs the re-derivation strategy for t.
func (n *Normalizer) RegisterReDeriver(t Type, fn ReDeriver) {
	n.rederivers[t] = fn
}

// Run subscribes to bus and normalises every received event until ctx is
// cancelled, logging and continuing past individual normalisation errors
// so one bad event cannot stall the consumer loop.
func (n *Normalizer) Run(ctx context.Context, bus *EventBus) {
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := n.Normalize(ctx, event.EntityID, event.Type); err != nil {
				n.log.Warn("normalisation failed", zap.String("entity_id", event.EntityID),
					zap.String("type", string(event.Type)), zap.Error(err))
			}
		}
	}
}

// Normalize re-derives the modality associated with primaryType for id and
// writes the correction back through the hexad store, skipping silently if
// a normalisation for id is already in flight.
func (n *Normalizer) Normalize(ctx context.Context, id string, primaryType Type) error {
	if _, already := n.inFlight.LoadOrStore(id, struct{}{}); already {
		return nil
	}
	defer n.inFlight.Delete(id)

	rederive, ok := n.rederivers[primaryType]
	if !ok {
		return nil // no strategy registered for this drift type; nothing to do
	}

	current, err := n.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("drift: normalize: entity %s not found", id)
	}

	input, err := rederive(ctx, *current)
	if err != nil {
		return fmt.Errorf("drift: re-derivation failed: %w", err)
	}

	if input.Provenance == nil {
		input.Provenance = &modality.ProvenanceEntry{
			Timestamp: time.Now().UTC(),
			Actor:     "drift-normalizer",
			Action:    "renormalize",
			Detail:    string(primaryType),
		}
	}

	_, err = n.store.Update(ctx, id, input, "")
	return err
}
