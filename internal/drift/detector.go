package drift

import (
	"sync"

	"go.uber.org/zap"
)

// Detector evaluates a recorded drift score against its effective
// threshold and publishes a DriftEvent when it is exceeded (spec.md §4.6
// "record(type, score, entities)"). One mutex per entity id serialises
// concurrent records for that entity so published events preserve
// per-entity order (spec.md §5 ordering guarantee).
type Detector struct {
	thresholds Thresholds
	metrics    *Metrics
	bus        *EventBus
	log        *zap.Logger

	entityLocks sync.Map // map[string]*sync.Mutex
}

// NewDetector constructs a Detector. Pass drift.DefaultThresholds() for
// the spec's published cutoffs.
func NewDetector(thresholds Thresholds, metrics *Metrics, bus *EventBus, log *zap.Logger) *Detector {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if bus == nil {
		bus = NewEventBus()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{thresholds: thresholds, metrics: metrics, bus: bus, log: log}
}

// Bus exposes the event bus for subscribers (e.g. the normaliser).
func (d *Detector) Bus() *EventBus { return d.bus }

func (d *Detector) lockFor(entityID string) *sync.Mutex {
	v, _ := d.entityLocks.LoadOrStore(entityID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Record updates the type's moving-average metric, and — if score exceeds
// the type's effective threshold — constructs and publishes a DriftEvent,
// returning it. Returns nil when the score does not exceed the
// threshold.
func (d *Detector) Record(entityID string, t Type, score float64, entities []string) *Event {
	lock := d.lockFor(entityID)
	lock.Lock()
	defer lock.Unlock()

	score = clamp01(score)
	movingAverage := d.metrics.record(t, score)

	threshold := d.thresholds.forType(t).Effective(movingAverage)
	if score <= threshold {
		return nil
	}

	event := Event{
		EntityID:  entityID,
		Type:      t,
		Score:     score,
		Threshold: threshold,
		Severity:  ClassifySeverity(score),
		Entities:  entities,
	}
	published := d.bus.publish(event)
	d.metrics.recordEvent(t)
	d.log.Warn("drift threshold exceeded",
		zap.String("entity_id", entityID), zap.String("type", string(t)),
		zap.Float64("score", score), zap.Float64("threshold", threshold),
		zap.String("severity", string(published.Severity)))
	return &published
}
