package hexad

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"verisimdb/internal/modality"
	"verisimdb/internal/modality/document"
	"verisimdb/internal/modality/graph"
	"verisimdb/internal/modality/provenance"
	"verisimdb/internal/modality/semantic"
	"verisimdb/internal/modality/spatial"
	"verisimdb/internal/modality/temporal"
	"verisimdb/internal/modality/tensor"
	"verisimdb/internal/modality/vector"
	"verisimdb/internal/storage"
	"verisimdb/internal/txn"
	"verisimdb/internal/wal"
)

const statusNamespace = "hexad_status"

// Config carries the parts of spec.md §6's HexadConfig that the hexad
// store itself consults (the rest — transaction limits, WAL sync mode —
// configure the collaborators passed into New).
type Config struct {
	VectorDimension int
	RequireComplete bool
	// Embedder is an optional collaborator the vector sub-store uses to
	// turn raw text into an embedding (see vector.Embedder); nil disables
	// PutText on the composed store.
	Embedder vector.Embedder
}

// Store is the sole writer into the modality sub-stores and the sole
// appender to the write-ahead log (spec.md §4.4). It composes the eight
// sub-stores under shared ownership behind one lock, mirroring the
// teacher's LocalStore composition of its storage tiers.
type Store struct {
	mu  sync.RWMutex
	cfg Config
	log *zap.Logger

	status *storage.TypedStore

	graph      *graph.Store
	vector     *vector.Store
	tensor     *tensor.Store
	semantic   *semantic.Store
	document   *document.Store
	temporal   *temporal.Store
	provenance *provenance.Store
	spatial    *spatial.Store

	wal  *wal.Writer
	txns *txn.Manager
}

// New composes a hexad store over backend, using writer for durability and
// txns for transaction buffering. Both collaborators are constructed by the
// caller (no singletons, spec.md §9).
func New(cfg Config, backend storage.Backend, writer *wal.Writer, txns *txn.Manager, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		cfg:        cfg,
		log:        log,
		status:     storage.NewTypedStore(backend, statusNamespace),
		graph:      graph.New(backend, log.Named("graph")),
		vector:     vector.New(backend, cfg.VectorDimension, cfg.Embedder, log.Named("vector")),
		tensor:     tensor.New(backend, log.Named("tensor")),
		semantic:   semantic.New(backend, log.Named("semantic")),
		document:   document.New(backend, log.Named("document")),
		temporal:   temporal.New(backend, log.Named("temporal")),
		provenance: provenance.New(backend, log.Named("provenance")),
		spatial:    spatial.New(backend, log.Named("spatial")),
		wal:        writer,
		txns:       txns,
	}
}

// modalityOp is one modality's contribution to a single hexad write,
// carrying its payload pre-encoded so it can cross the transaction
// manager's opaque BufferedOp boundary and be replayed identically on
// commit (spec.md §4.4 step 3/4).
type modalityOp struct {
	op      wal.Operation
	id      string
	payload []byte // JSON-encoded modality value; nil for delete
}

func encodePayload(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// buildOps validates input and returns one op per modality present in
// input, keyed by modality; the map itself carries no order.
func (s *Store) buildOps(operation wal.Operation, id string, input Input) (map[modality.Modality]modalityOp, error) {
	ops := make(map[modality.Modality]modalityOp)

	if input.Graph != nil {
		for _, e := range input.Graph {
			if e.Subject == "" || e.Predicate == "" {
				return nil, fmt.Errorf("%w: graph edge missing subject/predicate", ErrValidation)
			}
		}
		payload, err := encodePayload(input.Graph)
		if err != nil {
			return nil, err
		}
		ops[modality.Graph] = modalityOp{op: operation, id: id, payload: payload}
	}
	if input.Vector != nil {
		if len(input.Vector.Vector) != s.vector.Dimension() {
			return nil, fmt.Errorf("%w: vector dimension %d does not match store dimension %d",
				ErrValidation, len(input.Vector.Vector), s.vector.Dimension())
		}
		payload, err := encodePayload(input.Vector)
		if err != nil {
			return nil, err
		}
		ops[modality.Vector] = modalityOp{op: operation, id: id, payload: payload}
	}
	if input.Tensor != nil {
		if len(input.Tensor.Payload) != input.Tensor.ShapeProduct() {
			return nil, fmt.Errorf("%w: tensor payload length does not match shape product", ErrValidation)
		}
		payload, err := encodePayload(input.Tensor)
		if err != nil {
			return nil, err
		}
		ops[modality.Tensor] = modalityOp{op: operation, id: id, payload: payload}
	}
	if input.Semantic != nil {
		payload, err := encodePayload(input.Semantic)
		if err != nil {
			return nil, err
		}
		ops[modality.Semantic] = modalityOp{op: operation, id: id, payload: payload}
	}
	if input.Document != nil {
		payload, err := encodePayload(input.Document)
		if err != nil {
			return nil, err
		}
		ops[modality.Document] = modalityOp{op: operation, id: id, payload: payload}
	}
	if input.Temporal != nil {
		payload, err := encodePayload(input.Temporal)
		if err != nil {
			return nil, err
		}
		ops[modality.Temporal] = modalityOp{op: operation, id: id, payload: payload}
	}
	if input.Provenance != nil {
		payload, err := encodePayload(input.Provenance)
		if err != nil {
			return nil, err
		}
		ops[modality.Provenance] = modalityOp{op: operation, id: id, payload: payload}
	}
	if input.Spatial != nil {
		payload, err := encodePayload(input.Spatial)
		if err != nil {
			return nil, err
		}
		ops[modality.Spatial] = modalityOp{op: operation, id: id, payload: payload}
	}

	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: input carries no modality payloads", ErrValidation)
	}
	if s.cfg.RequireComplete && operation == wal.OpInsert && len(ops) != len(modality.Ordered) {
		return nil, fmt.Errorf("%w: require_complete is set and input omits one or more modalities", ErrValidation)
	}
	return ops, nil
}

func orderedModalities(ops map[modality.Modality]modalityOp) []modality.Modality {
	out := make([]modality.Modality, 0, len(ops))
	for _, m := range modality.Ordered {
		if _, ok := ops[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// applyDirect appends one WAL record per op (as a single batch so the
// write set shares a contiguous sequence range and stays in one segment),
// then applies each sub-store mutation in declared order, then updates
// status (spec.md §4.4 write-path algorithm steps 4-6).
func (s *Store) applyDirect(ctx context.Context, id string, ops map[modality.Modality]modalityOp) (Hexad, error) {
	order := orderedModalities(ops)

	records := make([]wal.Record, len(order))
	for i, m := range order {
		op := ops[m]
		records[i] = wal.Record{Timestamp: time.Now().UTC(), Operation: op.op, Modality: m, EntityID: id, Payload: op.payload}
	}
	sequences, err := s.wal.AppendBatch(records)
	if err != nil {
		return Hexad{}, fmt.Errorf("hexad: wal append: %w", err)
	}

	for _, m := range order {
		op := ops[m]
		if err := s.applyModalityMutation(ctx, m, op); err != nil {
			return Hexad{}, &ModalityError{Modality: m, Message: err.Error(), Err: err}
		}
	}

	lastSequence := sequences[len(sequences)-1]
	status, err := s.updateStatus(ctx, id, order, ops, lastSequence)
	if err != nil {
		return Hexad{}, err
	}
	return s.assemble(ctx, status)
}

func (s *Store) applyModalityMutation(ctx context.Context, m modality.Modality, op modalityOp) error {
	if op.op == wal.OpDelete {
		switch m {
		case modality.Graph:
			_, err := s.graph.Delete(ctx, op.id)
			return err
		case modality.Vector:
			_, err := s.vector.Delete(ctx, op.id)
			return err
		case modality.Tensor:
			_, err := s.tensor.Delete(ctx, op.id)
			return err
		case modality.Semantic:
			_, err := s.semantic.Delete(ctx, op.id)
			return err
		case modality.Document:
			_, err := s.document.Delete(ctx, op.id)
			return err
		case modality.Temporal:
			_, err := s.temporal.Delete(ctx, op.id)
			return err
		case modality.Provenance:
			_, err := s.provenance.Delete(ctx, op.id)
			return err
		case modality.Spatial:
			_, err := s.spatial.Delete(ctx, op.id)
			return err
		}
		return nil
	}

	switch m {
	case modality.Graph:
		var edges []modality.GraphEdge
		if err := json.Unmarshal(op.payload, &edges); err != nil {
			return err
		}
		return s.graph.PutEdges(ctx, op.id, edges)
	case modality.Vector:
		var v VectorInput
		if err := json.Unmarshal(op.payload, &v); err != nil {
			return err
		}
		return s.vector.Put(ctx, op.id, v.Vector, v.ModelTag)
	case modality.Tensor:
		var t modality.Tensor
		if err := json.Unmarshal(op.payload, &t); err != nil {
			return err
		}
		t.ID = op.id
		return s.tensor.Put(ctx, t)
	case modality.Semantic:
		var ann modality.SemanticAnnotation
		if err := json.Unmarshal(op.payload, &ann); err != nil {
			return err
		}
		ann.EntityID = op.id
		return s.semantic.Put(ctx, ann)
	case modality.Document:
		var doc modality.Document
		if err := json.Unmarshal(op.payload, &doc); err != nil {
			return err
		}
		doc.ID = op.id
		return s.document.Put(ctx, doc)
	case modality.Temporal:
		var ti TemporalInput
		if err := json.Unmarshal(op.payload, &ti); err != nil {
			return err
		}
		_, err := s.temporal.Append(ctx, op.id, temporal.Record{Payload: ti.Payload, Author: ti.Author, Message: ti.Message})
		return err
	case modality.Provenance:
		var entry modality.ProvenanceEntry
		if err := json.Unmarshal(op.payload, &entry); err != nil {
			return err
		}
		return s.provenance.Append(ctx, op.id, entry)
	case modality.Spatial:
		var g modality.Geometry
		if err := json.Unmarshal(op.payload, &g); err != nil {
			return err
		}
		return s.spatial.Put(ctx, op.id, g)
	}
	return nil
}

func (s *Store) updateStatus(ctx context.Context, id string, order []modality.Modality, ops map[modality.Modality]modalityOp, lastSequence uint64) (HexadStatus, error) {
	var st HexadStatus
	found, err := s.status.Get(ctx, id, &st)
	if err != nil {
		return HexadStatus{}, err
	}
	now := time.Now().UTC()
	if !found {
		st = HexadStatus{ID: id, CreatedAt: now}
	}
	st.ModifiedAt = now
	st.Version++
	st.LastAppliedSequence = lastSequence
	for _, m := range order {
		st.Modalities.Set(m, ops[m].op != wal.OpDelete)
	}
	if err := s.status.Put(ctx, id, st); err != nil {
		return HexadStatus{}, err
	}
	return st, nil
}

// Create validates input, assigns a new id, and applies the write
// (spec.md §4.4 "create").
func (s *Store) Create(ctx context.Context, input Input, txnID string) (Hexad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	ops, err := s.buildOps(wal.OpInsert, id, input)
	if err != nil {
		return Hexad{}, err
	}
	if txnID != "" {
		return s.bufferOps(txnID, id, ops)
	}
	return s.applyDirect(ctx, id, ops)
}

// Update merges input into the existing entity (spec.md §4.4 "update").
func (s *Store) Update(ctx context.Context, id string, input Input, txnID string) (Hexad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing HexadStatus
	found, err := s.status.Get(ctx, id, &existing)
	if err != nil {
		return Hexad{}, err
	}
	if !found {
		return Hexad{}, ErrNotFound
	}

	ops, err := s.buildOps(wal.OpUpdate, id, input)
	if err != nil {
		return Hexad{}, err
	}
	if txnID != "" {
		return s.bufferOps(txnID, id, ops)
	}
	return s.applyDirect(ctx, id, ops)
}

// Delete removes id from every sub-store whose status flag was set;
// provenance records are retained (spec.md §4.4 "delete").
func (s *Store) Delete(ctx context.Context, id string, txnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing HexadStatus
	found, err := s.status.Get(ctx, id, &existing)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	ops := make(map[modality.Modality]modalityOp)
	for _, m := range modality.Ordered {
		if m == modality.Provenance {
			continue // provenance is retained per policy
		}
		if existing.Modalities.Get(m) {
			ops[m] = modalityOp{op: wal.OpDelete, id: id}
		}
	}
	if len(ops) == 0 {
		return nil
	}
	if txnID != "" {
		_, err := s.bufferOps(txnID, id, ops)
		return err
	}
	_, err = s.applyDirect(ctx, id, ops)
	return err
}

// bufferOps hands each op to the transaction manager as a separately
// buffered operation and returns a synthesised pending snapshot (spec.md
// §4.4 step 3); no WAL append or sub-store mutation happens until commit.
func (s *Store) bufferOps(txnID, id string, ops map[modality.Modality]modalityOp) (Hexad, error) {
	for _, m := range orderedModalities(ops) {
		op := ops[m]
		if err := s.txns.BufferOp(txnID, txn.BufferedOp{Modality: m, Operation: op.op, EntityID: id, Payload: op.payload}); err != nil {
			return Hexad{}, err
		}
	}
	return Hexad{Status: HexadStatus{ID: id}}, nil
}

// Begin starts a new transaction, returning its id.
func (s *Store) Begin() (string, error) { return s.txns.Begin() }

// CommitTransaction applies every operation buffered under txnID: ops
// touching the same entity are flattened (last write per modality wins,
// matching create/update merge semantics) and applied as one write set per
// entity, each bumping that entity's version exactly once.
func (s *Store) CommitTransaction(ctx context.Context, txnID string) ([]Hexad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buffered, err := s.txns.Commit(txnID)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	grouped := make(map[string]map[modality.Modality]modalityOp)
	for _, op := range buffered {
		if _, ok := grouped[op.EntityID]; !ok {
			grouped[op.EntityID] = make(map[modality.Modality]modalityOp)
			order = append(order, op.EntityID)
		}
		grouped[op.EntityID][op.Modality] = modalityOp{op: op.Operation, id: op.EntityID, payload: op.Payload}
	}

	results := make([]Hexad, 0, len(order))
	for _, id := range order {
		h, err := s.applyDirect(ctx, id, grouped[id])
		if err != nil {
			return results, err
		}
		results = append(results, h)
	}
	return results, nil
}

// RollbackTransaction discards every operation buffered under txnID,
// returning the count discarded.
func (s *Store) RollbackTransaction(txnID string) (int, error) {
	return s.txns.Rollback(txnID)
}

// Get fetches the status and fans out to each modality sub-store flagged
// active, assembling a value-type snapshot (spec.md §4.4 read-path).
func (s *Store) Get(ctx context.Context, id string) (*Hexad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st HexadStatus
	found, err := s.status.Get(ctx, id, &st)
	if err != nil || !found {
		return nil, err
	}
	h, err := s.assemble(ctx, st)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Status returns just the header record for id.
func (s *Store) Status(ctx context.Context, id string) (*HexadStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st HexadStatus
	found, err := s.status.Get(ctx, id, &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (s *Store) assemble(ctx context.Context, st HexadStatus) (Hexad, error) {
	h := Hexad{Status: st}

	if st.Modalities.Graph {
		edges, _, err := s.graph.Get(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Graph = edges
	}
	if st.Modalities.Vector {
		emb, _, err := s.vector.Get(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Vector = emb
	}
	if st.Modalities.Tensor {
		t, _, err := s.tensor.Get(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Tensor = t
	}
	if st.Modalities.Semantic {
		ann, _, err := s.semantic.Get(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Semantic = ann
	}
	if st.Modalities.Document {
		doc, _, err := s.document.Get(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Document = doc
	}
	if st.Modalities.Temporal {
		history, err := s.temporal.History(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Temporal = toTemporalRecords(history)
	}
	if st.Modalities.Provenance {
		entries, err := s.provenance.Get(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Provenance = entries
	}
	if st.Modalities.Spatial {
		g, _, err := s.spatial.Get(ctx, st.ID)
		if err != nil {
			return Hexad{}, err
		}
		h.Spatial = g
	}
	return h, nil
}

func toTemporalRecords(recs []temporal.Record) []TemporalRecord {
	out := make([]TemporalRecord, len(recs))
	for i, r := range recs {
		out[i] = TemporalRecord{Version: r.Version, Timestamp: r.Timestamp, Payload: r.Payload, Author: r.Author, Message: r.Message}
	}
	return out
}

// SearchSimilar executes the vector sub-store's k-NN search, then fetches
// each hit's snapshot in bulk (spec.md §4.4 "search_similar").
func (s *Store) SearchSimilar(ctx context.Context, query []float32, k int) ([]Hexad, error) {
	s.mu.RLock()
	hits, err := s.vector.SearchSimilar(ctx, query, k)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return s.fetchMany(ctx, idsFromScoredVector(hits))
}

// SearchText executes the document sub-store's full-text search, then
// fetches each hit's snapshot in bulk (spec.md §4.4 "search_text").
func (s *Store) SearchText(ctx context.Context, query string, limit int) ([]Hexad, error) {
	s.mu.RLock()
	hits, err := s.document.SearchText(ctx, query, limit)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return s.fetchMany(ctx, idsFromScoredDocument(hits))
}

// QueryRelated executes the graph sub-store's traversal in both directions
// and fetches each related entity's snapshot (spec.md §4.4 "query_related").
func (s *Store) QueryRelated(ctx context.Context, id, predicate string) ([]Hexad, error) {
	s.mu.RLock()
	ids, err := s.graph.QueryRelated(ctx, id, predicate, graph.Both)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return s.fetchMany(ctx, ids)
}

// AtTime reconstructs the entity's temporal payload as of timestamp,
// paired with the current state of its other modalities — a deliberate
// scope decision (the spec leaves whole-entity time travel open-ended):
// only the temporal modality actually carries a version chain, so "as of
// timestamp" reconstructs that chain's value at the requested time while
// the remaining modalities reflect their latest state.
func (s *Store) AtTime(ctx context.Context, id string, timestamp time.Time) (*Hexad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st HexadStatus
	found, err := s.status.Get(ctx, id, &st)
	if err != nil || !found {
		return nil, err
	}
	h, err := s.assemble(ctx, st)
	if err != nil {
		return nil, err
	}
	if st.Modalities.Temporal {
		rec, found, err := s.temporal.AtTime(ctx, id, timestamp)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		h.Temporal = []TemporalRecord{{Version: rec.Version, Timestamp: rec.Timestamp, Payload: rec.Payload, Author: rec.Author, Message: rec.Message}}
	}
	return &h, nil
}

func (s *Store) fetchMany(ctx context.Context, ids []string) ([]Hexad, error) {
	out := make([]Hexad, 0, len(ids))
	for _, id := range ids {
		var st HexadStatus
		found, err := s.status.Get(ctx, id, &st)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		h, err := s.assemble(ctx, st)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func idsFromScoredVector(hits []vector.Scored) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func idsFromScoredDocument(hits []document.Scored) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}
