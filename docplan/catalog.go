package docplan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/nonibytes/docplan/docplan/planner"
	"github.com/nonibytes/docplan/docplan/query"
	"github.com/nonibytes/docplan/docplan/storage"
	"github.com/nonibytes/docplan/docplan/value"
)

// Catalog is the index catalog of a document store together with the query
// planner that ranks its indexes.
type Catalog struct {
	backend storage.Backend
	opts    CatalogOptions
	logger  log.Logger
	metrics *plannerMetrics

	// mu keeps catalog changes out of a planning request's snapshot.
	mu sync.RWMutex
}

// Open initialises the catalog structures of backend (idempotent) and
// returns a Catalog over it. The catalog owns backend and closes it.
func Open(ctx context.Context, backend storage.Backend, opts CatalogOptions) (*Catalog, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := backend.Init(ctx); err != nil {
		_ = backend.Close()
		level.Error(opts.Logger).Log("msg", "initialise catalog failed", "backend", backend.Kind(), "err", err)
		return nil, backendError("initialise catalog", backend, err)
	}
	logger := log.With(opts.Logger, "component", "catalog", "backend", backend.Kind())
	level.Debug(logger).Log("msg", "catalog opened", "id", backend.ID())
	return &Catalog{
		backend: backend,
		opts:    opts,
		logger:  logger,
		metrics: newPlannerMetrics(opts.Registerer),
	}, nil
}

// Close closes the backend
func (c *Catalog) Close() error {
	if err := c.backend.Close(); err != nil {
		return Wrap(ErrIO, "close backend", err)
	}
	return nil
}

// CreateIndex adds an index to collection, after every existing one in
// catalog order. An empty name defaults to the key pattern's name.
func (c *Catalog) CreateIndex(ctx context.Context, collection string, keyPatternJSON []byte, name string) (IndexSpec, error) {
	if collection == "" {
		return IndexSpec{}, New(ErrMalformedCatalog, "collection name is required")
	}
	kp, err := query.ParseKeyPattern(keyPatternJSON)
	if err != nil {
		return IndexSpec{}, MalformedCatalog(collection, name, err)
	}
	if err := validateKeyPattern(kp); err != nil {
		return IndexSpec{}, MalformedCatalog(collection, name, err)
	}
	if name == "" {
		name = kp.Name()
	}
	encoded, err := kp.MarshalJSON()
	if err != nil {
		return IndexSpec{}, Wrap(ErrMalformedCatalog, "encode key pattern", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.backend.PutIndex(ctx, storage.IndexRecord{
		Collection:  collection,
		Name:        name,
		KeyPattern:  encoded,
		CreatedAtMS: c.opts.Now().UnixMilli(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return IndexSpec{}, DuplicateError(collection, name, err)
		}
		return IndexSpec{}, c.storageFailure("create index", err)
	}
	c.metrics.catalogChanges.WithLabelValues("create").Inc()
	level.Info(c.logger).Log("msg", "index created", "collection", collection, "index", name, "key", kp.String())
	return IndexSpec{Collection: collection, Name: name, KeyPattern: kp, CreatedAtMS: rec.CreatedAtMS}, nil
}

// DropIndex removes an index. It reports whether the index existed.
func (c *Catalog) DropIndex(ctx context.Context, collection, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped, err := c.backend.DropIndex(ctx, collection, name)
	if err != nil {
		return false, c.storageFailure("drop index", err)
	}
	if dropped {
		c.metrics.catalogChanges.WithLabelValues("drop").Inc()
		level.Info(c.logger).Log("msg", "index dropped", "collection", collection, "index", name)
	}
	return dropped, nil
}

// ListIndexes returns the indexes of collection in catalog order.
func (c *Catalog) ListIndexes(ctx context.Context, collection string) ([]IndexSpec, error) {
	c.mu.RLock()
	recs, err := c.backend.Indexes(ctx, collection)
	c.mu.RUnlock()
	if err != nil {
		return nil, c.storageFailure("list indexes", err)
	}
	out := make([]IndexSpec, 0, len(recs))
	for _, r := range recs {
		kp, err := decodeRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, IndexSpec{Collection: r.Collection, Name: r.Name, KeyPattern: kp, CreatedAtMS: r.CreatedAtMS})
	}
	return out, nil
}

// Collections returns the collections that have at least one index.
func (c *Catalog) Collections(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	colls, err := c.backend.Collections(ctx)
	if err != nil {
		return nil, c.storageFailure("list collections", err)
	}
	return colls, nil
}

// Plan ranks the scan strategies for predicateJSON and sortJSON over the
// indexes of collection. A predicate that no document can satisfy is not an
// error; the result is marked Unsatisfiable and has no candidates.
func (c *Catalog) Plan(ctx context.Context, collection string, predicateJSON, sortJSON []byte, opts PlanOptions) (res PlanResult, err error) {
	start := time.Now()
	defer func() {
		c.metrics.duration.Observe(time.Since(start).Seconds())
		switch {
		case err != nil:
			c.metrics.requests.WithLabelValues(outcomeError).Inc()
		case res.Unsatisfiable:
			c.metrics.requests.WithLabelValues(outcomeUnsatisfiable).Inc()
		default:
			c.metrics.requests.WithLabelValues(outcomePlanned).Inc()
		}
	}()

	if collection == "" {
		return PlanResult{}, New(ErrMalformedCatalog, "collection name is required")
	}
	pred, err := value.ParseDoc(predicateJSON)
	if err != nil {
		return PlanResult{}, MalformedPredicate(err)
	}
	sort, err := query.ParseKeyPattern(sortJSON)
	if err != nil {
		return PlanResult{}, MalformedSort(err)
	}

	// The snapshot is materialised under the read lock; planning runs on it
	// without touching the live catalog.
	c.mu.RLock()
	snap, err := storage.TakeSnapshot(ctx, c.backend, collection)
	c.mu.RUnlock()
	if err != nil {
		return PlanResult{}, c.storageFailure("read catalog", err)
	}
	indexes, err := descriptors(snap)
	if err != nil {
		level.Warn(c.logger).Log("msg", "malformed catalog entry", "collection", collection, "err", err)
		return PlanResult{}, err
	}

	ps, err := planner.NewPlanSet(pred, sort, indexes, planner.WithLogger(c.logger))
	if err != nil {
		return PlanResult{}, MalformedPredicate(err)
	}

	res = PlanResult{
		Collection:     collection,
		Unsatisfiable:  ps.Unsatisfiable(),
		Evaluated:      ps.Evaluated(),
		ShortCircuited: ps.ShortCircuited(),
		Fingerprint:    storage.FingerprintString(snap.Fingerprint),
		Candidates:     make([]Candidate, 0, len(ps.Plans())),
	}
	if ps.Unsatisfiable() {
		if opts.RejectUnsatisfiable {
			return PlanResult{}, Wrap(ErrContradiction, "predicate is unsatisfiable", ps.UnsatisfiableReason())
		}
		res.Reason = ps.UnsatisfiableReason().Error()
	} else {
		res.Nontrivial = ps.Bounds().Nontrivial()
	}
	for _, p := range ps.Plans() {
		res.Candidates = append(res.Candidates, candidate(p))
	}
	if opts.Explain {
		res.ExplainSteps = ps.Explain()
	}

	c.metrics.evaluated.Add(float64(ps.Evaluated()))
	if ps.ShortCircuited() {
		c.metrics.shortCircuits.Inc()
	}
	level.Debug(c.logger).Log("msg", "planned", "collection", collection, "candidates", len(res.Candidates),
		"evaluated", res.Evaluated, "unsatisfiable", res.Unsatisfiable, "fingerprint", res.Fingerprint)
	return res, nil
}

// CompileMatcher compiles predicateJSON into the matcher an executor runs
// over the documents a plan yields.
func CompileMatcher(predicateJSON []byte) (*query.Matcher, error) {
	pred, err := value.ParseDoc(predicateJSON)
	if err != nil {
		return nil, MalformedPredicate(err)
	}
	m, err := query.Compile(pred)
	if err != nil {
		return nil, MalformedPredicate(err)
	}
	return m, nil
}

func candidate(p planner.QueryPlan) Candidate {
	c := p.Counters()
	return Candidate{
		Index:             p.Index().Name,
		KeyPattern:        p.Index().KeyPattern,
		FullScan:          p.FullScan(),
		RequiresExtraSort: p.RequiresExtraSort(),
		Optimal:           p.Optimal(),
		KeyMatch:          p.KeyMatch(),
		ExactKeyMatch:     p.ExactKeyMatch(),
		ScanDirection:     p.ScanDirection(),
		Indexed:           c.Indexed,
		OrderEqIndexed:    c.OrderEqIndexed,
		Exact:             c.Exact,
	}
}

func descriptors(snap storage.Snapshot) ([]planner.IndexDescriptor, error) {
	out := make([]planner.IndexDescriptor, 0, len(snap.Records))
	for _, r := range snap.Records {
		kp, err := decodeRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, planner.IndexDescriptor{Name: r.Name, KeyPattern: kp})
	}
	return out, nil
}

func decodeRecord(r storage.IndexRecord) (query.KeyPattern, error) {
	kp, err := query.ParseKeyPattern(r.KeyPattern)
	if err != nil {
		return nil, MalformedCatalog(r.Collection, r.Name, err)
	}
	if err := validateKeyPattern(kp); err != nil {
		return nil, MalformedCatalog(r.Collection, r.Name, err)
	}
	return kp, nil
}

func validateKeyPattern(kp query.KeyPattern) error {
	switch {
	case kp.Empty():
		return fmt.Errorf("%w: empty key pattern", query.ErrMalformed)
	case len(kp) > MaxKeyFields:
		return fmt.Errorf("%w: key pattern has %d fields, at most %d allowed", query.ErrMalformed, len(kp), MaxKeyFields)
	}
	return nil
}

func (c *Catalog) storageFailure(msg string, err error) *Error {
	level.Error(c.logger).Log("msg", msg+" failed", "err", err)
	return backendError(msg, c.backend, err)
}

func backendError(msg string, b storage.Backend, err error) *Error {
	switch b.Kind() {
	case storage.BackendSQLite, storage.BackendPostgres:
		return Wrap(ErrSQL, msg, err)
	}
	return Wrap(ErrBackend, msg, err)
}
