package pipeline

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jobsift/jobsift/internal/entities"
	"github.com/jobsift/jobsift/internal/events"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/metrics"
	"github.com/jobsift/jobsift/internal/normalizer"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type documentStore interface {
	EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error
	InsertUnique(ctx context.Context, collection string, document any, uniqueFields []string) (bool, error)
	InsertMany(ctx context.Context, collection string, documents []any, ordered bool) (inserted, duplicates int)
}

type dedupStore interface {
	MarkSeen(ctx context.Context, source, jobID string) bool
	WasSeen(ctx context.Context, source, jobID string) bool
}

// Source yields the raw records of one feed. A nil record marks an entry
// that could not be decoded as an object.
type Source interface {
	Name() string
	Records() ([]map[string]any, error)
}

type state string

const (
	stateIdle       state = "Idle"
	stateConnecting state = "Connecting"
	stateStreaming  state = "StreamingRecords"
	stateDraining   state = "Draining"
	stateClosed     state = "Closed"
)

// Stats are the per-run counters. ItemsProcessed counts records that made
// it through without a per-record failure; Duplicates is the subset that
// was skipped as already stored.
type Stats struct {
	FilesProcessed int
	ItemsProcessed int
	Duplicates     int
	Failures       int
}

type Options struct {
	Collection string

	// BatchSize > 0 buffers records and flushes them through the unordered
	// bulk insert instead of upserting one by one.
	BatchSize int

	// GateOnDedup consults the dedup store before persisting and skips
	// records already seen. Off by default: marking is then write-only
	// telemetry and non-duplication rests on the unique index alone.
	GateOnDedup bool

	KeepRawData        bool
	MaxWritesPerSecond float32
}

// Pipeline drives one ingestion run: normalize, dedup-mark, persist.
// It owns its store sessions for the run and is not safe for concurrent
// use; records are pulled and fully processed one at a time.
type Pipeline struct {
	documents documentStore
	dedup     dedupStore
	bus       EventBus.Bus
	opts      Options
	limiter   *rate.Limiter

	state state
	seq   int
	batch []any
	stats Stats
}

func New(documents documentStore, dedup dedupStore, bus EventBus.Bus, opts Options) *Pipeline {

	p := &Pipeline{
		documents: documents,
		dedup:     dedup,
		bus:       bus,
		opts:      opts,
		state:     stateIdle,
	}

	if p.opts.Collection == "" {
		p.opts.Collection = "jobs"
	}
	if p.opts.MaxWritesPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(p.opts.MaxWritesPerSecond), 1)
	}

	return p
}

// Run processes every source to completion, drains, and reports the run
// counters. Cancelling ctx finishes the current record, then drains and
// closes; per-record and per-source failures never abort the run.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (Stats, error) {

	start := time.Now()
	p.setState(stateConnecting)

	if p.documents == nil {
		p.setState(stateClosed)
		return p.stats, errors.New("document store is not available")
	}

	// The unique index may already exist; a declare failure is logged by
	// the client and the run proceeds on the existing constraint.
	_ = p.documents.EnsureUniqueIndex(ctx, p.opts.Collection, entities.UniqueFields())

	if p.dedup == nil {
		log.Warn("dedup store unavailable, dedup marking disabled for this run")
	}

	p.setState(stateStreaming)
	for _, source := range sources {
		select {
		case <-ctx.Done():
			log.Infof("ingestion canceled, draining")
		default:
			p.processSource(ctx, source)
			continue
		}
		break
	}

	p.setState(stateDraining)
	p.flushBatch(ctx)

	log.Infof("ingestion run finished: files_processed=%d items_processed=%d duplicates=%d failures=%d",
		p.stats.FilesProcessed, p.stats.ItemsProcessed, p.stats.Duplicates, p.stats.Failures)

	p.setState(stateClosed)
	metrics.IngestRunDuration.Observe(time.Since(start).Seconds())
	return p.stats, nil
}

func (p *Pipeline) setState(next state) {
	p.state = next
	log.Debugf("ingestion run state: %v", next)
}

func (p *Pipeline) processSource(ctx context.Context, source Source) {

	records, err := source.Records()
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeSource).
			Errorf("skipping source %s: %v", source.Name(), err)
		return
	}

	if len(records) == 0 {
		log.Warnf("no jobs found in source %s", source.Name())
		return
	}

	log.Infof("found %d jobs in source %s", len(records), source.Name())
	before := p.stats

	for _, raw := range records {
		select {
		case <-ctx.Done():
		default:
			p.processRecord(ctx, source.Name(), raw)
			continue
		}
		break
	}

	// Records queued for bulk insert resolve at the source boundary so the
	// per-source summary below is complete.
	p.flushBatch(ctx)

	p.stats.FilesProcessed++
	summary := events.SourceProcessed{
		Source:     source.Name(),
		Stored:     (p.stats.ItemsProcessed - before.ItemsProcessed) - (p.stats.Duplicates - before.Duplicates),
		Duplicates: p.stats.Duplicates - before.Duplicates,
		Failures:   p.stats.Failures - before.Failures,
	}
	p.bus.Publish(events.SourceProcessedTopic, summary)
}

func (p *Pipeline) processRecord(ctx context.Context, source string, raw map[string]any) {

	p.seq++
	record, err := normalizer.Normalize(raw, source, p.seq)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeNormalize).
			Errorf("dropping record %d from %s: %v", p.seq, source, err)
		p.recordFailure()
		return
	}

	if p.opts.KeepRawData {
		record.RawData = raw
	}

	if p.dedup != nil {
		if p.opts.GateOnDedup && p.dedup.WasSeen(ctx, source, record.JobID) {
			log.Debugf("job already processed: %v from %v", record.JobID, source)
			p.recordDuplicate()
			return
		}
		p.dedup.MarkSeen(ctx, source, record.JobID)
	}

	if p.opts.BatchSize > 0 {
		p.batch = append(p.batch, record)
		if len(p.batch) >= p.opts.BatchSize {
			p.flushBatch(ctx)
		}
		return
	}

	p.persist(ctx, record)
}

func (p *Pipeline) persist(ctx context.Context, record entities.JobRecord) {

	p.waitForWriteSlot(ctx)

	inserted, err := p.documents.InsertUnique(ctx, p.opts.Collection, record, entities.UniqueFields())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeMongo).
			Errorf("failed to store job %v from %v: %v", record.JobID, record.Source, err)
		p.recordFailure()
		return
	}

	if !inserted {
		log.Debugf("job already stored: %v from %v", record.JobID, record.Source)
		p.recordDuplicate()
		return
	}

	p.stats.ItemsProcessed++
	p.bus.Publish(events.RecordStoredTopic, events.RecordStored{Record: record})
}

// flushBatch bulk-inserts queued records with ordered=false, so one bad
// document does not abort the rest. Unique-index rejections count as
// duplicates; the rest of the shortfall is genuine write failures.
func (p *Pipeline) flushBatch(ctx context.Context) {

	if len(p.batch) == 0 {
		return
	}

	p.waitForWriteSlot(ctx)

	attempted := len(p.batch)
	inserted, duplicates := p.documents.InsertMany(ctx, p.opts.Collection, p.batch, false)
	p.batch = p.batch[:0]

	failed := attempted - inserted - duplicates
	p.stats.ItemsProcessed += attempted - failed
	p.stats.Duplicates += duplicates
	p.stats.Failures += failed

	log.Infof("bulk flush inserted %d of %d records, %d duplicates, %d failures",
		inserted, attempted, duplicates, failed)
}

func (p *Pipeline) recordDuplicate() {
	p.stats.ItemsProcessed++
	p.stats.Duplicates++
}

func (p *Pipeline) recordFailure() {
	p.stats.Failures++
}

func (p *Pipeline) waitForWriteSlot(ctx context.Context) {
	if p.limiter == nil {
		return
	}
	if err := p.limiter.Wait(ctx); err != nil {
		log.Debugf("write slot wait interrupted: %v", err)
	}
}
