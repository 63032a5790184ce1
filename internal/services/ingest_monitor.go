package services

import (
	"github.com/asaskevich/EventBus"
	"github.com/jobsift/jobsift/internal/events"
	"github.com/jobsift/jobsift/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// IngestMonitor turns pipeline events into prometheus counters and
// per-source summary logs, keeping the pipeline itself free of metrics
// bookkeeping.
type IngestMonitor struct {
	bus EventBus.Bus
}

func NewIngestMonitor(bus EventBus.Bus) (*IngestMonitor, error) {

	m := &IngestMonitor{bus: bus}

	if err := bus.Subscribe(events.RecordStoredTopic, m.onRecordStored); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(events.SourceProcessedTopic, m.onSourceProcessed); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *IngestMonitor) Stop() {
	_ = m.bus.Unsubscribe(events.RecordStoredTopic, m.onRecordStored)
	_ = m.bus.Unsubscribe(events.SourceProcessedTopic, m.onSourceProcessed)
}

func (m *IngestMonitor) onRecordStored(event events.RecordStored) {
	log.Debugf("stored job %v from %v", event.Record.JobID, event.Record.Source)
}

func (m *IngestMonitor) onSourceProcessed(event events.SourceProcessed) {

	metrics.RecordsStoredCounter.WithLabelValues(event.Source).Add(float64(event.Stored))
	metrics.DuplicatesSkippedCounter.Add(float64(event.Duplicates))
	metrics.RecordFailuresCounter.Add(float64(event.Failures))

	log.Infof("source %s processed: stored=%d duplicates=%d failures=%d",
		event.Source, event.Stored, event.Duplicates, event.Failures)
}
