package events

import "github.com/jobsift/jobsift/internal/entities"

var RecordStoredTopic = "RecordStoredEvent"

type RecordStored struct {
	Record entities.JobRecord
}

var SourceProcessedTopic = "SourceProcessedEvent"

type SourceProcessed struct {
	Source     string
	Stored     int
	Duplicates int
	Failures   int
}
