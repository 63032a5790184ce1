package entities

import "time"

// Canonical job type labels. Anything else is a capitalized fallback of
// the original value.
const (
	JobTypeFullTime   = "Full-time"
	JobTypePartTime   = "Part-time"
	JobTypeContract   = "Contract"
	JobTypeTemporary  = "Temporary"
	JobTypeInternship = "Internship"
	JobTypeFreelance  = "Freelance"
)

// JobRecord is the canonical normalized representation of one job listing.
// Uniqueness is scoped to (JobID, Source), not JobID alone. Optional fields
// carry omitempty so an absent field stays absent in the stored document.
type JobRecord struct {
	JobID       string         `bson:"job_id" json:"job_id"`
	Title       string         `bson:"title" json:"title"`
	Company     string         `bson:"company" json:"company"`
	Location    string         `bson:"location" json:"location"`
	URL         string         `bson:"url" json:"url"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Salary      string         `bson:"salary,omitempty" json:"salary,omitempty"`
	JobType     string         `bson:"job_type,omitempty" json:"job_type,omitempty"`
	Skills      []string       `bson:"skills,omitempty" json:"skills,omitempty"`
	Source      string         `bson:"source" json:"source"`
	ScrapedAt   time.Time      `bson:"scraped_at" json:"scraped_at"`
	RawData     map[string]any `bson:"raw_data,omitempty" json:"raw_data,omitempty"`
}

// UniqueFields is the persistence identity of a JobRecord.
func UniqueFields() []string {
	return []string{"job_id", "source"}
}
