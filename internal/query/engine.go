package query

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Criteria are the optional export filters. An empty string means the
// field is not filtered at all; Limit 0 means unbounded.
type Criteria struct {
	Company  string
	JobType  string
	Location string
	Limit    int64
}

type documentFinder interface {
	Find(ctx context.Context, collection string, filter bson.M, projection bson.M, limit int64) ([]bson.D, error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
}

// Engine is the read-only consumer of the document store. It owns its own
// session and never touches ingestion-run state.
type Engine struct {
	store      documentFinder
	collection string
}

func NewEngine(store documentFinder, collection string) *Engine {
	if collection == "" {
		collection = "jobs"
	}
	return &Engine{store: store, collection: collection}
}

// BuildFilter turns present criteria into case-insensitive substring
// matches. Values pass through as regular expressions, so callers may use
// regex syntax.
func BuildFilter(criteria Criteria) bson.M {

	filter := bson.M{}

	if criteria.Company != "" {
		filter["company"] = primitive.Regex{Pattern: criteria.Company, Options: "i"}
	}
	if criteria.JobType != "" {
		filter["job_type"] = primitive.Regex{Pattern: criteria.JobType, Options: "i"}
	}
	if criteria.Location != "" {
		filter["location"] = primitive.Regex{Pattern: criteria.Location, Options: "i"}
	}

	return filter
}

// Query returns the matching documents with the internal _id projected
// out, up to criteria.Limit.
func (e *Engine) Query(ctx context.Context, criteria Criteria) ([]bson.D, error) {

	filter := BuildFilter(criteria)
	log.Infof("executing query: %v", filter)

	documents, err := e.store.Find(ctx, e.collection, filter, bson.M{"_id": 0}, criteria.Limit)
	if err != nil {
		return nil, err
	}

	log.Infof("query returned %d results", len(documents))
	return documents, nil
}

func (e *Engine) Count(ctx context.Context, criteria Criteria) (int64, error) {
	return e.store.Count(ctx, e.collection, BuildFilter(criteria))
}
