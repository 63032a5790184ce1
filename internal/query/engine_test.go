package query

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFinder struct {
	documents []bson.D

	lastFilter     bson.M
	lastProjection bson.M
	lastLimit      int64
}

func (f *fakeFinder) Find(_ context.Context, _ string, filter bson.M, projection bson.M, limit int64) ([]bson.D, error) {
	f.lastFilter = filter
	f.lastProjection = projection
	f.lastLimit = limit

	var matched []bson.D
	for _, document := range f.documents {
		if matches(filter, document) {
			matched = append(matched, document)
		}
		if limit > 0 && int64(len(matched)) == limit {
			break
		}
	}
	return matched, nil
}

func (f *fakeFinder) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	matched, err := f.Find(ctx, collection, filter, nil, 0)
	return int64(len(matched)), err
}

func fieldOf(document bson.D, key string) string {
	for _, element := range document {
		if element.Key == key {
			value, _ := element.Value.(string)
			return value
		}
	}
	return ""
}

// matches emulates just enough of case-insensitive $regex substring
// matching for these tests.
func matches(filter bson.M, document bson.D) bool {
	for field, condition := range filter {
		pattern, ok := condition.(primitive.Regex)
		if !ok {
			return false
		}
		value := fieldOf(document, field)
		if !strings.Contains(strings.ToLower(value), strings.ToLower(pattern.Pattern)) {
			return false
		}
	}
	return true
}

func Test_BuildFilter_AbsentCriteriaAreOmitted(t *testing.T) {

	assert.Empty(t, BuildFilter(Criteria{}))

	filter := BuildFilter(Criteria{Company: "acme"})
	assert.Len(t, filter, 1)
	assert.Equal(t, primitive.Regex{Pattern: "acme", Options: "i"}, filter["company"])

	filter = BuildFilter(Criteria{Company: "acme", JobType: "full", Location: "york"})
	assert.Len(t, filter, 3)
	assert.Equal(t, primitive.Regex{Pattern: "full", Options: "i"}, filter["job_type"])
	assert.Equal(t, primitive.Regex{Pattern: "york", Options: "i"}, filter["location"])
}

func Test_Query_CompanyFilterMatchesCaseInsensitively(t *testing.T) {

	finder := &fakeFinder{documents: []bson.D{
		{{Key: "job_id", Value: "1"}, {Key: "company", Value: "Acme Corp"}},
		{{Key: "job_id", Value: "2"}, {Key: "company", Value: "ACME Labs"}},
		{{Key: "job_id", Value: "3"}, {Key: "company", Value: "Globex"}},
	}}

	engine := NewEngine(finder, "jobs")
	documents, err := engine.Query(context.Background(), Criteria{Company: "acme"})
	assert.NoError(t, err)

	assert.Len(t, documents, 2)
	assert.Equal(t, "1", fieldOf(documents[0], "job_id"))
	assert.Equal(t, "2", fieldOf(documents[1], "job_id"))
}

func Test_Query_NoCriteriaReturnsEverything(t *testing.T) {

	finder := &fakeFinder{documents: []bson.D{
		{{Key: "job_id", Value: "1"}},
		{{Key: "job_id", Value: "2"}},
	}}

	engine := NewEngine(finder, "jobs")
	documents, err := engine.Query(context.Background(), Criteria{})
	assert.NoError(t, err)
	assert.Len(t, documents, 2)
}

func Test_Query_ProjectsOutInternalID(t *testing.T) {

	finder := &fakeFinder{}
	engine := NewEngine(finder, "jobs")

	_, err := engine.Query(context.Background(), Criteria{Limit: 5})
	assert.NoError(t, err)
	assert.Equal(t, bson.M{"_id": 0}, finder.lastProjection)
	assert.Equal(t, int64(5), finder.lastLimit)
}

func Test_Query_LimitCapsResults(t *testing.T) {

	finder := &fakeFinder{documents: []bson.D{
		{{Key: "job_id", Value: "1"}},
		{{Key: "job_id", Value: "2"}},
		{{Key: "job_id", Value: "3"}},
	}}

	engine := NewEngine(finder, "jobs")
	documents, err := engine.Query(context.Background(), Criteria{Limit: 2})
	assert.NoError(t, err)
	assert.Len(t, documents, 2)
}

func Test_Count_UsesSameFilter(t *testing.T) {

	finder := &fakeFinder{documents: []bson.D{
		{{Key: "job_id", Value: "1"}, {Key: "location", Value: "New York"}},
		{{Key: "job_id", Value: "2"}, {Key: "location", Value: "Berlin"}},
	}}

	engine := NewEngine(finder, "jobs")
	count, err := engine.Count(context.Background(), Criteria{Location: "berlin"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
