package mongodb

import (
	"context"
	"strings"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client is a thin operation set over a MongoDB database. Bulk and unique
// inserts never panic past this boundary: callers get an explicit count or
// an inserted/skipped signal.
type Client struct {
	client  *mongo.Client
	db      *mongo.Database
	ensured map[string]bool
}

func NewClient(ctx context.Context, uri, database string) (*Client, error) {

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping failed")
	}

	log.Infof("connected to MongoDB at %s, database: %s", uri, database)
	return &Client{
		client:  client,
		db:      client.Database(database),
		ensured: map[string]bool{},
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// EnsureUniqueIndex declares a unique compound index once per client
// instance. A declaration failure is logged and non-fatal: the caller may
// still insert, relying on whatever constraint already exists.
func (c *Client) EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error {

	cacheKey := collection + ":" + strings.Join(fields, ",")
	if c.ensured[cacheKey] {
		return nil
	}

	keys := bson.D{}
	for _, field := range fields {
		keys = append(keys, bson.E{Key: field, Value: 1})
	}

	_, err := c.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warnf("could not create unique index on %v.%v: %v", collection, fields, err)
		return err
	}

	c.ensured[cacheKey] = true
	return nil
}

// InsertUnique inserts one document under the uniqueness constraint on
// uniqueFields. A duplicate-key rejection is a non-fatal skip reported as
// (false, nil).
func (c *Client) InsertUnique(ctx context.Context, collection string, document any, uniqueFields []string) (bool, error) {

	if len(uniqueFields) > 0 {
		_ = c.EnsureUniqueIndex(ctx, collection, uniqueFields)
	}

	_, err := c.db.Collection(collection).InsertOne(ctx, document)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "insert document")
	}

	return true, nil
}

// duplicateKeyCode is the server's E11000 duplicate key violation.
const duplicateKeyCode = 11000

// InsertMany inserts documents in one round trip and reports how many were
// written and how many were rejected by the unique index. With
// ordered=false a failing document does not abort the batch; rejections
// that are not duplicate-key violations are logged and left to the caller
// as the remaining shortfall. Total failure returns (0, 0), never an
// error.
func (c *Client) InsertMany(ctx context.Context, collection string, documents []any, ordered bool) (inserted, duplicates int) {

	if len(documents) == 0 {
		return 0, 0
	}

	result, err := c.db.Collection(collection).InsertMany(ctx, documents,
		options.InsertMany().SetOrdered(ordered))
	if result != nil {
		inserted = len(result.InsertedIDs)
	}
	if err == nil {
		return inserted, 0
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) {
		for _, writeErr := range bulkErr.WriteErrors {
			if writeErr.Code == duplicateKeyCode {
				duplicates++
			}
		}
		if failed := len(documents) - inserted - duplicates; failed > 0 {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeMongo).
				Errorf("bulk write failed for %d of %d documents: %v", failed, len(documents), err)
		} else {
			log.Debugf("bulk write skipped %d of %d documents as duplicates", duplicates, len(documents))
		}
		return inserted, duplicates
	}

	log.WithField(logger.ErrorTypeField, logger.ErrorTypeMongo).Errorf("bulk insert failed: %v", err)
	return inserted, 0
}

// Find returns documents matching filter, up to limit (0 = unbounded).
func (c *Client) Find(ctx context.Context, collection string, filter bson.M, projection bson.M, limit int64) ([]bson.D, error) {

	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := c.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find documents")
	}
	defer cursor.Close(ctx)

	var documents []bson.D
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, errors.Wrap(err, "decode documents")
	}

	return documents, nil
}

func (c *Client) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {

	if filter == nil {
		filter = bson.M{}
	}

	count, err := c.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "count documents")
	}
	return count, nil
}
