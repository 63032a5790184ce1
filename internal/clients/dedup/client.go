package dedup

import (
	"context"
	"time"

	"github.com/jobsift/jobsift/internal/logger"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Client records which (source, job_id) pairs have been observed, backed by
// a Redis set per source. Every operation is best-effort: a connection
// failure is logged and reported as "not seen"/"not new" so ingestion never
// blocks on the dedup store.
type Client struct {
	rdb   *redis.Client
	local *gocache.Cache
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrapf(err, "redis.ParseURL(%q)", redisURL)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return &Client{
		rdb:   rdb,
		local: gocache.New(30*time.Minute, time.Hour),
	}, nil
}

func setKey(source string) string {
	return "scraped_jobs:" + source
}

func pairKey(source, jobID string) string {
	return source + ":" + jobID
}

// MarkSeen adds the pair to the source's set and reports whether it was
// newly added. False covers both "already present" and failure.
func (c *Client) MarkSeen(ctx context.Context, source, jobID string) bool {

	added, err := c.rdb.SAdd(ctx, setKey(source), jobID).Result()
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeRedis).
			Errorf("failed to mark job %v from %v as seen: %v", jobID, source, err)
		return false
	}

	c.local.SetDefault(pairKey(source, jobID), true)
	return added > 0
}

// WasSeen reports whether the pair was marked before. Pairs marked during
// this run answer from the local cache without a round trip. Fail-open:
// an unreachable store answers false.
func (c *Client) WasSeen(ctx context.Context, source, jobID string) bool {

	if _, found := c.local.Get(pairKey(source, jobID)); found {
		return true
	}

	seen, err := c.rdb.SIsMember(ctx, setKey(source), jobID).Result()
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeRedis).
			Errorf("failed to check job %v from %v: %v", jobID, source, err)
		return false
	}

	if seen {
		c.local.SetDefault(pairKey(source, jobID), true)
	}
	return seen
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
