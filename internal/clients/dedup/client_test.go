package dedup

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {

	srv := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+srv.Addr())
	assert.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, srv
}

func Test_MarkSeen_ReturnsTrueOnlyForNewPairs(t *testing.T) {

	client, _ := newTestClient(t)
	ctx := context.Background()

	assert.True(t, client.MarkSeen(ctx, "acme", "1"))
	assert.False(t, client.MarkSeen(ctx, "acme", "1"))
	assert.True(t, client.MarkSeen(ctx, "acme", "2"))
}

func Test_MarkSeen_NamespacesBySource(t *testing.T) {

	client, srv := newTestClient(t)
	ctx := context.Background()

	assert.True(t, client.MarkSeen(ctx, "s01", "1"))
	assert.True(t, client.MarkSeen(ctx, "s02", "1"))

	assert.True(t, srv.Exists("scraped_jobs:s01"))
	assert.True(t, srv.Exists("scraped_jobs:s02"))
}

func Test_WasSeen_MembershipAndMiss(t *testing.T) {

	client, _ := newTestClient(t)
	ctx := context.Background()

	assert.False(t, client.WasSeen(ctx, "acme", "1"))
	client.MarkSeen(ctx, "acme", "1")
	assert.True(t, client.WasSeen(ctx, "acme", "1"))
	assert.False(t, client.WasSeen(ctx, "other", "1"))
}

func Test_WasSeen_AnswersFromLocalCacheWithoutRoundTrip(t *testing.T) {

	client, srv := newTestClient(t)
	ctx := context.Background()

	client.MarkSeen(ctx, "acme", "1")

	// Simulate the remote set disappearing; the pair was marked during
	// this run, so the local mirror still answers.
	srv.FlushAll()
	assert.True(t, client.WasSeen(ctx, "acme", "1"))
}

func Test_FailOpenWhenStoreUnreachable(t *testing.T) {

	client, srv := newTestClient(t)
	ctx := context.Background()

	srv.Close()

	assert.False(t, client.MarkSeen(ctx, "acme", "9"))
	assert.False(t, client.WasSeen(ctx, "acme", "9"))
}

func Test_NewClient_InvalidURLFails(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}
