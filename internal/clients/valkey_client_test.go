package clients

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/session"
)

func newTestValkey(t *testing.T, ttl time.Duration) (*ValkeyClient, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	vc, err := NewValkeyClient(context.Background(), ValkeyOptions{
		Address:    srv.Addr(),
		SingleNode: true,
		TTL:        ttl,
	})
	require.NoError(t, err)
	t.Cleanup(vc.Close)
	return vc, srv
}

func TestValkeyClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	vc, srv := newTestValkey(t, time.Hour)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := models.Dataset{
		ID:         "abc",
		FileName:   "reviews.csv",
		Kind:       models.KindCSV,
		HasDate:    true,
		DateColumn: "date",
		Records: []models.Record{
			{Row: 1, Text: "great", HasText: true, RawDate: "2024-01-01", Date: &day},
			{Row: 2},
		},
		UploadedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, vc.Save(ctx, ds))

	assert.True(t, srv.Exists("sentiscope:dataset:abc"))
	assert.Equal(t, time.Hour, srv.TTL("sentiscope:dataset:abc"))

	got, err := vc.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, ds, got)

	require.NoError(t, vc.Delete(ctx, "abc"))
	_, err = vc.Load(ctx, "abc")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestValkeyClient_MissingKey(t *testing.T) {
	vc, _ := newTestValkey(t, time.Hour)

	_, err := vc.Load(context.Background(), "never-stored")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestValkeyClient_SubSecondTTL(t *testing.T) {
	ctx := context.Background()
	vc, srv := newTestValkey(t, 500*time.Millisecond)

	require.NoError(t, vc.Save(ctx, models.Dataset{ID: "short"}))
	_, err := vc.Load(ctx, "short")
	require.NoError(t, err, "a sub-second TTL must not drop the key on write")

	srv.FastForward(time.Second)
	_, err = vc.Load(ctx, "short")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestValkeyClient_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	vc, _ := newTestValkey(t, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = vc.Save(ctx, models.Dataset{ID: "shared"})
			_, _ = vc.Load(ctx, "shared")
		}()
	}

	// a reconnect racing with in-flight commands
	vc.recreateClient(ctx, vc.client())
	wg.Wait()

	_, err := vc.Load(ctx, "shared")
	assert.NoError(t, err)
}

func TestDatasetKey(t *testing.T) {
	assert.Equal(t, "sentiscope:dataset:1234", datasetKey("1234"))
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("read tcp: i/o timeout"), true},
		{errors.New("WRONGTYPE Operation against a key"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isConnectionError(tt.err))
	}
}
