package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/sentiscope/internal/models"
	"github.com/spacesedan/sentiscope/internal/session"
)

const VALKEY_DATASET_PREFIX = "sentiscope:dataset:"

type ValkeyOptions struct {
	Address    string
	Password   string
	UseTLS     bool
	SingleNode bool
	TTL        time.Duration
}

// ValkeyClient stores uploaded datasets in Valkey so any replica can serve the
// analyze step of an upload.
type ValkeyClient struct {
	conn valkey.Client
	opts ValkeyOptions
	mu   sync.RWMutex
}

var _ session.Store = (*ValkeyClient)(nil)

func NewValkeyClient(ctx context.Context, opts ValkeyOptions) (*ValkeyClient, error) {
	client, err := connectValkey(ctx, opts)
	if err != nil {
		return nil, err
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", opts.Address))
	return &ValkeyClient{conn: client, opts: opts}, nil
}

func connectValkey(ctx context.Context, opts ValkeyOptions) (valkey.Client, error) {
	clientOpts := valkey.ClientOption{
		InitAddress:       []string{opts.Address},
		Password:          opts.Password,
		ConnWriteTimeout:  5 * time.Second,
		SelectDB:          0,
		DisableCache:      true,
		ForceSingleClient: opts.SingleNode,
	}

	if opts.UseTLS {
		clientOpts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

// client returns the live connection; recreateClient may swap it at any time
func (vc *ValkeyClient) client() valkey.Client {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.conn
}

func (vc *ValkeyClient) recreateClient(ctx context.Context, failed valkey.Client) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if vc.conn != failed {
		return
	}

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey(ctx, vc.opts)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}

	vc.conn.Close()
	vc.conn = client
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

func (vc *ValkeyClient) Close() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if vc.conn != nil {
		vc.conn.Close()
	}
}

// Save writes the dataset and its TTL in a single SET ... PX command
func (vc *ValkeyClient) Save(ctx context.Context, ds models.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	key := datasetKey(ds.ID)
	res := vc.DoWithRetry(ctx, func(b valkey.Builder) valkey.Completed {
		return b.Set().Key(key).Value(valkey.BinaryString(payload)).Px(vc.opts.TTL).Build()
	}, 3)
	if err := res.Error(); err != nil {
		return fmt.Errorf("failed to store dataset %s: %w", ds.ID, err)
	}

	slog.Info("[ValkeyClient] Dataset stored",
		slog.String("id", ds.ID),
		slog.Int("records", len(ds.Records)),
		slog.Duration("ttl", vc.opts.TTL))
	return nil
}

func (vc *ValkeyClient) Load(ctx context.Context, id string) (models.Dataset, error) {
	var ds models.Dataset

	res := vc.DoWithRetry(ctx, func(b valkey.Builder) valkey.Completed {
		return b.Get().Key(datasetKey(id)).Build()
	}, 3)
	raw, err := res.AsBytes()
	if valkey.IsValkeyNil(err) {
		return ds, session.ErrNotFound
	}
	if err != nil {
		return ds, fmt.Errorf("failed to load dataset %s: %w", id, err)
	}

	if err := json.Unmarshal(raw, &ds); err != nil {
		return ds, fmt.Errorf("failed to unmarshal dataset %s: %w", id, err)
	}
	return ds, nil
}

func (vc *ValkeyClient) Delete(ctx context.Context, id string) error {
	res := vc.DoWithRetry(ctx, func(b valkey.Builder) valkey.Completed {
		return b.Del().Key(datasetKey(id)).Build()
	}, 3)
	if err := res.Error(); err != nil {
		return fmt.Errorf("failed to delete dataset %s: %w", id, err)
	}
	return nil
}

func datasetKey(id string) string {
	return VALKEY_DATASET_PREFIX + id
}

// DoWithRetry builds the command against the current connection on every
// attempt, so a reconnect between attempts is picked up.
func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func(valkey.Builder) valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		client := vc.client()
		result = client.Do(ctx, build(client.B()))
		if err := result.Error(); err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		if isConnectionError(result.Error()) {
			vc.recreateClient(ctx, client)
		}

		select {
		case <-ctx.Done():
			return result
		case <-time.After(250 * time.Millisecond):
		}
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
