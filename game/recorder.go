package game

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"rso-client/circuitbreaker"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const DefaultReplayLength = 4096

type ReplayEntry struct {
	Tick     uint64
	SelfID   int
	Snapshot WorldSnapshot
}

// ReplayKey is the Redis list a client's session is recorded under.
func ReplayKey(clientID string) string {
	return "replay:" + clientID
}

// RedisRecorder appends every rendered snapshot to a capped Redis list so a
// session can be replayed after it ends.
type RedisRecorder struct {
	client *redis.Client
	key    string
	limit  int64
}

func NewRedisRecorder(ctx context.Context, redisURL string, clientID string) *RedisRecorder {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: "",
		DB:       0,
	})

	_, err := client.Ping(ctx).Result()
	if err != nil {
		log.WithError(err).Error("Failed to connect to Redis")
	} else {
		log.Info("Connected to Redis at ", redisURL)
	}

	return newRedisRecorder(client, ReplayKey(clientID), DefaultReplayLength)
}

func newRedisRecorder(client *redis.Client, key string, limit int64) *RedisRecorder {
	return &RedisRecorder{
		client: client,
		key:    key,
		limit:  limit,
	}
}

func ToBytes(entry ReplayEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func FromBytes(data []byte) (ReplayEntry, error) {
	var entry ReplayEntry
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry)
	return entry, err
}

func (r *RedisRecorder) Key() string {
	return r.key
}

func (r *RedisRecorder) Record(ctx context.Context, entry ReplayEntry) {
	data, err := ToBytes(entry)
	if err != nil {
		log.WithError(err).Error("Failed to encode replay entry")
		return
	}

	_, err = circuitbreaker.RedisBreaker.Execute(func() (interface{}, error) {
		pipe := r.client.Pipeline()
		pipe.RPush(ctx, r.key, data)
		pipe.LTrim(ctx, r.key, -r.limit, -1)
		return pipe.Exec(ctx)
	})
	if err != nil {
		log.WithError(err).WithField("tick", entry.Tick).Debug("Failed to record snapshot")
	}
}

// Load returns the recorded entries oldest first. Entries that no longer
// decode are skipped.
func (r *RedisRecorder) Load(ctx context.Context) ([]ReplayEntry, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]ReplayEntry, 0, len(raw))
	for _, item := range raw {
		entry, err := FromBytes([]byte(item))
		if err != nil {
			log.WithError(err).Error("Failed to decode replay entry")
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *RedisRecorder) Close() error {
	return r.client.Close()
}

// Replay renders recorded entries in order, one per interval, and returns how
// many frames were shown. A zero interval renders as fast as possible.
func Replay(ctx context.Context, entries []ReplayEntry, renderer Renderer, interval time.Duration) (int, error) {
	var pace <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pace = ticker.C
	}

	shown := 0
	for i, entry := range entries {
		if i > 0 && pace != nil {
			select {
			case <-ctx.Done():
				return shown, ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return shown, err
		}

		frame, err := BuildFrame(entry.Snapshot, entry.SelfID)
		if err != nil {
			log.WithError(err).WithField("tick", entry.Tick).Warn("Skipping replay entry")
			continue
		}
		renderer.Render(frame)
		shown++
	}

	return shown, nil
}
