// server/internal/tracking/trail.go
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Positions are kept per tour for a week, then the trail expires.
const trailTTL = 7 * 24 * time.Hour

// Position is one GPS sample reported by the carrier during a tour.
type Position struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKMH   float64   `json:"speedKMH,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Store holds GPS trails keyed by tour id, in reporting order.
type Store interface {
	Append(ctx context.Context, tourID string, position Position) error
	Trail(ctx context.Context, tourID string) ([]Position, error)
}

func trailKey(tourID string) string {
	return "tour_trail:" + tourID
}

// RedisTrail is the production trail store: one Redis list per tour with a
// sliding 7-day TTL.
type RedisTrail struct {
	client *redis.Client
}

func NewRedisTrail(client *redis.Client) *RedisTrail {
	return &RedisTrail{client: client}
}

func (r *RedisTrail) Append(ctx context.Context, tourID string, position Position) error {
	payload, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}
	key := trailKey(tourID)
	if err := r.client.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("append position for tour %s: %w", tourID, err)
	}
	if err := r.client.Expire(ctx, key, trailTTL).Err(); err != nil {
		log.Printf("tracking: refresh TTL for tour %s failed: %v", tourID, err)
	}
	return nil
}

func (r *RedisTrail) Trail(ctx context.Context, tourID string) ([]Position, error) {
	entries, err := r.client.LRange(ctx, trailKey(tourID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read trail for tour %s: %w", tourID, err)
	}
	positions := []Position{}
	for _, entry := range entries {
		var position Position
		if err := json.Unmarshal([]byte(entry), &position); err != nil {
			log.Printf("tracking: skipping bad trail entry for tour %s: %v", tourID, err)
			continue
		}
		positions = append(positions, position)
	}
	return positions, nil
}

// MemoryTrail backs tests and local development.
type MemoryTrail struct {
	mu     sync.RWMutex
	trails map[string][]Position
}

func NewMemoryTrail() *MemoryTrail {
	return &MemoryTrail{trails: make(map[string][]Position)}
}

func (m *MemoryTrail) Append(ctx context.Context, tourID string, position Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trails[tourID] = append(m.trails[tourID], position)
	return nil
}

func (m *MemoryTrail) Trail(ctx context.Context, tourID string) ([]Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trail := m.trails[tourID]
	out := make([]Position, len(trail))
	copy(out, trail)
	return out, nil
}
