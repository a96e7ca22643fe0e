// internal/alert/state.go
package alert

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// alertedKeyPrefix namespaces the suppression keys in redis.
const alertedKeyPrefix = "churnwatch:alerted:"

// StateStore remembers which caregivers were alerted on recently, so
// consecutive runs inside the cooldown window do not page stakeholders
// about the same people again.
type StateStore struct {
	client   *redis.Client
	cooldown time.Duration
}

func NewStateStore(client *redis.Client, cooldown time.Duration) *StateStore {
	return &StateStore{
		client:   client,
		cooldown: cooldown,
	}
}

// RecentlyAlerted reports which of the given caregiver IDs are still
// inside the cooldown window.
func (s *StateStore) RecentlyAlerted(ctx context.Context, caregiverIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(caregiverIDs))
	if len(caregiverIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(caregiverIDs))
	for i, id := range caregiverIDs {
		keys[i] = alertedKeyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if v != nil {
			out[caregiverIDs[i]] = true
		}
	}
	return out, nil
}

// MarkAlerted records the given caregivers as alerted, each expiring
// after the cooldown. Best-effort: errors are swallowed because losing
// suppression state only risks a duplicate alert, never a missed one.
func (s *StateStore) MarkAlerted(ctx context.Context, caregiverIDs []string) {
	if s.cooldown <= 0 {
		return
	}
	pipe := s.client.Pipeline()
	for _, id := range caregiverIDs {
		pipe.Set(ctx, alertedKeyPrefix+id, time.Now().UTC().Format(time.RFC3339), s.cooldown)
	}
	_, _ = pipe.Exec(ctx)
}
