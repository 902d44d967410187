package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizhost/internal/app"
	"quizhost/internal/domain"
)

// QuizStore caches quiz definitions in Redis as JSON values with a jittered
// TTL and falls through to the backing store on a miss. Saves write through
// and warm the cache, so a freshly authored quiz is startable immediately
// on any instance sharing the Redis.
type QuizStore struct {
	client  *goredis.Client
	backing app.QuizStore
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewQuizStore(client *goredis.Client, backing app.QuizStore, ttl time.Duration) *QuizStore {
	return &QuizStore{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *QuizStore) SaveQuiz(ctx context.Context, def domain.QuizDefinition) (string, error) {
	quizID, err := s.backing.SaveQuiz(ctx, def)
	if err != nil {
		return "", err
	}
	def.ID = quizID
	// Best-effort cache warm; the backing store already holds the truth.
	if raw, err := json.Marshal(def); err == nil {
		_ = s.client.Set(ctx, s.key(quizID), raw, s.ttlWithJitter()).Err()
	}
	return quizID, nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	raw, err := s.client.Get(ctx, s.key(quizID)).Bytes()
	if err == nil {
		var def domain.QuizDefinition
		if err := json.Unmarshal(raw, &def); err == nil {
			return def, nil
		}
	}

	result, err, _ := s.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := s.client.Get(ctx, s.key(quizID)).Bytes()
		if err == nil {
			var def domain.QuizDefinition
			if err := json.Unmarshal(raw, &def); err == nil {
				return def, nil
			}
		}

		def, err := s.backing.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}
		if raw, err := json.Marshal(def); err == nil {
			_ = s.client.Set(ctx, s.key(quizID), raw, s.ttlWithJitter()).Err()
		}
		return def, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

func (s *QuizStore) key(quizID string) string {
	return fmt.Sprintf("quizhost:quiz:%s", quizID)
}

func (s *QuizStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
