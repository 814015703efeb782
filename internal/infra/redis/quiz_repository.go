package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"testseries-service/internal/app"
	"testseries-service/internal/domain"
)

// QuizRepository caches whole quiz documents in Redis and falls back to a loader on a miss.
// Quizzes are stored as JSON under quiz:{quizID}; quiz:{quizID}:version counts invalidations.
type QuizRepository struct {
	client *redis.Client
	loader app.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

// storeIfCurrent writes the document only while the version is the one read before loading.
// KEYS: document, version. ARGV: expected version, document, ttl in ms (0 keeps it forever).
var storeIfCurrent = redis.NewScript(`
local v = redis.call('GET', KEYS[2]) or '0'
if v ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

func NewQuizRepository(client *redis.Client, loader app.QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := r.key(quizID)
	if quiz, ok := r.cached(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, key); ok {
			return quiz, nil
		}
		version, err := r.client.Get(ctx, r.versionKey(quizID)).Result()
		switch {
		case err == redis.Nil:
			version = "0"
		case err != nil:
			slog.Warn("read quiz cache version", "quiz", quizID, "error", err)
			version = ""
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if version == "" {
			return quiz, nil
		}

		data, err := json.Marshal(quiz)
		if err != nil {
			return quiz, nil
		}
		ttl := r.ttlWithJitter().Milliseconds()
		stored, err := storeIfCurrent.Run(ctx, r.client, []string{key, r.versionKey(quizID)}, version, data, ttl).Int()
		switch {
		case err != nil:
			slog.Warn("cache quiz", "quiz", quizID, "error", err)
		case stored == 0:
			slog.Debug("quiz changed while loading, not cached", "quiz", quizID)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) cached(ctx context.Context, key string) (domain.Quiz, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

// Invalidate drops the cached document and bumps its version so an in-flight load is not stored.
// Failures only delay freshness until the TTL.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.versionKey(quizID))
		pipe.Del(ctx, r.key(quizID))
		return nil
	})
	if err != nil {
		slog.Warn("invalidate quiz cache", "quiz", quizID, "error", err)
	}
	r.sf.Forget(quizID)
}

func (r *QuizRepository) key(quizID string) string {
	return "quiz:" + quizID
}

func (r *QuizRepository) versionKey(quizID string) string {
	return "quiz:" + quizID + ":version"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
