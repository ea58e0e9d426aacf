package middlewarectx

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/card-credits/internal/http/response"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

// AccountLimiter хранит ограничители частоты запросов по счетам.
type AccountLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*accountLimiter
	rps       rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type accountLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAccountLimiter создаёт AccountLimiter с rps запросов в секунду и запасом burst.
func NewAccountLimiter(rps float64, burst int) *AccountLimiter {
	l := &AccountLimiter{
		limiters: make(map[string]*accountLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
	l.lastSweep = l.now()
	return l
}

// Allow сообщает, можно ли обработать ещё один запрос счёта key.
func (l *AccountLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterSweepInterval {
		l.sweep(now)
	}

	al, ok := l.limiters[key]
	if !ok {
		al = &accountLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = al
	}
	al.lastSeen = now
	return al.limiter.AllowN(now, 1)
}

// sweep удаляет ограничители счетов, не присылавших запросов дольше limiterIdleTTL.
// Вызывается под l.mu не чаще раза в limiterSweepInterval.
func (l *AccountLimiter) sweep(now time.Time) {
	for k, al := range l.limiters {
		if now.Sub(al.lastSeen) > limiterIdleTTL {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

// RateLimitMiddleware ограничивает частоту запросов одного счёта.
// Запросы без идентификатора счёта ограничиваются по адресу клиента.
func RateLimitMiddleware(limiter *AccountLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := AccountIDFromContext(r.Context())
			if !ok {
				key = "addr:" + r.RemoteAddr
			}
			if !limiter.Allow(key) {
				log.Warn("too many requests", slog.String("key", key))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
