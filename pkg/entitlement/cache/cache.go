package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/liberta-app/liberta/pkg/entitlement"
	"github.com/liberta-app/liberta/pkg/logger"
)

// Config holds the snapshot cache settings.
type Config struct {
	TTL    time.Duration `env:"ENTITLEMENT_CACHE_TTL" envDefault:"30s"`
	Prefix string        `env:"ENTITLEMENT_CACHE_PREFIX" envDefault:"liberta:entitlement:"`
}

// Reader is a read-through cache in front of another entitlement.Reader.
// Entries expire after a short TTL and are dropped by Invalidate when the
// reconciler applies a change, so a user returning from checkout sees the
// new state on the next read.
type Reader struct {
	next   entitlement.Reader
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *slog.Logger
	group  singleflight.Group
}

// Option configures a Reader.
type Option func(*Reader)

// WithTTL sets how long a snapshot stays cached.
func WithTTL(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithPrefix sets the Redis key prefix.
func WithPrefix(p string) Option {
	return func(r *Reader) {
		if p != "" {
			r.prefix = p
		}
	}
}

// WithLogger sets the logger used when Redis misbehaves.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// WithConfig applies Config.
func WithConfig(cfg Config) Option {
	return func(r *Reader) {
		WithTTL(cfg.TTL)(r)
		WithPrefix(cfg.Prefix)(r)
	}
}

// New wraps next with a Redis cache.
func New(next entitlement.Reader, client redis.UniversalClient, opts ...Option) *Reader {
	if next == nil {
		panic("cache: next reader is required")
	}
	if client == nil {
		panic("cache: redis client is required")
	}
	r := &Reader{
		next:   next,
		client: client,
		ttl:    30 * time.Second,
		prefix: "liberta:entitlement:",
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type entry struct {
	Present            bool       `json:"p"`
	TrialEndsAt        *time.Time `json:"t,omitempty"`
	SubscriptionStatus string     `json:"s,omitempty"`
}

// genTTL bounds the life of a generation counter. It only has to outlive
// the slowest load.
const genTTL = 24 * time.Hour

// Snapshot implements entitlement.Reader. Absent rows are cached too.
// Redis failures fall back to the wrapped reader.
//
// A miss records the user's generation before loading and stores the result
// only if Invalidate has not bumped it since, so a load that raced with a
// webhook never re-caches the old state.
func (r *Reader) Snapshot(ctx context.Context, userID uuid.UUID) (*entitlement.Snapshot, error) {
	key := r.key(userID)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var e entry
		if jerr := json.Unmarshal(raw, &e); jerr == nil {
			return e.snapshot(), nil
		}
		r.log.WarnContext(ctx, "dropping undecodable entitlement cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.log.WarnContext(ctx, "entitlement cache read failed", slog.String("key", key), logger.Error(err))
	}

	gen, genErr := r.generation(ctx, userID)
	if genErr != nil {
		r.log.WarnContext(ctx, "entitlement cache generation read failed", slog.String("key", key), logger.Error(genErr))
	}

	// Joined callers share the first caller's load, so it must not die with
	// that caller's request.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key+"@"+strconv.FormatInt(gen, 10), func() (any, error) {
		snap, err := r.next.Snapshot(loadCtx, userID)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			r.store(loadCtx, userID, gen, snap)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	snap, _ := v.(*entitlement.Snapshot)
	return snap, nil
}

// Invalidate drops the cached snapshot for userID and bumps its generation,
// which voids any load already in flight.
func (r *Reader) Invalidate(ctx context.Context, userID uuid.UUID) error {
	genKey := r.genKey(userID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey)
		p.Expire(ctx, genKey, genTTL)
		p.Del(ctx, r.key(userID))
		return nil
	})
	return err
}

func (r *Reader) generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	gen, err := r.client.Get(ctx, r.genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

var errGenerationChanged = errors.New("entitlement generation changed")

func (r *Reader) store(ctx context.Context, userID uuid.UUID, gen int64, snap *entitlement.Snapshot) {
	e := entry{Present: snap != nil}
	if snap != nil {
		e.TrialEndsAt = snap.TrialEndsAt
		e.SubscriptionStatus = snap.SubscriptionStatus
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}

	key, genKey := r.key(userID), r.genKey(userID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errGenerationChanged
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, raw, r.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errGenerationChanged), errors.Is(err, redis.TxFailedErr):
		r.log.DebugContext(ctx, "skipping stale entitlement cache write", slog.String("key", key))
	default:
		r.log.WarnContext(ctx, "entitlement cache write failed", slog.String("key", key), logger.Error(err))
	}
}

func (r *Reader) key(userID uuid.UUID) string {
	return r.prefix + userID.String()
}

func (r *Reader) genKey(userID uuid.UUID) string {
	return r.prefix + "gen:" + userID.String()
}

func (e entry) snapshot() *entitlement.Snapshot {
	if !e.Present {
		return nil
	}
	return &entitlement.Snapshot{TrialEndsAt: e.TrialEndsAt, SubscriptionStatus: e.SubscriptionStatus}
}

var _ entitlement.Reader = (*Reader)(nil)
