// Package redisbackend stores activity data in redis with two key formats:
//
//	Track creates sets:          active:<period>:raw[:<bucket>] -> set<id>
//	Collapse converts them into: active:<period>[:<bucket>]     -> count
//
// Collapsing an aggregate with two or more sources stages its result in a temp:<kind>:<md5>
// key, which never shares a cluster slot with the sets it is built from. A shard that
// collapses such aggregates must therefore be a single redis node or a sentinel group, not a
// cluster.
package redisbackend

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/armadaproject/activitytracker/internal/common/atcontext"
	"github.com/armadaproject/activitytracker/internal/common/config"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

// DefaultShard serves requests that don't name a shard.
const DefaultShard = ""

// Backend implements activity.Backend on top of one redis client per shard.
type Backend struct {
	shards map[string]redis.UniversalClient
	clock  activity.Clock
	// Collapsed counts never change once written, so they can be cached indefinitely.
	// Nil if caching is disabled.
	cache *lru.Cache
}

type Option func(*Backend)

// WithShard routes requests naming shard to db.
func WithShard(shard string, db redis.UniversalClient) Option {
	return func(b *Backend) {
		b.shards[shard] = db
	}
}

// WithClock sets the clock used to default request dates.
func WithClock(clock activity.Clock) Option {
	return func(b *Backend) {
		b.clock = clock
	}
}

// WithLookupCache caches up to size collapsed counts read by Lookup.
func WithLookupCache(size int) Option {
	return func(b *Backend) {
		if size <= 0 {
			b.cache = nil
			return
		}
		cache, err := lru.New(size)
		if err != nil {
			panic(errors.WithStack(err).Error())
		}
		b.cache = cache
	}
}

func NewBackend(db redis.UniversalClient, options ...Option) *Backend {
	b := &Backend{
		shards: map[string]redis.UniversalClient{DefaultShard: db},
		clock:  &activity.DefaultClock{},
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// New connects to every shard in cfg.
func New(cfg Config, options ...Option) (*Backend, error) {
	if err := config.Validate(cfg); err != nil {
		config.LogValidationErrors(err)
		return nil, errors.WithStack(&activity.ErrInvalidConfig{Field: "redis", Message: err.Error()})
	}
	opts := []Option{WithLookupCache(cfg.LookupCacheSize)}
	for shard, shardConfig := range cfg.Shards {
		opts = append(opts, WithShard(shard, redis.NewUniversalClient(shardConfig.AsUniversalOptions())))
	}
	return NewBackend(redis.NewUniversalClient(cfg.Redis.AsUniversalOptions()), append(opts, options...)...), nil
}

// Factory builds a Backend from registry options, which are decoded into a Config on top of
// DefaultConfig.
func Factory(options map[string]interface{}) (activity.Backend, error) {
	cfg := DefaultConfig()
	if err := activity.DecodeOptions(options, &cfg); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Close closes the client of every shard.
func (b *Backend) Close() error {
	var result *multierror.Error
	for shard, db := range b.shards {
		if err := db.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "error closing redis client for shard %q", shard))
		}
	}
	return result.ErrorOrNil()
}

func (b *Backend) shard(name string) (redis.UniversalClient, error) {
	db, ok := b.shards[name]
	if !ok {
		return nil, errors.WithStack(&activity.ErrNotFound{Type: "shard", Value: name})
	}
	return db, nil
}

func (b *Backend) Track(ctx context.Context, g activity.Granularity, req activity.TrackRequest) error {
	label, err := g.Label(activity.DateOrToday(b.clock, req.Date))
	if err != nil {
		return err
	}
	db, err := b.shard(req.Shard)
	if err != nil {
		return err
	}
	addKey := activity.RawKey(label, req.Bucket)
	oldKey := activity.RawKey(label, req.OldBucket)

	switch {
	case req.ID != "" && req.OldID != "":
		pipe := db.TxPipeline()
		pipe.SAdd(ctx, addKey, req.ID)
		pipe.SRem(ctx, oldKey, req.OldID)
		_, err = pipe.Exec(ctx)
	case req.ID != "":
		err = db.SAdd(ctx, addKey, req.ID).Err()
	case req.OldID != "":
		err = db.SRem(ctx, oldKey, req.OldID).Err()
	default:
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "error tracking activity for period %s", label)
	}
	trackedCounter.WithLabelValues(string(g)).Inc()
	return nil
}

func (b *Backend) Collapse(ctx context.Context, g activity.Granularity, req activity.CollapseRequest) error {
	db, err := b.shard(req.Shard)
	if err != nil {
		return err
	}
	plans, err := activity.PlanCollapse(ctx, b.clock, g, req, func(ctx context.Context, key string) (bool, error) {
		n, err := db.Exists(ctx, key).Result()
		if err != nil {
			return false, errors.Wrapf(err, "error checking whether %s exists", key)
		}
		return n > 0, nil
	})
	if err != nil {
		return err
	}
	token := req.ScratchToken
	if token == "" {
		token = uuid.NewString()
	}
	for _, plan := range plans {
		start := time.Now()
		if err := collapsePeriod(ctx, db, plan, token); err != nil {
			return err
		}
		collapseDurationHist.WithLabelValues(string(g)).Observe(time.Since(start).Seconds())
		collapsedPeriodsCounter.WithLabelValues(string(g)).Inc()
	}
	return nil
}

// collapsePeriod computes every count of plan and then, in a single transaction, writes the
// counts and deletes the raw sets.
func collapsePeriod(ctx context.Context, db redis.UniversalClient, plan *activity.CollapsePlan, token string) error {
	log := atcontext.Logger(ctx).WithField("period", plan.Label)
	log.Info("Collapsing activity data")

	// Scratch keys are created and deleted inside one transaction, so no other client ever
	// sees them.
	stage := db.TxPipeline()
	counts := make([]func() int64, len(plan.Counts))
	for i, source := range plan.Counts {
		counts[i] = stageCount(ctx, stage, source, token)
	}
	if _, err := stage.Exec(ctx); err != nil {
		return errors.Wrapf(err, "error counting raw activity for period %s", plan.Label)
	}

	write := db.TxPipeline()
	for i, source := range plan.Counts {
		count := counts[i]()
		log.Debugf("%s = %d", source.OutKey, count)
		write.Set(ctx, source.OutKey, count, 0)
	}
	if len(plan.Remove) > 0 {
		write.Del(ctx, plan.Remove...)
	}
	if _, err := write.Exec(ctx); err != nil {
		return errors.Wrapf(err, "error writing collapsed activity for period %s", plan.Label)
	}
	return nil
}

// stageCount queues the commands needed to compute the union size of source.Sources and
// returns a function yielding that size once the pipeline has been executed.
func stageCount(ctx context.Context, pipe redis.Pipeliner, source activity.CountSource, token string) func() int64 {
	switch len(source.Sources) {
	case 1:
		return pipe.SCard(ctx, source.Sources[0]).Val
	case 2:
		// |A ∪ B| = |A| + |B| - |A ∩ B|; the intersection is never bigger than either set,
		// unlike the union.
		temp := activity.TempKey(activity.TempIntersection, source.Sources, token)
		a := pipe.SCard(ctx, source.Sources[0])
		b := pipe.SCard(ctx, source.Sources[1])
		pipe.SInterStore(ctx, temp, source.Sources...)
		inter := pipe.SCard(ctx, temp)
		pipe.Del(ctx, temp)
		return func() int64 {
			return a.Val() + b.Val() - inter.Val()
		}
	default:
		temp := activity.TempKey(activity.TempUnion, source.Sources, token)
		pipe.SUnionStore(ctx, temp, source.Sources...)
		union := pipe.SCard(ctx, temp)
		pipe.Del(ctx, temp)
		return union.Val
	}
}

func (b *Backend) Lookup(ctx context.Context, g activity.Granularity, req activity.LookupRequest) ([]activity.LookupEntry, error) {
	db, err := b.shard(req.Shard)
	if err != nil {
		return nil, err
	}
	plan, err := activity.PlanLookup(ctx, b.clock, g, req)
	if err != nil {
		return nil, err
	}

	// Indices into plan.Keys still to fetch from redis.
	fetch := make([]int, 0, len(plan.Keys))
	for i, key := range plan.Keys {
		if count, ok := b.cached(req.Shard, key); ok {
			plan.Set(i, count)
			continue
		}
		fetch = append(fetch, i)
	}
	if len(fetch) == 0 {
		return plan.Entries, nil
	}

	keys := make([]string, len(fetch))
	for i, idx := range fetch {
		keys[i] = plan.Keys[idx]
	}
	values, err := db.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "error looking up %s activity", g)
	}
	for i, value := range values {
		if value == nil {
			continue
		}
		count, err := parseCount(value)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing count stored at %s", keys[i])
		}
		plan.Set(fetch[i], count)
		if b.cache != nil {
			b.cache.Add(cacheKey(req.Shard, keys[i]), count)
		}
	}
	return plan.Entries, nil
}

func (b *Backend) cached(shard string, key string) (int64, bool) {
	if b.cache == nil {
		return 0, false
	}
	value, ok := b.cache.Get(cacheKey(shard, key))
	if !ok {
		return 0, false
	}
	lookupCacheHitsCounter.Inc()
	return value.(int64), true
}

func cacheKey(shard string, key string) string {
	return shard + "/" + key
}

func parseCount(value interface{}) (int64, error) {
	s, ok := value.(string)
	if !ok {
		return 0, errors.Errorf("unexpected value of type %T", value)
	}
	count, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}
