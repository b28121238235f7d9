// Package membackend is an in-process activity.Backend built on go-memdb. It uses the same
// key layout as the redis backend and applies every operation in a single write transaction,
// which makes it suitable for tests and single-process deployments.
package membackend

import (
	"context"
	"sync"

	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"

	"github.com/armadaproject/activitytracker/internal/common/atcontext"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

const (
	membersTable = "members"
	countsTable  = "counts"
	idIndex      = "id"  // lookup by primary key
	keyIndex     = "key" // lookup of every member of a set
)

// member is one element of a raw activity set.
type member struct {
	Key string
	ID  string
}

// count is a collapsed count.
type count struct {
	Key   string
	Value int64
}

// Backend keeps one memdb per shard. Shards are created on first use.
type Backend struct {
	clock  activity.Clock
	shards map[string]*memdb.MemDB
	mu     sync.Mutex
}

type Option func(*Backend)

func WithClock(clock activity.Clock) Option {
	return func(b *Backend) {
		b.clock = clock
	}
}

func New(options ...Option) *Backend {
	b := &Backend{
		clock:  &activity.DefaultClock{},
		shards: make(map[string]*memdb.MemDB),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// Factory builds a Backend from registry options. No options are accepted.
func Factory(options map[string]interface{}) (activity.Backend, error) {
	var cfg struct{}
	if err := activity.DecodeOptions(options, &cfg); err != nil {
		return nil, err
	}
	return New(), nil
}

func (b *Backend) db(shard string) (*memdb.MemDB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if db, ok := b.shards[shard]; ok {
		return db, nil
	}
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	b.shards[shard] = db
	return db, nil
}

func (b *Backend) Track(_ context.Context, g activity.Granularity, req activity.TrackRequest) error {
	label, err := g.Label(activity.DateOrToday(b.clock, req.Date))
	if err != nil {
		return err
	}
	if req.ID == "" && req.OldID == "" {
		return nil
	}
	db, err := b.db(req.Shard)
	if err != nil {
		return err
	}
	txn := db.Txn(true)
	defer txn.Abort()
	if req.ID != "" {
		if err := txn.Insert(membersTable, &member{Key: activity.RawKey(label, req.Bucket), ID: req.ID}); err != nil {
			return errors.WithStack(err)
		}
	}
	if req.OldID != "" {
		if err := deleteMember(txn, activity.RawKey(label, req.OldBucket), req.OldID); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}

func deleteMember(txn *memdb.Txn, key string, id string) error {
	existing, err := txn.First(membersTable, idIndex, key, id)
	if err != nil {
		return errors.WithStack(err)
	}
	if existing == nil {
		return nil
	}
	return errors.WithStack(txn.Delete(membersTable, existing))
}

func (b *Backend) Collapse(ctx context.Context, g activity.Granularity, req activity.CollapseRequest) error {
	db, err := b.db(req.Shard)
	if err != nil {
		return err
	}
	txn := db.Txn(true)
	defer txn.Abort()

	plans, err := activity.PlanCollapse(ctx, b.clock, g, req, func(_ context.Context, key string) (bool, error) {
		existing, err := txn.First(countsTable, idIndex, key)
		if err != nil {
			return false, errors.WithStack(err)
		}
		return existing != nil, nil
	})
	if err != nil {
		return err
	}
	for _, plan := range plans {
		atcontext.Logger(ctx).WithField("period", plan.Label).Info("Collapsing activity data")
		for _, source := range plan.Counts {
			union, err := members(txn, source.Sources...)
			if err != nil {
				return err
			}
			if err := txn.Insert(countsTable, &count{Key: source.OutKey, Value: int64(len(union))}); err != nil {
				return errors.WithStack(err)
			}
		}
		for _, key := range plan.Remove {
			if _, err := txn.DeleteAll(membersTable, keyIndex, key); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	txn.Commit()
	return nil
}

// members returns the union of the sets stored at keys.
func members(txn *memdb.Txn, keys ...string) (map[string]bool, error) {
	union := make(map[string]bool)
	for _, key := range keys {
		it, err := txn.Get(membersTable, keyIndex, key)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for obj := it.Next(); obj != nil; obj = it.Next() {
			union[obj.(*member).ID] = true
		}
	}
	return union, nil
}

func (b *Backend) Lookup(ctx context.Context, g activity.Granularity, req activity.LookupRequest) ([]activity.LookupEntry, error) {
	plan, err := activity.PlanLookup(ctx, b.clock, g, req)
	if err != nil {
		return nil, err
	}
	db, err := b.db(req.Shard)
	if err != nil {
		return nil, err
	}
	txn := db.Txn(false)
	for i, key := range plan.Keys {
		obj, err := txn.First(countsTable, idIndex, key)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if obj != nil {
			plan.Set(i, obj.(*count).Value)
		}
	}
	return plan.Entries, nil
}

// Members returns the ids in the raw set stored at key. It is meant for tests and tooling.
func (b *Backend) Members(shard string, key string) ([]string, error) {
	db, err := b.db(shard)
	if err != nil {
		return nil, err
	}
	union, err := members(db.Txn(false), key)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	return ids, nil
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			membersTable: {
				Name: membersTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:   idIndex,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "Key"},
								&memdb.StringFieldIndex{Field: "ID"},
							},
						},
					},
					keyIndex: {
						Name:    keyIndex,
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
			countsTable: {
				Name: countsTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}
