// Package redis keeps the index catalog in Redis.
//
// Layout, with prefix "docplan":
//
//	docplan:meta               hash   magic, version
//	docplan:collections        set    collection names
//	docplan:seq                string sequence counter
//	docplan:order:<collection> list   index names in catalog order
//	docplan:index:<collection> hash   name -> JSON record
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nonibytes/docplan/docplan/storage"
)

const DefaultPrefix = "docplan"

type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces all keys; DefaultPrefix when empty.
	Prefix string
}

type Backend struct {
	client *goredis.Client
	opts   Options
}

// New connects to the server in opts.
func New(ctx context.Context, opts Options) (*Backend, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts), nil
}

// NewWithClient wraps an existing client. Close closes it.
func NewWithClient(client *goredis.Client, opts Options) *Backend {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Backend{client: client, opts: opts}
}

type record struct {
	KeyPattern  json.RawMessage `json:"key_pattern"`
	Seq         int64           `json:"seq"`
	CreatedAtMS int64           `json:"created_at_ms"`
}

func (b *Backend) Kind() storage.BackendKind { return storage.BackendRedis }

func (b *Backend) ID() string {
	return fmt.Sprintf("redis:%s/%d/%s", b.opts.Addr, b.opts.DB, b.opts.Prefix)
}

func (b *Backend) metaKey() string { return b.opts.Prefix + ":meta" }
func (b *Backend) collectionsKey() string { return b.opts.Prefix + ":collections" }
func (b *Backend) seqKey() string { return b.opts.Prefix + ":seq" }
func (b *Backend) orderKey(collection string) string { return b.opts.Prefix + ":order:" + collection }
func (b *Backend) indexKey(collection string) string { return b.opts.Prefix + ":index:" + collection }

func (b *Backend) Init(ctx context.Context) error {
	magic, err := b.client.HGet(ctx, b.metaKey(), "magic").Result()
	switch {
	case err == nil:
		if magic != "docplan" {
			return storage.ErrNotCatalog
		}
		return nil
	case !errors.Is(err, goredis.Nil):
		return err
	}
	return b.client.HSet(ctx, b.metaKey(), "magic", "docplan", "version", "1").Err()
}

// PutIndex claims the name with HSETNX, then appends it to the order list.
func (b *Backend) PutIndex(ctx context.Context, rec storage.IndexRecord) (storage.IndexRecord, error) {
	seq, err := b.client.Incr(ctx, b.seqKey()).Result()
	if err != nil {
		return storage.IndexRecord{}, err
	}
	rec.Seq = seq
	payload, err := json.Marshal(record{
		KeyPattern:  json.RawMessage(rec.KeyPattern),
		Seq:         rec.Seq,
		CreatedAtMS: rec.CreatedAtMS,
	})
	if err != nil {
		return storage.IndexRecord{}, err
	}

	claimed, err := b.client.HSetNX(ctx, b.indexKey(rec.Collection), rec.Name, payload).Result()
	if err != nil {
		return storage.IndexRecord{}, err
	}
	if !claimed {
		return storage.IndexRecord{}, fmt.Errorf("index %s.%s: %w", rec.Collection, rec.Name, storage.ErrDuplicate)
	}

	_, err = b.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, b.orderKey(rec.Collection), rec.Name)
		p.SAdd(ctx, b.collectionsKey(), rec.Collection)
		return nil
	})
	if err != nil {
		return storage.IndexRecord{}, err
	}
	return rec, nil
}

func (b *Backend) DropIndex(ctx context.Context, collection, name string) (bool, error) {
	n, err := b.client.HDel(ctx, b.indexKey(collection), name).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := b.client.LRem(ctx, b.orderKey(collection), 0, name).Err(); err != nil {
		return true, err
	}
	left, err := b.client.HLen(ctx, b.indexKey(collection)).Result()
	if err != nil {
		return true, err
	}
	if left == 0 {
		if err := b.client.SRem(ctx, b.collectionsKey(), collection).Err(); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Indexes lists the indexes of collection in catalog order. An empty
// collection lists every index, grouped by collection.
func (b *Backend) Indexes(ctx context.Context, collection string) ([]storage.IndexRecord, error) {
	if collection == "" {
		colls, err := b.Collections(ctx)
		if err != nil {
			return nil, err
		}
		var out []storage.IndexRecord
		for _, c := range colls {
			recs, err := b.Indexes(ctx, c)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
		}
		return out, nil
	}

	names, err := b.client.LRange(ctx, b.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	vals, err := b.client.HMGet(ctx, b.indexKey(collection), names...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]storage.IndexRecord, 0, len(names))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// dropped between LRANGE and HMGET
			continue
		}
		var r record
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			return nil, fmt.Errorf("decode index %s.%s: %w", collection, names[i], err)
		}
		out = append(out, storage.IndexRecord{
			Collection:  collection,
			Name:        names[i],
			KeyPattern:  []byte(r.KeyPattern),
			Seq:         r.Seq,
			CreatedAtMS: r.CreatedAtMS,
		})
	}
	return out, nil
}

func (b *Backend) Collections(ctx context.Context) ([]string, error) {
	colls, err := b.client.SMembers(ctx, b.collectionsKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(colls)
	return colls, nil
}

func (b *Backend) Close() error {
	return b.client.Close()
}
