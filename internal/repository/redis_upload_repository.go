package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"upload-registry/internal/domain/upload"
	registry_errors "upload-registry/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
)

// Key pattern:
// - {prefix}:{upload_id} - JSON encoded upload record, no TTL

const redisScanCount = 200

// RedisUploadRepository stores each record as a JSON document. Insert relies
// on SETNX for uniqueness and Update on WATCH/MULTI.
type RedisUploadRepository struct {
	client *goredis.Client
	prefix string
}

func NewRedisUploadRepository(client *goredis.Client, prefix string) *RedisUploadRepository {
	if prefix == "" {
		prefix = "upload"
	}
	return &RedisUploadRepository{client: client, prefix: prefix}
}

func (r *RedisUploadRepository) key(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *RedisUploadRepository) Insert(ctx context.Context, u *upload.Upload) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Version = 1

	data, err := encodeRedisRecord(*u)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(u.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return registry_errors.ErrDuplicateIdentity
	}
	return nil
}

func (r *RedisUploadRepository) FindByID(ctx context.Context, id string) (upload.Upload, error) {
	return r.get(ctx, r.client, r.key(id))
}

func (r *RedisUploadRepository) FindByFields(ctx context.Context, fields Fields) (upload.Upload, error) {
	if err := fields.validate(); err != nil {
		return upload.Upload{}, err
	}
	all, err := r.ScanAll(ctx)
	if err != nil {
		return upload.Upload{}, err
	}
	var found *upload.Upload
	for i := range all {
		if !fields.matches(all[i]) {
			continue
		}
		if found == nil || all[i].CreatedAt.Before(found.CreatedAt) {
			found = &all[i]
		}
	}
	if found == nil {
		return upload.Upload{}, registry_errors.ErrNotFound
	}
	return *found, nil
}

func (r *RedisUploadRepository) Update(ctx context.Context, u upload.Upload) (upload.Upload, error) {
	key := r.key(u.ID)
	var next upload.Upload

	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := r.get(ctx, tx, key)
		if err != nil {
			return err
		}
		if current.Version != u.Version {
			return registry_errors.ErrVersionConflict
		}

		next = current
		next.Resumable = u.Resumable
		next.ResumableID = u.ResumableID
		next.FilePath = u.FilePath
		next.ObjectOptions = u.ObjectOptions
		next.PartList = u.PartList
		next.PartData = u.PartData
		next.Version++
		next.UpdatedAt = time.Now().UTC()

		data, err := encodeRedisRecord(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		return upload.Upload{}, registry_errors.ErrVersionConflict
	}
	if err != nil {
		return upload.Upload{}, err
	}
	return next, nil
}

func (r *RedisUploadRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return registry_errors.ErrNotFound
	}
	return nil
}

func (r *RedisUploadRepository) ScanAll(ctx context.Context) ([]upload.Upload, error) {
	var all []upload.Upload
	iter := r.client.Scan(ctx, 0, r.prefix+":*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		u, err := r.get(ctx, r.client, iter.Val())
		if errors.Is(err, registry_errors.ErrNotFound) {
			// deleted between SCAN and GET
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *RedisUploadRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisUploadRepository) get(ctx context.Context, c stringGetter, key string) (upload.Upload, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return upload.Upload{}, registry_errors.ErrNotFound
	}
	if err != nil {
		return upload.Upload{}, err
	}
	return decodeRedisRecord(data)
}

// stringGetter is satisfied by both *goredis.Client and *goredis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// redisRecord overrides the resumable flag so documents written with the
// older string encoding ("true"/"false") still decode.
type redisRecord struct {
	upload.Upload
	Resumable flexBool `json:"resumable"`
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("%w: resumable %q", registry_errors.ErrValidation, s)
	}
	*b = flexBool(v)
	return nil
}

func encodeRedisRecord(u upload.Upload) ([]byte, error) {
	return json.Marshal(redisRecord{Upload: u, Resumable: flexBool(u.Resumable)})
}

func decodeRedisRecord(data []byte) (upload.Upload, error) {
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return upload.Upload{}, err
	}
	u := rec.Upload
	u.Resumable = bool(rec.Resumable)
	return u, nil
}
