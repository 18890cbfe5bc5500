// Package redisstore persists the object cache in Redis. It is an
// alternative to boltstore for deployments that share state between
// processes.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultPrefix = "rpkit"
	opTimeout     = 5 * time.Second
)

// Store implements gamedb.Store on top of a Redis client.
type Store struct {
	client *redis.Client
	prefix string
	cache  *gamedb.Database
	logger *zap.Logger
}

var _ gamedb.Store = (*Store)(nil)

// Open connects to Redis at addr and verifies the connection.
func Open(ctx context.Context, addr string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return &Store{
		client: client,
		prefix: defaultPrefix,
		cache:  gamedb.NewDatabase(),
		logger: logger.Named("redisstore"),
	}, nil
}

func (s *Store) objKey(ref gamedb.DBRef) string {
	return s.prefix + ":obj:" + strconv.Itoa(int(ref))
}

func (s *Store) setKey() string { return s.prefix + ":objects" }
func (s *Store) metaKey() string { return s.prefix + ":meta" }

// DB returns the in-memory database cache.
func (s *Store) DB() *gamedb.Database {
	return s.cache
}

// Close closes the Redis client.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redisstore: close: %w", err)
	}
	return nil
}

// PutObject persists one object.
func (s *Store) PutObject(obj *gamedb.Object) error {
	return s.PutObjects(obj)
}

// PutObjects persists objects in a single MULTI/EXEC transaction.
func (s *Store) PutObjects(objs ...*gamedb.Object) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, obj := range objs {
			if obj == nil {
				continue
			}
			data, err := gamedb.EncodeObject(obj)
			if err != nil {
				return fmt.Errorf("encode object #%d: %w", obj.DBRef, err)
			}
			pipe.Set(ctx, s.objKey(obj.DBRef), data, 0)
			pipe.SAdd(ctx, s.setKey(), int(obj.DBRef))
		}
		pipe.HSet(ctx, s.metaKey(), "nextref", int(s.cache.NextRef))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: put objects: %w", err)
	}
	return nil
}

// DeleteObject removes an object from Redis.
func (s *Store) DeleteObject(ref gamedb.DBRef) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.objKey(ref))
		pipe.SRem(ctx, s.setKey(), int(ref))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: delete #%d: %w", ref, err)
	}
	return nil
}

// LoadAll reads every object in the object set into the cache.
func (s *Store) LoadAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	next, err := s.client.HGet(ctx, s.metaKey(), "nextref").Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstore: load meta: %w", err)
	}
	s.cache.NextRef = gamedb.DBRef(next)

	members, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return fmt.Errorf("redisstore: list objects: %w", err)
	}
	for _, m := range members {
		ref, err := strconv.Atoi(m)
		if err != nil {
			s.logger.Warn("skipping malformed object id", zap.String("id", m))
			continue
		}
		data, err := s.client.Get(ctx, s.objKey(gamedb.DBRef(ref))).Bytes()
		if errors.Is(err, redis.Nil) {
			s.logger.Warn("object listed but missing", zap.Int("ref", ref))
			continue
		}
		if err != nil {
			return fmt.Errorf("redisstore: load #%d: %w", ref, err)
		}
		obj, err := gamedb.DecodeObject(data)
		if err != nil {
			return fmt.Errorf("redisstore: decode #%d: %w", ref, err)
		}
		s.cache.Add(obj)
	}

	s.logger.Info("loaded objects", zap.Int("objects", len(members)), zap.Int("next_ref", int(s.cache.NextRef)))
	return nil
}
