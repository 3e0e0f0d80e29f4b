package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client は Store が利用する Redis コマンドです。*redis.Client が満たします。
type Client interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Options は Redis 接続設定です。
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient は go-redis クライアントを生成し、疎通を確認します。
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis session: ping: %w", err)
	}
	return client, nil
}

// Store はセッションごとに 1 つのハッシュへ値を保存します。書き込みのたびに TTL を延長します。
type Store struct {
	client Client
	prefix string
	ttl    time.Duration
}

// New は Store を生成します。ttl が 0 以下なら期限を設定しません。
func New(client Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "employee_import"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) hashKey(sessionID string) string {
	return s.prefix + ":session:" + sessionID
}

func field(namespace, key string) string {
	return namespace + ":" + key
}

// Get は値を返します。未設定なら nil です。
func (s *Store) Get(ctx context.Context, sessionID, namespace, key string) ([]byte, error) {
	if sessionID == "" {
		return nil, errors.New("redis session: empty session id")
	}

	v, err := s.client.HGet(ctx, s.hashKey(sessionID), field(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis session: hget: %w", err)
	}
	return v, nil
}

// Set は値を置き換えます。
func (s *Store) Set(ctx context.Context, sessionID, namespace, key string, value []byte) error {
	if sessionID == "" {
		return errors.New("redis session: empty session id")
	}

	hashKey := s.hashKey(sessionID)
	if err := s.client.HSet(ctx, hashKey, field(namespace, key), value).Err(); err != nil {
		return fmt.Errorf("redis session: hset: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, hashKey, s.ttl).Err(); err != nil {
			return fmt.Errorf("redis session: expire: %w", err)
		}
	}
	return nil
}
