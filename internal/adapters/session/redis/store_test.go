package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	hashes  map[string]map[string]string
	expires map[string]time.Duration
	hsetErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{hashes: make(map[string]map[string]string), expires: make(map[string]time.Duration)}
}

func (f *fakeClient) HGet(_ context.Context, key, field string) *redis.StringCmd {
	v, ok := f.hashes[key][field]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.hsetErr != nil {
		return redis.NewIntResult(0, f.hsetErr)
	}
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[values[i].(string)] = string(values[i+1].([]byte))
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeClient) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	store := New(client, "app", 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sess", "employee_import", "csvs", []byte(`["1.csv"]`)))

	assert.Equal(t, `["1.csv"]`, client.hashes["app:session:sess"]["employee_import:csvs"])
	assert.Equal(t, 30*time.Minute, client.expires["app:session:sess"])

	v, err := store.Get(ctx, "sess", "employee_import", "csvs")
	require.NoError(t, err)
	assert.Equal(t, `["1.csv"]`, string(v))
}

func TestStore_GetMissingIsNil(t *testing.T) {
	t.Parallel()

	v, err := New(newFakeClient(), "", 0).Get(context.Background(), "sess", "ns", "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_NoTTLSkipsExpire(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	require.NoError(t, New(client, "", 0).Set(context.Background(), "sess", "ns", "k", []byte("v")))
	assert.Empty(t, client.expires)
	assert.Contains(t, client.hashes, "employee_import:session:sess")
}

func TestStore_SetPropagatesErrors(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.hsetErr = errors.New("connection refused")

	err := New(client, "", 0).Set(context.Background(), "sess", "ns", "k", []byte("v"))
	require.ErrorIs(t, err, client.hsetErr)
}

func TestStore_RejectsEmptySession(t *testing.T) {
	t.Parallel()

	store := New(newFakeClient(), "", 0)
	require.Error(t, store.Set(context.Background(), "", "ns", "k", nil))
	_, err := store.Get(context.Background(), "", "ns", "k")
	require.Error(t, err)
}
