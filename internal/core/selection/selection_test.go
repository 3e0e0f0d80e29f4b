package selection

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type mapStore struct {
	values map[string][]byte
	err    error
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string][]byte)}
}

func (m *mapStore) Get(_ context.Context, sessionID, namespace, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.values[sessionID+"/"+namespace+"/"+key], nil
}

func (m *mapStore) Set(_ context.Context, sessionID, namespace, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	m.values[sessionID+"/"+namespace+"/"+key] = value
	return nil
}

func TestService_GetUnsetIsEmpty(t *testing.T) {
	t.Parallel()

	svc := NewService(newMapStore())
	names, err := svc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if names == nil || len(names) != 0 {
		t.Fatalf("expected empty non-nil selection, got %#v", names)
	}
}

func TestService_SetOverwrites(t *testing.T) {
	t.Parallel()

	store := newMapStore()
	svc := NewService(store)
	ctx := context.Background()

	if err := svc.Set(ctx, "sess-1", []string{"1.csv", "2.csv"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := svc.Set(ctx, "sess-1", []string{"3.csv", " ", "3.csv", "1.csv"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := svc.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if want := []string{"3.csv", "1.csv"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, ok := store.values["sess-1/"+Namespace+"/"+KeySelectedBatches]; !ok {
		t.Fatalf("expected value stored under the fixed namespace and key")
	}
}

func TestService_SessionsAreIsolated(t *testing.T) {
	t.Parallel()

	svc := NewService(newMapStore())
	ctx := context.Background()

	if err := svc.Set(ctx, "sess-1", []string{"1.csv"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := svc.Get(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected other session to be empty, got %v", got)
	}
}

func TestService_Clear(t *testing.T) {
	t.Parallel()

	svc := NewService(newMapStore())
	ctx := context.Background()

	if err := svc.Set(ctx, "sess-1", []string{"1.csv"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := svc.Clear(ctx, "sess-1"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	got, err := svc.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty selection after Clear, got %v", got)
	}
}

func TestService_Errors(t *testing.T) {
	t.Parallel()

	svc := NewService(newMapStore())
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	store := newMapStore()
	store.values["s/"+Namespace+"/"+KeySelectedBatches] = []byte("{not json")
	svc = NewService(store)
	if _, err := svc.Get(context.Background(), "s"); !errors.Is(err, ErrCorruptValue) {
		t.Fatalf("expected ErrCorruptValue, got %v", err)
	}

	backendErr := errors.New("redis down")
	store = newMapStore()
	store.err = backendErr
	svc = NewService(store)
	if err := svc.Set(context.Background(), "s", []string{"1.csv"}); !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
