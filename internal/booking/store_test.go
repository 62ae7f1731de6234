package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/kims-booking/internal/catalog"
)

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, time.Hour), mr
}

func exerciseStore(t *testing.T, store SessionStore) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Update(ctx, "missing", func(*Flow) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Create(ctx, NewFlow("s1", time.Now().UTC())))

	updated, err := store.Update(ctx, "s1", func(f *Flow) error {
		return f.SetDepartment(mustDepartment(t, catalog.DentistryID))
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Selection.Department)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "s1", func(f *Flow) error {
		f.Stage = StagePatient
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StageDepartment, got.Stage, "failed update is not persisted")
	assert.Equal(t, "Dentistry", got.Selection.Department.Name)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "s1", func(f *Flow) error {
				f.Selection.TimeSlot += "x"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "xxxxx", got.Selection.TimeSlot, "updates apply one at a time")

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Error(t, store.Create(ctx, &Flow{}))
}

func TestMemorySessionStore(t *testing.T) {
	exerciseStore(t, NewMemorySessionStore(time.Hour))
}

func TestRedisSessionStore(t *testing.T) {
	store, _ := newRedisStore(t)
	exerciseStore(t, store)
}

func TestMemorySessionStoreExpires(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(context.Background(), NewFlow("s1", now)))
	now = now.Add(59 * time.Second)
	_, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreTTLAndRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	f := completeFlow(t)
	require.NoError(t, store.Create(ctx, f))
	assert.Equal(t, time.Hour, mr.TTL(sessionKey("s1")))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Selection.Complete())
	assert.True(t, got.Selection.Date.Equal(tomorrow))
	assert.Equal(t, "jane@x.com", got.Selection.Patient.Email)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreCorruptPayload(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(sessionKey("bad"), "{not json"))

	_, err := store.Get(context.Background(), "bad")
	assert.ErrorContains(t, err, "decode session")
}
