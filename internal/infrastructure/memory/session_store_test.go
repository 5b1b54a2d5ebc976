package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

func newSession(id string, updated time.Time) domain.Session {
	return domain.Session{ID: id, State: giftbuilder.InitialState(), CreatedAt: updated, UpdatedAt: updated}
}

func TestSessionStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Now()

	require.NoError(t, store.Create(ctx, newSession("s1", now)))
	require.Error(t, store.Create(ctx, newSession("s1", now)))
	require.Error(t, store.Create(ctx, domain.Session{}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, giftbuilder.StepChooseBox, got.State.Step)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.ErrorIs(t, store.Delete(ctx, "s1"), domain.ErrSessionNotFound)
}

func TestSessionStore_IsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	s := newSession("s1", time.Now())
	s.State = giftbuilder.Reduce(s.State, giftbuilder.SelectBox{Box: giftbuilder.BoxSelection{BoxID: "B", MaxProducts: 2, Options: map[string]string{"ribbon": "red"}}})
	require.NoError(t, store.Create(ctx, s))

	s.State.SelectedBox.Options["ribbon"] = "blue"
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "red", got.State.SelectedBox.Options["ribbon"])

	got.State.SelectedBox.Options["ribbon"] = "green"
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "red", again.State.SelectedBox.Options["ribbon"])
}

func TestSessionStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	require.NoError(t, store.Create(ctx, newSession("s1", time.Now())))

	updated, err := store.Update(ctx, "s1", func(s domain.Session) (domain.Session, error) {
		s.State = giftbuilder.Reduce(s.State, giftbuilder.SetStep{Step: giftbuilder.StepReview})
		s.Version++
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "s1", func(s domain.Session) (domain.Session, error) {
		s.Version = 99
		return s, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, giftbuilder.StepReview, got.State.Step)

	_, err = store.Update(ctx, "missing", func(s domain.Session) (domain.Session, error) { return s, nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_SerializesUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	require.NoError(t, store.Create(ctx, newSession("s1", time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, "s1", func(s domain.Session) (domain.Session, error) {
				s.Version++
				return s, nil
			})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Version)
}

func TestSessionStore_PurgeIdle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Now()
	require.NoError(t, store.Create(ctx, newSession("old", now.Add(-2*time.Hour))))
	require.NoError(t, store.Create(ctx, newSession("fresh", now)))

	n, err := store.PurgeIdle(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_DeleteIfVersion(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	require.NoError(t, store.Create(ctx, newSession("s1", time.Now())))

	_, err := store.Update(ctx, "s1", func(s domain.Session) (domain.Session, error) {
		s.Version = 2
		return s, nil
	})
	require.NoError(t, err)

	deleted, err := store.DeleteIfVersion(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = store.Get(ctx, "s1")
	require.NoError(t, err)

	deleted, err = store.DeleteIfVersion(ctx, "s1", 2)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.DeleteIfVersion(ctx, "s1", 2)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
