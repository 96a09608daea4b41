package quota

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipscloud-bot/internal/models"
	"clipscloud-bot/internal/store"
)

type fakeUsers struct {
	users map[int64]*models.User
}

func (f *fakeUsers) UserByTelegramID(telegramID int64) (*models.User, error) {
	user, ok := f.users[telegramID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) SaveUser(user *models.User) error {
	copied := *user
	f.users[user.TelegramID] = &copied
	return nil
}

type fakeCatalog struct {
	videos []models.Video
}

func (f *fakeCatalog) VideosPage(offset, limit int) ([]models.Video, error) {
	if offset >= len(f.videos) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.videos) {
		end = len(f.videos)
	}
	page := make([]models.Video, end-offset)
	copy(page, f.videos[offset:end])
	return page, nil
}

func (f *fakeCatalog) CountVideos() (int64, error) {
	return int64(len(f.videos)), nil
}

func (f *fakeCatalog) RemoveVideo(fileID string) error {
	for i, v := range f.videos {
		if v.FileID == fileID {
			f.videos = append(f.videos[:i], f.videos[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSender struct {
	sent    []string
	failing map[string]error
}

func (f *fakeSender) SendVideo(_ context.Context, _ int64, fileID string) error {
	if err, ok := f.failing[fileID]; ok {
		return err
	}
	f.sent = append(f.sent, fileID)
	return nil
}

func catalogOf(n int) *fakeCatalog {
	videos := make([]models.Video, n)
	for i := range videos {
		videos[i] = models.Video{ID: uint(i + 1), FileID: fmt.Sprintf("file-%d", i)}
	}
	return &fakeCatalog{videos: videos}
}

func newTestEngine(users *fakeUsers, catalog *fakeCatalog, sender *fakeSender, limit, batch int) *Engine {
	e := NewEngine(users, catalog, sender, limit, batch)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func userOn(day string) *models.User {
	return &models.User{TelegramID: 42, Name: "alice", LastVideoDate: day}
}

func TestRequestBatchWalksCatalog(t *testing.T) {
	users := &fakeUsers{users: map[int64]*models.User{42: userOn("2025-06-01")}}
	catalog := catalogOf(12)
	sender := &fakeSender{}
	engine := newTestEngine(users, catalog, sender, 20, 5)

	result, err := engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Sent)
	assert.False(t, result.Exhausted)
	assert.Equal(t, 5, users.users[42].VideoIndex)

	result, err = engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Sent)
	assert.False(t, result.Exhausted)
	assert.Equal(t, 10, users.users[42].VideoIndex)

	result, err = engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.True(t, result.Exhausted)
	assert.Equal(t, 12, users.users[42].VideoIndex)

	// No item was delivered twice.
	seen := make(map[string]bool)
	for _, fileID := range sender.sent {
		assert.False(t, seen[fileID], "duplicate delivery of %s", fileID)
		seen[fileID] = true
	}
	assert.Len(t, sender.sent, 12)
}

func TestRequestBatchBanned(t *testing.T) {
	user := userOn("2025-06-01")
	user.Banned = true
	users := &fakeUsers{users: map[int64]*models.User{42: user}}
	engine := newTestEngine(users, catalogOf(3), &fakeSender{}, 20, 5)

	_, err := engine.RequestBatch(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBanned)
	assert.Equal(t, 0, users.users[42].VideosSentToday)
}

func TestRequestBatchLimit(t *testing.T) {
	user := userOn("2025-06-01")
	user.VideosSentToday = 20
	user.VideoIndex = 20
	users := &fakeUsers{users: map[int64]*models.User{42: user}}
	sender := &fakeSender{}
	engine := newTestEngine(users, catalogOf(30), sender, 20, 5)

	_, err := engine.RequestBatch(context.Background(), 42)
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.Empty(t, sender.sent)
}

func TestRequestBatchNeverExceedsLimit(t *testing.T) {
	users := &fakeUsers{users: map[int64]*models.User{42: userOn("2025-06-01")}}
	engine := newTestEngine(users, catalogOf(100), &fakeSender{}, 20, 7)

	for {
		_, err := engine.RequestBatch(context.Background(), 42)
		if errors.Is(err, ErrLimitReached) {
			break
		}
		require.NoError(t, err)
		assert.LessOrEqual(t, users.users[42].VideosSentToday, 20)
	}
	assert.Equal(t, 20, users.users[42].VideosSentToday)
}

func TestRequestBatchPremiumIgnoresLimit(t *testing.T) {
	user := userOn("2025-06-01")
	user.Premium = true
	user.VideosSentToday = 1000
	users := &fakeUsers{users: map[int64]*models.User{42: user}}
	sender := &fakeSender{}
	engine := newTestEngine(users, catalogOf(8), sender, 20, 5)

	result, err := engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Sent)
}

func TestRequestBatchDailyReset(t *testing.T) {
	user := userOn("2025-05-31") // yesterday
	user.VideosSentToday = 20
	user.VideoIndex = 12
	users := &fakeUsers{users: map[int64]*models.User{42: user}}
	sender := &fakeSender{}
	engine := newTestEngine(users, catalogOf(12), sender, 20, 5)

	result, err := engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Sent)
	assert.Equal(t, "file-0", sender.sent[0]) // cursor restarted from the top
	assert.Equal(t, "2025-06-01", users.users[42].LastVideoDate)
	assert.Equal(t, 5, users.users[42].VideosSentToday)
	assert.Equal(t, 5, users.users[42].VideoIndex)
}

func TestRequestBatchSkipsFailedSends(t *testing.T) {
	users := &fakeUsers{users: map[int64]*models.User{42: userOn("2025-06-01")}}
	catalog := catalogOf(5)
	sender := &fakeSender{failing: map[string]error{"file-2": errors.New("blocked by user")}}
	engine := newTestEngine(users, catalog, sender, 20, 5)

	result, err := engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Sent)
	assert.True(t, result.Exhausted)
	// Attempted sends still consume quota.
	assert.Equal(t, 5, users.users[42].VideosSentToday)
	assert.Equal(t, 5, users.users[42].VideoIndex)
	// A plain transport failure does not prune the catalog.
	count, _ := catalog.CountVideos()
	assert.Equal(t, int64(5), count)
}

func TestRequestBatchPrunesBadReferences(t *testing.T) {
	users := &fakeUsers{users: map[int64]*models.User{42: userOn("2025-06-01")}}
	catalog := catalogOf(5)
	sender := &fakeSender{failing: map[string]error{
		"file-1": fmt.Errorf("%w: wrong file identifier", ErrBadReference),
	}}
	engine := newTestEngine(users, catalog, sender, 20, 5)

	result, err := engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Sent)

	count, _ := catalog.CountVideos()
	assert.Equal(t, int64(4), count)
	for _, v := range catalog.videos {
		assert.NotEqual(t, "file-1", v.FileID)
	}
}

func TestRequestBatchEmptyCatalog(t *testing.T) {
	users := &fakeUsers{users: map[int64]*models.User{42: userOn("2025-06-01")}}
	engine := newTestEngine(users, catalogOf(0), &fakeSender{}, 20, 5)

	result, err := engine.RequestBatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.True(t, result.Exhausted)
	assert.Equal(t, 0, users.users[42].VideosSentToday)
}

func TestRequestBatchUnknownUser(t *testing.T) {
	users := &fakeUsers{users: map[int64]*models.User{}}
	engine := newTestEngine(users, catalogOf(3), &fakeSender{}, 20, 5)

	_, err := engine.RequestBatch(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
