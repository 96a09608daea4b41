package quota

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"clipscloud-bot/internal/models"
)

var (
	// ErrBanned terminates the request with no content.
	ErrBanned = errors.New("user is banned")
	// ErrLimitReached means the daily quota is exhausted for a non-premium user.
	ErrLimitReached = errors.New("daily video limit reached")
	// ErrBadReference is reported by a Sender when the stored file handle is no
	// longer accepted by the transport. The engine prunes such entries from the
	// catalog permanently.
	ErrBadReference = errors.New("invalid content reference")
)

// Sender delivers one catalog item to a user.
type Sender interface {
	SendVideo(ctx context.Context, telegramID int64, fileID string) error
}

// UserStore is the slice of the repository the engine mutates users through.
type UserStore interface {
	UserByTelegramID(telegramID int64) (*models.User, error)
	SaveUser(user *models.User) error
}

// Catalog is the slice of the repository the engine selects items from.
type Catalog interface {
	VideosPage(offset, limit int) ([]models.Video, error)
	CountVideos() (int64, error)
	RemoveVideo(fileID string) error
}

// Result reports what a batch request delivered.
type Result struct {
	Sent      int
	Exhausted bool // no items remain past the user's cursor
}

// Engine selects and delivers content batches under the daily quota. Each
// user's counter/cursor mutation runs under a per-user lock so a double-tap
// cannot pass the limit check twice.
type Engine struct {
	users   UserStore
	catalog Catalog
	sender  Sender

	dailyLimit int
	batchSize  int
	now        func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewEngine(users UserStore, catalog Catalog, sender Sender, dailyLimit, batchSize int) *Engine {
	return &Engine{
		users:      users,
		catalog:    catalog,
		sender:     sender,
		dailyLimit: dailyLimit,
		batchSize:  batchSize,
		now:        time.Now,
		locks:      make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) lockFor(telegramID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[telegramID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[telegramID] = lock
	}
	return lock
}

// RequestBatch delivers the next batch for the user and advances their
// counter and cursor by the number of items attempted. A failed send is
// logged and skipped, never aborting the batch.
func (e *Engine) RequestBatch(ctx context.Context, telegramID int64) (Result, error) {
	lock := e.lockFor(telegramID)
	lock.Lock()
	defer lock.Unlock()

	user, err := e.users.UserByTelegramID(telegramID)
	if err != nil {
		return Result{}, err
	}

	if user.Banned {
		return Result{}, ErrBanned
	}

	// Daily rollover: counter and cursor reset together, so yesterday's items
	// become available again.
	today := e.now().Format("2006-01-02")
	if user.LastVideoDate != today {
		user.VideosSentToday = 0
		user.VideoIndex = 0
		user.LastVideoDate = today
	}

	if user.VideosSentToday >= e.dailyLimit && !user.Premium {
		if err := e.users.SaveUser(user); err != nil {
			return Result{}, err
		}
		return Result{}, ErrLimitReached
	}

	// Clamp the batch to the remaining quota so the counter can never pass
	// the limit.
	size := e.batchSize
	if !user.Premium {
		if remaining := e.dailyLimit - user.VideosSentToday; remaining < size {
			size = remaining
		}
	}

	videos, err := e.catalog.VideosPage(user.VideoIndex, size)
	if err != nil {
		return Result{}, err
	}

	sent := 0
	for _, video := range videos {
		if err := e.sender.SendVideo(ctx, telegramID, video.FileID); err != nil {
			log.Printf("Failed to send video to user %d: %v", telegramID, err)
			if errors.Is(err, ErrBadReference) {
				if rmErr := e.catalog.RemoveVideo(video.FileID); rmErr != nil {
					log.Printf("Failed to prune video %s: %v", video.FileID, rmErr)
				}
			}
			continue
		}
		sent++
	}

	// Attempted sends consume quota, not just successful ones.
	attempted := len(videos)
	user.VideosSentToday += attempted
	user.VideoIndex += attempted
	if err := e.users.SaveUser(user); err != nil {
		return Result{}, err
	}

	total, err := e.catalog.CountVideos()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Sent:      sent,
		Exhausted: int64(user.VideoIndex) >= total,
	}, nil
}
