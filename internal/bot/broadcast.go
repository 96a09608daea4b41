package bot

import (
	"context"
	"log"
	"sync"
	"time"

	tu "github.com/mymmrac/telego/telegoutil"
)

const (
	broadcastWorkers = 4
	// Bot API allows ~30 messages/second overall; stay under it.
	broadcastInterval = 40 * time.Millisecond
)

// Broadcast fans a text message or a video out to every known user with
// bounded concurrency and rate limiting. A target that fails (blocked the
// bot, deactivated) is logged and skipped. Returns the number of successful
// sends.
func (b *Bot) Broadcast(ctx context.Context, text string, videoFileID string) int {
	users, err := b.Store.ListUsers()
	if err != nil {
		log.Printf("Failed to list users for broadcast: %v", err)
		return 0
	}

	limiter := time.NewTicker(broadcastInterval)
	defer limiter.Stop()

	sem := make(chan struct{}, broadcastWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := 0

	for _, user := range users {
		select {
		case <-ctx.Done():
			wg.Wait()
			return sent
		case <-limiter.C:
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(telegramID int64) {
			defer wg.Done()
			defer func() { <-sem }()

			var messageID int
			if videoFileID != "" {
				msg, err := b.Instance.SendVideo(ctx, tu.Video(tu.ID(telegramID), tu.FileFromID(videoFileID)))
				if err != nil {
					log.Printf("Failed to broadcast to %d: %v", telegramID, err)
					return
				}
				messageID = msg.MessageID
			} else {
				msg, err := b.Instance.SendMessage(ctx, tu.Message(tu.ID(telegramID), text))
				if err != nil {
					log.Printf("Failed to broadcast to %d: %v", telegramID, err)
					return
				}
				messageID = msg.MessageID
			}

			b.Cleaner.Schedule(ctx, telegramID, messageID, b.Cfg.DeleteDelay)
			mu.Lock()
			sent++
			mu.Unlock()
		}(user.TelegramID)
	}

	wg.Wait()
	return sent
}
