package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"clipscloud-bot/internal/cleaner"
	"clipscloud-bot/internal/store"
)

// Exporter periodically pushes a summary plus raw users.json / videos.json
// snapshots to the admin group.
type Exporter struct {
	Bot      *telego.Bot
	Store    *store.Store
	Cleaner  *cleaner.Cleaner
	GroupID  int64
	Interval time.Duration
	Delay    time.Duration
}

func NewExporter(bot *telego.Bot, st *store.Store, cl *cleaner.Cleaner, groupID int64, interval, delay time.Duration) *Exporter {
	return &Exporter{
		Bot:      bot,
		Store:    st,
		Cleaner:  cl,
		GroupID:  groupID,
		Interval: interval,
		Delay:    delay,
	}
}

func (e *Exporter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()
	log.Println("Background export worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.export(ctx)
		}
	}
}

func (e *Exporter) export(ctx context.Context) {
	log.Println("Running export cycle...")

	users, err := e.Store.ListUsers()
	if err != nil {
		log.Printf("Error listing users for export: %v", err)
		return
	}
	videoCount, err := e.Store.CountVideos()
	if err != nil {
		log.Printf("Error counting videos for export: %v", err)
		return
	}

	premium, banned := 0, 0
	for _, u := range users {
		if u.Premium {
			premium++
		}
		if u.Banned {
			banned++
		}
	}

	summary := fmt.Sprintf("📊 Export summary:\nUsers: %d\nPremium: %d\nBanned: %d\nVideos: %d",
		len(users), premium, banned, videoCount)
	if _, err := e.Bot.SendMessage(ctx, tu.Message(tu.ID(e.GroupID), summary)); err != nil {
		log.Printf("Failed to send export summary: %v", err)
	}

	if err := e.SendSnapshot(ctx, e.GroupID); err != nil {
		log.Printf("Failed to send export snapshot: %v", err)
	}
}

// SendSnapshot sends users.json and videos.json as documents to the chat.
// Also used by /data and the new-user notification.
func (e *Exporter) SendSnapshot(ctx context.Context, chatID int64) error {
	users, err := e.Store.ListUsers()
	if err != nil {
		return err
	}
	videos, err := e.Store.ListVideos()
	if err != nil {
		return err
	}

	usersJSON, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}
	videosJSON, err := json.MarshalIndent(videos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal videos: %w", err)
	}

	usersMsg, err := e.Bot.SendDocument(ctx, tu.Document(tu.ID(chatID),
		tu.File(tu.NameReader(bytes.NewReader(usersJSON), "users.json"))))
	if err != nil {
		return fmt.Errorf("failed to send users.json: %w", err)
	}
	e.Cleaner.Schedule(ctx, chatID, usersMsg.MessageID, e.Delay)

	videosMsg, err := e.Bot.SendDocument(ctx, tu.Document(tu.ID(chatID),
		tu.File(tu.NameReader(bytes.NewReader(videosJSON), "videos.json"))))
	if err != nil {
		return fmt.Errorf("failed to send videos.json: %w", err)
	}
	e.Cleaner.Schedule(ctx, chatID, videosMsg.MessageID, e.Delay)
	return nil
}
