package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"clipscloud-bot/internal/cleaner"
	"clipscloud-bot/internal/quota"
)

// VideoSender delivers catalog items over the Bot API and schedules each
// delivered message for deletion. It maps "dead file handle" API errors to
// quota.ErrBadReference so the engine can prune the catalog.
type VideoSender struct {
	Bot     *telego.Bot
	Cleaner *cleaner.Cleaner
	Delay   time.Duration
}

func (s *VideoSender) SendVideo(ctx context.Context, telegramID int64, fileID string) error {
	msg, err := s.Bot.SendVideo(ctx, tu.Video(tu.ID(telegramID), tu.FileFromID(fileID)))
	if err != nil {
		if isBadReference(err) {
			return fmt.Errorf("%w: %v", quota.ErrBadReference, err)
		}
		return err
	}
	s.Cleaner.Schedule(ctx, telegramID, msg.MessageID, s.Delay)
	return nil
}

func isBadReference(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "wrong file identifier") ||
		strings.Contains(msg, "wrong remote file identifier") ||
		strings.Contains(msg, "FILE_REFERENCE")
}
