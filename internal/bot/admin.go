package bot

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"clipscloud-bot/internal/payment"
	"clipscloud-bot/internal/store"
)

// handleVideo ingests admin-sent videos into the catalog. A video captioned
// /broadcast is fanned out to all users instead. Videos from non-admins are
// silently ignored.
func (b *Bot) handleVideo(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.Cfg.IsAdmin(message.From.ID) {
		return nil
	}

	fileID := message.Video.FileID

	if strings.HasPrefix(message.Caption, "/broadcast") {
		sent := b.Broadcast(ctx.Context(), "", fileID)
		b.send(ctx, message.Chat.ID, fmt.Sprintf("📢 Broadcast sent to %d users!", sent), nil)
		return nil
	}

	added, err := b.Store.AddVideo(fileID, message.From.ID)
	if err != nil {
		log.Printf("Failed to ingest video %s: %v", fileID, err)
		b.send(ctx, message.Chat.ID, "❌ Failed to add the video, please try again.", nil)
		return nil
	}

	if !added {
		b.send(ctx, message.Chat.ID, "⚠️ This video is already in the database.", nil)
		return nil
	}

	b.send(ctx, message.Chat.ID, "🎉 Video added to the database!", nil)
	if echo, err := ctx.Bot().SendVideo(ctx.Context(),
		tu.Video(tu.ID(b.Cfg.GroupID), tu.FileFromID(fileID))); err != nil {
		log.Printf("Failed to echo ingested video to admin group: %v", err)
	} else {
		b.Cleaner.Schedule(ctx.Context(), b.Cfg.GroupID, echo.MessageID, b.Cfg.DeleteDelay)
	}
	return nil
}

func (b *Bot) handleData(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.Cfg.IsAdmin(message.From.ID) {
		return nil
	}

	if err := b.Exporter.SendSnapshot(ctx.Context(), message.Chat.ID); err != nil {
		log.Printf("Error sending data: %v", err)
		b.send(ctx, message.Chat.ID, "❌ Failed to send data files.", nil)
	}
	return nil
}

func (b *Bot) handleBroadcast(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.Cfg.IsAdmin(message.From.ID) {
		return nil
	}

	text := ""
	if parts := strings.SplitN(message.Text, " ", 2); len(parts) > 1 {
		text = strings.TrimSpace(parts[1])
	}
	if text == "" {
		b.send(ctx, message.Chat.ID, "⚠️ Please provide a message to broadcast, or send a video captioned /broadcast.", nil)
		return nil
	}

	sent := b.Broadcast(ctx.Context(), text, "")
	b.send(ctx, message.Chat.ID, fmt.Sprintf("📢 Broadcast sent to %d users!", sent), nil)
	return nil
}

func (b *Bot) handleBan(ctx *th.Context, update telego.Update) error {
	return b.setUserFlag(ctx, update, "ban", func(banned *bool) { *banned = true })
}

func (b *Bot) handleUnban(ctx *th.Context, update telego.Update) error {
	return b.setUserFlag(ctx, update, "unban", func(banned *bool) { *banned = false })
}

func (b *Bot) handlePremium(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.Cfg.IsAdmin(message.From.ID) {
		return nil
	}

	targetID, ok := b.commandTarget(ctx, message, "premium")
	if !ok {
		return nil
	}

	user, err := b.Workflow.Verify(targetID)
	if errors.Is(err, payment.ErrNotFound) {
		b.send(ctx, message.Chat.ID, "❌ User not found.", nil)
		return nil
	}
	if err != nil {
		log.Printf("Failed to grant premium to %d: %v", targetID, err)
		b.send(ctx, message.Chat.ID, "❌ Failed to update the user.", nil)
		return nil
	}
	b.send(ctx, message.Chat.ID, fmt.Sprintf("✅ Premium granted to %s (ID: %d).", user.Name, targetID), nil)
	return nil
}

func (b *Bot) handleRevoke(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.Cfg.IsAdmin(message.From.ID) {
		return nil
	}

	targetID, ok := b.commandTarget(ctx, message, "revoke")
	if !ok {
		return nil
	}

	user, err := b.Store.UserByTelegramID(targetID)
	if err != nil {
		b.send(ctx, message.Chat.ID, "❌ User not found.", nil)
		return nil
	}
	user.Premium = false
	if err := b.Store.SaveUser(user); err != nil {
		log.Printf("Failed to revoke premium for %d: %v", targetID, err)
		b.send(ctx, message.Chat.ID, "❌ Failed to update the user.", nil)
		return nil
	}
	b.send(ctx, message.Chat.ID, fmt.Sprintf("✅ Premium revoked for %s (ID: %d).", user.Name, targetID), nil)
	return nil
}

func (b *Bot) handleSetQR(ctx *th.Context, update telego.Update) error {
	message := update.Message
	if !b.Cfg.IsAdmin(message.From.ID) {
		return nil
	}

	b.setAdminState(message.From.ID, stateAwaitingQR)
	b.send(ctx, message.Chat.ID, "📷 Send the new payment QR code as a photo.", nil)
	return nil
}

func (b *Bot) setUserFlag(ctx *th.Context, update telego.Update, command string, apply func(banned *bool)) error {
	message := update.Message
	if !b.Cfg.IsAdmin(message.From.ID) {
		return nil
	}

	targetID, ok := b.commandTarget(ctx, message, command)
	if !ok {
		return nil
	}

	user, err := b.Store.UserByTelegramID(targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.send(ctx, message.Chat.ID, "❌ User not found.", nil)
		} else {
			log.Printf("Failed to look up user %d: %v", targetID, err)
			b.send(ctx, message.Chat.ID, "❌ Something went wrong, please try again later.", nil)
		}
		return nil
	}

	apply(&user.Banned)
	if err := b.Store.SaveUser(user); err != nil {
		log.Printf("Failed to %s user %d: %v", command, targetID, err)
		b.send(ctx, message.Chat.ID, "❌ Failed to update the user.", nil)
		return nil
	}
	b.send(ctx, message.Chat.ID, fmt.Sprintf("✅ Done: /%s %d", command, targetID), nil)
	return nil
}

// commandTarget parses "/cmd <telegram id>" and reports the target ID.
func (b *Bot) commandTarget(ctx *th.Context, message *telego.Message, command string) (int64, bool) {
	parts := strings.Fields(message.Text)
	if len(parts) < 2 {
		b.send(ctx, message.Chat.ID, fmt.Sprintf("⚠️ Usage: /%s <telegram id>", command), nil)
		return 0, false
	}
	targetID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.send(ctx, message.Chat.ID, fmt.Sprintf("⚠️ Invalid ID %q", parts[1]), nil)
		return 0, false
	}
	return targetID, true
}
