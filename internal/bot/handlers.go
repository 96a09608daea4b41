package bot

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"clipscloud-bot/internal/models"
	"clipscloud-bot/internal/payment"
	"clipscloud-bot/internal/quota"
)

// send delivers an ephemeral text message: it is scheduled for deletion
// right after sending. Failures are logged, never surfaced.
func (b *Bot) send(ctx *th.Context, chatID int64, text string, keyboard *telego.InlineKeyboardMarkup) {
	params := tu.Message(tu.ID(chatID), text)
	if keyboard != nil {
		params = params.WithReplyMarkup(keyboard)
	}
	msg, err := ctx.Bot().SendMessage(ctx.Context(), params)
	if err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
		return
	}
	b.Cleaner.Schedule(ctx.Context(), chatID, msg.MessageID, b.Cfg.DeleteDelay)
}

func (b *Bot) sendJoinPrompt(ctx *th.Context, chatID int64) {
	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔗 Join Channel").WithURL(b.Cfg.ChannelLink),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ I Have Joined").WithCallbackData("check_membership"),
		),
	)
	b.send(ctx, chatID, "🚨 You need to join our Telegram channel to use this bot:", keyboard)
}

func (b *Bot) handleStart(ctx *th.Context, update telego.Update) error {
	message := update.Message
	telegramID := message.From.ID

	if !b.Gate.IsMember(ctx.Context(), telegramID) {
		b.sendJoinPrompt(ctx, message.Chat.ID)
		return nil
	}

	name := message.From.Username
	if name == "" {
		name = message.From.FirstName
	}

	user, created, err := b.Store.FindOrCreateUser(telegramID, name)
	if err != nil {
		log.Printf("Failed to get/create user %d: %v", telegramID, err)
		b.send(ctx, message.Chat.ID, "❌ Something went wrong, please try again later.", nil)
		return nil
	}

	if created {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(b.Cfg.GroupID),
			fmt.Sprintf("New user started the bot: %s (ID: %d)", user.Name, telegramID),
		))
		if err := b.Exporter.SendSnapshot(ctx.Context(), b.Cfg.GroupID); err != nil {
			log.Printf("Failed to push snapshot after signup: %v", err)
		}
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📽 Get Videos").WithCallbackData("get_videos"),
		),
	)
	b.send(ctx, message.Chat.ID, "🎉 Welcome! Click below to get videos:", keyboard)
	return nil
}

func (b *Bot) handleCheckMembership(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID

	if b.Gate.IsMember(ctx.Context(), telegramID) {
		b.send(ctx, telegramID, "✅ Thank you for joining! You can now use the bot by sending /start", nil)
	} else {
		b.send(ctx, telegramID, "❌ It seems you haven't joined yet. Please join the channel and try again.", nil)
	}
	_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	return nil
}

func (b *Bot) handleGetVideos(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID
	defer func() {
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	}()

	if !b.Gate.IsMember(ctx.Context(), telegramID) {
		b.sendJoinPrompt(ctx, telegramID)
		return nil
	}

	name := callback.From.Username
	if name == "" {
		name = callback.From.FirstName
	}
	if _, _, err := b.Store.FindOrCreateUser(telegramID, name); err != nil {
		log.Printf("Failed to get/create user %d: %v", telegramID, err)
		b.send(ctx, telegramID, "❌ Something went wrong, please try again later.", nil)
		return nil
	}

	result, err := b.Engine.RequestBatch(ctx.Context(), telegramID)
	switch {
	case errors.Is(err, quota.ErrBanned):
		b.send(ctx, telegramID, "🚫 You are banned from using this bot.", nil)
		return nil
	case errors.Is(err, quota.ErrLimitReached):
		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("💳 Subscribe for More").WithCallbackData("subscribe"),
			),
		)
		b.send(ctx, telegramID,
			fmt.Sprintf("❌ You've reached your daily limit of %d videos. Need more? Subscribe below:", b.Cfg.DailyVideoLimit),
			keyboard)
		return nil
	case err != nil:
		log.Printf("Failed to serve batch to %d: %v", telegramID, err)
		b.send(ctx, telegramID, "❌ Something went wrong, please try again later.", nil)
		return nil
	}

	if result.Sent == 0 && result.Exhausted {
		b.send(ctx, telegramID, "No new videos available.", nil)
		return nil
	}

	if result.Exhausted {
		b.send(ctx, telegramID, "These videos will be deleted in 5 minutes, please save or forward them. That's all for now!", nil)
		return nil
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔄 Get More").WithCallbackData("get_videos"),
		),
	)
	b.send(ctx, telegramID, "These videos will be deleted in 5 minutes, please save or forward them.", keyboard)
	return nil
}

func (b *Bot) handleSubscribe(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	telegramID := callback.From.ID
	defer func() {
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	}()

	if err := b.Workflow.BeginSubscription(telegramID); err != nil {
		log.Printf("Failed to begin subscription for %d: %v", telegramID, err)
		b.send(ctx, telegramID, "❌ Something went wrong, please try again later.", nil)
		return nil
	}

	caption := "💳 Scan this QR code to make a payment of 50rs. After payment, send your proof of payment here within 5 minutes."
	msg, err := b.sendQR(ctx, telegramID, caption)
	if err != nil {
		log.Printf("Failed to send QR to %d: %v", telegramID, err)
		b.send(ctx, telegramID, "❌ Payment is temporarily unavailable, please try again later.", nil)
		return nil
	}
	b.Cleaner.Schedule(ctx.Context(), telegramID, msg.MessageID, b.Cfg.DeleteDelay)
	return nil
}

// sendQR prefers the admin-uploaded QR file ID and falls back to the image
// bundled on disk.
func (b *Bot) sendQR(ctx *th.Context, chatID int64, caption string) (*telego.Message, error) {
	if fileID, err := b.Store.GetSetting(models.SettingQRFileID); err == nil && fileID != "" {
		return ctx.Bot().SendPhoto(ctx.Context(),
			tu.Photo(tu.ID(chatID), tu.FileFromID(fileID)).WithCaption(caption))
	}

	file, err := os.Open(b.Cfg.QRImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open QR image: %w", err)
	}
	defer file.Close()

	return ctx.Bot().SendPhoto(ctx.Context(),
		tu.Photo(tu.ID(chatID), tu.File(file)).WithCaption(caption))
}

func (b *Bot) handlePhoto(ctx *th.Context, update telego.Update) error {
	message := update.Message
	telegramID := message.From.ID
	photo := message.Photo[0].FileID

	// An admin who ran /setqr uploads the new payment QR with the next photo.
	if b.Cfg.IsAdmin(telegramID) && b.takeAdminState(telegramID) == stateAwaitingQR {
		if err := b.Store.PutSetting(models.SettingQRFileID, photo); err != nil {
			log.Printf("Failed to store QR file ID: %v", err)
			b.send(ctx, message.Chat.ID, "❌ Failed to save the QR code.", nil)
			return nil
		}
		b.send(ctx, message.Chat.ID, "✅ Payment QR code updated.", nil)
		return nil
	}

	name := message.From.Username
	if name == "" {
		name = message.From.FirstName
	}

	req, err := b.Workflow.SubmitProof(telegramID, photo)
	if errors.Is(err, payment.ErrNotAwaiting) {
		// Unsolicited photo, not part of any proof flow.
		return nil
	}
	if err != nil {
		log.Printf("Failed to submit proof for %d: %v", telegramID, err)
		b.send(ctx, message.Chat.ID, "❌ Something went wrong, please try again later.", nil)
		return nil
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Verify Payment").WithCallbackData(fmt.Sprintf("verify:%d", telegramID)),
		),
	)
	adminMsg, err := ctx.Bot().SendPhoto(ctx.Context(),
		tu.Photo(tu.ID(b.Cfg.GroupID), tu.FileFromID(req.ProofFileID)).
			WithCaption(fmt.Sprintf("Payment proof from user: %s (ID: %d)\nRequest: %s", name, telegramID, req.Reference)).
			WithReplyMarkup(keyboard))
	if err != nil {
		log.Printf("Failed to forward proof %s to admin group: %v", req.Reference, err)
	} else {
		b.Cleaner.Schedule(ctx.Context(), b.Cfg.GroupID, adminMsg.MessageID, b.Cfg.DeleteDelay)
	}

	b.send(ctx, message.Chat.ID, "✅ Your payment proof has been sent for verification. Please wait for confirmation.", nil)
	return nil
}

func (b *Bot) handleVerify(ctx *th.Context, update telego.Update) error {
	callback := update.CallbackQuery
	adminID := callback.From.ID
	defer func() {
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
	}()

	if !b.Cfg.IsAdmin(adminID) {
		return nil
	}

	targetID, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, "verify:"), 10, 64)
	if err != nil {
		log.Printf("Malformed verify callback %q: %v", callback.Data, err)
		return nil
	}

	user, err := b.Workflow.Verify(targetID)
	if errors.Is(err, payment.ErrNotFound) {
		b.send(ctx, b.Cfg.GroupID, "❌ User not found.", nil)
		return nil
	}
	if err != nil {
		log.Printf("Failed to verify payment for %d: %v", targetID, err)
		b.send(ctx, b.Cfg.GroupID, "❌ Verification failed, please try again.", nil)
		return nil
	}

	b.send(ctx, b.Cfg.GroupID,
		fmt.Sprintf("✅ Payment verified for user: %s (ID: %d). Daily limit removed.", user.Name, targetID), nil)
	b.send(ctx, targetID, "🎉 Your payment has been verified! You now have unlimited access to videos.", nil)
	return nil
}

// takeAdminState reads and clears the transient state for an admin.
func (b *Bot) takeAdminState(telegramID int64) string {
	b.StatesMu.Lock()
	defer b.StatesMu.Unlock()
	state := b.AdminStates[telegramID]
	delete(b.AdminStates, telegramID)
	return state
}

func (b *Bot) setAdminState(telegramID int64, state string) {
	b.StatesMu.Lock()
	defer b.StatesMu.Unlock()
	b.AdminStates[telegramID] = state
}
