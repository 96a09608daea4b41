package bot

import (
	"context"
	"sync"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"clipscloud-bot/internal/cleaner"
	"clipscloud-bot/internal/config"
	"clipscloud-bot/internal/membership"
	"clipscloud-bot/internal/payment"
	"clipscloud-bot/internal/quota"
	"clipscloud-bot/internal/store"
	"clipscloud-bot/internal/worker"
)

type Bot struct {
	Instance *telego.Bot
	Cfg      *config.Config
	Store    *store.Store
	Gate     *membership.Gate
	Engine   *quota.Engine
	Workflow *payment.Workflow
	Cleaner  *cleaner.Cleaner
	Exporter *worker.Exporter

	// AdminStates holds transient per-admin input states (e.g. waiting for a
	// QR photo after /setqr).
	AdminStates map[int64]string
	StatesMu    sync.RWMutex
}

const stateAwaitingQR = "AWAITING_QR"

func NewBot(instance *telego.Bot, cfg *config.Config, st *store.Store, gate *membership.Gate,
	engine *quota.Engine, workflow *payment.Workflow, cl *cleaner.Cleaner, exporter *worker.Exporter) *Bot {
	return &Bot{
		Instance:    instance,
		Cfg:         cfg,
		Store:       st,
		Gate:        gate,
		Engine:      engine,
		Workflow:    workflow,
		Cleaner:     cl,
		Exporter:    exporter,
		AdminStates: make(map[int64]string),
	}
}

func (b *Bot) Start() {
	updates, _ := b.Instance.UpdatesViaLongPolling(context.Background(), nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	// Commands
	handler.Handle(b.handleStart, th.CommandEqual("start"))
	handler.Handle(b.handleData, th.CommandEqual("data"))
	handler.Handle(b.handleBroadcast, th.CommandEqual("broadcast"))
	handler.Handle(b.handleBan, th.CommandEqual("ban"))
	handler.Handle(b.handleUnban, th.CommandEqual("unban"))
	handler.Handle(b.handlePremium, th.CommandEqual("premium"))
	handler.Handle(b.handleRevoke, th.CommandEqual("revoke"))
	handler.Handle(b.handleSetQR, th.CommandEqual("setqr"))

	// Callbacks
	handler.Handle(b.handleCheckMembership, th.CallbackDataEqual("check_membership"))
	handler.Handle(b.handleGetVideos, th.CallbackDataEqual("get_videos"))
	handler.Handle(b.handleSubscribe, th.CallbackDataEqual("subscribe"))
	handler.Handle(b.handleVerify, th.CallbackDataPrefix("verify:"))

	// Media messages
	handler.Handle(b.handlePhoto, anyMessageWithPhoto)
	handler.Handle(b.handleVideo, anyMessageWithVideo)

	handler.Start()
}

func anyMessageWithPhoto(_ context.Context, update telego.Update) bool {
	return update.Message != nil && len(update.Message.Photo) > 0
}

func anyMessageWithVideo(_ context.Context, update telego.Update) bool {
	return update.Message != nil && update.Message.Video != nil
}
