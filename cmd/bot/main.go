package main

import (
	"context"
	"log"

	"github.com/mymmrac/telego"

	"clipscloud-bot/internal/bot"
	"clipscloud-bot/internal/cleaner"
	"clipscloud-bot/internal/config"
	"clipscloud-bot/internal/database"
	"clipscloud-bot/internal/membership"
	"clipscloud-bot/internal/payment"
	"clipscloud-bot/internal/quota"
	"clipscloud-bot/internal/store"
	"clipscloud-bot/internal/worker"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Connect to Redis
	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	instance, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	st := store.New(db)
	workflow := payment.NewWorkflow(st, cfg.ProofTimeout)
	cl := cleaner.New(rdb, instance)
	gate := membership.NewGate(instance, cfg.ChannelID, rdb)
	sender := &bot.VideoSender{Bot: instance, Cleaner: cl, Delay: cfg.DeleteDelay}
	engine := quota.NewEngine(st, st, sender, cfg.DailyVideoLimit, cfg.BatchSize)
	exporter := worker.NewExporter(instance, st, cl, cfg.GroupID, cfg.ExportInterval, cfg.DeleteDelay)

	tgBot := bot.NewBot(instance, cfg, st, gate, engine, workflow, cl, exporter)

	ctx := context.Background()
	go cl.Run(ctx)
	go exporter.Run(ctx)
	go worker.NewProofSweeper(instance, workflow).Run(ctx)

	log.Println("Service started successfully")
	tgBot.Start()
}
