package worker

import (
	"context"
	"log"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"clipscloud-bot/internal/payment"
)

// ProofSweeper expires stale awaiting-proof states and tells each affected
// user their payment window closed.
type ProofSweeper struct {
	Bot      *telego.Bot
	Workflow *payment.Workflow
	Interval time.Duration
}

func NewProofSweeper(bot *telego.Bot, workflow *payment.Workflow) *ProofSweeper {
	return &ProofSweeper{
		Bot:      bot,
		Workflow: workflow,
		Interval: 30 * time.Second,
	}
}

func (s *ProofSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Println("Payment proof sweeper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := s.Workflow.ExpireStale()
			if err != nil {
				log.Printf("Error expiring proof states: %v", err)
			}
			for _, user := range expired {
				_, err := s.Bot.SendMessage(ctx, tu.Message(
					tu.ID(user.TelegramID),
					"⏰ Your payment window has expired. Tap Subscribe again if you still want to upgrade.",
				))
				if err != nil {
					log.Printf("Failed to notify %d about expired payment window: %v", user.TelegramID, err)
				}
			}
		}
	}
}
