package cleaner

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"
)

const queueKey = "ephemeral:deletions"

// Deleter is the slice of the Bot API the cleaner needs.
type Deleter interface {
	DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error
}

// Cleaner schedules best-effort deletion of bot-sent messages. Entries live
// in a Redis sorted set scored by fire time, so pending deletions survive a
// restart. A failed deletion (message already gone, missing rights) is logged
// and dropped, never retried.
type Cleaner struct {
	rdb     *redis.Client
	deleter Deleter
	poll    time.Duration
}

func New(rdb *redis.Client, deleter Deleter) *Cleaner {
	return &Cleaner{
		rdb:     rdb,
		deleter: deleter,
		poll:    5 * time.Second,
	}
}

// Schedule queues a message for deletion after delay. Fire-and-forget: a
// queueing failure is only logged.
func (c *Cleaner) Schedule(ctx context.Context, chatID int64, messageID int, delay time.Duration) {
	member := fmt.Sprintf("%d:%d", chatID, messageID)
	fireAt := float64(time.Now().Add(delay).Unix())
	if err := c.rdb.ZAdd(ctx, queueKey, redis.Z{Score: fireAt, Member: member}).Err(); err != nil {
		log.Printf("Failed to schedule deletion of message %s: %v", member, err)
	}
}

// Run polls for due deletions until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	log.Println("Message cleaner started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep deletes every message whose fire time has passed.
func (c *Cleaner) Sweep(ctx context.Context) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := c.rdb.ZRangeByScore(ctx, queueKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		log.Printf("Failed to read deletion queue: %v", err)
		return
	}

	for _, member := range due {
		chatID, messageID, err := parseMember(member)
		if err != nil {
			log.Printf("Dropping malformed deletion entry %q: %v", member, err)
		} else if err := c.deleter.DeleteMessage(ctx, &telego.DeleteMessageParams{
			ChatID:    tu.ID(chatID),
			MessageID: messageID,
		}); err != nil {
			log.Printf("Failed to delete message %s: %v", member, err)
		}
		c.rdb.ZRem(ctx, queueKey, member)
	}
}

func parseMember(member string) (int64, int, error) {
	parts := strings.SplitN(member, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected chat:message, got %q", member)
	}
	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	messageID, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return chatID, messageID, nil
}
