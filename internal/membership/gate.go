package membership

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"
)

// ChatMemberAPI is the slice of the Bot API the gate needs.
type ChatMemberAPI interface {
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
}

// Gate answers whether a user is a member of the gated channel. Lookup errors
// fail closed: an unreachable API means "not a member". Positive answers are
// cached in Redis for a short TTL so repeated taps don't hammer the API.
type Gate struct {
	api      ChatMemberAPI
	channel  string
	rdb      *redis.Client
	cacheTTL time.Duration
}

func NewGate(api ChatMemberAPI, channel string, rdb *redis.Client) *Gate {
	return &Gate{
		api:      api,
		channel:  channel,
		rdb:      rdb,
		cacheTTL: 5 * time.Minute,
	}
}

func (g *Gate) IsMember(ctx context.Context, userID int64) bool {
	key := fmt.Sprintf("member:%d", userID)
	if g.rdb != nil {
		if exists, err := g.rdb.Exists(ctx, key).Result(); err == nil && exists > 0 {
			return true
		}
	}

	member, err := g.api.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: telego.ChatID{Username: g.channel},
		UserID: userID,
	})
	if err != nil {
		log.Printf("Error checking membership for %d: %v", userID, err)
		return false
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator, telego.MemberStatusMember:
		if g.rdb != nil {
			g.rdb.Set(ctx, key, "1", g.cacheTTL)
		}
		return true
	default:
		return false
	}
}
