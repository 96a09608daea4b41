package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

type fakeChatMemberAPI struct {
	member telego.ChatMember
	err    error
	calls  int
}

func (f *fakeChatMemberAPI) GetChatMember(_ context.Context, _ *telego.GetChatMemberParams) (telego.ChatMember, error) {
	f.calls++
	return f.member, f.err
}

func TestIsMemberStatuses(t *testing.T) {
	tests := []struct {
		name   string
		member telego.ChatMember
		want   bool
	}{
		{"member", &telego.ChatMemberMember{Status: telego.MemberStatusMember}, true},
		{"administrator", &telego.ChatMemberAdministrator{Status: telego.MemberStatusAdministrator}, true},
		{"left", &telego.ChatMemberLeft{Status: telego.MemberStatusLeft}, false},
		{"banned", &telego.ChatMemberBanned{Status: telego.MemberStatusBanned}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(&fakeChatMemberAPI{member: tt.member}, "@ClipsCloud", nil)
			assert.Equal(t, tt.want, gate.IsMember(context.Background(), 42))
		})
	}
}

func TestIsMemberFailsClosed(t *testing.T) {
	api := &fakeChatMemberAPI{err: errors.New("network down")}
	gate := NewGate(api, "@ClipsCloud", nil)

	assert.False(t, gate.IsMember(context.Background(), 42))
	assert.Equal(t, 1, api.calls)
}
