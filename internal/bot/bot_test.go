package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

func TestIsBadReference(t *testing.T) {
	assert.True(t, isBadReference(errors.New("telegram: sendVideo: 400 Bad Request: wrong file identifier/HTTP URL specified")))
	assert.True(t, isBadReference(errors.New("400: FILE_REFERENCE_EXPIRED")))
	assert.False(t, isBadReference(errors.New("403 Forbidden: bot was blocked by the user")))
}

func TestMediaPredicates(t *testing.T) {
	ctx := context.Background()

	assert.False(t, anyMessageWithPhoto(ctx, telego.Update{}))
	assert.False(t, anyMessageWithVideo(ctx, telego.Update{}))

	photoUpdate := telego.Update{Message: &telego.Message{Photo: []telego.PhotoSize{{FileID: "p"}}}}
	assert.True(t, anyMessageWithPhoto(ctx, photoUpdate))
	assert.False(t, anyMessageWithVideo(ctx, photoUpdate))

	videoUpdate := telego.Update{Message: &telego.Message{Video: &telego.Video{FileID: "v"}}}
	assert.True(t, anyMessageWithVideo(ctx, videoUpdate))
	assert.False(t, anyMessageWithPhoto(ctx, videoUpdate))
}
