package channels

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/dokbot/pkg/media"
)

func TestQuotedMedia(t *testing.T) {
	assert.Nil(t, quotedMedia(nil))

	photo := quotedMedia(&telego.Message{Photo: []telego.PhotoSize{
		{FileID: "small", Width: 90},
		{FileID: "large", Width: 1280},
	}})
	ref := media.Classify(photo)
	assert.Equal(t, media.KindImage, ref.Kind)
	assert.Equal(t, "large", ref.Payload().String("fileId"))
	assert.Equal(t, media.DefaultMimeType, ref.Payload().String("mimetype"))

	scan := quotedMedia(&telego.Message{Document: &telego.Document{FileID: "doc", MimeType: "image/png"}})
	assert.Equal(t, media.KindImage, media.Classify(scan).Kind)

	pdf := quotedMedia(&telego.Message{Document: &telego.Document{FileID: "doc", MimeType: "application/pdf"}})
	assert.Equal(t, media.KindDocument, media.Classify(pdf).Kind)

	voice := quotedMedia(&telego.Message{Voice: &telego.Voice{FileID: "v"}})
	assert.Equal(t, media.KindAudio, media.Classify(voice).Kind)

	text := quotedMedia(&telego.Message{Text: "hello"})
	require.NotNil(t, text)
	assert.Equal(t, media.KindUnknown, media.Classify(text).Kind)
}
