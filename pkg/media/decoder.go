package media

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
)

// InlineDecoder recognizes media whose bytes travel inside the image
// payload itself ("data" or "fileData", base64). Bridges that forward
// small images inline use it as their Decoder.
type InlineDecoder struct{}

func (InlineDecoder) DecodeMedia(_ context.Context, msg *Message) (*DecodedFile, error) {
	payload := msg.Payload(KindImage)
	var data []byte
	for _, key := range []string{"data", "fileData"} {
		if data = payload.Bytes(key); len(data) > 0 {
			break
		}
	}
	if len(data) == 0 {
		return nil, ErrNotMedia
	}
	return Sniff(data), nil
}

// Sniff detects the content type of data. MimeType and Extension stay empty
// when the bytes are not recognized.
func Sniff(data []byte) *DecodedFile {
	f := &DecodedFile{Data: data}
	mt := mimetype.Detect(data)
	if mt.Is("application/octet-stream") {
		return f
	}
	f.MimeType = mt.String()
	f.Extension = mt.Extension()
	return f
}
