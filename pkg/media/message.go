package media

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Kind labels the media carried by a quoted message.
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindUnknown  Kind = "unknown"
)

// Payload is a protocol media descriptor in its JSON object form, e.g. the
// imageMessage of a WhatsApp message: URL, mimetype, JPEGThumbnail,
// directPath, mediaKey and so on. Binary values arrive base64 encoded.
type Payload map[string]any

// Lookup finds key exactly, then case-insensitively.
func (p Payload) Lookup(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	if v, ok := p[key]; ok && v != nil {
		return v, true
	}
	for k, v := range p {
		if v != nil && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// String returns the string value for key, or "" when it is missing or not
// a scalar.
func (p Payload) String(key string) string {
	v, ok := p.Lookup(key)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64, int, int64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// Bytes returns the binary value for key. Strings are decoded as standard
// or URL-safe base64.
func (p Payload) Bytes(key string) []byte {
	v, ok := p.Lookup(key)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []byte:
		return t
	case string:
		return decodeBase64(t)
	default:
		return nil
	}
}

func decodeBase64(s string) []byte {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b
		}
	}
	return nil
}

// Message is the media envelope of a quoted message. Transports may populate
// more than one field; Classify decides which one counts.
type Message struct {
	ImageMessage    Payload `json:"imageMessage,omitempty"`
	VideoMessage    Payload `json:"videoMessage,omitempty"`
	AudioMessage    Payload `json:"audioMessage,omitempty"`
	DocumentMessage Payload `json:"documentMessage,omitempty"`
}

// Payload returns the descriptor for kind, or nil.
func (m *Message) Payload(kind Kind) Payload {
	if m == nil {
		return nil
	}
	switch kind {
	case KindImage:
		return m.ImageMessage
	case KindVideo:
		return m.VideoMessage
	case KindAudio:
		return m.AudioMessage
	case KindDocument:
		return m.DocumentMessage
	default:
		return nil
	}
}

// ImageOnly returns a new envelope that carries only the image payload.
func (m *Message) ImageOnly() *Message {
	return &Message{ImageMessage: m.Payload(KindImage)}
}

// QuotedRef is the classified view of a quoted message.
type QuotedRef struct {
	Present bool
	Kind    Kind
	Message *Message
}

// Payload returns the descriptor matching the classified kind.
func (r QuotedRef) Payload() Payload {
	return r.Message.Payload(r.Kind)
}

// classifyOrder is image > video > audio > document; the first populated
// field wins.
var classifyOrder = []Kind{KindImage, KindVideo, KindAudio, KindDocument}

// Classify labels a quoted message. A nil message is reported as absent; a
// message without any media field is present with KindUnknown.
func Classify(msg *Message) QuotedRef {
	if msg == nil {
		return QuotedRef{Present: false, Kind: KindUnknown}
	}
	for _, kind := range classifyOrder {
		if msg.Payload(kind) != nil {
			return QuotedRef{Present: true, Kind: kind, Message: msg}
		}
	}
	return QuotedRef{Present: true, Kind: KindUnknown, Message: msg}
}

var describeKeys = []string{
	"URL", "url", "mimetype", "fileLength", "height", "width",
	"mediaKey", "caption", "JPEGThumbnail", "directPath",
}

// Describe renders the attribute dump shown by the debug command.
func Describe(ref QuotedRef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debug untuk pesan %s:\n", ref.Kind)
	if ref.Kind != KindImage {
		return b.String()
	}
	payload := ref.Payload()
	b.WriteString("== IMAGE MESSAGE INFO ==\n")
	for _, key := range describeKeys {
		v, ok := payload[key]
		if !ok || v == nil {
			fmt.Fprintf(&b, "%s: not present\n", key)
			continue
		}
		switch t := v.(type) {
		case string:
			if isBinaryKey(key) {
				b.WriteString(key + ": (binary present)\n")
			} else {
				fmt.Fprintf(&b, "%s: %s\n", key, t)
			}
		case float64, bool, int, int64:
			fmt.Fprintf(&b, "%s: %v\n", key, t)
		default:
			b.WriteString(key + ": (binary present)\n")
		}
	}
	return b.String()
}

func isBinaryKey(key string) bool {
	return key == "mediaKey" || key == "JPEGThumbnail"
}
