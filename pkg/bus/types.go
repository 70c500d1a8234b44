package bus

import "github.com/tinyland-inc/dokbot/pkg/media"

// Peer identifies the routing peer for a message (direct, group, etc.)
type Peer struct {
	Kind string `json:"kind"` // "direct" | "group" | ""
	ID   string `json:"id"`
}

type InboundMessage struct {
	Channel    string            `json:"channel"`
	SenderID   string            `json:"sender_id"`
	ChatID     string            `json:"chat_id"`
	Content    string            `json:"content"`
	Peer       Peer              `json:"peer"`
	MessageID  string            `json:"message_id,omitempty"`  // platform message ID
	MediaScope string            `json:"media_scope,omitempty"` // groups temp files of one event
	Quoted     *media.Message    `json:"quoted,omitempty"`      // media envelope of the replied-to message
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// OutboundDocument is a file to deliver with a caption.
type OutboundDocument struct {
	Path    string `json:"path"`
	Caption string `json:"caption,omitempty"`
}

type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content,omitempty"`
	Document *OutboundDocument `json:"document,omitempty"`
}
