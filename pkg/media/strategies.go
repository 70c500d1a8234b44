package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// URLFetchTimeout bounds the out-of-band URL download.
const URLFetchTimeout = 30 * time.Second

// maxURLFetchBytes caps the body read by the url strategy.
const maxURLFetchBytes = 64 << 20

// DecodeStrategy asks the transport's media-typing facility for the content.
type DecodeStrategy struct{}

func (DecodeStrategy) Name() string { return "decode" }

func (DecodeStrategy) Attempt(ctx context.Context, caps Capabilities, ref QuotedRef) (*Candidate, error) {
	if caps.Decoder == nil {
		return nil, errors.New("no media decoder available")
	}
	f, err := caps.Decoder.DecodeMedia(ctx, ref.Message)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotMedia
	}
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	ext := f.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	return &Candidate{Data: f.Data, MimeType: mimeType, Prefix: "image_decoded", Extension: ext}, nil
}

// DownloadAnyStrategy hands a wrapper holding only the image payload to the
// transport's generic downloader.
type DownloadAnyStrategy struct{}

func (DownloadAnyStrategy) Name() string { return "download_any" }

func (DownloadAnyStrategy) Attempt(ctx context.Context, caps Capabilities, ref QuotedRef) (*Candidate, error) {
	if caps.Downloader == nil {
		return nil, errors.New("no downloader available")
	}
	payload := ref.Message.Payload(KindImage)
	if payload == nil {
		return nil, errors.New("image message attribute not found")
	}
	data, err := caps.Downloader.DownloadAny(ctx, ref.Message.ImageOnly())
	if err != nil {
		return nil, err
	}
	return &Candidate{Data: data, MimeType: payloadMime(payload), Prefix: "image", Extension: DefaultExtension}, nil
}

// URLStrategy fetches the payload URL directly.
type URLStrategy struct {
	client *http.Client
}

// NewURLStrategy uses client, or a client with URLFetchTimeout when nil.
func NewURLStrategy(client *http.Client) *URLStrategy {
	if client == nil {
		client = &http.Client{Timeout: URLFetchTimeout}
	}
	return &URLStrategy{client: client}
}

func (*URLStrategy) Name() string { return "url" }

func (s *URLStrategy) Attempt(ctx context.Context, _ Capabilities, ref QuotedRef) (*Candidate, error) {
	payload := ref.Message.Payload(KindImage)
	url := payload.String("URL")
	if url == "" {
		return nil, errors.New("payload has no URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxURLFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Candidate{Data: data, MimeType: payloadMime(payload), Prefix: "image_url", Extension: DefaultExtension}, nil
}

// ThumbnailStrategy falls back to the embedded low-resolution preview.
type ThumbnailStrategy struct{}

func (ThumbnailStrategy) Name() string { return "thumbnail" }

func (ThumbnailStrategy) Attempt(_ context.Context, _ Capabilities, ref QuotedRef) (*Candidate, error) {
	thumb := ref.Message.Payload(KindImage).Bytes("JPEGThumbnail")
	if len(thumb) == 0 {
		return nil, errors.New("payload has no JPEG thumbnail")
	}
	return &Candidate{Data: thumb, MimeType: DefaultMimeType, Prefix: "image_thumbnail", Extension: DefaultExtension}, nil
}

func payloadMime(p Payload) string {
	if m := strings.TrimSpace(p.String("mimetype")); m != "" {
		return m
	}
	return DefaultMimeType
}
