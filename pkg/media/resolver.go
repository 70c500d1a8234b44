// Package media classifies quoted chat media and resolves quoted images to
// raw bytes through an ordered cascade of download strategies.
package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

const (
	DefaultMimeType  = "image/jpeg"
	DefaultExtension = ".jpg"
)

// Downloader is the transport capability that downloads whatever media a
// message carries.
type Downloader interface {
	DownloadAny(ctx context.Context, msg *Message) ([]byte, error)
}

// Decoder is an auxiliary media-typing facility. It returns ErrNotMedia
// when it cannot recognize the message as media.
type Decoder interface {
	DecodeMedia(ctx context.Context, msg *Message) (*DecodedFile, error)
}

// DecodedFile is what a Decoder extracts. MimeType and Extension may be
// empty when the facility cannot tell.
type DecodedFile struct {
	Data      []byte
	MimeType  string
	Extension string
}

// Capabilities are the transport facilities available for one event.
// Either field may be nil.
type Capabilities struct {
	Downloader Downloader
	Decoder    Decoder
}

var ErrNotMedia = errors.New("not a media message")

// Reason explains why resolution failed.
type Reason string

const (
	ReasonUnsupportedType     Reason = "unsupported_type"
	ReasonAllStrategiesFailed Reason = "all_strategies_failed"
)

type ResolutionError struct {
	Reason Reason
	Kind   Kind
}

func (e *ResolutionError) Error() string {
	switch e.Reason {
	case ReasonUnsupportedType:
		return fmt.Sprintf("media type %s not supported, only images can be extracted", e.Kind)
	default:
		return fmt.Sprintf("resolve %s: all download strategies failed", e.Kind)
	}
}

// Resolved is a successfully downloaded image.
type Resolved struct {
	Data     []byte
	MimeType string
	Path     string
	Strategy string
}

// Candidate is what a strategy produces before it is written to disk.
type Candidate struct {
	Data     []byte
	MimeType string
	// Prefix and Extension name the file: <Prefix>_<hex><Extension>.
	Prefix    string
	Extension string
}

// Strategy is one way of obtaining the image bytes.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, caps Capabilities, ref QuotedRef) (*Candidate, error)
}

type Resolver struct {
	dir        *workdir.Dir
	strategies []Strategy
}

// NewResolver builds a resolver with the default cascade: decode,
// download_any, url, thumbnail.
func NewResolver(dir *workdir.Dir, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		dir: dir,
		strategies: []Strategy{
			DecodeStrategy{},
			DownloadAnyStrategy{},
			NewURLStrategy(nil),
			ThumbnailStrategy{},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type ResolverOption func(*Resolver)

// WithStrategies replaces the cascade.
func WithStrategies(strategies ...Strategy) ResolverOption {
	return func(r *Resolver) { r.strategies = strategies }
}

// Strategies returns the cascade in order.
func (r *Resolver) Strategies() []Strategy {
	return r.strategies
}

// Resolve walks the cascade and returns the first strategy result with
// non-empty bytes that could be written to the working directory.
func (r *Resolver) Resolve(ctx context.Context, caps Capabilities, ref QuotedRef) (*Resolved, error) {
	if ref.Kind != KindImage {
		logger.InfoCF("media", "Media type not supported for extraction", map[string]any{"kind": string(ref.Kind)})
		return nil, &ResolutionError{Reason: ReasonUnsupportedType, Kind: ref.Kind}
	}

	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			logger.WarnCF("media", "Resolution cancelled", map[string]any{"strategy": s.Name(), "error": err.Error()})
			break
		}
		res, err := r.attempt(ctx, caps, ref, s)
		if err != nil {
			logger.WarnCF("media", "Download strategy failed", map[string]any{
				"strategy": s.Name(),
				"error":    err.Error(),
			})
			continue
		}
		logger.InfoCF("media", "Image downloaded", map[string]any{
			"strategy":  s.Name(),
			"bytes":     len(res.Data),
			"mime_type": res.MimeType,
			"path":      res.Path,
		})
		return res, nil
	}

	logger.ErrorCF("media", "All download methods failed for image", nil)
	return nil, &ResolutionError{Reason: ReasonAllStrategiesFailed, Kind: ref.Kind}
}

func (r *Resolver) attempt(ctx context.Context, caps Capabilities, ref QuotedRef, s Strategy) (_ *Resolved, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("strategy panicked: %v", p)
		}
	}()

	c, err := s.Attempt(ctx, caps, ref)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Data) == 0 {
		return nil, errors.New("empty payload")
	}
	path, err := r.dir.SaveTemp(c.Prefix, c.Extension, c.Data)
	if err != nil {
		return nil, err
	}
	return &Resolved{
		Data:     c.Data,
		MimeType: c.MimeType,
		Path:     path,
		Strategy: s.Name(),
	}, nil
}
