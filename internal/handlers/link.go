package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/events"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler handles link shortening, listing and redirects.
type LinkHandler struct {
	service            *shortener.Service
	publishLinkCreated messaging.Publish[events.LinkCreatedEvent]
	publishLinkVisited messaging.Publish[events.LinkVisitedEvent]
	logger             *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	service *shortener.Service,
	publishLinkCreated messaging.Publish[events.LinkCreatedEvent],
	publishLinkVisited messaging.Publish[events.LinkVisitedEvent],
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:            service,
		publishLinkCreated: publishLinkCreated,
		publishLinkVisited: publishLinkVisited,
		logger:             logger,
	}
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for link events.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	originalURL, ok := req.Body.OriginalURL.(string)
	if !ok || originalURL == "" {
		return nil, huma.Error400BadRequest(shortener.ErrInvalidURL.Error())
	}

	result, err := h.service.Shorten(ctx, shortener.ShortenInput{
		OriginalURL: originalURL,
		Title:       req.Body.Title,
	})
	if err != nil {
		if errors.Is(err, shortener.ErrInvalidURL) {
			return nil, huma.Error400BadRequest(err.Error())
		}

		h.logger.Error("failed to shorten url",
			zap.String("originalUrl", originalURL),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("Server error while shortening URL.")
	}

	link := result.Link
	shortURL := h.service.ShortURL(link.Code)

	if result.Created {
		meta := RequestMetaFromContext(ctx)
		event := &events.LinkCreatedEvent{
			Code:        string(link.Code),
			OriginalURL: link.OriginalURL,
			Title:       link.Title,
			CreatedAt:   link.CreatedAt,
			ClientIP:    meta.ClientIP,
			UserAgent:   meta.UserAgent,
		}

		if err := h.publishLinkCreated(ctx, event); err != nil {
			h.logger.Error("failed to publish link created event",
				zap.String("code", event.Code),
				zap.Error(err),
			)
		}
	}

	resp := &ShortenResponse{Status: statusFor(result.Created)}
	resp.Location = shortURL
	resp.Body = toLinkBody(link, shortURL)

	return resp, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, _ *struct{}) (*ListResponse, error) {
	links, err := h.service.List(ctx)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))

		return nil, huma.Error500InternalServerError("Failed to fetch all links.")
	}

	return h.listResponse(links), nil
}

func (h *LinkHandler) RecentLinks(ctx context.Context, _ *struct{}) (*ListResponse, error) {
	links, err := h.service.Recent(ctx)
	if err != nil {
		h.logger.Error("failed to list recent links", zap.Error(err))

		return nil, huma.Error500InternalServerError("Failed to fetch recent links")
	}

	return h.listResponse(links), nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.service.Resolve(ctx, shortener.Code(req.ShortCode))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("Short URL not found")
		}

		h.logger.Error("failed to resolve short code",
			zap.String("code", req.ShortCode),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("Server error")
	}

	meta := RequestMetaFromContext(ctx)
	event := &events.LinkVisitedEvent{
		Code:        string(link.Code),
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		VisitedAt:   visitedAt(link),
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
		Referrer:    meta.Referrer,
	}

	if err = h.publishLinkVisited(ctx, event); err != nil {
		h.logger.Error("failed to publish link visited event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Location = link.OriginalURL

	return resp, nil
}

func (h *LinkHandler) listResponse(links []*shortener.Link) *ListResponse {
	resp := &ListResponse{Body: make([]LinkBody, 0, len(links))}
	for _, link := range links {
		resp.Body = append(resp.Body, toLinkBody(link, h.service.ShortURL(link.Code)))
	}

	return resp
}

func visitedAt(link *shortener.Link) time.Time {
	if link.LastClicked != nil {
		return *link.LastClicked
	}

	return time.Now()
}
