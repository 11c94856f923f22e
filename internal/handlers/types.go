package handlers

import (
	"net/http"
	"time"

	"github.com/serroba/shortlinks/internal/shortener"
)

// LinkBody is the JSON representation of a stored link.
type LinkBody struct {
	ID          string     `doc:"Store-assigned identifier"          json:"_id"`
	Title       string     `doc:"Display title"                      example:"example.com"              json:"title"`
	OriginalURL string     `doc:"The normalized target URL"          example:"https://example.com/path" json:"originalUrl"`
	ShortCode   string     `doc:"The short code"                     example:"aZ31rb"                   json:"shortCode"`
	Clicks      int64      `doc:"Number of redirects"                json:"clicks"`
	CreatedAt   time.Time  `doc:"Creation time"                      json:"createdAt"`
	UpdatedAt   time.Time  `doc:"Last modification time"             json:"updatedAt"`
	LastClicked *time.Time `doc:"Time of the most recent redirect"   json:"lastClicked,omitempty"`
	ShortURL    string     `doc:"The full short URL"                 example:"http://localhost:5000/aZ31rb" json:"shortUrl"`
}

// ShortenRequest is the request for creating a short link.
type ShortenRequest struct {
	Body struct {
		// OriginalURL is untyped so a non-string value reaches the handler
		// and is rejected with 400 rather than a schema error.
		OriginalURL any    `doc:"The URL to shorten; the scheme defaults to https" example:"\"example.com/very/long/path\"" json:"originalUrl,omitempty"`
		Title       string `doc:"Optional display title"                           example:"My Site"                   json:"title,omitempty"`
	}
}

// ShortenResponse is returned for both new and reused links. Status is 201
// when a link was created and 200 when an existing one was reused.
type ShortenResponse struct {
	Status   int
	Location string `doc:"The short URL" header:"Location"`
	Body     LinkBody
}

// ListResponse is the response for link listings.
type ListResponse struct {
	Body []LinkBody
}

// RedirectRequest is the request for resolving a short code.
type RedirectRequest struct {
	ShortCode string `doc:"The short code" example:"aZ31rb" path:"shortCode"`
}

// RedirectResponse instructs the client to follow Location.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The original URL" header:"Location"`
}

func toLinkBody(link *shortener.Link, shortURL string) LinkBody {
	return LinkBody{
		ID:          link.ID,
		Title:       link.Title,
		OriginalURL: link.OriginalURL,
		ShortCode:   string(link.Code),
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
		LastClicked: link.LastClicked,
		ShortURL:    shortURL,
	}
}

func statusFor(created bool) int {
	if created {
		return http.StatusCreated
	}

	return http.StatusOK
}
