package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// ReservedCodes are the single segment paths served by fixed routes. They
// match the code format, so the shortener must never assign them.
var ReservedCodes = []string{"recent", "health"}

// RegisterRoutes registers all link routes. The redirect route is a catch-all
// for single path segments, so fixed routes take precedence over it.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Create short link",
		Description:   "Creates a short link, or returns the existing one for the same normalized URL.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/admin/urls",
		Summary:     "List all links",
		Description: "Returns every stored link, newest first.",
		Tags:        []string{"Links"},
	}, h.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "recent-links",
		Method:      http.MethodGet,
		Path:        "/recent",
		Summary:     "List recent links",
		Description: "Returns the 10 most recently created links.",
		Tags:        []string{"Links"},
	}, h.RecentLinks)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{shortCode}",
		Summary:       "Redirect to original URL",
		Description:   "Records a visit and redirects to the original URL of the short code.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusFound,
	}, h.Redirect)
}
