// Package web serves the single-page listing tracker.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fbmp/internal/errors"
	"fbmp/internal/handlers/listings"
	"fbmp/internal/store"
	"fbmp/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

//go:embed templates/*.html
var templateFS embed.FS

const fallbackTitle = "Facebook Marketplace Listing"

// Flash codes carried on the redirect after a form post.
const (
	FlashAdded     = "added"
	FlashDuplicate = "duplicate"
	FlashInvalid   = "invalid"
	FlashRequired  = "required"
	FlashError     = "error"
)

type flash struct {
	Title   string
	Message string
	Failed  bool
}

var flashes = map[string]flash{
	FlashAdded:     {Title: "Success!", Message: "Facebook Marketplace listing added successfully"},
	FlashDuplicate: {Title: "Duplicate Listing", Message: "This Facebook Marketplace URL has already been added", Failed: true},
	FlashInvalid:   {Title: "Invalid URL", Message: "Please provide a valid Facebook Marketplace URL", Failed: true},
	FlashRequired:  {Title: "URL Required", Message: "Please paste a Facebook Marketplace URL", Failed: true},
	FlashError:     {Title: "Error", Message: "Failed to add listing. Please try again.", Failed: true},
}

type listingView struct {
	Title       string
	Link        string
	Created     string
	StatusLabel string
	StatusClass string
}

type pageData struct {
	Flash      *flash
	Today      string
	TodayCount int64
	StatsError string
	Listings   []listingView
	ListError  string
}

type addForm struct {
	Link    string `form:"link"`
	Product string `form:"product"`
}

type Handler struct {
	service listings.ListingsService
	logger  *slog.Logger
	page    *template.Template
	now     func() time.Time
}

func NewHandler(svc listings.ListingsService, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
		page:    template.Must(template.ParseFS(templateFS, "templates/index.html")),
		now:     time.Now,
	}
}

func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/listings", h.AddListing)
}

// Index renders the form, today's counter and the listing feed. A failing
// fetch is shown on the page instead of failing the whole response.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := pageData{Today: h.now().UTC().Format("Monday, January 2")}
	if f, ok := flashes[r.URL.Query().Get("flash")]; ok {
		data.Flash = &f
	}

	stats, err := h.service.GetTodayStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load daily stats", "error", err)
		data.StatsError = "Could not load today's progress."
	} else {
		data.TodayCount = stats.Count
	}

	rows, err := h.service.ListListings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load listings", "error", err)
		data.ListError = "Could not load your listings. Please refresh the page."
	} else {
		data.Listings = make([]listingView, len(rows))
		for i, l := range rows {
			data.Listings[i] = newListingView(l)
		}
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		errors.RespondError(w, r, errors.New(errors.ErrInternal, "Internal server error", err))
		return
	}

	render.HTML(w, r, buf.String())
}

// AddListing handles the form post and redirects back to the page with a
// flash code.
func (h *Handler) AddListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var form addForm
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := render.DecodeForm(r.Body, &form); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode form", "error", err)
		redirect(w, r, FlashError)
		return
	}

	link := strings.TrimSpace(form.Link)
	if link == "" {
		redirect(w, r, FlashRequired)
		return
	}
	if !validation.IsFacebookURL(link) {
		redirect(w, r, FlashInvalid)
		return
	}

	req := &listings.CreateListingRequest{Link: link}
	if product := strings.TrimSpace(form.Product); product != "" {
		req.Product = &product
	}

	if _, err := h.service.CreateListing(ctx, req); err != nil {
		var appErr *errors.AppError
		switch {
		case errors.As(err, &appErr) && appErr.Code == errors.ErrDuplicate:
			redirect(w, r, FlashDuplicate)
		case errors.As(err, &appErr) && appErr.Code == errors.ErrInvalidInput:
			redirect(w, r, FlashInvalid)
		default:
			redirect(w, r, FlashError)
		}
		return
	}

	redirect(w, r, FlashAdded)
}

func redirect(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?flash="+code, http.StatusSeeOther)
}

func newListingView(l store.Listing) listingView {
	return listingView{
		Title:       listingTitle(l.Link),
		Link:        l.Link,
		Created:     l.CreatedAt.UTC().Format("Jan 2, 2006, 03:04 PM"),
		StatusLabel: l.Status.String(),
		StatusClass: strings.ToLower(l.Status.String()),
	}
}

// listingTitle uses the last path segment with dashes read as spaces.
func listingTitle(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return fallbackTitle
	}
	parts := strings.Split(u.Path, "/")
	title := strings.ReplaceAll(parts[len(parts)-1], "-", " ")
	if title == "" {
		return fallbackTitle
	}
	return title
}
