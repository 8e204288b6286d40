package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tradepost/listing-service/internal/adapter/httpapi/middleware"
	"github.com/tradepost/listing-service/internal/listing/domain"
	"github.com/tradepost/listing-service/internal/listing/usecase"
	"github.com/tradepost/listing-service/internal/platform/logger"
)

type Handler struct {
	service  *usecase.Service
	validate *validator.Validate
	log      logger.Logger
}

func NewHandler(service *usecase.Service, log logger.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

type createListingRequest struct {
	Type        string `json:"type" validate:"required,oneof=buy sell"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type editListingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Status      *string `json:"status" validate:"omitempty,oneof=open pending closed"`
	Hidden      *bool   `json:"hidden"`
}

type hideListingRequest struct {
	Hidden bool `json:"hidden"`
}

type imageResponse struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type listingResponse struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Price       string                `json:"price"`
	Type        string                `json:"type"`
	Status      string                `json:"status"`
	OwnerID     string                `json:"owner_id"`
	Images      []imageResponse       `json:"images"`
	Issues      []domain.IssueDetails `json:"issues"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	images := make([]imageResponse, 0, len(l.Images))
	for _, img := range l.VisibleImages() {
		images = append(images, imageResponse{ID: img.ID, Width: img.Width, Height: img.Height})
	}
	return listingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Type:        string(l.Type),
		Status:      string(l.Status),
		OwnerID:     l.OwnerID,
		Images:      images,
		Issues:      l.Issues(),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warnf("write response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrImageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrListingClosed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrEmptyTitle), errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrNotAnImage):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Errorf("internal error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	l, err := h.service.CreateListing(r.Context(), domain.ListingType(req.Type), req.Title, req.Description, req.Price, middleware.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toListingResponse(l))
}

func (h *Handler) EditListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}
	var req editListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	edit := domain.EditRequest{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Hidden:      req.Hidden,
	}
	if req.Status != nil {
		status, err := domain.ParseStatus(*req.Status)
		if err != nil {
			h.writeError(w, err)
			return
		}
		edit.Status = &status
	}

	l, err := h.service.EditListing(r.Context(), id, middleware.UserID(r.Context()), middleware.IsAdmin(r.Context()), edit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}
	l, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if l.IsHidden && !middleware.IsAdmin(r.Context()) {
		http.Error(w, domain.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	f := domain.Filter{}
	for _, s := range splitParam(r.URL.Query().Get("status")) {
		status, err := domain.ParseStatus(s)
		if err != nil {
			h.writeError(w, err)
			return
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, t := range splitParam(r.URL.Query().Get("type")) {
		typ, err := domain.ParseType(t)
		if err != nil {
			h.writeError(w, err)
			return
		}
		f.Types = append(f.Types, typ)
	}
	f.Owners = splitParam(r.URL.Query().Get("owner"))
	f.HasIssues = r.URL.Query().Get("has_issues") == "true"

	listings, err := h.service.SearchListings(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingResponse(l))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListingIssues(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}
	l, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	issues := h.service.ListingIssues(l)
	if issues == nil {
		issues = []domain.IssueDetails{}
	}
	h.writeJSON(w, http.StatusOK, issues)
}

func (h *Handler) HideListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}
	var req hideListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := h.service.HideListing(r.Context(), id, middleware.IsAdmin(r.Context()), req.Hidden); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HideImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid listing id", http.StatusBadRequest)
		return
	}
	var req hideListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := h.service.HideImage(r.Context(), id, chi.URLParam(r, "imageID"), middleware.IsAdmin(r.Context()), req.Hidden); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.service.GetImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		h.log.Warnf("write image response: %v", err)
	}
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
