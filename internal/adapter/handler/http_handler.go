package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rl1809/bookstore/internal/adapter/gateway"
	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
	"github.com/rl1809/bookstore/internal/port"
)

type HTTPHandler struct {
	catalog      *service.CatalogService
	reservations *service.ReservationService
	checkout     *service.CheckoutService
}

func NewHTTPHandler(catalog *service.CatalogService, reservations *service.ReservationService, checkout *service.CheckoutService) *HTTPHandler {
	return &HTTPHandler{
		catalog:      catalog,
		reservations: reservations,
		checkout:     checkout,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/books", h.CreateBook)
	mux.HandleFunc("GET /api/books", h.ListBooks)
	mux.HandleFunc("GET /api/books/popular", h.PopularBooks)
	mux.HandleFunc("GET /api/books/{id}", h.GetBook)
	mux.HandleFunc("PATCH /api/books/{id}", h.UpdateBook)
	mux.HandleFunc("DELETE /api/books/{id}", h.DeleteBook)
	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("POST /api/seed", h.SeedBooks)

	mux.HandleFunc("POST /api/checkout/validate", h.ValidateCheckout)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
}

type bookRequest struct {
	Title       *string  `json:"title"`
	Authors     []string `json:"author"`
	Categories  []string `json:"category"`
	Rating      *float64 `json:"rating"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

type bookResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     []string `json:"author"`
	Categories  []string `json:"category"`
	Rating      float64  `json:"rating"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	ExternalID  string   `json:"external_id,omitempty"`
}

func toBookResponse(b domain.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Authors:     b.Authors,
		Categories:  b.Categories,
		Rating:      b.Rating,
		Price:       b.Price,
		Stock:       b.Stock,
		Description: b.Description,
		Image:       b.Image,
		ExternalID:  b.ExternalID,
	}
}

func toBookResponses(books []domain.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	in := service.NewBookInput{
		Authors:    req.Authors,
		Categories: req.Categories,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Rating != nil {
		in.Rating = *req.Rating
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if req.Stock != nil {
		in.Stock = *req.Stock
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Image != nil {
		in.Image = *req.Image
	}

	book, err := h.catalog.CreateBook(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookResponse(*book))
}

func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.GetBook(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(*book))
}

func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	filter := port.BookFilter{
		Title:  r.URL.Query().Get("title"),
		Author: r.URL.Query().Get("author"),
	}
	books, err := h.catalog.Search(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *HTTPHandler) PopularBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.TopRated(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *HTTPHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	patch := domain.BookPatch{
		Title:       req.Title,
		Authors:     req.Authors,
		Categories:  req.Categories,
		Rating:      req.Rating,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
	}

	book, err := h.catalog.UpdateBook(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(*book))
}

func (h *HTTPHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteBook(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type seedRequest struct {
	Author string `json:"author"`
}

type seedResponse struct {
	Created int    `json:"created"`
	Message string `json:"message"`
}

func (h *HTTPHandler) SeedBooks(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	created, err := h.catalog.SeedByAuthor(r.Context(), req.Author)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seedResponse{Created: created, Message: "seeding complete"})
}

type checkoutRequest struct {
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
}

type reservationResponse struct {
	Approved      bool                     `json:"approved"`
	Message       string                   `json:"message,omitempty"`
	Satisfiable   []domain.ReservationLine `json:"satisfiable"`
	Unsatisfiable []domain.ReservationLine `json:"unsatisfiable"`
}

func toReservationResponse(o domain.ReservationOutcome, message string) reservationResponse {
	return reservationResponse{
		Approved:      o.Approved,
		Message:       message,
		Satisfiable:   o.Satisfiable,
		Unsatisfiable: o.Unsatisfiable,
	}
}

func (h *HTTPHandler) ValidateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	outcome, err := h.reservations.Validate(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	if !outcome.Approved {
		writeJSON(w, http.StatusBadRequest, toReservationResponse(*outcome, "out of stock, please remove or adjust some items"))
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(*outcome, ""))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	outcome, err := h.checkout.Commit(r.Context(), req.UserID, req.RequestID)
	if err != nil {
		if errors.Is(err, service.ErrStockRejected) && outcome != nil {
			writeJSON(w, http.StatusGone, toReservationResponse(*outcome, "out of stock, please remove or adjust some items"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(*outcome, "checkout committed"))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrBookNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, errorResponse{Message: "duplicate request"})
	case errors.Is(err, service.ErrStockRejected):
		writeJSON(w, http.StatusGone, errorResponse{Message: "insufficient stock"})
	case errors.Is(err, service.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "cart is empty"})
	case errors.Is(err, gateway.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
