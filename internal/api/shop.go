package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/shopbot/internal/shop"
)

// Shop is the back-office surface of the store: product lookup, the order
// fulfilment workflow and shopper registration. *shop.Catalog, *shop.Orders
// and *shop.Accounts together implement it through ShopServices.
type Shop interface {
	Product(ctx context.Context, id int64) (shop.Product, error)
	Order(ctx context.Context, id int64) (shop.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, next shop.OrderStatus) (shop.Order, error)
	RegisterUser(ctx context.Context, name, email, password string) (shop.User, error)
}

// ShopServices adapts the shop collaborators to Shop.
type ShopServices struct {
	Catalog  *shop.Catalog
	Orders   *shop.Orders
	Accounts *shop.Accounts
}

func (s ShopServices) Product(ctx context.Context, id int64) (shop.Product, error) {
	return s.Catalog.Get(ctx, id)
}

func (s ShopServices) Order(ctx context.Context, id int64) (shop.Order, error) {
	return s.Orders.OrderStatus(ctx, id)
}

func (s ShopServices) UpdateOrderStatus(ctx context.Context, id int64, next shop.OrderStatus) (shop.Order, error) {
	return s.Orders.UpdateStatus(ctx, id, next)
}

func (s ShopServices) RegisterUser(ctx context.Context, name, email, password string) (shop.User, error) {
	return s.Accounts.CreateUser(ctx, name, email, password)
}

type statusRequest struct {
	Status string `json:"status"`
}

type userRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func mountShop(r chi.Router, s Shop) {
	r.Get("/products/{id}", handleGetProduct(s))
	r.Get("/orders/{id}", handleGetOrder(s))
	r.Post("/orders/{id}/status", handleUpdateOrderStatus(s))
	r.Post("/users", handleRegisterUser(s))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid id %q", chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}

func handleGetProduct(s Shop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		p, err := s.Product(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleGetOrder(s Shop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		o, err := s.Order(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func handleUpdateOrderStatus(s Shop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req statusRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Status == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "status is required")
			return
		}
		o, err := s.UpdateOrderStatus(r.Context(), id, shop.OrderStatus(req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func handleRegisterUser(s Shop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		u, err := s.RegisterUser(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}
