package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vinylvault/pos/internal/core/domain"
	"github.com/vinylvault/pos/internal/core/service"
	"github.com/vinylvault/pos/internal/port"
)

type HTTPHandler struct {
	catalog   *service.CatalogService
	inventory *service.InventoryService
	orders    *service.OrderService
	customers port.CustomerDirectory
}

func NewHTTPHandler(
	catalog *service.CatalogService,
	inventory *service.InventoryService,
	orders *service.OrderService,
	customers port.CustomerDirectory,
) *HTTPHandler {
	return &HTTPHandler{
		catalog:   catalog,
		inventory: inventory,
		orders:    orders,
		customers: customers,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/inventory", h.Inventory)
	mux.HandleFunc("/api/catalog", h.Catalog)
	mux.HandleFunc("/api/products", h.AddProduct)
	mux.HandleFunc("/api/orders", h.CreateOrder)
	mux.HandleFunc("/api/customers", h.AddCustomer)
	mux.HandleFunc("/api/customers/", h.GetCustomer)
}

// Inventory serves the raw per-format rows (GET) and the absolute
// restock operation (PUT).
func (h *HTTPHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listInventory(w, r)
	case http.MethodPut:
		h.restock(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	filter := domain.InventoryFilter{
		ProductID:    queryInt64(r, "productId"),
		Format:       domain.Format(queryInt64(r, "formatId")),
		LowStockOnly: r.URL.Query().Get("lowstock") == "true",
	}

	rows, err := h.catalog.ListRows(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []domain.InventoryRow{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

type restockRequest struct {
	ProductID int64 `json:"productId"`
	FormatID  int   `json:"formatId"`
	Quantity  int   `json:"quantity"`
}

func (h *HTTPHandler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	err := h.inventory.Restock(r.Context(), req.ProductID, domain.Format(req.FormatID), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "inventory updated"})
}

// Catalog serves the aggregated per-product summaries the original tool
// assembled client-side.
func (h *HTTPHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := domain.ListFilter{
		ProductID:    queryInt64(r, "productId"),
		Format:       domain.Format(queryInt64(r, "formatId")),
		LowStockOnly: r.URL.Query().Get("lowstock") == "true",
		SearchTerm:   r.URL.Query().Get("search"),
	}

	summaries, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.ProductSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": summaries})
}

type formatQuantity struct {
	FormatID int `json:"formatId"`
	Quantity int `json:"quantity"`
}

type addProductRequest struct {
	Title       string           `json:"title"`
	Artist      string           `json:"artist"`
	ReleaseDate string           `json:"releaseDate"`
	Genre       string           `json:"genre"`
	Label       string           `json:"label"`
	Price       decimal.Decimal  `json:"price"`
	Formats     []formatQuantity `json:"formats"`
}

func (h *HTTPHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	product := domain.Product{
		Title:  req.Title,
		Artist: req.Artist,
		Genre:  req.Genre,
		Label:  req.Label,
		Price:  req.Price,
	}
	if req.ReleaseDate != "" {
		releaseDate, err := time.Parse("2006-01-02", req.ReleaseDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid releaseDate, expected YYYY-MM-DD"})
			return
		}
		product.ReleaseDate = releaseDate
	}

	selections := make([]service.FormatSelection, 0, len(req.Formats))
	for _, f := range req.Formats {
		selections = append(selections, service.FormatSelection{
			Format:   domain.Format(f.FormatID),
			Quantity: f.Quantity,
		})
	}

	productID, err := h.catalog.Register(r.Context(), product, selections)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"productId": productID})
}

type orderItemRequest struct {
	ProductID int64           `json:"productId"`
	FormatID  int             `json:"formatId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type createOrderRequest struct {
	CustomerID int64              `json:"customerId"`
	Items      []orderItemRequest `json:"items"`
}

type createOrderResponse struct {
	OrderID     int64           `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	lines := make([]service.OrderLineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLineRequest{
			ProductID: item.ProductID,
			Format:    domain.Format(item.FormatID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	receipt, err := h.orders.CreateOrder(r.Context(), req.CustomerID, lines)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:     receipt.OrderID,
		TotalAmount: receipt.Total,
	})
}

type addCustomerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (h *HTTPHandler) AddCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" || strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "firstName, lastName and email are required"})
		return
	}

	customer := domain.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	}
	customerID, err := h.customers.CreateCustomer(r.Context(), &customer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"customerId": customerID})
}

type customerResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (h *HTTPHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	customerID, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/customers/"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid customer id"})
		return
	}

	customer, err := h.customers.GetCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "customer not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": customerResponse{
		ID:        customer.ID,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   customer.Address,
	}})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Message string `json:"message"`
}

// stockErrorResponse always carries requested and available, even when
// available is zero.
type stockErrorResponse struct {
	Message   string `json:"message"`
	ProductID int64  `json:"productId"`
	FormatID  int    `json:"formatId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// writeError maps the domain error taxonomy to HTTP statuses. Rejected
// operations carry enough detail to correct the input; only unexpected
// failures collapse to a generic message.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		stockErr      *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: notFoundErr.Error()})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, stockErrorResponse{
			Message:   stockErr.Error(),
			ProductID: stockErr.ProductID,
			FormatID:  int(stockErr.Format),
			Requested: stockErr.Requested,
			Available: stockErr.Available,
		})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func queryInt64(r *http.Request, name string) int64 {
	value, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
