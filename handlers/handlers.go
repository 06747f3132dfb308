package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"binarymlm-go/apperrors"
	"binarymlm-go/config"
	"binarymlm-go/members"
	"binarymlm-go/middleware"
	"binarymlm-go/models"
	"binarymlm-go/plans"
	"binarymlm-go/recharge"
	"binarymlm-go/settlement"
	"binarymlm-go/tree"
	"binarymlm-go/utils"

	"gorm.io/gorm"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status    int         `json:"status"`
	Error     string      `json:"error"`
	Code      string      `json:"code,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func sendError(w http.ResponseWriter, status int, err string, details interface{}) {
	writeJSON(w, status, ErrorResponse{
		Status:    status,
		Error:     err,
		Details:   details,
		Timestamp: time.Now(),
	})
}

// sendAppError maps domain errors to their HTTP status; anything else is a 500.
func sendAppError(w http.ResponseWriter, err error, fallback string) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status := appErr.Code.HTTPStatus()
		writeJSON(w, status, ErrorResponse{
			Status:    status,
			Error:     appErr.Message,
			Code:      string(appErr.Code),
			Details:   appErr.Metadata,
			Timestamp: time.Now(),
		})
		return
	}
	log.Printf("%s: %v", fallback, err)
	sendError(w, http.StatusInternalServerError, fallback, nil)
}

func sendValidationError(w http.ResponseWriter, err error) {
	sendError(w, http.StatusBadRequest, "Validation failed", utils.FormatValidationError(err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Services are the domain components the handlers call into.
type Services struct {
	Directory *members.Directory
	Registrar *members.Registrar
	Census    *tree.Census
	Catalog   *plans.Catalog
	Activator *plans.Activator
	Recharge  *recharge.Service
}

// NewServices wires the domain components over db.
func NewServices(db *gorm.DB, cfg *config.Config, provider recharge.Provider, notifier members.Notifier) *Services {
	dir := members.NewDirectory(db, cfg.RootUsername)
	engine := settlement.NewEngine(db, cfg.RootUsername)
	return &Services{
		Directory: dir,
		Registrar: members.NewRegistrar(db, dir, notifier),
		Census:    tree.NewCensus(db),
		Catalog:   plans.NewCatalog(db),
		Activator: plans.NewActivator(db, engine, cfg.RootUsername),
		Recharge:  recharge.NewService(db, provider, cfg.RechargeSharePercent, cfg.RechargeResalePercent),
	}
}

type Handlers struct {
	db       *gorm.DB
	config   *config.Config
	services *Services
}

func NewHandlers(db *gorm.DB, cfg *config.Config, services *Services) *Handlers {
	return &Handlers{
		db:       db,
		config:   cfg,
		services: services,
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"service":   "BinaryMLMGo",
		"version":   "1.0.0",
	})
}

// currentMember resolves the member behind the request's token.
func (h *Handlers) currentMember(w http.ResponseWriter, r *http.Request) (*utils.Claims, *models.Member, bool) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "Invalid or missing token", nil)
		return nil, nil, false
	}
	m, err := h.services.Directory.Get(r.Context(), claims.MemberID)
	if err != nil {
		sendAppError(w, err, "Failed to load member")
		return nil, nil, false
	}
	return claims, m, true
}

func (h *Handlers) logAudit(userID *uint, action, resource, details string, r *http.Request) {
	audit := models.AuditLog{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if err := h.db.WithContext(r.Context()).Create(&audit).Error; err != nil {
		log.Printf("Failed to write audit log %s %s: %v", action, resource, err)
	}
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	return limit, (page - 1) * limit
}
