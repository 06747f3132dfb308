package handlers

import (
	"net/http"

	"binarymlm-go/middleware"

	"github.com/gorilla/mux"
)

// Router builds the API routes. A nil limiter disables rate limiting.
func (h *Handlers) Router(limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.CORS)
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	// Public routes
	r.HandleFunc("/api/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/health", h.HealthCheck).Methods(http.MethodGet)

	// Protected routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.JWTAuth)

	protected.HandleFunc("/user/profile", h.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/user/profile", h.UpdateProfile).Methods(http.MethodPut)

	protected.HandleFunc("/member/dashboard", h.Dashboard).Methods(http.MethodGet)
	protected.HandleFunc("/member/genealogy", h.Genealogy).Methods(http.MethodGet)
	protected.HandleFunc("/member/income", h.IncomeHistory).Methods(http.MethodGet)
	protected.HandleFunc("/member/referral-links", h.ReferralLinks).Methods(http.MethodGet)
	protected.HandleFunc("/members/search", h.SearchMembers).Methods(http.MethodGet)

	protected.HandleFunc("/plans", h.ListPlans).Methods(http.MethodGet)
	protected.HandleFunc("/plans/activate", h.ActivatePlan).Methods(http.MethodPost)

	protected.HandleFunc("/recharge", h.Recharge).Methods(http.MethodPost)
	protected.HandleFunc("/recharge/history", h.RechargeHistory).Methods(http.MethodGet)

	// Admin routes
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth)
	admin.HandleFunc("/members", h.ListMembers).Methods(http.MethodGet)
	admin.HandleFunc("/members/{id:[0-9]+}/fund", h.FundMember).Methods(http.MethodPost)
	admin.HandleFunc("/audit-logs", h.GetAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/wallet", h.GetCompanyWallet).Methods(http.MethodGet)
	admin.HandleFunc("/wallet/credit", h.CreditCompanyWallet).Methods(http.MethodPost)

	return r
}
