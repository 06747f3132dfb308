package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"binarymlm-go/apperrors"
	"binarymlm-go/ledger"
	"binarymlm-go/middleware"
	"binarymlm-go/models"
	"binarymlm-go/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func (h *Handlers) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50)

	var auditLogs []models.AuditLog
	if err := h.db.WithContext(r.Context()).Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&auditLogs).Error; err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to fetch audit logs", nil)
		return
	}
	writeJSON(w, http.StatusOK, auditLogs)
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)

	list, err := h.services.Directory.List(r.Context(), limit, offset)
	if err != nil {
		sendAppError(w, err, "Failed to fetch members")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) GetCompanyWallet(w http.ResponseWriter, r *http.Request) {
	var wallet models.CompanyWallet
	if err := h.db.WithContext(r.Context()).First(&wallet, models.CompanyWalletID).Error; err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to fetch company wallet", nil)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func positive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.New(apperrors.CodeInvalidAmount, "amount must be greater than zero")
	}
	return nil
}

func (h *Handlers) CreditCompanyWallet(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)

	var req models.WalletCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		sendValidationError(w, err)
		return
	}
	if err := positive(req.Amount); err != nil {
		sendAppError(w, err, "Invalid amount")
		return
	}

	pool := ledger.CompanyWallet(h.db)
	if req.Pool == models.PoolCharges {
		pool = ledger.CompanyCharges(h.db)
	} else {
		req.Pool = models.PoolBalance
	}

	balance, err := pool.Credit(r.Context(), req.Amount)
	if err != nil {
		sendAppError(w, err, "Failed to credit company wallet")
		return
	}

	h.logAudit(&claims.UserID, "CREDIT", "COMPANY_WALLET",
		fmt.Sprintf("Company wallet %s credited %s: %s", req.Pool, req.Amount.StringFixed(2), req.Description), r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Company wallet credited",
		"pool":    req.Pool,
		"balance": balance,
	})
}

type fundRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Wallet      string          `json:"wallet" validate:"omitempty,oneof=account wallet"`
	Description string          `json:"description"`
}

// FundMember tops up a member's account balance (default) or wallet balance.
func (h *Handlers) FundMember(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid member id", nil)
		return
	}

	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		sendValidationError(w, err)
		return
	}
	if err := positive(req.Amount); err != nil {
		sendAppError(w, err, "Invalid amount")
		return
	}

	member, err := h.services.Directory.Get(r.Context(), uint(id))
	if err != nil {
		sendAppError(w, err, "Failed to load member")
		return
	}

	target := ledger.MemberAccount(h.db, member.ID)
	if req.Wallet == "wallet" {
		target = ledger.MemberWallet(h.db, member.ID)
	}
	balance, err := target.Credit(r.Context(), req.Amount)
	if err != nil {
		sendAppError(w, err, "Failed to fund member")
		return
	}

	h.logAudit(&claims.UserID, "FUND", "MEMBER",
		fmt.Sprintf("Member %s funded %s (%s): %s", member.Username, req.Amount.StringFixed(2), target, req.Description), r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Member funded",
		"member":  member.Username,
		"balance": balance,
		"ledger":  target.String(),
	})
}
