package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"binarymlm-go/models"
	"binarymlm-go/utils"
)

func (h *Handlers) Recharge(w http.ResponseWriter, r *http.Request) {
	claims, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	var req models.RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		sendValidationError(w, err)
		return
	}

	res, err := h.services.Recharge.Recharge(r.Context(), member.ID, req)
	if err != nil {
		sendAppError(w, err, "Failed to process recharge")
		return
	}

	h.logAudit(&claims.UserID, "RECHARGE", "WALLET",
		fmt.Sprintf("Recharge %s of %s for %s: %s", res.Transaction.OrderID, req.Amount.StringFixed(2), req.MobileNo, res.Transaction.Status), r)

	status := http.StatusCreated
	if res.Transaction.Status != models.RechargeSuccess {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func (h *Handlers) RechargeHistory(w http.ResponseWriter, r *http.Request) {
	_, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	limit, _ := pagination(r, 20)
	list, err := h.services.Recharge.History(r.Context(), member.ID, limit)
	if err != nil {
		sendAppError(w, err, "Failed to fetch recharge history")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
