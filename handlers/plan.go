package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"binarymlm-go/models"
	"binarymlm-go/utils"
)

func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Catalog.List(r.Context())
	if err != nil {
		sendAppError(w, err, "Failed to fetch plans")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	claims, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	var req models.ActivatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		sendValidationError(w, err)
		return
	}

	act, err := h.services.Activator.Activate(r.Context(), member.ID, req.PlanID)
	if err != nil {
		sendAppError(w, err, "Failed to activate plan")
		return
	}

	h.logAudit(&claims.UserID, "ACTIVATE", "PLAN",
		fmt.Sprintf("Plan %s activated by %s for %s", act.MemberPlan.Plan.Name, member.Username, act.MemberPlan.Plan.Price.StringFixed(2)), r)

	writeJSON(w, http.StatusCreated, act)
}
