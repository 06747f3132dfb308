package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"binarymlm-go/models"
	"binarymlm-go/utils"

	"gorm.io/gorm"
)

type profileResponse struct {
	User   models.User   `json:"user"`
	Member models.Member `json:"member"`
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		sendError(w, http.StatusInternalServerError, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{User: user, Member: *member})
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	var req struct {
		FirstName string `json:"first_name" validate:"required,min=2"`
		LastName  string `json:"last_name" validate:"required,min=2"`
		MobileNo  string `json:"mobile_no" validate:"omitempty,mobile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		sendValidationError(w, err)
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, claims.UserID).Error; err != nil {
			return err
		}
		user.FirstName = utils.SanitizeString(req.FirstName)
		user.LastName = utils.SanitizeString(req.LastName)
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		var mobile *string
		if req.MobileNo != "" {
			mobile = &req.MobileNo
		}
		if err := tx.Model(&models.Member{}).Where("id = ?", member.ID).Update("mobile_no", mobile).Error; err != nil {
			return err
		}
		member.MobileNo = mobile
		return nil
	})
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to update profile", nil)
		return
	}

	h.logAudit(&user.ID, "UPDATE", "USER", "Profile updated", r)
	writeJSON(w, http.StatusOK, profileResponse{User: user, Member: *member})
}
