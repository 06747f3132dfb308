package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"binarymlm-go/members"
	"binarymlm-go/models"
	"binarymlm-go/utils"

	"gorm.io/gorm"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		sendValidationError(w, err)
		return
	}

	isAdmin := false
	if req.AdminCode != "" {
		if req.AdminCode != h.config.AdminCode {
			log.Printf("Invalid admin code provided for %s", req.Email)
			sendError(w, http.StatusBadRequest, "Invalid admin code", nil)
			return
		}
		isAdmin = true
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "Failed to hash password", nil)
		return
	}

	reg, err := h.services.Registrar.Register(r.Context(), members.NewMember{
		Email:           strings.ToLower(utils.SanitizeString(req.Email)),
		PasswordHash:    hashedPassword,
		FirstName:       utils.SanitizeString(req.FirstName),
		LastName:        utils.SanitizeString(req.LastName),
		MobileNo:        req.MobileNo,
		Username:        req.Username,
		SponsorUsername: req.SponsorUsername,
		Position:        req.Position,
		IsAdmin:         isAdmin,
	})
	if err != nil {
		sendAppError(w, err, "Failed to register member")
		return
	}

	details := "Member " + reg.Member.Username + " registered"
	if isAdmin {
		details = "Admin member " + reg.Member.Username + " registered with admin code"
	}
	h.logAudit(&reg.User.ID, "CREATE", "MEMBER", details, r)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Member registered successfully",
		"user":      reg.User,
		"member":    reg.Member,
		"placement": reg.Placement,
	})
}

// Login accepts either a member username or the account email.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		sendValidationError(w, err)
		return
	}

	var user models.User
	var member *models.Member
	ident := utils.SanitizeString(req.Username)
	dir := h.services.Directory
	if strings.Contains(ident, "@") {
		err := h.db.Where("email = ?", strings.ToLower(ident)).First(&user).Error
		if err == nil {
			member, err = dir.GetByUserID(r.Context(), user.ID)
		}
		if err != nil {
			h.loginLookupFailed(w, ident, err)
			return
		}
	} else {
		m, err := dir.GetByUsername(r.Context(), ident)
		if err == nil && m.UserID == nil {
			err = gorm.ErrRecordNotFound
		}
		if err == nil {
			member = m
			err = h.db.First(&user, *m.UserID).Error
		}
		if err != nil {
			h.loginLookupFailed(w, ident, err)
			return
		}
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		log.Printf("Invalid password for %s", ident)
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	if !user.IsActive || member.Blocked {
		log.Printf("Login attempt for deactivated account: %s", ident)
		sendError(w, http.StatusForbidden, "Account is deactivated", nil)
		return
	}

	token, err := utils.GenerateToken(user.ID, member.ID, member.Username, user.IsAdmin)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", ident, err)
		sendError(w, http.StatusInternalServerError, "Failed to generate token", nil)
		return
	}

	loginDetails := "Member logged in"
	if user.IsAdmin {
		loginDetails = "Admin member logged in"
	}
	h.logAudit(&user.ID, "LOGIN", "AUTH", loginDetails, r)

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:  token,
		User:   user,
		Member: *member,
	})
}

func (h *Handlers) loginLookupFailed(w http.ResponseWriter, ident string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Login attempt with unknown account: %s", ident)
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	log.Printf("Database error during login for %s: %v", ident, err)
	sendError(w, http.StatusInternalServerError, "Database error", nil)
}
