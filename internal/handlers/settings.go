package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/middleware"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// canManageSettings reports whether the caller's role may touch org settings
func canManageSettings(req *http.Request) bool {
	claims, ok := req.Context().Value(middleware.UserContextKey).(jwt.MapClaims)
	if !ok {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin" || role == "manager"
}

// getOrgProfile returns the organization requisites if they were ever saved
func (r *Router) getOrgProfile(w http.ResponseWriter, req *http.Request) {
	if !canManageSettings(req) {
		respondError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var profile models.OrgProfile
	err := r.db.First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		respondError(w, http.StatusNotFound, "Profile not configured")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

// saveOrgProfile creates or replaces the single organization profile
func (r *Router) saveOrgProfile(w http.ResponseWriter, req *http.Request) {
	if !canManageSettings(req) {
		respondError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var incoming models.OrgProfile
	if err := json.NewDecoder(req.Body).Decode(&incoming); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if msg := incoming.Validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	var profile models.OrgProfile
	err := r.db.First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		if err := r.db.Create(&incoming).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to save profile")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"profile": incoming})
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	incoming.ID = profile.ID
	if err := r.db.Save(&incoming).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"profile": incoming})
}
