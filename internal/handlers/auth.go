package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/utils"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Branch     string  `json:"branch"`
	DriverCode *string `json:"driverCode"`
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var user models.UserAuth
	if err := r.db.Where("email = ?", loginReq.Email).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.CheckPasswordHash(loginReq.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := time.Now()
	user.LastLogin = &now
	r.db.Save(&user)

	accessToken, refreshToken, err := utils.GenerateTokens(&user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user,
	})
}

// register handles user registration
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var regReq RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&regReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if regReq.Email == "" || regReq.Password == "" || regReq.Username == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if regReq.Role == "driver" && (regReq.DriverCode == nil || *regReq.DriverCode == "") {
		respondError(w, http.StatusBadRequest, "driver accounts need a driverCode")
		return
	}

	hash, err := utils.HashPassword(regReq.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.UserAuth{
		Username:   regReq.Username,
		Password:   hash,
		Email:      regReq.Email,
		Name:       regReq.Name,
		Role:       regReq.Role,
		Branch:     regReq.Branch,
		DriverCode: regReq.DriverCode,
		IsActive:   true,
	}
	if user.Role == "" {
		user.Role = "ops"
	}

	if err := r.db.Create(&user).Error; err != nil {
		respondError(w, http.StatusConflict, "User already exists")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}
