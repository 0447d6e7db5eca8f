package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"acadgateway/internal/database"
	gwerrors "acadgateway/internal/errors"
	"acadgateway/internal/logging"
	"acadgateway/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        *models.User `json:"user"`
}

// userClaims is the JWT payload issued at login.
type userClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (s *Server) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, gwerrors.Wrap(err, gwerrors.ErrCodeInvalidInput, http.StatusBadRequest, "invalid request body"))
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidInput, http.StatusBadRequest, "a valid email is required"))
			return
		}
		if len(req.Password) < 8 {
			s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidInput, http.StatusBadRequest, "password must be at least 8 characters"))
			return
		}

		settings, err := s.db.GetSystemSettings(r.Context())
		if err != nil {
			s.writeError(w, r, gwerrors.Wrap(err, gwerrors.ErrCodeDatabase, http.StatusInternalServerError, "failed to load system settings"))
			return
		}
		if !settings.SignupEnabled {
			s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidInput, http.StatusForbidden, "signup is currently disabled"))
			return
		}

		hashed, err := models.HashPassword(req.Password)
		if err != nil {
			s.writeError(w, r, gwerrors.Wrap(err, gwerrors.ErrCodeInternalError, http.StatusInternalServerError, "failed to hash password"))
			return
		}

		user := &models.User{
			Email:          req.Email,
			HashedPassword: hashed,
			FullName:       req.FullName,
			PhoneNumber:    req.PhoneNumber,
			IsActive:       true,
			IsVerified:     !settings.RequireEmailVerification,
		}
		if settings.SignupRequiresApproval {
			user.IsActive = false
		}

		if err := s.db.CreateUser(r.Context(), user); err != nil {
			if err == database.ErrEmailTaken {
				s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidInput, http.StatusConflict, "email already registered"))
				return
			}
			s.writeError(w, r, gwerrors.Wrap(err, gwerrors.ErrCodeDatabase, http.StatusInternalServerError, "failed to create user"))
			return
		}

		s.logger.WithFields(map[string]interface{}{
			logging.FieldUserID: user.ID,
			logging.FieldEmail:  user.Email,
		}).Info("User registered")

		s.writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, gwerrors.Wrap(err, gwerrors.ErrCodeInvalidInput, http.StatusBadRequest, "invalid request body"))
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		user, err := s.db.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			if err == database.ErrUserNotFound {
				s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidLogin, http.StatusUnauthorized, "invalid email or password"))
				return
			}
			s.writeError(w, r, gwerrors.Wrap(err, gwerrors.ErrCodeDatabase, http.StatusInternalServerError, "failed to load user"))
			return
		}

		if !user.CheckPassword(req.Password) {
			s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidLogin, http.StatusUnauthorized, "invalid email or password"))
			return
		}
		if !user.IsActive {
			s.writeError(w, r, gwerrors.New(gwerrors.ErrCodeInvalidLogin, http.StatusForbidden, "account is not active"))
			return
		}

		token, expiresIn, err := s.issueToken(user)
		if err != nil {
			s.writeError(w, r, gwerrors.Wrap(err, gwerrors.ErrCodeInternalError, http.StatusInternalServerError, "failed to issue token"))
			return
		}

		if err := s.db.UpdateLastLogin(r.Context(), user.ID); err != nil {
			// Login still succeeds; the timestamp is advisory.
			s.logger.WithError(err).Warn("Failed to update last login")
		}

		s.logger.WithFields(map[string]interface{}{
			logging.FieldUserID: user.ID,
			logging.FieldEmail:  user.Email,
		}).Info("User logged in")

		s.writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   expiresIn,
			User:        user,
		})
	}
}

// issueToken signs an HS256 JWT for the user with the configured
// expiry. The gateway never validates forwarded tokens; issuance exists
// so the frontend has a bearer credential to forward.
func (s *Server) issueToken(user *models.User) (string, int, error) {
	if s.cfg.Auth.JWTSecret == "" {
		return "", 0, fmt.Errorf("JWT secret is not configured")
	}

	expiry := time.Duration(s.cfg.Auth.JWTExpirationHours) * time.Hour
	claims := userClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "acadgateway",
			Subject:   strconv.Itoa(user.ID),
		},
		UserID: strconv.Itoa(user.ID),
		Email:  user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, int(expiry.Seconds()), nil
}
