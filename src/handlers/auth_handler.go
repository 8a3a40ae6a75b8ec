package handlers

import (
	"net/http"
	"strings"
	"time"

	"folio-server/src/config"
	"folio-server/src/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 168 * time.Hour

func Login(cfg config.Config) http.HandlerFunc {
	hash := []byte(cfg.DashboardPasswordHash)
	secret := []byte(cfg.JWTSecret)

	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		if !cfg.AuthEnabled() {
			writeDetail(w, http.StatusNotFound, "authentication is disabled")
			return
		}

		var credentials struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeBody(w, r, &credentials); err != nil {
			writeError(w, r, err)
			return
		}

		username := strings.TrimSpace(credentials.Username)
		if !util.ValidateUsername(username) || !strings.EqualFold(username, cfg.DashboardUser) {
			l.Warn().Str("username", username).Str("remote_addr", r.RemoteAddr).Msg("login with unknown user")
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword(hash, []byte(credentials.Password)); err != nil {
			l.Warn().Str("username", username).Str("remote_addr", r.RemoteAddr).Msg("invalid password attempt")
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"username": cfg.DashboardUser,
			"iat":      now.Unix(),
			"exp":      now.Add(tokenTTL).Unix(),
		})

		tokenString, err := token.SignedString(secret)
		if err != nil {
			l.Error().Err(err).Msg("failed to sign token")
			writeDetail(w, http.StatusInternalServerError, "Error generating token")
			return
		}

		l.Info().Str("username", cfg.DashboardUser).Msg("successful login")
		writeJSON(w, http.StatusOK, map[string]string{
			"token": tokenString,
		})
	}
}
