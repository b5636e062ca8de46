package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"mashrabu/core/auth"
	"mashrabu/logger"
)

// LoginRequest is the admin login body.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginHandler checks the shared admin password and, on success, sets the
// signed admin cookie.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !auth.VerifyAdminSecret(req.Password, h.cfg.AdminPassword, h.cfg.AdminPasswordHash) {
		logger.Warn("[Login] admin password rejected")
		respondError(w, http.StatusUnauthorized, "Mot de passe incorrect")
		return
	}

	token, err := auth.IssueAdminToken([]byte(h.cfg.JWTSecret), auth.TokenTTL)
	if err != nil {
		logger.Error("[Login] failed to issue token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setAdminCookie(w, token)
	logger.Info("[Login] admin authenticated")
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// LogoutHandler clears the admin cookie.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies(),
	})
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *APIHandler) setAdminCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies(),
	})
}

func (h *APIHandler) secureCookies() bool {
	return h.cfg.Env == "production"
}

// AdminMiddleware rejects the request before any data access unless it
// carries a valid admin token, either in the admin cookie or as a bearer
// token.
func (h *APIHandler) AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(auth.CookieName); err == nil {
			token = c.Value
		}
		if token == "" {
			if header := r.Header.Get("Authorization"); header != "" {
				parts := strings.Split(header, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				}
			}
		}

		if token == "" {
			respondError(w, http.StatusUnauthorized, "Non autorisé")
			return
		}

		if _, err := auth.ParseAdminToken([]byte(h.cfg.JWTSecret), token); err != nil {
			logger.Warn("[Auth] admin token rejected", logger.ErrorField(err))
			respondError(w, http.StatusUnauthorized, "Non autorisé")
			return
		}

		next.ServeHTTP(w, r)
	}
}
