// Authentication endpoints.
//
//   - POST /api/auth/login
//   - POST /api/auth/forgot-password
//
// Login is the only place a password is handled: the lookup procedure
// returns the stored bcrypt hash, the comparison happens here, and the hash
// is stripped before the user object is echoed back with the minted token.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/aml-logistics/aml-api/internal/auth"
	"github.com/aml-logistics/aml-api/internal/http/middleware"
	"github.com/aml-logistics/aml-api/internal/sp"
)

// LoginRequest is the JSON payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=4"`
}

// ForgotPasswordRequest is the JSON payload for POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Login authenticates a user against sp_user_login_json and mints a bearer
// token. Wrong username and wrong password are indistinguishable to the
// client.
func (h *Handlers) Login(c *gin.Context) {
	const mod = ModuleAuth

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusUnprocessableEntity, mod, SpecificInvalid)
		return
	}

	res, ok := h.call(c, mod, "sp_user_login_json", req.Username)
	if !ok {
		return
	}
	if res.Kind != sp.KindOK {
		Unauthorized(c, "Username atau password salah", mod)
		return
	}

	// Decode with json.Number so the numeric user id survives round-tripping
	// into the token subject, and keep unknown fields (avatar, ...) intact.
	var payload struct {
		User map[string]any `json:"user"`
	}
	dec := json.NewDecoder(bytes.NewReader(res.Raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		ServerError(c, err, "Internal server error during login", mod)
		return
	}
	user := payload.User
	if user == nil {
		Unauthorized(c, "Username atau password salah", mod)
		return
	}

	hash, _ := user["password_hash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		middleware.LoggerFrom(c).Warn().Str("username", req.Username).Msg("login rejected")
		Unauthorized(c, "Username atau password salah", mod)
		return
	}
	delete(user, "password_hash")

	token, err := h.Tokens.Mint(auth.Principal{
		Subject:  fmt.Sprint(user["id"]),
		Username: stringField(user, "username"),
		Email:    stringField(user, "email"),
		Name:     stringField(user, "name"),
		Role:     stringField(user, "role"),
	})
	if err != nil {
		ServerError(c, err, "Internal server error during login", mod)
		return
	}

	OK(c, gin.H{"token": token, "user": user}, "Login berhasil", mod)
}

// ForgotPassword generates a reset token for a known email address.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	const mod = ModuleAuth

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusUnprocessableEntity, mod, SpecificInvalid)
		return
	}

	res, ok := h.call(c, mod, "sp_password_reset_request_json", req.Email)
	if !ok {
		return
	}
	if res.Kind != sp.KindOK {
		NotFound(c, "Email tidak ditemukan", mod)
		return
	}

	// TODO: send the reset-token link by email once an SMTP relay exists.
	OK(c, gin.H{"message": "Reset token generated", "reset": res.Raw}, "Reset password berhasil dikirim", mod)
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
