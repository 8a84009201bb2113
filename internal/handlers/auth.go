package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stride-dev/stride/internal/auth"
	"github.com/stride-dev/stride/internal/store"
	"github.com/stride-dev/stride/internal/types"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	Users  *store.UserStore
	Domain string
}

type RegisterRequest struct {
	Username        string `form:"username" json:"username" binding:"required,min=4,max=20"`
	Password        string `form:"password" json:"password" binding:"required,min=4,max=20"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// RegisterForm describes the registration form for clients that render it
// themselves.
func (h *AuthHandler) RegisterForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"fields": []string{"username", "password", "confirm_password"},
	})
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrors(err)})
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	if req.Password != req.ConfirmPassword {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": gin.H{"confirm_password": "Passwords must be the same."},
		})
		return
	}

	// UX pre-check only; the unique constraint below is authoritative.
	if _, err := h.Users.FindByUsername(req.Username); err == nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": gin.H{"username": "That username already exists. Please choose a different one."},
		})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user, err := h.Users.Create(req.Username, string(passwordHash))

	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": gin.H{"username": "That username already exists. Please choose a different one."},
			})
			return
		}
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.startSession(ctx, user.ID, user.Username); err != nil {
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

// LoginForm describes the login form.
func (h *AuthHandler) LoginForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"fields": []string{"username", "password"},
	})
}

// Login deliberately reports one generic failure for unknown users and wrong
// passwords alike.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	user, err := h.Users.FindByUsername(strings.TrimSpace(req.Username))

	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Database error when fetching user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if err := h.startSession(ctx, user.ID, user.Username); err != nil {
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.Domain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	ctx.Redirect(http.StatusFound, "/login")
}

// startSession issues the persistent "remember me" cookie. It writes the
// error response itself so callers can just return.
func (h *AuthHandler) startSession(ctx *gin.Context, userID uint, username string) error {
	token, err := auth.GenerateJWT(userID, username)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return err
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.Domain,
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	return nil
}
