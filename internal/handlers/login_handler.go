package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "kind": apperr.KindValidation})
		return
	}

	// 2. Find User in DB
	var user models.User
	if err := database.DB.WithContext(c.Request.Context()).Where("username = ?", input.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, database.Classify(err))
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "kind": apperr.KindUnauthorized})
		return
	}

	// 3. Verify Password (Bcrypt)
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "kind": apperr.KindUnauthorized})
		return
	}

	// 4. Generate JWT Token
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondError(c, apperr.Internal(err, "failed to generate token"))
		return
	}

	// 5. Success! Return Token and Role
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

// createUser hashes the password and stores the account.
func createUser(c *gin.Context, input LoginRequest, role string, ownerID *uint) (*models.User, bool) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		respondError(c, apperr.Validation("username", "is required"))
		return nil, false
	}
	if len(input.Password) < 6 {
		respondError(c, apperr.Validation("password", "must be at least 6 characters"))
		return nil, false
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperr.Internal(err, "failed to hash password"))
		return nil, false
	}

	user := models.User{
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		Role:         role,
		OwnerID:      ownerID,
	}
	if err := database.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(c, &apperr.Error{Kind: apperr.KindConflict, Field: "username", Message: "username already taken", Err: err})
			return nil, false
		}
		respondError(c, database.Classify(err))
		return nil, false
	}
	return &user, true
}

// Register opens a new shop: the account is an owner and its own tenant.
func Register(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "kind": apperr.KindValidation})
		return
	}

	user, ok := createUser(c, input, models.RoleAdmin, nil)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "id": user.ID})
}

// --- POST: /api/workers ---
// An admin adds a cashier who sells from the admin's catalog.
func CreateWorker(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "kind": apperr.KindValidation})
		return
	}

	owner := scope.TenantID
	user, ok := createUser(c, input, models.RoleCashier, &owner)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, user)
}
