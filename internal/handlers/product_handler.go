package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/database"

	"github.com/gin-gonic/gin"
)

// --- GET: List products ---
// Admins may add ?all=true to include deactivated products.
func GetProducts(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	includeInactive := scope.IsAdmin() && c.Query("all") == "true"

	products, err := catalog.NewStore(database.DB).List(c.Request.Context(), scope.TenantID, includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/products/scan/:barcode ---
// What the till shows when a barcode is scanned; no stock is reserved.
func ScanProduct(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	product, err := catalog.NewStore(database.DB).FindSellable(c.Request.Context(), scope.TenantID, c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
func AddProduct(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	// 1. Parse JSON Input
	var input catalog.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Validation("body", "invalid product: %v", err))
		return
	}

	// 2. Save to DB
	product, err := catalog.NewStore(database.DB).Create(c.Request.Context(), scope.TenantID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- PUT: Update Price or Stock ---
// Only the fields present in the body change (partial update).
func UpdateProduct(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var patch catalog.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, apperr.Validation("body", "invalid product update: %v", err))
		return
	}

	product, err := catalog.NewStore(database.DB).Update(c.Request.Context(), scope.TenantID, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: Retire a product ---
// Past order items keep pointing at the row, so it is deactivated, not removed.
func DeleteProduct(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := catalog.NewStore(database.DB).Deactivate(c.Request.Context(), scope.TenantID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated successfully"})
}

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// --- UPLOAD: Handle Image Files ---
func UploadImage(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperr.Validation("file", "no file uploaded"))
		return
	}

	// 2. Only allow images
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExt[ext] {
		respondError(c, apperr.Validation("file", "unsupported image type %q", ext))
		return
	}

	// 3. Generate a safe unique filename, e.g. "3_167890123.jpg"
	filename := fmt.Sprintf("%d_%d%s", scope.TenantID, time.Now().UnixNano(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(settings.UploadDir, filename)); err != nil {
		respondError(c, apperr.Internal(err, "failed to save file"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     strings.TrimRight(settings.BaseURL, "/") + "/uploads/" + filename,
	})
}
