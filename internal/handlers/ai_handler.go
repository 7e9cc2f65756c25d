package handlers

import (
	"net/http"

	"go-pos-checkout/internal/apperr"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func AskAI(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("message", "is required"))
		return
	}

	// 1. The assistant only exists when GEMINI_API_KEY is configured
	if settings.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured on this server"})
		return
	}

	// 2. Run the AI Agent for this shop only
	response, err := settings.Assistant.Run(c.Request.Context(), scope, req.Message)
	if err != nil {
		respondError(c, apperr.Internal(err, "assistant failed"))
		return
	}

	// 3. Return the Answer
	c.JSON(http.StatusOK, gin.H{"reply": response})
}
