package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-records-api/internal/middleware"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// callerFromContext returns the zero Caller when no claims are attached; services reject it.
func callerFromContext(c *gin.Context) models.Caller {
	return claimsFromContext(c).Caller()
}

func studentNumberParam(c *gin.Context) (int64, error) {
	n, err := strconv.ParseInt(c.Param("studentNo"), 10, 64)
	if err != nil || n <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "student number must be a positive integer")
	}
	return n, nil
}
