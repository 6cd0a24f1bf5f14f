package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/cryptbill/cryptbill/internal/shared/errors"
	"github.com/cryptbill/cryptbill/internal/shared/id"
)

// ParseSIDParam parses and validates a prefixed ID from a URL path parameter.
// entityName is used in error messages (e.g., "invoice").
func ParseSIDParam(c *gin.Context, paramName, prefix, entityName string) (string, error) {
	sid := c.Param(paramName)
	if sid == "" {
		return "", errors.NewValidationError(entityName + " ID is required")
	}

	if err := id.ValidatePrefix(sid, prefix); err != nil {
		return "", errors.NewValidationError(
			fmt.Sprintf("invalid %s ID format, expected %s_xxxxx", entityName, prefix),
		)
	}

	return sid, nil
}
