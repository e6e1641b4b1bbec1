package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// respondError maps the fault taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch faults.KindOf(err) {
	case faults.KindNotFound:
		status = http.StatusNotFound
	case faults.KindForbidden:
		status = http.StatusForbidden
	case faults.KindOutOfRange:
		status = http.StatusUnprocessableEntity
	case faults.KindConflict:
		status = http.StatusConflict
	case faults.KindTransient:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
