// Status HTTP handler: the informational root endpoint.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusResponse is the body of the informational GET / endpoint.
type StatusResponse struct {
	Message   string `json:"message" example:"SMS webhook receiver is running"`
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2024-03-15T10:30:02Z"`
}

// Status godoc
// @ID          status
// @Summary     Service info
// @Description Reports that the receiver is up, with the current server time.
// @Tags        Status
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Router      / [get]
func (h *Handlers) Status(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{
		Message:   "SMS webhook receiver is running",
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
