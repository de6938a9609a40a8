package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetUsage returns allocation counts for the last 30 days the process has seen
func (h *Handler) GetUsage(c *gin.Context) {
	usage, err := h.Store.UsageHistory(c.Request.Context(), 30)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	var totalAllocations, totalParticipants int64
	for _, u := range usage {
		totalAllocations += int64(u.Allocations)
		totalParticipants += int64(u.Participants)
	}

	c.JSON(http.StatusOK, gin.H{
		"usage_history": usage,
		"totals": gin.H{
			"allocations":  totalAllocations,
			"participants": totalParticipants,
		},
	})
}
