package handlers

import (
	"net/http"
	"strings"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/arnavshah/advent-allocator/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateInput reports how a roster would be allocated without running the shuffle
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	policy := h.Config.Policy()
	pool := allocator.Filter(policy, input.Names)
	if len(pool) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": allocator.ErrEmptyRoster.Error(),
		})
		return
	}

	// Repeated names are allowed but usually a spreadsheet mistake
	seen := make(map[string]bool)
	var duplicates []string
	for _, name := range pool {
		key := strings.ToLower(name)
		if seen[key] {
			duplicates = append(duplicates, name)
		}
		seen[key] = true
	}

	participants := 0
	fixedListed := false
	for _, name := range input.Names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		participants++
		if strings.EqualFold(name, strings.TrimSpace(policy.FixedParticipant)) {
			fixedListed = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"participants":      participants,
			"pool_size":         len(pool),
			"regime":            allocator.RegimeFor(len(pool)),
			"fixed_participant": policy.FixedParticipant,
			"fixed_listed":      fixedListed,
			"duplicate_names":   duplicates,
		},
	})
}
