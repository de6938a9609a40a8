package handlers

import (
	"bytes"
	"net/http"

	"github.com/arnavshah/advent-allocator/pkg/export"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func attachment(c *gin.Context, ext string) {
	c.Header("Content-Disposition", `attachment; filename="`+export.BaseName+ext+`"`)
}

// ExportCSV downloads a stored allocation as CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	views, err := export.Views(run.ModelBags(), run.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.Rows(views)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build csv"})
		return
	}
	attachment(c, ".csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportHTML renders a stored allocation as calendar cards.
// ?download=true serves it as an attachment.
func (h *Handler) ExportHTML(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	views, err := export.Views(run.ModelBags(), run.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteHTML(&buf, views, run.Year); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render calendar"})
		return
	}
	if c.Query("download") == "true" {
		attachment(c, ".html")
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// ExportXLSX downloads a stored allocation as an Excel workbook
func (h *Handler) ExportXLSX(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	views, err := export.Views(run.ModelBags(), run.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.Rows(views)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build workbook"})
		return
	}
	attachment(c, ".xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
