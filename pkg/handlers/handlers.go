package handlers

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/arnavshah/advent-allocator/pkg/config"
	"github.com/arnavshah/advent-allocator/pkg/database"
	"github.com/arnavshah/advent-allocator/pkg/export"
	"github.com/arnavshah/advent-allocator/pkg/metrics"
	"github.com/arnavshah/advent-allocator/pkg/models"
	"github.com/arnavshah/advent-allocator/pkg/roster"
	"github.com/arnavshah/advent-allocator/pkg/tracing"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed static/*
var staticEmbed embed.FS

// Handler contains dependencies for the route handlers
type Handler struct {
	Store   *database.Store
	Config  *config.Config
	Metrics *metrics.Manager
	Fetcher *roster.Fetcher
	Log     zerolog.Logger

	// Source picks the randomness for a request; nil uses the seed or the clock.
	Source func(seed *int64) allocator.Source
}

func (h *Handler) source(seed *int64) allocator.Source {
	if h.Source != nil {
		return h.Source(seed)
	}
	if seed != nil {
		return allocator.NewSource(*seed)
	}
	return allocator.TimeSource()
}

func (h *Handler) year(requested int) (int, error) {
	if requested == 0 {
		return h.Config.Year, nil
	}
	if requested < 1 || requested > 9999 {
		return 0, errors.New("year must be between 1 and 9999")
	}
	return requested, nil
}

// allocate runs the allocator, stores the run and writes the response
func (h *Handler) allocate(c *gin.Context, names []string, requestedYear int, seed *int64) {
	year, err := h.year(requestedYear)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := tracing.StartSpan(c.Request.Context(), "allocate",
		attribute.Int("names", len(names)),
		attribute.Int("year", year),
	)
	res, err := allocator.New(h.Config.Policy(), h.source(seed)).Allocate(names)
	if err != nil {
		tracing.EndSpan(span, err)
		if errors.Is(err, allocator.ErrEmptyRoster) {
			h.Metrics.RecordAllocationError("empty_roster")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.Metrics.RecordAllocationError("invalid_policy")
		h.Log.Error().Err(err).Msg("allocation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("regime", string(res.Regime)), attribute.Int("pool_size", res.PoolSize))

	views, err := export.Views(res.Bags, year)
	if err != nil {
		tracing.EndSpan(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	run, err := h.Store.SaveRun(ctx, res, year)
	if err != nil {
		tracing.EndSpan(span, err)
		h.Log.Error().Err(err).Msg("could not save run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save allocation"})
		return
	}
	if err := h.Store.RecordUsage(ctx, res.PoolSize); err != nil {
		h.Log.Warn().Err(err).Msg("could not record usage")
	}
	h.Metrics.RecordAllocation(string(res.Regime), res.PoolSize)
	tracing.EndSpan(span, nil)

	h.Log.Info().
		Str("run_id", run.ID).
		Str("regime", run.Regime).
		Int("pool_size", run.PoolSize).
		Int("year", year).
		Msg("allocation complete")

	c.JSON(http.StatusOK, response(run, views))
}

func response(run *database.Run, views []models.BagView) models.AllocationResponse {
	base := "/api/runs/" + run.ID
	return models.AllocationResponse{
		RunID:     run.ID,
		Year:      run.Year,
		PoolSize:  run.PoolSize,
		Regime:    run.Regime,
		CreatedAt: run.CreatedAt,
		Bags:      views,
		Exports: models.Exports{
			CSV:  base + "/csv",
			HTML: base + "/html",
			XLSX: base + "/xlsx",
		},
	}
}

// AllocateJSON handles a JSON list of names
func (h *Handler) AllocateJSON(c *gin.Context) {
	var input models.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.Metrics.RecordRosterLoad("json", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Metrics.RecordRosterLoad("json", nil)
	h.allocate(c, input.Names, input.Year, input.Seed)
}

// AllocateUpload handles a CSV or XLSX roster upload
func (h *Handler) AllocateUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Config.MaxUploadBytes)

	fileHeader, err := c.FormFile("roster_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "roster file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster_file is required"})
		return
	}

	year, err := formInt(c.PostForm("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
		return
	}
	var seed *int64
	if raw := strings.TrimSpace(c.PostForm("seed")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be a number"})
			return
		}
		seed = &v
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open roster file"})
		return
	}
	defer f.Close()

	names, err := roster.Read(fileHeader.Filename, f)
	h.Metrics.RecordRosterLoad("upload", err)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The file seems empty!"})
		return
	}

	h.allocate(c, names, year, seed)
}

// AllocateURL downloads a hosted roster and allocates it
func (h *Handler) AllocateURL(c *gin.Context) {
	var input models.AllocateURLInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := tracing.StartSpan(c.Request.Context(), "fetch_roster", attribute.String("url", input.URL))
	names, err := h.Fetcher.Fetch(ctx, input.URL)
	tracing.EndSpan(span, err)
	h.Metrics.RecordRosterLoad("url", err)
	if err != nil {
		var dlErr *roster.DownloadError
		if errors.As(err, &dlErr) {
			h.Log.Warn().Err(err).Str("url", input.URL).Msg("roster download failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The file seems empty!"})
		return
	}

	h.allocate(c, names, input.Year, input.Seed)
}

// GetRun returns a stored allocation
func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	views, err := export.Views(run.ModelBags(), run.Year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, response(run, views))
}

func (h *Handler) loadRun(c *gin.Context) (*database.Run, bool) {
	run, err := h.Store.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("could not load run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load allocation"})
		return nil, false
	}
	return run, true
}

// Pickup returns the pickup instruction for one day
func (h *Handler) Pickup(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be a number"})
		return
	}
	requested, err := formInt(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
		return
	}
	year, err := h.year(requested)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := allocator.PickupRule(day, year)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.PickupResponse{
		Day:       day,
		Year:      year,
		PickupDay: p.Day,
		Date:      p.Date.Format("2006-01-02"),
		Weekday:   p.Weekday.String(),
		Shifted:   p.Shifted,
		Message:   p.Message,
	})
}

func formInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// Index serves the calendar page from embedded files
func (h *Handler) Index(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
