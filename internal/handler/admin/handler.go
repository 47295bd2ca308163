package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/repository/postgres"
	"github.com/medly/medly-api/internal/seed"
	bookingsvc "github.com/medly/medly-api/internal/service/booking"
	schedulesvc "github.com/medly/medly-api/internal/service/schedule"
	apperrors "github.com/medly/medly-api/pkg/errors"
	"github.com/medly/medly-api/pkg/httputil"
)

// Handler exposes the operator endpoints: org seeding, default schedules,
// content backfill and database introspection.
type Handler struct {
	db       *sqlx.DB
	dsn      string
	seeder   *seed.Seeder
	schedule *schedulesvc.Service
	booking  *bookingsvc.Service
	seedPath string
}

func NewHandler(db *sqlx.DB, sanitizedDSN string, seeder *seed.Seeder, schedule *schedulesvc.Service, booking *bookingsvc.Service, defaultSeedPath string) *Handler {
	return &Handler{
		db:       db,
		dsn:      sanitizedDSN,
		seeder:   seeder,
		schedule: schedule,
		booking:  booking,
		seedPath: defaultSeedPath,
	}
}

type seedRequest struct {
	Files     []string `json:"files"`
	Path      string   `json:"path"`
	Pattern   string   `json:"pattern"`
	Recursive bool     `json:"recursive"`
}

// Seed loads org data from JSON: explicit files, a path with a glob pattern,
// or the configured default directory.
func (h *Handler) Seed(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	var (
		result *seed.Result
		err    error
	)
	switch {
	case len(req.Files) > 0:
		result, err = h.seeder.SeedFiles(c.Request.Context(), req.Files)
	case req.Path != "":
		result, err = h.seeder.SeedPath(c.Request.Context(), req.Path, req.Pattern, req.Recursive)
	case h.seedPath != "":
		result, err = h.seeder.SeedPath(c.Request.Context(), h.seedPath, "*.json", false)
	default:
		err = apperrors.Validation("no files or path given and no default seed path configured")
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.schedule.InvalidateHierarchy()
	httputil.RespondWithSuccess(c, result)
}

// SeedDefaultSchedule writes Monday-to-Saturday 08:00-17:00 availability for
// every doctor.
func (h *Handler) SeedDefaultSchedule(c *gin.Context) {
	weeks := 1
	if raw := c.Query("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.RespondWithError(c, apperrors.Validation("weeks must be a positive integer"))
			return
		}
		weeks = n
	}
	fillOOO := c.Query("fill_ooo") == "true" || c.Query("fill_ooo") == "1"

	result, err := h.schedule.SeedDefaultSchedule(c.Request.Context(), weeks, fillOOO)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

// SetContent replaces an appointment's content snapshot.
func (h *Handler) SetContent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	var content model.JSONMap
	if err := c.ShouldBindJSON(&content); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	if err := h.booking.SetContent(c.Request.Context(), id, content); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id})
}

// DebugDB reports the sanitized DSN, the public tables and the applied
// migration version.
func (h *Handler) DebugDB(c *gin.Context) {
	ctx := c.Request.Context()

	var tables []string
	err := h.db.SelectContext(ctx, &tables,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	version, err := postgres.MigrationVersion(h.db)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"url":     h.dsn,
		"tables":  tables,
		"version": version,
	})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/_admin")
	admin.POST("/seed", h.Seed)
	admin.POST("/seed-default-schedule", h.SeedDefaultSchedule)
	admin.POST("/appointments/:id/content", h.SetContent)

	r.GET("/_debug/db", h.DebugDB)
}
