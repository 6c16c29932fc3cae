package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentormuni-server/journal"
	"mentormuni-server/middleware"
	"mentormuni-server/stats"
	"mentormuni-server/utils"
)

const (
	defaultListLimit = 1000
	maxListLimit     = 5000
	dashboardRecent  = 10
)

// AdminListEntries returns recent journal entries of kind, newest first.
// GET /admin/leads, GET /admin/contacts
func AdminListEntries(recorder journal.Recorder, kind journal.Kind, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultListLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, logger, invalidField("limit", "must be an integer"), "")
				return
			}
			limit = utils.ClampLimit(n, defaultListLimit, maxListLimit)
		}

		entries, err := recorder.Recent(c.Request.Context(), kind, limit)
		if err != nil {
			respondError(c, logger, err, "Failed to read entries")
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": kind, "count": len(entries), "entries": entries})
	}
}

type dashboardData struct {
	Title       string
	Model       string
	GeneratedAt time.Time
	TotalChecks int64
	TotalViews  int64
	Leads       []journal.Entry
	Contacts    []journal.Entry
	Viewer      string
}

// AdminDashboard renders counters and the latest leads and contacts.
// GET /admin/dashboard
func AdminDashboard(counters *stats.Counters, recorder journal.Recorder, model string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		leads, err := recorder.Recent(ctx, journal.KindLead, dashboardRecent)
		if err != nil {
			logger.Error("dashboard: failed to read leads", zap.Error(err))
		}
		contacts, err := recorder.Recent(ctx, journal.KindContact, dashboardRecent)
		if err != nil {
			logger.Error("dashboard: failed to read contacts", zap.Error(err))
		}

		c.HTML(http.StatusOK, "admin_dashboard", dashboardData{
			Title:       "MentorMuni Admin",
			Model:       model,
			GeneratedAt: time.Now().UTC(),
			TotalChecks: counters.Checks(),
			TotalViews:  counters.Views(),
			Leads:       leads,
			Contacts:    contacts,
			Viewer:      c.GetString(middleware.ContextUserEmail),
		})
	}
}
