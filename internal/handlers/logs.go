package handlers

import (
	"carelog/internal/database"
	"carelog/internal/models"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

func logLimit(c *gin.Context) int {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return limit
}

// ListOccurrenceLogs returns recent ledger rows for operators inspecting
// delivery behaviour, newest first
func ListOccurrenceLogs(c *gin.Context) {
	db := database.GetDB()
	var logs []models.OccurrenceLog

	query := db.Order("claimed_at DESC").Limit(logLimit(c))

	// Filtering
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if patientID := c.Query("patient_id"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}

	if err := query.Find(&logs).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list occurrence logs", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// ListMissedActivityAlerts returns recent missed-activity alerts
func ListMissedActivityAlerts(c *gin.Context) {
	db := database.GetDB()
	var alerts []models.MissedActivityAlert

	query := db.Order("claimed_at DESC").Limit(logLimit(c))

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if patientID := c.Query("patient_id"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}

	if err := query.Find(&alerts).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list missed-activity alerts", err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}
