package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parking-service/internal/client"
	"parking-service/internal/money"
	"parking-service/internal/service"
)

type Handler struct {
	parkingService *service.ParkingService
	rateService    *service.RateService
	log            zerolog.Logger
}

func NewHandler(
	parkingService *service.ParkingService,
	rateService *service.RateService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		parkingService: parkingService,
		rateService:    rateService,
		log:            log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	scans := r.Group("/scans")
	{
		scans.POST("", h.recordScan)
		scans.POST("/manual", h.manualEntry)
		scans.POST("/import", h.importScans)
		scans.POST("/sync", h.syncScans)
		scans.DELETE("", h.cleanupScans)
	}

	r.GET("/sessions", h.listSessions)
	r.GET("/analytics", h.getAnalytics)
	r.GET("/reports/monthly", h.getMonthlyReport)

	rates := r.Group("/rates")
	{
		rates.GET("", h.getRates)
		rates.PUT("", h.updateRates)
	}
}

func (h *Handler) recordScan(c *gin.Context) {
	var req struct {
		Plate       string `json:"plate" binding:"required"`
		Timestamp   string `json:"timestamp"`
		VehicleType string `json:"vehicle_type"`
		Zone        string `json:"zone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	event, err := h.parkingService.RecordScan(c.Request.Context(), service.ScanInput{
		Plate:       req.Plate,
		Timestamp:   req.Timestamp,
		VehicleType: req.VehicleType,
		Zone:        req.Zone,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(event))
}

func (h *Handler) manualEntry(c *gin.Context) {
	var req struct {
		Plate       string `json:"plate" binding:"required"`
		VehicleType string `json:"vehicle_type" binding:"required"`
		Zone        string `json:"zone" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	event, err := h.parkingService.ManualEntry(c.Request.Context(), service.ManualEntryInput{
		Plate:       req.Plate,
		VehicleType: req.VehicleType,
		Zone:        req.Zone,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(event))
}

// importScans accepts either a JSON array of records or an object keyed by
// record id, the shape of a realtime-database export. Keyed records are
// stored in key order.
func (h *Handler) importScans(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	records, err := client.DecodeRecords(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.parkingService.Import(c.Request.Context(), records)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(result))
}

func (h *Handler) syncScans(c *gin.Context) {
	result, err := h.parkingService.SyncFromSource(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) cleanupScans(c *gin.Context) {
	days, err := strconv.Atoi(strings.TrimSpace(c.Query("older_than_days")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid older_than_days"))
		return
	}

	deleted, err := h.parkingService.CleanupOldEvents(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"deleted": deleted}))
}

func (h *Handler) listSessions(c *gin.Context) {
	view, err := h.parkingService.Sessions(c.Request.Context(), service.SessionQuery{
		Date:   c.Query("date"),
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(view))
}

func (h *Handler) getAnalytics(c *gin.Context) {
	snapshot, err := h.parkingService.Analytics(c.Request.Context(), c.Query("period"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(snapshot))
}

func (h *Handler) getMonthlyReport(c *gin.Context) {
	report, err := h.parkingService.MonthlyReport(c.Request.Context(), c.Query("period"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) getRates(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.rateService.Current(c.Request.Context())))
}

func (h *Handler) updateRates(c *gin.Context) {
	var req struct {
		Car   *money.Decimal `json:"car"`
		Bike  *money.Decimal `json:"bike"`
		Truck *money.Decimal `json:"truck"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	table, err := h.rateService.Update(c.Request.Context(), service.UpdateRatesInput{
		Car:   req.Car,
		Bike:  req.Bike,
		Truck: req.Truck,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(table))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
