package api

import (
	"net/http"
	"strconv"

	"ap_business_tools/internal/leads"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service LeadService
}

func NewHandler(service LeadService) *Handler {
	return &Handler{service: service}
}

// SaveInquiry handles POST /api/inquiry
func (h *Handler) SaveInquiry(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, err)
		return
	}
	req, err := leads.DecodeInquiry(body)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.service.SaveInquiry(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Inquiry saved to Google Sheets"})
}

// ListInquiries handles GET /api/inquiries
func (h *Handler) ListInquiries(c *gin.Context) {
	records, err := h.service.ListInquiries(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inquiries": records})
}

// SaveEstimate handles POST /api/estimate
func (h *Handler) SaveEstimate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, err)
		return
	}
	req, err := leads.DecodeEstimate(body)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.service.SaveEstimate(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Estimate saved to Google Sheets"})
}

// ListJobs handles GET /api/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	records, err := h.service.ListJobs(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": records})
}

// AddJob handles POST /api/job
func (h *Handler) AddJob(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, err)
		return
	}
	req, err := leads.DecodePipelineJob(body)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.service.AddJob(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Job added to pipeline"})
}

// UpdateJob handles PUT /api/job/:rowIndex. Only unsigned decimal row
// indexes match; anything else is treated as an unknown route.
func (h *Handler) UpdateJob(c *gin.Context) {
	rowIndex, err := strconv.ParseUint(c.Param("rowIndex"), 10, 31)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		fail(c, err)
		return
	}
	req, err := leads.DecodeJobUpdate(body)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.service.UpdateJob(c.Request.Context(), int(rowIndex), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Job updated"})
}

// Setup handles POST /api/setup
func (h *Handler) Setup(c *gin.Context) {
	tabs, err := h.service.Setup(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All tabs created with headers!",
		"tabs":    tabs,
	})
}

// fail logs err once and reports it verbatim with a 500.
func fail(c *gin.Context, err error) {
	log.Error().
		Err(err).
		Str("request_id", c.GetString(requestIDKey)).
		Str("route", c.FullPath()).
		Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}
