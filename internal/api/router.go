// Package api exposes the lead service over HTTP with gin.
package api

import (
	"context"
	"embed"
	"net/http"

	"ap_business_tools/internal/leads"
	"ap_business_tools/internal/sheets"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web/index.html
var webFiles embed.FS

// LeadService is what the handlers need from leads.Service.
type LeadService interface {
	SaveInquiry(ctx context.Context, req leads.InquiryRequest) error
	ListInquiries(ctx context.Context) ([]sheets.Record, error)
	SaveEstimate(ctx context.Context, req leads.EstimateRequest) error
	ListJobs(ctx context.Context) ([]sheets.Record, error)
	AddJob(ctx context.Context, req leads.PipelineJobRequest) error
	UpdateJob(ctx context.Context, rowIndex int, req leads.JobUpdateRequest) error
	Setup(ctx context.Context) ([]string, error)
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(service LeadService) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(), RequestMetrics())

	h := NewHandler(service)

	r.GET("/", index)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/inquiry", h.SaveInquiry)
		api.GET("/inquiries", h.ListInquiries)
		api.POST("/estimate", h.SaveEstimate)
		api.GET("/jobs", h.ListJobs)
		api.POST("/job", h.AddJob)
		api.PUT("/job/:rowIndex", h.UpdateJob)
		api.POST("/setup", h.Setup)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	})

	return &Router{Engine: r}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Engine.ServeHTTP(w, req)
}

func index(c *gin.Context) {
	page, err := webFiles.ReadFile("web/index.html")
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
