package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"telegram-babylog-bot/internal/access"
	"telegram-babylog-bot/internal/report"
	"telegram-babylog-bot/internal/utils"

	"github.com/gin-gonic/gin"
)

// Server exposes the rendering pipeline over HTTP and serves exported
// artifacts from the static directory.
type Server struct {
	svc        *report.Service
	gate       *access.Gate
	windowDays int
}

// New builds the gin router for the chart/report endpoints
func New(svc *report.Service, gate *access.Gate, staticDir string, windowDays int) *gin.Engine {
	s := &Server{svc: svc, gate: gate, windowDays: windowDays}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Static("/static", staticDir)
	r.GET("/", s.index)
	r.GET("/mpasi-milk-graph/:identity", s.intakeChart)
	r.GET("/report-mpasi-milk/:identity", s.intakeReport)
	r.GET("/growth-chart/:identity", s.growthChart)

	return r
}

func (s *Server) index(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK,
		"<h3>Babylog chart server</h3>"+
			"<p>Charts: /mpasi-milk-graph/[identity]</p>"+
			"<p>Reports: /report-mpasi-milk/[identity]</p>")
}

func (s *Server) intakeChart(c *gin.Context) {
	identity := c.Param("identity")
	if err := utils.ValidateIdentity(identity); err != nil {
		c.String(http.StatusBadRequest, "Malformed identity")
		return
	}

	png, buckets, err := s.svc.IntakeChart(c.Request.Context(), identity, s.windowDays)
	if err != nil {
		var vErr *report.ValidationError
		if errors.As(err, &vErr) {
			c.String(http.StatusBadRequest, vErr.Error())
			return
		}
		log.Println("Chart generation failed:", err)
		c.String(http.StatusInternalServerError, "Chart generation failed. Please try again.")
		return
	}
	if report.AllZero(buckets) {
		c.String(http.StatusOK, "No intake data logged in the last %d days.", s.windowDays)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) intakeReport(c *gin.Context) {
	identity := c.Param("identity")
	if err := utils.ValidateIdentity(identity); err != nil {
		c.String(http.StatusBadRequest, "Malformed identity")
		return
	}

	decision := s.gate.Decide(c.Request.Context(), identity, access.FeaturePDFReports)
	if !decision.Allowed {
		c.String(http.StatusOK,
			"PDF reports are a premium feature. "+
				"Upgrade to premium to access comprehensive PDF reports with charts and analytics.")
		return
	}

	pdf, buckets, err := s.svc.IntakeReport(c.Request.Context(), identity, s.windowDays)
	if err != nil {
		var vErr *report.ValidationError
		if errors.As(err, &vErr) {
			c.String(http.StatusBadRequest, vErr.Error())
			return
		}
		log.Println("Report generation failed:", err)
		c.String(http.StatusInternalServerError, "Report generation failed. Please try again.")
		return
	}
	if report.AllZero(buckets) {
		c.String(http.StatusOK, "No intake data logged in the last %d days.", s.windowDays)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=baby_report_%s.pdf", identity))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) growthChart(c *gin.Context) {
	identity := c.Param("identity")
	if err := utils.ValidateIdentity(identity); err != nil {
		c.String(http.StatusBadRequest, "Malformed identity")
		return
	}

	decision := s.gate.Decide(c.Request.Context(), identity, access.FeatureGrowthCharts)
	if !decision.Allowed {
		c.String(http.StatusOK,
			"Growth charts are a premium feature. Upgrade to premium for visual growth tracking.")
		return
	}

	png, _, err := s.svc.GrowthChart(c.Request.Context(), identity)
	if errors.Is(err, report.ErrNoData) {
		c.String(http.StatusOK, "No growth records logged yet.")
		return
	}
	if err != nil {
		log.Println("Growth chart generation failed:", err)
		c.String(http.StatusInternalServerError, "Chart generation failed. Please try again.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
