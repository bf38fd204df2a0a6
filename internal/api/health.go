package api

import (
	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "HydroCalc API"
	ServiceVersion = "1.0.0"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *HealthHandler) Info(c *gin.Context) {
	RespondOK(c, gin.H{
		"name":    ServiceName,
		"version": ServiceVersion,
		"docs":    "/api/v1",
	})
}
