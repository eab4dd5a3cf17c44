// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amxcoding/randomquotes-client/internal/ports"
)

// BuildInfo is the build-time identity of the binary, injected via ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo fills in the Go version alongside the ldflags values.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the operational endpoints under /-/.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
}

// NewHealthHandler creates a health handler over the given check registry.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
	}
}

type livenessResponse struct {
	Status string `json:"status"`
}

// Liveness answers 200 whenever the process runs. It deliberately checks
// nothing else; dependency state belongs to Readiness.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

type readinessResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Readiness runs every registered check and answers 503 when any of them
// reports unhealthy, so load balancers stop routing here.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, readinessResponse{
		Status: string(result.Status),
		Checks: result.Checks,
	})
}

// BuildInfoHandler serves /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// MetricsHandler exposes the Prometheus registry; wrap with gin.WrapH.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RegisterHealthRoutes mounts live, ready, build, and metrics on the group.
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(MetricsHandler()))
}

// RegisterHealthRoutesOnEngine mounts the health routes under /- on the engine.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	h.RegisterHealthRoutes(engine.Group("/-"))
}
