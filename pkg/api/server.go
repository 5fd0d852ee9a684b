// Package api provides the REST API server for the LiveTechno studio
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/livetechno/livetechno/pkg/config"
	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/studio"
)

// @title LiveTechno API
// @version 1.0
// @description Studio backend: machine catalog, GPT patterns, MIDI export and project storage
// @host localhost:8787
// @BasePath /api/v1

// maxBody bounds request documents
const maxBody = 8 << 20

// ExportFilename is the attachment name of exported files
const ExportFilename = "export.mid"

// StartServer opens the data directory and serves the API on cfg.Addr()
func StartServer(cfg config.Config) error {
	svc, activity, err := studio.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = activity.Close() }()

	return NewRouter(svc, cfg.StaticDir).Run(cfg.Addr())
}

// NewRouter builds the gin engine around a studio service.
// Requests matching no route are served from staticDir when it is set.
func NewRouter(svc *studio.Service, staticDir string) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware())

	h := &handler{svc: svc}

	// Health check
	r.GET("/health", h.healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.healthCheck)
		v1.GET("/machines", h.listMachines)
		v1.POST("/auth/validate", h.validateKey)
		v1.POST("/gpt", h.generatePattern)
		v1.POST("/midi/export", h.exportMIDI)
		v1.POST("/project/save", h.saveProject)
		v1.GET("/project/load", h.loadProject)
		v1.GET("/activity", h.listActivity)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Studio front end
	if staticDir != "" {
		r.NoRoute(staticFiles(staticDir))
	}

	return r
}

// staticFiles serves the front end, "/" resolving to index.html
func staticFiles(dir string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Cross-Origin-Embedder-Policy", "require-corp")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type handler struct {
	svc *studio.Service
}

// projectRequest is the body of export and save calls
type projectRequest struct {
	ProjectState json.RawMessage `json:"projectState"`
}

type keyRequest struct {
	APIKey string `json:"apiKey"`
}

type generateRequest struct {
	Prompt       string             `json:"prompt"`
	ProjectState *converter.Project `json:"projectState"`
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch ftag.Get(err) {
	case ftag.InvalidArgument:
		return http.StatusBadRequest
	case ftag.NotFound:
		return http.StatusNotFound
	case ftag.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(statusFor(err), gin.H{"error": msg})
}

func readProject(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Request body exceeds %d bytes", maxBody)})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request"})
		return nil, false
	}
	var req projectRequest
	if err := json.Unmarshal(body, &req); err != nil || len(req.ProjectState) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectState is required"})
		return nil, false
	}
	return req.ProjectState, true
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API and whether GPT generation is available
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          "livetechno",
		"apiKeyConfigured": h.svc.HasKey(),
	})
}

// listMachines godoc
// @Summary List supported machines
// @Description Returns the machine catalog with default MIDI channels
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]devices.Device
// @Router /api/v1/machines [get]
func (h *handler) listMachines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"machines": h.svc.Machines(c.Request.Context())})
}

// validateKey godoc
// @Summary Validate an OpenAI API key
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/auth/validate [post]
func (h *handler) validateKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "API key is missing"})
		return
	}
	if err := h.svc.ValidateKey(c.Request.Context(), req.APIKey); err != nil {
		c.JSON(statusFor(err), gin.H{"valid": false, "error": fmsg.GetIssue(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// generatePattern godoc
// @Summary Generate a pattern with GPT
// @Tags gpt
// @Accept json
// @Produce json
// @Success 200 {object} map[string]converter.Pattern
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/gpt [post]
func (h *handler) generatePattern(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	pattern, err := h.svc.Generate(c.Request.Context(), req.Prompt, req.ProjectState)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": pattern})
}

// exportMIDI godoc
// @Summary Export the project as a Standard MIDI File
// @Description Validates projectState and returns a format 1 MIDI file
// @Tags midi
// @Accept json
// @Produce audio/midi
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/midi/export [post]
func (h *handler) exportMIDI(c *gin.Context) {
	raw, ok := readProject(c)
	if !ok {
		return
	}
	data, err := h.svc.Export(c.Request.Context(), raw)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", ExportFilename))
	c.Data(http.StatusOK, "audio/midi", data)
}

// saveProject godoc
// @Summary Save the project
// @Tags project
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /api/v1/project/save [post]
func (h *handler) saveProject(c *gin.Context) {
	raw, ok := readProject(c)
	if !ok {
		return
	}
	path, err := h.svc.Save(c.Request.Context(), raw)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": path})
}

// loadProject godoc
// @Summary Load the saved project
// @Tags project
// @Produce json
// @Success 200 {object} map[string]converter.Project
// @Failure 404 {object} map[string]string
// @Router /api/v1/project/load [get]
func (h *handler) loadProject(c *gin.Context) {
	project, err := h.svc.Load(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projectState": project})
}

// listActivity godoc
// @Summary Recent studio actions
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]store.ActionLog
// @Router /api/v1/activity [get]
func (h *handler) listActivity(c *gin.Context) {
	actions, err := h.svc.Activity(c.Request.Context(), 50)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}
