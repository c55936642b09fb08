package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/agentd/internal/agent"
	"github.com/mohammad-safakhou/agentd/internal/jobs"
	"github.com/mohammad-safakhou/agentd/internal/telemetry"
	"github.com/mohammad-safakhou/agentd/provider"
)

// AgentHandler exposes the submit/poll surface of the job orchestrator.
type AgentHandler struct {
	Provider  provider.Provider
	Runner    *agent.Runner
	Store     jobs.Store
	Telemetry *telemetry.Telemetry
	Logger    *log.Logger

	DefaultModel string
	// BaseCtx outlives individual requests; detached loops run under it so
	// a closed client connection does not kill the job.
	BaseCtx context.Context
}

func (h *AgentHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.GET("/job/:id", h.job)
	g.GET("/models", h.models)
	g.GET("/health", h.health)
}

type chatRequest struct {
	Model         string             `json:"model"`
	Messages      []provider.Message `json:"messages"`
	AllowInternet *bool              `json:"allowInternet"`
	Tools         []provider.Tool    `json:"tools"`
}

type chatResponse struct {
	JobID string `json:"jobId"`
}

func (h *AgentHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages must be a non-empty array")
	}

	model := req.Model
	if model == "" {
		model = h.DefaultModel
	}

	tools := req.Tools
	if req.AllowInternet == nil || *req.AllowInternet {
		tools = append(tools, agent.InternetTools()...)
	}

	job := jobs.Job{
		ID:          uuid.NewString(),
		Status:      jobs.StatusPending,
		VisitedURLs: []string{},
		CreatedAt:   time.Now(),
	}
	if err := h.Store.Create(c.Request().Context(), job); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Telemetry.JobSubmitted()

	base := h.BaseCtx
	if base == nil {
		base = context.Background()
	}
	h.Runner.Launch(base, job, agent.Request{
		Model:    model,
		Messages: req.Messages,
		Tools:    tools,
	})
	h.Logger.Printf("job %s submitted (model=%s, tools=%d)", job.ID, model, len(tools))

	return c.JSON(http.StatusOK, chatResponse{JobID: job.ID})
}

func (h *AgentHandler) job(c echo.Context) error {
	job, err := h.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == jobs.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "job not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, job)
}

func (h *AgentHandler) models(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	models, err := h.Provider.Models(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"models": models})
}

func (h *AgentHandler) health(c echo.Context) error {
	if err := h.Provider.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"ok": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}
