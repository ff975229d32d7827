// Package webhook receives GitHub issue events over HTTP and hands them to
// the automation service.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v41/github"

	"github.com/danielolaszy/triage/internal/automation"
	ghclient "github.com/danielolaszy/triage/internal/github"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

const (
	eventIssues = "issues"
	eventPing   = "ping"

	defaultLogLimit = 50
)

// Service is the part of the automation service the receiver needs.
type Service interface {
	ProcessIssueEvent(ctx context.Context, action string, issue models.Issue, owner, repo, token string, cfg automation.Config) automation.EventResult
	AutomationLog(limit int) []models.AutomationLogEntry
	ClearAutomationLog()
}

// Handler serves the webhook and automation log endpoints.
type Handler struct {
	service Service
	policy  automation.Config
	token   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewHandler creates a Handler. token authenticates tracker calls made while
// processing events; timeout bounds each delivery (0 disables the bound).
func NewHandler(service Service, policy automation.Config, token string, timeout time.Duration) *Handler {
	return &Handler{
		service: service,
		policy:  policy,
		token:   token,
		timeout: timeout,
		logger:  logging.With("component", "webhook"),
	}
}

// HandleGitHub processes a GitHub webhook delivery. Events other than issues
// are acknowledged and ignored.
func (h *Handler) HandleGitHub(c *gin.Context) {
	eventType := github.WebHookType(c.Request)
	if eventType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-GitHub-Event header"})
		return
	}

	deliveryID := github.DeliveryID(c.Request)
	logger := h.logger.With("event", eventType, "delivery_id", deliveryID)

	switch eventType {
	case eventPing:
		c.JSON(http.StatusOK, gin.H{"status": "pong"})
		return
	case eventIssues:
	default:
		logger.Debug("ignoring unsupported event")
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "unsupported event: " + eventType})
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		logger.Warn("invalid webhook payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	issuesEvent, ok := event.(*github.IssuesEvent)
	if !ok || issuesEvent.Issue == nil || issuesEvent.Repo == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issue or repository missing from payload"})
		return
	}

	owner := issuesEvent.Repo.GetOwner().GetLogin()
	repo := issuesEvent.Repo.GetName()
	issue := ghclient.ConvertIssue(issuesEvent.Issue)

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := h.service.ProcessIssueEvent(ctx, issuesEvent.GetAction(), issue, owner, repo, h.token, h.policy)

	logger.Info("processed issue event",
		"owner", owner,
		"repo", repo,
		"issue_number", issue.Number,
		"action", issuesEvent.GetAction(),
		"processed", result.Processed,
		"reason", result.Reason)
	if result.Error != "" {
		logger.Error("issue event failed",
			"issue_number", issue.Number,
			"error", result.Error)
	}

	// GitHub redelivers on non-2xx, so failures are reported in the body
	c.JSON(http.StatusOK, result)
}

// ListLog returns the newest automation log entries. The limit query
// parameter defaults to 50; 0 returns everything retained.
func (h *Handler) ListLog(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	entries := h.service.AutomationLog(limit)
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// ClearLog empties the automation log.
func (h *Handler) ClearLog(c *gin.Context) {
	h.service.ClearAutomationLog()
	c.Status(http.StatusNoContent)
}
