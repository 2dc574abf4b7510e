package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handlers serves the web shell. API calls are proxied to the adjust backend.
type Handlers struct {
	apiEndpoint string
	client      *http.Client
	logs        LogsAPI
	logGroup    string
	logger      *zap.Logger
}

// Options configures the web shell handlers
type Options struct {
	// APIEndpoint is the base URL of the adjust backend
	APIEndpoint string
	// Logs is nil when CloudWatch Logs is not reachable
	Logs LogsAPI
	// AuditLogGroup is the log group of the adjust backend
	AuditLogGroup string
	Logger        *zap.Logger
}

// New creates the handlers
func New(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		apiEndpoint: strings.TrimRight(opts.APIEndpoint, "/"),
		// completions can take up to two minutes upstream
		client:   &http.Client{Timeout: 130 * time.Second},
		logs:     opts.Logs,
		logGroup: opts.AuditLogGroup,
		logger:   logger.Named("frontend"),
	}
}

// IndexHandler describes the shell and the signed in user
func (h *Handlers) IndexHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"name":     "fx-tuner",
			"username": c.Cookies("username"),
			"routes": []string{
				"GET /api/targets",
				"GET /api/targets/:index/parameters",
				"POST /api/targets/:index/adjust",
				"GET /api/config/check",
				"GET /api/logs",
			},
		},
	})
}

// API handlers that proxy to the adjust backend

func (h *Handlers) ListTargetsHandler(c *fiber.Ctx) error {
	return h.proxyRequest(c, "GET", "/api/targets", nil)
}

func (h *Handlers) TargetParametersHandler(c *fiber.Ctx) error {
	return h.proxyRequest(c, "GET", "/api/targets/"+c.Params("index")+"/parameters", nil)
}

func (h *Handlers) AdjustTargetHandler(c *fiber.Ctx) error {
	return h.proxyRequest(c, "POST", "/api/targets/"+c.Params("index")+"/adjust", c.Body())
}

func (h *Handlers) ConfigCheckHandler(c *fiber.Ctx) error {
	return h.proxyRequest(c, "GET", "/api/config/check", nil)
}

func (h *Handlers) proxyRequest(c *fiber.Ctx, method, path string, body []byte) error {
	token, _ := c.Locals("token").(string)
	if token == "" {
		token = c.Cookies("token")
	}
	if token == "" {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized - No session",
		})
	}

	url := h.apiEndpoint + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(c.UserContext(), method, url, reader)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create request",
		})
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("Backend request failed", zap.String("url", url), zap.Error(err))
		return c.Status(502).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to send request",
		})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read response",
		})
	}

	h.logger.Debug("Proxied request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	c.Set("Content-Type", "application/json")
	return c.Status(resp.StatusCode).Send(respBody)
}
