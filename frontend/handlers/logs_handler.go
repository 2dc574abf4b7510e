package handlers

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LogsAPI is the part of the CloudWatch Logs client the audit viewer uses
type LogsAPI interface {
	cloudwatchlogs.FilterLogEventsAPIClient
	cloudwatchlogs.DescribeLogGroupsAPIClient
}

// AuditFilter matches the log line the parameter manager writes for every successful write
const AuditFilter = `"parameter written"`

// LogGroupPrefix is where the stack's Lambda functions log
const LogGroupPrefix = "/aws/lambda/fx-tuner-"

// AuditEntry is one parameter write recovered from the backend logs
type AuditEntry struct {
	Timestamp int64  `json:"timestamp"`
	Target    string `json:"target,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind,omitempty"`
	New       string `json:"new,omitempty"`
	Old       string `json:"old,omitempty"`
	Message   string `json:"message"`
	LogStream string `json:"logStream"`
}

// parseAuditMessage fills the structured fields from a JSON log line. Lines
// that are not JSON keep only the raw message.
func parseAuditMessage(entry *AuditEntry) {
	start := strings.Index(entry.Message, "{")
	if start < 0 {
		return
	}
	var fields struct {
		Target    string `json:"target"`
		Namespace string `json:"namespace"`
		Name      string `json:"name"`
		Kind      string `json:"kind"`
		New       string `json:"new"`
		Old       string `json:"old"`
	}
	if err := json.Unmarshal([]byte(entry.Message[start:]), &fields); err != nil {
		return
	}
	entry.Target = fields.Target
	entry.Namespace = fields.Namespace
	entry.Name = fields.Name
	entry.Kind = fields.Kind
	entry.New = fields.New
	entry.Old = fields.Old
}

// GetAuditLogsHandler lists recent parameter writes, newest first
func (h *Handlers) GetAuditLogsHandler(c *fiber.Ctx) error {
	if h.logs == nil {
		return c.Status(503).JSON(fiber.Map{
			"success": false,
			"error":   "CloudWatch Logs is not configured",
		})
	}

	logGroupName := c.Query("logGroup", h.logGroup)
	if logGroupName == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "logGroup parameter is required",
		})
	}

	hours, err := strconv.Atoi(c.Query("hours", "1"))
	if err != nil || hours < 1 || hours > 168 {
		hours = 1
	}

	ctx := c.UserContext()
	endTime := time.Now()
	startTime := endTime.Add(-time.Duration(hours) * time.Hour)

	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:  aws.String(logGroupName),
		FilterPattern: aws.String(AuditFilter),
		StartTime:     aws.Int64(startTime.UnixMilli()),
		EndTime:       aws.Int64(endTime.UnixMilli()),
		Limit:         aws.Int32(500),
	}

	entries := []AuditEntry{}
	paginator := cloudwatchlogs.NewFilterLogEventsPaginator(h.logs, input)

	// Limit to 3 pages to avoid overwhelming response
	pageCount := 0
	for paginator.HasMorePages() && pageCount < 3 {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			// Log group might not exist yet
			if strings.Contains(err.Error(), "ResourceNotFoundException") {
				return c.JSON(fiber.Map{
					"success": true,
					"data": fiber.Map{
						"logs":         entries,
						"logGroupName": logGroupName,
						"hours":        hours,
						"message":      "No logs found - log group does not exist yet",
					},
				})
			}
			h.logger.Error("Failed to fetch audit logs", zap.String("logGroup", logGroupName), zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to fetch logs: " + err.Error(),
			})
		}

		for _, event := range page.Events {
			entry := AuditEntry{
				Timestamp: aws.ToInt64(event.Timestamp),
				Message:   aws.ToString(event.Message),
				LogStream: aws.ToString(event.LogStreamName),
			}
			parseAuditMessage(&entry)
			entries = append(entries, entry)
		}
		pageCount++
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"logs":         entries,
			"logGroupName": logGroupName,
			"hours":        hours,
			"count":        len(entries),
		},
	})
}

// ListLogGroupsHandler returns the stack's Lambda log groups
func (h *Handlers) ListLogGroupsHandler(c *fiber.Ctx) error {
	if h.logs == nil {
		return c.Status(503).JSON(fiber.Map{
			"success": false,
			"error":   "CloudWatch Logs is not configured",
		})
	}

	resp, err := h.logs.DescribeLogGroups(c.UserContext(), &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(LogGroupPrefix),
		Limit:              aws.Int32(50),
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to list log groups: " + err.Error(),
		})
	}

	groups := []string{}
	for _, lg := range resp.LogGroups {
		groups = append(groups, aws.ToString(lg.LogGroupName))
	}
	sort.Strings(groups)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    groups,
	})
}
