package simpro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fieldops/workforce-dashboard/internal/models"

	"go.uber.org/zap"
)

// Client handles communication with the SimPRO scheduling API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new SimPRO API client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// flexibleID decodes an id that the vendor sends as either a number or a
// string. Anything unparseable becomes 0, which downstream code stores but
// excludes from cursor advancement.
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexibleID(n)
	return nil
}

// mobileStatusLog mirrors only the consumed fields of the vendor payload
type mobileStatusLog struct {
	ID         flexibleID `json:"ID"`
	Staff      struct {
		ID   flexibleID `json:"ID"`
		Name string     `json:"Name"`
	} `json:"Staff"`
	ProjectID    flexibleID `json:"ProjectID"`
	CostCenterID flexibleID `json:"CostCenterID"`
	StatusCode   int        `json:"StatusCode"`
	Status       string     `json:"Status"`
	Timestamp    time.Time  `json:"Timestamp"`
}

// JobDetail mirrors the consumed fields of GET /jobs/{id}
type JobDetail struct {
	ID   flexibleID `json:"ID"`
	Site struct {
		Name string `json:"Name"`
	} `json:"Site"`
	Customer struct {
		CompanyName string `json:"CompanyName"`
	} `json:"Customer"`
	ProjectManager struct {
		Name string `json:"Name"`
	} `json:"ProjectManager"`
	Stage  string `json:"Stage"`
	Status struct {
		Name string `json:"Name"`
	} `json:"Status"`
	Total struct {
		EstimatedCost      float64  `json:"EstimatedCost"`
		AdjustedCost       *float64 `json:"AdjustedCost"`
		ActualCost         float64  `json:"ActualCost"`
		AdjustedActualCost *float64 `json:"AdjustedActualCost"`
	} `json:"Total"`
}

// Budget prefers the adjusted total, falling back to the raw estimate
func (j *JobDetail) Budget() float64 {
	if j.Total.AdjustedCost != nil {
		return *j.Total.AdjustedCost
	}
	return j.Total.EstimatedCost
}

// Spent prefers the adjusted actual, falling back to the raw actual
func (j *JobDetail) Spent() float64 {
	if j.Total.AdjustedActualCost != nil {
		return *j.Total.AdjustedActualCost
	}
	return j.Total.ActualCost
}

// scheduleRow mirrors the consumed fields of GET /schedules
type scheduleRow struct {
	Reference string `json:"Reference"`
	Date      string `json:"Date"`
	Blocks    []struct {
		StartTime string  `json:"StartTime"`
		EndTime   string  `json:"EndTime"`
		Hours     float64 `json:"Hrs"`
		StaffRef  string  `json:"StaffRef"`
	} `json:"Blocks"`
}

// FetchMobileStatusLogs retrieves the raw worker status event feed
func (c *Client) FetchMobileStatusLogs(ctx context.Context) ([]models.StatusEvent, error) {
	var logs []mobileStatusLog
	if err := c.getJSON(ctx, "/logs/mobileStatus", &logs); err != nil {
		return nil, fmt.Errorf("failed to fetch mobile status logs: %w", err)
	}

	events := make([]models.StatusEvent, 0, len(logs))
	for _, l := range logs {
		events = append(events, models.StatusEvent{
			ID:           int64(l.ID),
			WorkerID:     strconv.FormatInt(int64(l.Staff.ID), 10),
			WorkerName:   l.Staff.Name,
			ProjectID:    strconv.FormatInt(int64(l.ProjectID), 10),
			CostCenterID: strconv.FormatInt(int64(l.CostCenterID), 10),
			StatusCode:   l.StatusCode,
			StatusName:   l.Status,
			Timestamp:    l.Timestamp,
		})
	}
	return events, nil
}

// FetchJob retrieves the details of a single job
func (c *Client) FetchJob(ctx context.Context, id string) (*JobDetail, error) {
	var detail JobDetail
	if err := c.getJSON(ctx, "/jobs/"+id, &detail); err != nil {
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	return &detail, nil
}

// FetchSchedules retrieves the schedule feed, parsing each composite
// reference ("<jobId>-<suffix>") into its job id.
func (c *Client) FetchSchedules(ctx context.Context) ([]models.ScheduleEntry, error) {
	var rows []scheduleRow
	if err := c.getJSON(ctx, "/schedules", &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch schedules: %w", err)
	}

	entries := make([]models.ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		jobID := models.ParseJobID(row.Reference)
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			c.logger.Warn("Skipping schedule row with unparseable date",
				zap.String("reference", row.Reference),
				zap.String("date", row.Date),
			)
			continue
		}
		entry := models.ScheduleEntry{
			JobID: jobID,
			Date:  date,
		}
		for _, b := range row.Blocks {
			entry.Blocks = append(entry.Blocks, models.ScheduleBlock{
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
				Hours:     b.Hours,
				StaffRef:  b.StaffRef,
			})
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Request failed",
			zap.String("path", path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("simpro returned status %d: %s", resp.StatusCode, string(body))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Message: errMsg, StatusCode: resp.StatusCode}
		case http.StatusTooManyRequests:
			c.logger.Warn("Rate limited by SimPRO", zap.String("path", path))
			return &RateLimitError{Message: errMsg, StatusCode: resp.StatusCode}
		case http.StatusBadRequest:
			return &BadRequestError{Message: errMsg, StatusCode: resp.StatusCode}
		default:
			return &UpstreamError{Message: errMsg, StatusCode: resp.StatusCode}
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug("Request completed",
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	return nil
}

// Error types
type AuthError struct {
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Message
}

type RateLimitError struct {
	Message    string
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return e.Message
}

type BadRequestError struct {
	Message    string
	StatusCode int
}

func (e *BadRequestError) Error() string {
	return e.Message
}

type UpstreamError struct {
	Message    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return e.Message
}
