package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/genefit/genefit-link/internal/config"
	"github.com/genefit/genefit-link/internal/http"
	"github.com/genefit/genefit-link/internal/logging"
	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/ratelimit"
	"github.com/genefit/genefit-link/internal/source"
	"github.com/genefit/genefit-link/internal/validation"
	"github.com/genefit/genefit-link/internal/version"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 * 1024

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg("retry: " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("retry: " + msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg("retry: " + msg)
}

// Client represents the GeneFit API client.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	token      string
	limiter    *ratelimit.RateLimiter
	logger     *logging.Logger
}

// NewClient creates a new API client. A nil logger discards client logs.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("API client requires a config")
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("API base URL is empty; set api_url in the config file or %s", config.EnvAPIURL)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Component("api")

	// Configure HTTP client with proxy support
	httpClient, err := http.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Wrap with retry logic. Uploads opt out via http.WithNoRetry.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.CheckRetry = http.RetryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{log: logger}

	return &Client{
		httpClient: retryClient.StandardClient(),
		config:     cfg,
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.APIBaseURL), "/") + "/api",
		token:      cfg.APIToken,
		limiter:    ratelimit.NewAPIRateLimiter(cfg.RequestsPerSecond),
		logger:     logger,
	}, nil
}

// GetConfig returns the configuration used by this API client.
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// request describes one API call.
type request struct {
	op          string // used in error messages
	method      string
	path        string
	body        io.Reader
	contentType string
	resource    string // for NotFoundError
	id          string
	schema      string // response contract, empty to skip
}

// doRequest performs an HTTP request with authentication and rate limiting.
func (c *Client) doRequest(ctx context.Context, r request) (*nethttp.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	req, err := nethttp.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn().Str("request_id", requestID).Str("method", r.method).Str("path", r.path).Err(err).Msg("API call failed")
		return nil, &TransportError{Op: r.op, Err: err}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API call")

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		wait := retryAfter(resp.Header.Get("Retry-After"))
		c.limiter.SetCooldown(wait)
		c.logger.Warn().Str("path", r.path).Dur("cooldown", wait).Msg("THROTTLED by API")
	}

	return resp, nil
}

// call runs r and decodes a successful JSON body into out (which may be nil).
func (c *Client) call(ctx context.Context, r request, out interface{}) error {
	resp, err := c.doRequest(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(r, resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: r.op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if r.schema != "" {
		if err := validateResponse(r.schema, body); err != nil {
			c.logger.Warn().Str("path", r.path).Err(err).Msg("Response does not match contract")
			return err
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ServerError{Code: 502, Message: fmt.Sprintf("invalid response: %v", err)}
	}
	return nil
}

// checkResponse maps a non-2xx status onto the error taxonomy.
func checkResponse(r request, resp *nethttp.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := errorDetail(body)
	if detail == "" {
		detail = nethttp.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == nethttp.StatusNotFound:
		return &NotFoundError{Resource: r.resource, ID: r.id, Message: detail}
	case resp.StatusCode >= 500:
		// The upload endpoint reports an unknown user as a 500 whose detail
		// carries the inner 404.
		if strings.Contains(strings.ToLower(detail), "user not found") {
			return &NotFoundError{Resource: "user", Message: detail}
		}
		return &TransportError{Op: r.op, StatusCode: resp.StatusCode, Err: errors.New(detail)}
	case resp.StatusCode == nethttp.StatusTooManyRequests:
		return &TransportError{Op: r.op, StatusCode: resp.StatusCode, Err: errors.New(detail)}
	default:
		return &ServerError{Code: resp.StatusCode, Message: detail}
	}
}

// errorDetail extracts the {"detail": ...} message. detail is a string for
// handled errors and a list of {loc,msg} objects for request validation errors.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []interface{} `json:"loc"`
		Msg string        `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return strings.TrimSpace(string(payload.Detail))
}

func retryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 5 * time.Second
}

func jsonBody(v interface{}) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(b), nil
}

// HealthCheck calls GET / and returns the service banner.
func (c *Client) HealthCheck(ctx context.Context) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.call(ctx, request{op: "health check", method: nethttp.MethodGet, path: "/"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser registers a new user profile.
func (c *Client) CreateUser(ctx context.Context, in models.UserCreate) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = c.call(ctx, request{
		op: "create user", method: nethttp.MethodPost, path: "/users",
		body: body, contentType: "application/json", resource: "user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	var user models.User
	err := c.call(ctx, request{
		op: "get user", method: nethttp.MethodGet, path: "/users/" + url.PathEscape(userID),
		resource: "user", id: userID,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update to a user profile.
func (c *Client) UpdateUser(ctx context.Context, userID string, in models.UserUpdate) (*models.User, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	if err := in.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = c.call(ctx, request{
		op: "update user", method: nethttp.MethodPut, path: "/users/" + url.PathEscape(userID),
		body: body, contentType: "application/json", resource: "user", id: userID,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadDNA posts a raw DNA export as multipart form data and returns the
// created report. The request is never retried.
func (c *Client) UploadDNA(ctx context.Context, ownerID string, provider models.Provider, file source.File) (*models.DNAReport, error) {
	if ownerID == "" || provider == "" || file == nil {
		return nil, NewValidationError("owner, provider and file are required")
	}
	if !provider.Valid() {
		return nil, NewValidationError("unsupported provider %q", provider)
	}
	if err := validation.ValidateUpload(file.Name(), file.Size()); err != nil {
		return nil, NewValidationError("%v", err)
	}

	rc, err := file.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Name(), err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("user_id", ownerID); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.WriteField("provider", provider.String()); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := mw.CreateFormFile("file", file.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, rc); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file.Name(), err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	c.logger.Info().Str("file", file.Name()).Int64("size", file.Size()).Str("provider", provider.String()).Msg("Uploading DNA report")

	var report models.DNAReport
	err = c.call(http.WithNoRetry(ctx), request{
		op: "upload DNA report", method: nethttp.MethodPost, path: "/dna/upload",
		body: &buf, contentType: mw.FormDataContentType(),
		resource: "user", id: ownerID, schema: schemaUpload,
	}, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// SubmitJob uploads file and returns the id of the analysis job it started.
func (c *Client) SubmitJob(ctx context.Context, ownerID string, provider models.Provider, file source.File) (string, error) {
	report, err := c.UploadDNA(ctx, ownerID, provider, file)
	if err != nil {
		return "", err
	}
	return report.ID, nil
}

// GetJobStatus returns the current status of an analysis job.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*models.Job, error) {
	if jobID == "" {
		return nil, NewValidationError("job id is required")
	}
	var status models.StatusResponse
	err := c.call(ctx, request{
		op: "get job status", method: nethttp.MethodGet, path: "/dna/status/" + url.PathEscape(jobID),
		resource: "job", id: jobID, schema: schemaStatus,
	}, &status)
	if err != nil {
		return nil, err
	}
	return status.ToJob(jobID), nil
}

// ListDNAReports lists the reports uploaded by a user.
func (c *Client) ListDNAReports(ctx context.Context, userID string) ([]models.DNAReport, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	var reports []models.DNAReport
	err := c.call(ctx, request{
		op: "list DNA reports", method: nethttp.MethodGet, path: "/dna/reports/" + url.PathEscape(userID),
		resource: "user", id: userID,
	}, &reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// RequestAggregateRefresh fetches a freshly computed dashboard for ownerID.
func (c *Client) RequestAggregateRefresh(ctx context.Context, ownerID string) (*models.AggregateSnapshot, error) {
	if ownerID == "" {
		return nil, NewValidationError("owner id is required")
	}
	var snap models.AggregateSnapshot
	err := c.call(ctx, request{
		op: "refresh dashboard", method: nethttp.MethodGet, path: "/dashboard/" + url.PathEscape(ownerID),
		resource: "user", id: ownerID, schema: schemaDashboard,
	}, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// CreateHealthPlan asks the API to generate a plan of the given type.
func (c *Client) CreateHealthPlan(ctx context.Context, userID string, planType models.PlanType) (*models.HealthPlan, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	if !planType.Valid() {
		return nil, NewValidationError("unsupported plan type %q", planType)
	}
	body, err := jsonBody(models.HealthPlanCreate{UserID: userID, PlanType: planType})
	if err != nil {
		return nil, err
	}
	var plan models.HealthPlan
	err = c.call(http.WithNoRetry(ctx), request{
		op: "create health plan", method: nethttp.MethodPost, path: "/health-plans",
		body: body, contentType: "application/json", resource: "user", id: userID,
	}, &plan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListHealthPlans lists a user's active plans.
func (c *Client) ListHealthPlans(ctx context.Context, userID string) ([]models.HealthPlan, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	var plans []models.HealthPlan
	err := c.call(ctx, request{
		op: "list health plans", method: nethttp.MethodGet, path: "/health-plans/" + url.PathEscape(userID),
		resource: "user", id: userID,
	}, &plans)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

// GetHealthPlan returns a plan with its generated content.
func (c *Client) GetHealthPlan(ctx context.Context, planID string) (*models.HealthPlanDetail, error) {
	if planID == "" {
		return nil, NewValidationError("plan id is required")
	}
	var plan models.HealthPlanDetail
	err := c.call(ctx, request{
		op: "get health plan", method: nethttp.MethodGet, path: "/health-plans/detail/" + url.PathEscape(planID),
		resource: "health plan", id: planID,
	}, &plan)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListInsights returns up to limit stored insights. limit <= 0 uses the server default.
func (c *Client) ListInsights(ctx context.Context, userID string, limit int) ([]models.Insight, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	path := "/insights/" + url.PathEscape(userID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var insights []models.Insight
	err := c.call(ctx, request{
		op: "list insights", method: nethttp.MethodGet, path: path,
		resource: "user", id: userID,
	}, &insights)
	if err != nil {
		return nil, err
	}
	return insights, nil
}

// GenerateDailyInsight asks for today's insight.
func (c *Client) GenerateDailyInsight(ctx context.Context, userID string) (*models.DailyInsight, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	var insight models.DailyInsight
	err := c.call(http.WithNoRetry(ctx), request{
		op: "generate daily insight", method: nethttp.MethodPost, path: "/insights/daily/" + url.PathEscape(userID),
		resource: "user", id: userID,
	}, &insight)
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

// SyncWearables pushes one batch of device metrics.
func (c *Client) SyncWearables(ctx context.Context, userID string, in models.WearableSync) (*models.MessageResponse, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	if strings.TrimSpace(in.DeviceName) == "" {
		return nil, NewValidationError("device name is required")
	}
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	var out models.MessageResponse
	err = c.call(http.WithNoRetry(ctx), request{
		op: "sync wearables", method: nethttp.MethodPost, path: "/wearables/sync/" + url.PathEscape(userID),
		body: body, contentType: "application/json", resource: "user", id: userID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWearableData returns readings from the last days days. days <= 0 uses the server default.
func (c *Client) GetWearableData(ctx context.Context, userID string, days int) ([]models.WearableReading, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required")
	}
	path := "/wearables/" + url.PathEscape(userID)
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	var readings []models.WearableReading
	err := c.call(ctx, request{
		op: "get wearable data", method: nethttp.MethodGet, path: path,
		resource: "user", id: userID,
	}, &readings)
	if err != nil {
		return nil, err
	}
	return readings, nil
}
