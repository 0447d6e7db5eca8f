package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gwerrors "acadgateway/internal/errors"
	"acadgateway/internal/models"
	"acadgateway/pkg/whatsapp/types"

	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02 15:04:05"

// Client talks to the upstream WhatsApp automation service. It makes a
// single attempt per call; timeouts are applied per call through the
// request context.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// NewClient creates a client for the given upstream base URL. The
// admin API key may be empty.
func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
		logger:  logger,
	}
}

// BuildHeaders resolves the outbound credential headers. A forwarded
// Authorization value is relayed verbatim; otherwise the admin API key
// is attached as x-api-key when configured. Content-Type is always
// application/json. The function is deterministic and side-effect-free.
func BuildHeaders(forwardedAuth, apiKey string) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	if forwardedAuth != "" {
		headers.Set("Authorization", forwardedAuth)
	} else if apiKey != "" {
		headers.Set("x-api-key", apiKey)
	}

	return headers
}

// HasCredential reports whether a call could carry any credential:
// either the caller forwarded a token or an admin key is configured.
func (c *Client) HasCredential(forwardedAuth string) bool {
	return forwardedAuth != "" || c.apiKey != ""
}

// Forward issues one HTTP call to the upstream service and returns the
// raw response body. Non-2xx responses become UPSTREAM_REJECTED errors
// carrying the upstream status and body; transport failures become
// UPSTREAM_UNAVAILABLE (503).
func (c *Client) Forward(ctx context.Context, method, path, rawQuery string, body io.Reader, forwardedAuth string) ([]byte, error) {
	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, gwerrors.Wrap(err, gwerrors.ErrCodeInternalError, http.StatusInternalServerError,
			fmt.Sprintf("failed to build upstream request: %v", err))
	}
	req.Header = BuildHeaders(forwardedAuth, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method":   method,
			"upstream": path,
		}).WithError(err).Warn("Upstream call failed")
		return nil, gwerrors.NewUpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gwerrors.NewUpstreamUnavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"method":      method,
			"upstream":    path,
			"status_code": resp.StatusCode,
		}).Warn("Upstream rejected request")
		return nil, gwerrors.NewUpstreamRejected(resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// GetStatus fetches upstream connectivity and reshapes it, defaulting
// success to true, status to "unknown", and the timestamp to the
// gateway's current time.
func (c *Client) GetStatus(ctx context.Context, forwardedAuth string) (*models.ConnectionStatus, error) {
	body, err := c.Forward(ctx, http.MethodGet, "/api/status", "", nil, forwardedAuth)
	if err != nil {
		return nil, err
	}

	var payload types.StatusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, gwerrors.NewUpstreamUnavailable(fmt.Errorf("malformed status response: %w", err))
	}

	status := &models.ConnectionStatus{
		Success:   true,
		Status:    "unknown",
		Phone:     payload.Phone,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if payload.Success != nil {
		status.Success = *payload.Success
	}
	if payload.Status != nil {
		status.Status = *payload.Status
	}
	if payload.Timestamp != nil && *payload.Timestamp != "" {
		status.Timestamp = *payload.Timestamp
	}
	return status, nil
}

// GetGroups fetches the upstream group list and reshapes it. The count
// is recomputed from the parsed entries regardless of what the payload
// claims.
func (c *Client) GetGroups(ctx context.Context, forwardedAuth string) (*models.GroupsResponse, error) {
	body, err := c.Forward(ctx, http.MethodGet, "/api/groups", "", nil, forwardedAuth)
	if err != nil {
		return nil, err
	}

	payload, err := parseGroups(body)
	if err != nil {
		return nil, err
	}

	groups := make([]models.GroupSummary, 0, len(payload.Groups))
	for _, g := range payload.Groups {
		groups = append(groups, models.GroupSummary{
			ID:           g.ID,
			Name:         g.Name,
			Participants: g.Participants,
		})
	}

	resp := &models.GroupsResponse{
		Success: true,
		Count:   len(groups),
		Groups:  groups,
	}
	if payload.Success != nil {
		resp.Success = *payload.Success
	}
	return resp, nil
}

// GetMessages fetches one group's messages and then the group list to
// resolve the human-readable group name. The two calls are sequential;
// name resolution is best-effort and an upstream rejection of the
// second call leaves the name null rather than failing the request.
func (c *Client) GetMessages(ctx context.Context, groupID string, limit int, forwardedAuth string) (*models.MessagesResponse, error) {
	query := url.Values{"limit": []string{strconv.Itoa(limit)}}.Encode()
	body, err := c.Forward(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(groupID), query, nil, forwardedAuth)
	if err != nil {
		return nil, err
	}

	var payload types.MessagesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, gwerrors.NewUpstreamUnavailable(fmt.Errorf("malformed messages response: %w", err))
	}

	groupName, err := c.resolveGroupName(ctx, groupID, forwardedAuth)
	if err != nil {
		return nil, err
	}

	messages := make([]models.MessageRecord, 0, len(payload.Messages))
	for _, raw := range payload.Messages {
		record, ok := parseMessage(raw)
		if !ok {
			continue
		}
		messages = append(messages, record)
	}

	resp := &models.MessagesResponse{
		Success:   true,
		Count:     len(messages),
		GroupName: groupName,
		Messages:  messages,
	}
	if payload.Success != nil {
		resp.Success = *payload.Success
	}
	return resp, nil
}

// resolveGroupName looks up the group's display name by id. A transport
// failure propagates; a rejection or unparsable group list yields nil.
func (c *Client) resolveGroupName(ctx context.Context, groupID, forwardedAuth string) (*string, error) {
	body, err := c.Forward(ctx, http.MethodGet, "/api/groups", "", nil, forwardedAuth)
	if err != nil {
		if gwerrors.GetCode(err) == gwerrors.ErrCodeUpstreamRejected {
			return nil, nil
		}
		return nil, err
	}

	payload, err := parseGroups(body)
	if err != nil {
		return nil, nil
	}

	for _, g := range payload.Groups {
		if g.ID == groupID {
			name := g.Name
			return &name, nil
		}
	}
	return nil, nil
}

func parseGroups(body []byte) (*types.GroupsPayload, error) {
	var payload types.GroupsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, gwerrors.NewUpstreamUnavailable(fmt.Errorf("malformed groups response: %w", err))
	}
	return &payload, nil
}

// parseMessage converts one raw upstream message. A record missing its
// required id or content fields (or with the wrong types) is dropped;
// a missing or unparsable timestamp only degrades the formatted date
// to "Unknown".
func parseMessage(raw json.RawMessage) (models.MessageRecord, bool) {
	var payload types.MessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.MessageRecord{}, false
	}
	if payload.ID == nil || payload.Content == nil {
		return models.MessageRecord{}, false
	}

	sender := "Unknown"
	if payload.FromUser != nil {
		sender = *payload.FromUser
	} else if payload.From != nil {
		sender = *payload.From
	}

	record := models.MessageRecord{
		ID:       *payload.ID,
		FromUser: sender,
		Content:  *payload.Content,
		Date:     "Unknown",
	}

	// A zero epoch is treated like a missing timestamp.
	if epoch, ok := parseEpoch(payload.Timestamp); ok && epoch != 0 {
		record.Timestamp = epoch
		record.Date = time.Unix(epoch, 0).Format(dateLayout)
	}
	return record, true
}

// parseEpoch accepts the timestamp as a JSON number or a numeric
// string.
func parseEpoch(raw json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return 0, false
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		if epoch, err := num.Int64(); err == nil {
			return epoch, true
		}
		if f, err := num.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if epoch, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return epoch, true
		}
	}
	return 0, false
}
