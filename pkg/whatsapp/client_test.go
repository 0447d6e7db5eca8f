package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gwerrors "acadgateway/internal/errors"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestBuildHeaders(t *testing.T) {
	tests := []struct {
		name          string
		forwardedAuth string
		apiKey        string
		wantAuth      string
		wantAPIKey    string
	}{
		{
			name:          "forwarded token wins",
			forwardedAuth: "Bearer user-token-123",
			apiKey:        "admin-key",
			wantAuth:      "Bearer user-token-123",
			wantAPIKey:    "",
		},
		{
			name:       "api key fallback",
			apiKey:     "admin-key",
			wantAPIKey: "admin-key",
		},
		{
			name: "no credential at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := BuildHeaders(tt.forwardedAuth, tt.apiKey)

			assert.Equal(t, "application/json", headers.Get("Content-Type"))
			assert.Equal(t, tt.wantAuth, headers.Get("Authorization"))
			assert.Equal(t, tt.wantAPIKey, headers.Get("x-api-key"))
		})
	}
}

func TestBuildHeadersDeterministic(t *testing.T) {
	first := BuildHeaders("Bearer abc", "key")
	second := BuildHeaders("Bearer abc", "key")
	assert.Equal(t, first, second)
}

func TestHasCredential(t *testing.T) {
	withKey := NewClient("http://localhost", "admin-key", testLogger())
	withoutKey := NewClient("http://localhost", "", testLogger())

	assert.True(t, withKey.HasCredential(""))
	assert.True(t, withKey.HasCredential("Bearer tok"))
	assert.True(t, withoutKey.HasCredential("Bearer tok"))
	assert.False(t, withoutKey.HasCredential(""))
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"status":    "connected",
			"phone":     "+15551234567",
			"timestamp": "2026-01-02T03:04:05Z",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	status, err := client.GetStatus(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, status.Success)
	assert.Equal(t, "connected", status.Status)
	require.NotNil(t, status.Phone)
	assert.Equal(t, "+15551234567", *status.Phone)
	assert.Equal(t, "2026-01-02T03:04:05Z", status.Timestamp)
}

func TestGetStatusDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", testLogger())
	status, err := client.GetStatus(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, status.Success)
	assert.Equal(t, "unknown", status.Status)
	assert.Nil(t, status.Phone)
	assert.NotEmpty(t, status.Timestamp)
}

func TestGetStatusUpstreamUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "", testLogger())
	_, err := client.GetStatus(context.Background(), "")
	require.Error(t, err)

	assert.Equal(t, gwerrors.ErrCodeUpstreamUnavailable, gwerrors.GetCode(err))
	assert.Equal(t, http.StatusServiceUnavailable, gwerrors.StatusCode(err))
	assert.Contains(t, gwerrors.Message(err), "WhatsApp service unavailable")
}

func TestGetStatusMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", testLogger())
	_, err := client.GetStatus(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, gwerrors.ErrCodeUpstreamUnavailable, gwerrors.GetCode(err))
}

func TestGetGroupsRecomputesCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upstream claims a bogus count; it must be ignored.
		_, _ = w.Write([]byte(`{
			"success": true,
			"count": 99,
			"groups": [
				{"id": "g1", "name": "Physics 101", "participants": 10},
				{"id": "g2", "name": "Math 202", "participants": 25}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	groups, err := client.GetGroups(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, groups.Success)
	assert.Equal(t, 2, groups.Count)
	require.Len(t, groups.Groups, 2)
	assert.Equal(t, "g1", groups.Groups[0].ID)
	assert.Equal(t, "Physics 101", groups.Groups[0].Name)
	assert.Equal(t, 10, groups.Groups[0].Participants)
}

func TestGetGroupsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	groups, err := client.GetGroups(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, groups.Success)
	assert.Equal(t, 0, groups.Count)
	assert.Empty(t, groups.Groups)
}

func TestGetGroupsUpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	_, err := client.GetGroups(context.Background(), "")
	require.Error(t, err)

	assert.Equal(t, gwerrors.ErrCodeUpstreamRejected, gwerrors.GetCode(err))
	assert.Equal(t, http.StatusNotFound, gwerrors.StatusCode(err))
	assert.Contains(t, gwerrors.Message(err), "not found")
}

func messagesUpstream(t *testing.T, messages string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/messages/g1":
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{"success": true, "messages": ` + messages + `}`))
		case "/api/groups":
			_, _ = w.Write([]byte(`{"success": true, "groups": [{"id": "g1", "name": "Physics 101", "participants": 10}]}`))
		default:
			t.Errorf("unexpected upstream path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestGetMessagesResolvesGroupName(t *testing.T) {
	server := messagesUpstream(t, `[
		{"id": "m1", "from_user": "alice", "content": "hello", "timestamp": 1700000000}
	]`)
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	result, err := client.GetMessages(context.Background(), "g1", 50, "")
	require.NoError(t, err)

	require.NotNil(t, result.GroupName)
	assert.Equal(t, "Physics 101", *result.GroupName)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Messages, 1)

	msg := result.Messages[0]
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "alice", msg.FromUser)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, int64(1700000000), msg.Timestamp)
	assert.NotEqual(t, "Unknown", msg.Date)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, msg.Date)
}

func TestGetMessagesUnknownGroupName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/messages/g9":
			_, _ = w.Write([]byte(`{"success": true, "messages": []}`))
		case "/api/groups":
			_, _ = w.Write([]byte(`{"success": true, "groups": [{"id": "g1", "name": "Physics 101", "participants": 10}]}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	result, err := client.GetMessages(context.Background(), "g9", 50, "")
	require.NoError(t, err)

	assert.Nil(t, result.GroupName)
	assert.Equal(t, 0, result.Count)
}

func TestGetMessagesTimestampFallback(t *testing.T) {
	server := messagesUpstream(t, `[
		{"id": "m1", "from_user": "alice", "content": "no timestamp"},
		{"id": "m2", "from_user": "bob", "content": "bad timestamp", "timestamp": "soon"},
		{"id": "m3", "from_user": "carol", "content": "string timestamp", "timestamp": "1700000000"}
	]`)
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	result, err := client.GetMessages(context.Background(), "g1", 50, "")
	require.NoError(t, err)

	require.Len(t, result.Messages, 3)
	assert.Equal(t, 3, result.Count)

	assert.Equal(t, "Unknown", result.Messages[0].Date)
	assert.Equal(t, int64(0), result.Messages[0].Timestamp)
	assert.Equal(t, "Unknown", result.Messages[1].Date)
	assert.Equal(t, int64(1700000000), result.Messages[2].Timestamp)
	assert.NotEqual(t, "Unknown", result.Messages[2].Date)
}

func TestGetMessagesSkipsUnparsableRecords(t *testing.T) {
	server := messagesUpstream(t, `[
		{"id": "m1", "from_user": "alice", "content": "kept", "timestamp": 1700000000},
		{"from_user": "bob", "content": "missing id"},
		{"id": "m3", "from_user": "carol"},
		"not an object",
		{"id": "m5", "from": "dave", "content": "legacy sender key", "timestamp": 1700000100}
	]`)
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	result, err := client.GetMessages(context.Background(), "g1", 50, "")
	require.NoError(t, err)

	require.Len(t, result.Messages, 2)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "m1", result.Messages[0].ID)
	assert.Equal(t, "m5", result.Messages[1].ID)
	assert.Equal(t, "dave", result.Messages[1].FromUser)
}

func TestGetMessagesDefaultSender(t *testing.T) {
	server := messagesUpstream(t, `[{"id": "m1", "content": "anonymous"}]`)
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	result, err := client.GetMessages(context.Background(), "g1", 50, "")
	require.NoError(t, err)

	require.Len(t, result.Messages, 1)
	assert.Equal(t, "Unknown", result.Messages[0].FromUser)
}

func TestGetMessagesGroupLookupRejectionIsBestEffort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/messages/g1":
			_, _ = w.Write([]byte(`{"success": true, "messages": [{"id": "m1", "from_user": "alice", "content": "hi", "timestamp": 1700000000}]}`))
		case "/api/groups":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden"}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	result, err := client.GetMessages(context.Background(), "g1", 50, "")
	require.NoError(t, err)

	assert.Nil(t, result.GroupName)
	assert.Equal(t, 1, result.Count)
}

func TestGetMessagesIdempotent(t *testing.T) {
	server := messagesUpstream(t, `[
		{"id": "m1", "from_user": "alice", "content": "hello", "timestamp": 1700000000}
	]`)
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())

	first, err := client.GetMessages(context.Background(), "g1", 50, "")
	require.NoError(t, err)
	second, err := client.GetMessages(context.Background(), "g1", 50, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForwardRelaysBodyAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/send", r.URL.Path)
		assert.Equal(t, "dry_run=true", r.URL.RawQuery)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "g1", payload["group_id"])

		_, _ = w.Write([]byte(`{"success": true, "message_id": "m1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	body, err := client.Forward(context.Background(), http.MethodPost, "/api/send", "dry_run=true",
		strings.NewReader(`{"group_id": "g1", "message": "hi"}`), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "message_id": "m1"}`, string(body))
}

func TestForwardSingleAttempt(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	_, err := client.Forward(context.Background(), http.MethodGet, "/api/status", "", nil, "")
	require.Error(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusInternalServerError, gwerrors.StatusCode(err))
}
