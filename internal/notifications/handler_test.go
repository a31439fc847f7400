package notifications

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, sender *fakePushSender) chi.Router {
	t.Helper()

	service := newTestService(t, sender)

	r := chi.NewRouter()
	NewHandler(service).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_SubscribeSMS(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	rec := doJSON(t, r, http.MethodPost, "/notifications/subscribe", map[string]interface{}{
		"bookingId":   "BK-1001",
		"mobile":      "9876543210",
		"temple":      "Somnath",
		"queueNumber": 42,
		"timeSlot":    "10:00-11:00",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "subscribed", body["status"])
	assert.Equal(t, "+919876543210", body["phoneE164"])
	assert.Equal(t, true, body["enabled"])
}

func TestHandler_SubscribeSMS_ValidationError(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	rec := doJSON(t, r, http.MethodPost, "/notifications/subscribe", map[string]interface{}{
		"bookingId": "BK-1001",
		// mobile and temple missing
		"queueNumber": 42,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "error")
}

func TestHandler_SubscribeSMS_InvalidPhone(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	rec := doJSON(t, r, http.MethodPost, "/notifications/subscribe", map[string]interface{}{
		"bookingId":   "BK-1001",
		"mobile":      "12345678",
		"temple":      "Somnath",
		"queueNumber": 42,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SubscribeSMS_InvalidJSON(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	req := httptest.NewRequest(http.MethodPost, "/notifications/subscribe", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_VAPIDPublicKey(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{publicKey: "BPub"})

	rec := doJSON(t, r, http.MethodGet, "/push/vapid-public-key", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BPub", decodeBody(t, rec)["publicKey"])
}

func TestHandler_VAPIDPublicKey_Unconfigured(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	rec := doJSON(t, r, http.MethodGet, "/push/vapid-public-key", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func validPushSubscribeBody() map[string]interface{} {
	return map[string]interface{}{
		"subscription": map[string]interface{}{
			"endpoint": "https://push.example.com/endpoint/abc",
			"keys": map[string]string{
				"p256dh": "p256dh-key-value",
				"auth":   "auth-value",
			},
		},
		"temple":      "Somnath",
		"queueNumber": 7,
	}
}

func TestHandler_SubscribePush(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	rec := doJSON(t, r, http.MethodPost, "/push/subscribe", validPushSubscribeBody())

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "subscribed", body["status"])
	assert.NotEmpty(t, body["subscriptionId"])
}

func TestHandler_SubscribePush_MissingEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	body := validPushSubscribeBody()
	body["subscription"] = map[string]interface{}{
		"keys": map[string]string{"p256dh": "p256dh-key-value", "auth": "auth-value"},
	}

	rec := doJSON(t, r, http.MethodPost, "/push/subscribe", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UnsubscribePush(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{})

	rec := doJSON(t, r, http.MethodPost, "/push/subscribe", validPushSubscribeBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/push/unsubscribe", map[string]interface{}{
		"endpoint": "https://push.example.com/endpoint/abc",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unsubscribed", decodeBody(t, rec)["status"])

	rec = doJSON(t, r, http.MethodPost, "/push/unsubscribe", map[string]interface{}{
		"endpoint": "https://push.example.com/endpoint/abc",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_unsubscribed", decodeBody(t, rec)["status"])

	rec = doJSON(t, r, http.MethodPost, "/push/unsubscribe", map[string]interface{}{
		"endpoint": "https://push.example.com/endpoint/unknown",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["status"])
}

func TestHandler_SendTestPush(t *testing.T) {
	sender := &fakePushSender{configured: true, publicKey: "BPub"}
	r := newTestRouter(t, sender)

	rec := doJSON(t, r, http.MethodPost, "/push/subscribe", validPushSubscribeBody())
	require.Equal(t, http.StatusOK, rec.Code)

	// Empty body falls back to the default test message.
	req := httptest.NewRequest(http.MethodPost, "/push/send-test", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sent"])

	require.Len(t, sender.payloads, 1)
	var payload PushPayload
	require.NoError(t, json.Unmarshal(sender.payloads[0], &payload))
	assert.Equal(t, "Test Notification", payload.Title)
	assert.Equal(t, "test", payload.Tag)
}

func TestHandler_SendTestPush_Unconfigured(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{configured: false})

	rec := doJSON(t, r, http.MethodPost, "/push/send-test", map[string]interface{}{})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_SendTestPush_NoSubscriptions(t *testing.T) {
	r := newTestRouter(t, &fakePushSender{configured: true})

	rec := doJSON(t, r, http.MethodPost, "/push/send-test", map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
