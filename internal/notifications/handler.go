package notifications

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mandirops/queueline/internal/domain"
	"github.com/mandirops/queueline/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrInvalidInput, Status: http.StatusBadRequest},
	{Error: domain.ErrInvalidPayload, Status: http.StatusBadRequest},
	{Error: ErrNotConfigured, Status: http.StatusServiceUnavailable, Message: "web push is not configured"},
	{Error: ErrNoSubscriptions, Status: http.StatusNotFound, Message: "no subscriptions stored"},
	{Error: ErrEndpointNotFound, Status: http.StatusNotFound, Message: "subscription not found for endpoint"},
}

// Handler handles HTTP requests for the notifications module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new notifications handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers the SMS and Web Push subscription routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Post("/subscribe", h.SubscribeSMS)
	})

	r.Route("/push", func(r chi.Router) {
		r.Get("/vapid-public-key", h.VAPIDPublicKey)
		r.Post("/subscribe", h.SubscribePush)
		r.Post("/unsubscribe", h.UnsubscribePush)
		r.Post("/send-test", h.SendTestPush)
	})
}

// SubscribeSMSRequest represents request body for an SMS subscription.
type SubscribeSMSRequest struct {
	BookingID   string `json:"bookingId" validate:"required,min=3"`
	Mobile      string `json:"mobile" validate:"required,min=8"`
	Temple      string `json:"temple" validate:"required,min=2"`
	QueueNumber int    `json:"queueNumber" validate:"required,gte=1"`
	TimeSlot    string `json:"timeSlot"`
	Enabled     *bool  `json:"enabled"`
}

// SubscribeSMS handles POST /notifications/subscribe.
func (h *Handler) SubscribeSMS(w http.ResponseWriter, r *http.Request) {
	var req SubscribeSMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	sub, err := h.service.SubscribeSMS(r.Context(), SubscribeSMSInput{
		BookingID:   req.BookingID,
		Mobile:      req.Mobile,
		Temple:      req.Temple,
		QueueNumber: req.QueueNumber,
		TimeSlot:    req.TimeSlot,
		Enabled:     enabledOrDefault(req.Enabled),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "subscribed",
		"phoneE164": sub.PhoneE164,
		"enabled":   sub.Enabled,
	})
}

// PushKeysRequest represents the encryption keys of a browser push
// subscription.
type PushKeysRequest struct {
	P256dh string `json:"p256dh" validate:"required,min=10"`
	Auth   string `json:"auth" validate:"required,min=5"`
}

// PushCredentialRequest represents the browser-issued subscription
// object.
type PushCredentialRequest struct {
	Endpoint string          `json:"endpoint" validate:"required,min=10"`
	Keys     PushKeysRequest `json:"keys" validate:"required"`
}

// SubscribePushRequest represents request body for a push subscription.
type SubscribePushRequest struct {
	Subscription PushCredentialRequest `json:"subscription" validate:"required"`
	BookingID    string                `json:"bookingId"`
	Temple       string                `json:"temple"`
	QueueNumber  int                   `json:"queueNumber" validate:"omitempty,gte=1"`
	TimeSlot     string                `json:"timeSlot"`
	Enabled      *bool                 `json:"enabled"`
}

// SubscribePush handles POST /push/subscribe.
func (h *Handler) SubscribePush(w http.ResponseWriter, r *http.Request) {
	var req SubscribePushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	sub, err := h.service.SubscribePush(r.Context(), SubscribePushInput{
		Credential: domain.PushCredential{
			Endpoint: req.Subscription.Endpoint,
			Keys: domain.PushKeys{
				P256dh: req.Subscription.Keys.P256dh,
				Auth:   req.Subscription.Keys.Auth,
			},
		},
		BookingID:   req.BookingID,
		Temple:      req.Temple,
		QueueNumber: req.QueueNumber,
		TimeSlot:    req.TimeSlot,
		Enabled:     enabledOrDefault(req.Enabled),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{
		"status":         "subscribed",
		"subscriptionId": sub.ID,
	})
}

// UnsubscribePushRequest represents request body for unsubscribing; the
// keys are accepted but only the endpoint matters.
type UnsubscribePushRequest struct {
	Endpoint string           `json:"endpoint" validate:"required,min=10"`
	Keys     *PushKeysRequest `json:"keys"`
}

// UnsubscribePush handles POST /push/unsubscribe.
func (h *Handler) UnsubscribePush(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribePushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	outcome, err := h.service.UnsubscribePush(r.Context(), req.Endpoint)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	status := "not_found"
	switch outcome {
	case OutcomeDisabled:
		status = "unsubscribed"
	case OutcomeAlreadyDisabled:
		status = "already_unsubscribed"
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// VAPIDPublicKey handles GET /push/vapid-public-key.
func (h *Handler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.VAPIDPublicKey()
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

// Defaults for ad-hoc test pushes.
const (
	defaultTestTitle = "Test Notification"
	defaultTestBody  = "This is a test push notification."
)

// SendTestRequest represents request body for an ad-hoc test push.
type SendTestRequest struct {
	Endpoint string `json:"endpoint"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
}

// SendTestPush handles POST /push/send-test.
func (h *Handler) SendTestPush(w http.ResponseWriter, r *http.Request) {
	req := SendTestRequest{
		Title: defaultTestTitle,
		Body:  defaultTestBody,
		URL:   liveTrackingPath,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	sent, err := h.service.SendTestPush(r.Context(), SendTestInput{
		Endpoint: req.Endpoint,
		Title:    req.Title,
		Body:     req.Body,
		URL:      req.URL,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"sent":   sent,
	})
}

func enabledOrDefault(enabled *bool) bool {
	if enabled == nil {
		return true
	}
	return *enabled
}
