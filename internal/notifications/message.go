package notifications

import (
	"fmt"
	"time"
)

// QueueUpdate is the per-delivery context computed by the scheduler for
// one subscription: the wait estimate and the moment of composition.
type QueueUpdate struct {
	WaitMinutes int
	At          time.Time
}

const (
	messageTitle       = "Temple Queue Update"
	liveTrackingPath   = "/live-tracking"
	messageTimeLayout  = "15:04 UTC"
	queueUpdateTag     = "queue_update"
	fallbackTempleName = "Temple"
)

// buildMessageBody composes the SMS text for one queue update.
func buildMessageBody(temple string, queueNumber, waitMinutes int, at time.Time) string {
	return fmt.Sprintf("%s\nTemple: %s\nToken: %d\nEstimated wait: %d min\nTime: %s",
		messageTitle, temple, queueNumber, waitMinutes, at.UTC().Format(messageTimeLayout))
}

// PushPayload is the notification JSON the web client's service worker
// expects.
type PushPayload struct {
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Tag   string           `json:"tag"`
	URL   string           `json:"url"`
	Data  *PushPayloadData `json:"data,omitempty"`
}

// PushPayloadData carries the structured queue context alongside the
// rendered body.
type PushPayloadData struct {
	Temple      string `json:"temple"`
	QueueNumber int    `json:"queueNumber"`
	WaitMinutes int    `json:"waitMinutes"`
}

// buildPushPayload composes the Web Push payload for one queue update.
func buildPushPayload(temple string, queueNumber, waitMinutes int, at time.Time) PushPayload {
	return PushPayload{
		Title: messageTitle,
		Body: fmt.Sprintf("Temple: %s\nToken: %d\nEstimated wait: %d min\nTime: %s",
			temple, queueNumber, waitMinutes, at.UTC().Format(messageTimeLayout)),
		Tag: queueUpdateTag,
		URL: liveTrackingPath,
		Data: &PushPayloadData{
			Temple:      temple,
			QueueNumber: queueNumber,
			WaitMinutes: waitMinutes,
		},
	}
}
