package types

import "encoding/json"

// StatusPayload is the upstream /api/status response shape. Pointer
// fields distinguish "absent" from zero values so the transformer can
// apply its defaults.
type StatusPayload struct {
	Success   *bool   `json:"success"`
	Status    *string `json:"status"`
	Phone     *string `json:"phone"`
	Timestamp *string `json:"timestamp"`
}

// GroupPayload is one upstream group record.
type GroupPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Participants int    `json:"participants"`
}

// GroupsPayload is the upstream /api/groups response shape.
type GroupsPayload struct {
	Success *bool          `json:"success"`
	Groups  []GroupPayload `json:"groups"`
}

// MessagesPayload is the upstream /api/messages/{id} response shape.
// Individual messages are kept raw so one malformed record can be
// skipped without aborting the batch.
type MessagesPayload struct {
	Success  *bool             `json:"success"`
	Messages []json.RawMessage `json:"messages"`
}

// MessagePayload is one upstream message record. ID and Content are
// required; the sender may arrive under either "from_user" or "from";
// the timestamp is kept raw because upstreams emit it both as a number
// and as a numeric string.
type MessagePayload struct {
	ID        *string         `json:"id"`
	FromUser  *string         `json:"from_user"`
	From      *string         `json:"from"`
	Content   *string         `json:"content"`
	Timestamp json.RawMessage `json:"timestamp"`
}
