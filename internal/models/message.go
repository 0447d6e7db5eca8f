package models

// ConnectionStatus reflects upstream connectivity. Timestamp defaults
// to the gateway's current time when the upstream omits it.
type ConnectionStatus struct {
	Success   bool    `json:"success"`
	Status    string  `json:"status"`
	Phone     *string `json:"phone"`
	Timestamp string  `json:"timestamp"`
}

// GroupSummary is one entry per upstream group record.
type GroupSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Participants int    `json:"participants"`
}

// MessageRecord is a single group message. Date is derived from the
// epoch Timestamp and set to "Unknown" when that is missing or
// unparsable.
type MessageRecord struct {
	ID        string `json:"id"`
	FromUser  string `json:"from_user"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

// GroupsResponse is the reshaped group list. Count is always recomputed
// from Groups, never trusted from the upstream payload.
type GroupsResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Groups  []GroupSummary `json:"groups"`
}

// MessagesResponse is the reshaped message list for one group.
// GroupName is resolved via a secondary lookup against the group list
// and is null when the group id is unknown. Count reflects only the
// messages actually included.
type MessagesResponse struct {
	Success   bool            `json:"success"`
	Count     int             `json:"count"`
	GroupName *string         `json:"group_name"`
	Messages  []MessageRecord `json:"messages"`
}
