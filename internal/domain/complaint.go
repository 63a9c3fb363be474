// internal/domain/complaint.go
package domain

import "time"

// ComplaintStatus is the lifecycle state of a machine complaint. Resolution
// is terminal; re-resolving is a no-op.
type ComplaintStatus string

const (
	ComplaintOpen     ComplaintStatus = "open"
	ComplaintResolved ComplaintStatus = "resolved"
)

// Reply is one message appended to a complaint thread. Replies are stored in
// append order; newest-first presentation is a read-time concern.
type Reply struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Complaint is a machine log record with an append-only reply thread.
type Complaint struct {
	ID        string          `json:"id"`
	Machine   string          `json:"machine"`
	Operator  string          `json:"operator"`
	Details   string          `json:"details"`
	Status    ComplaintStatus `json:"status"`
	Replies   []Reply         `json:"replies"`
	CreatedAt time.Time       `json:"created_at"`
}

// RepliesNewestFirst returns a reversed copy of the reply thread for display.
func (c Complaint) RepliesNewestFirst() []Reply {
	out := make([]Reply, len(c.Replies))
	for i, r := range c.Replies {
		out[len(c.Replies)-1-i] = r
	}
	return out
}

// Fields flattens the complaint into a plain document for storage.
func (c Complaint) Fields() map[string]any {
	replies := make([]any, 0, len(c.Replies))
	for _, r := range c.Replies {
		replies = append(replies, map[string]any{
			"text":      r.Text,
			"timestamp": r.Timestamp,
		})
	}

	return map[string]any{
		"machine":    c.Machine,
		"operator":   c.Operator,
		"details":    c.Details,
		"status":     string(c.Status),
		"replies":    replies,
		"created_at": c.CreatedAt,
	}
}

// ComplaintFromFields rebuilds a complaint from a stored document.
func ComplaintFromFields(id string, fields map[string]any) Complaint {
	c := Complaint{
		ID:     id,
		Status: ComplaintOpen,
	}

	if v, ok := fields["machine"].(string); ok {
		c.Machine = v
	}
	if v, ok := fields["operator"].(string); ok {
		c.Operator = v
	}
	if v, ok := fields["details"].(string); ok {
		c.Details = v
	}
	if v, ok := fields["status"].(string); ok && v != "" {
		c.Status = ComplaintStatus(v)
	}
	if v, ok := fields["created_at"].(time.Time); ok {
		c.CreatedAt = v
	}

	replies, _ := fields["replies"].([]any)
	for _, raw := range replies {
		encoded, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		reply := Reply{}
		if text, ok := encoded["text"].(string); ok {
			reply.Text = text
		}
		if ts, ok := encoded["timestamp"].(time.Time); ok {
			reply.Timestamp = ts
		}
		c.Replies = append(c.Replies, reply)
	}

	return c
}
