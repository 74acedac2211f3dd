package schemas

import "time"

const (
	EVENT_STAGE_CREATED   = "stage.created"
	EVENT_STAGE_UPDATED   = "stage.updated"
	EVENT_STAGE_DELETED   = "stage.deleted"
	EVENT_STAGE_REORDERED = "stage.reordered"
	EVENT_LEAD_CREATED    = "lead.created"
	EVENT_LEAD_UPDATED    = "lead.updated"
	EVENT_LEAD_MOVED      = "lead.moved"
	EVENT_LEAD_DELETED    = "lead.deleted"
)

type PipelineEvent struct {
	Action       string    `json:"action"`
	PipelineType string    `json:"pipeline_type"`
	EntityID     string    `json:"entity_id,omitempty"`
	Payload      any       `json:"payload,omitempty"`
	Details      string    `json:"details,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
