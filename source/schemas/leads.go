package schemas

import (
	"time"

	"worklogz/source/ordering"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const LEAD_CREATED_NOTE = "Lead created."

type StageHistoryEntry struct {
	Stage   bson.ObjectID `json:"stage" bson:"stage"`
	MovedAt time.Time     `json:"moved_at" bson:"moved_at"`
	MovedBy string        `json:"moved_by,omitempty" bson:"moved_by,omitempty"`
	Note    string        `json:"note,omitempty" bson:"note,omitempty"`
}

type Lead struct {
	ID             bson.ObjectID       `json:"id,omitempty" bson:"_id,omitempty"`
	LeadCode       string              `json:"lead_code" bson:"lead_code"`
	FullName       string              `json:"full_name" bson:"full_name"`
	Phone          string              `json:"phone" bson:"phone"`
	Email          string              `json:"email,omitempty" bson:"email,omitempty"`
	AlternatePhone string              `json:"alternate_phone,omitempty" bson:"alternate_phone,omitempty"`
	City           string              `json:"city,omitempty" bson:"city,omitempty"`
	College        string              `json:"college,omitempty" bson:"college,omitempty"`
	Course         string              `json:"course,omitempty" bson:"course,omitempty"`
	Source         string              `json:"source,omitempty" bson:"source,omitempty"`
	Status         string              `json:"status,omitempty" bson:"status,omitempty"`
	Notes          string              `json:"notes,omitempty" bson:"notes,omitempty"`
	FollowUpDate   string              `json:"follow_up_date,omitempty" bson:"follow_up_date,omitempty"`
	ExpectedValue  float64             `json:"expected_value,omitempty" bson:"expected_value,omitempty"`
	PipelineType   string              `json:"pipeline_type" bson:"pipeline_type"`
	Stage          bson.ObjectID       `json:"stage" bson:"stage"`
	StagePosition  *int                `json:"stage_position,omitempty" bson:"stage_position,omitempty"`
	LeadOwner      string              `json:"lead_owner,omitempty" bson:"lead_owner,omitempty"`
	AssignedUsers  []string            `json:"assigned_users" bson:"assigned_users"`
	StageHistory   []StageHistoryEntry `json:"stage_history" bson:"stage_history"`
	CreatedBy      string              `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy      string              `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}

func (l Lead) Position() ordering.Position {
	return ordering.FromPointer(l.StagePosition)
}

func (l Lead) OrderingEntry() ordering.Entry {
	return ordering.Entry{
		ID:        l.ID.Hex(),
		StageID:   l.Stage.Hex(),
		Position:  l.Position(),
		UpdatedAt: l.UpdatedAt,
		CreatedAt: l.CreatedAt,
	}
}

// PopulatedLead is a lead with its references resolved for API responses.
type PopulatedLead struct {
	Lead
	Stage         *Stage `json:"stage"`
	LeadOwner     *User  `json:"lead_owner"`
	AssignedUsers []User `json:"assigned_users"`
	CreatedBy     *User  `json:"created_by"`
}

type LeadInput struct {
	FullName       string   `json:"full_name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	AlternatePhone string   `json:"alternate_phone"`
	City           string   `json:"city"`
	College        string   `json:"college"`
	Course         string   `json:"course"`
	Source         string   `json:"source"`
	Status         string   `json:"status"`
	Notes          string   `json:"notes"`
	FollowUpDate   string   `json:"follow_up_date"`
	ExpectedValue  float64  `json:"expected_value"`
	PipelineType   string   `json:"pipeline_type"`
	Stage          string   `json:"stage"`
	LeadOwner      string   `json:"lead_owner"`
	AssignedUsers  []string `json:"assigned_users"`
}

// LeadPatch lists the fields a lead update may touch.
type LeadPatch struct {
	FullName       *string   `json:"full_name,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Email          *string   `json:"email,omitempty"`
	AlternatePhone *string   `json:"alternate_phone,omitempty"`
	City           *string   `json:"city,omitempty"`
	College        *string   `json:"college,omitempty"`
	Course         *string   `json:"course,omitempty"`
	Source         *string   `json:"source,omitempty"`
	Status         *string   `json:"status,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	FollowUpDate   *string   `json:"follow_up_date,omitempty"`
	ExpectedValue  *float64  `json:"expected_value,omitempty"`
	Stage          *string   `json:"stage,omitempty"`
	LeadOwner      *string   `json:"lead_owner,omitempty"`
	AssignedUsers  *[]string `json:"assigned_users,omitempty"`
}

type LeadMoveInput struct {
	StageID  string `json:"stage_id"`
	Position *int   `json:"position"`
	Note     string `json:"note"`
}

type LeadFilter struct {
	PipelineType string
	Stage        string
	Course       string
	Source       string
	Status       string
	Search       string
}
