package board

import (
	"bytes"
	"encoding/json"
	"time"

	"worklogz/source/ordering"
)

type Stage struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	Order        int    `json:"order"`
	PipelineType string `json:"pipeline_type"`
}

// StageRef is the stage of a lead as the API returns it: either a raw id or
// the populated stage object.
type StageRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (s *StageRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = StageRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		id := ""
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*s = StageRef{ID: id}
		return nil
	}

	populated := struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}{}
	if err := json.Unmarshal(data, &populated); err != nil {
		return err
	}
	*s = StageRef{ID: populated.ID, Name: populated.Name}
	return nil
}

type Lead struct {
	ID            string    `json:"id"`
	LeadCode      string    `json:"lead_code"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	Course        string    `json:"course,omitempty"`
	Source        string    `json:"source,omitempty"`
	Status        string    `json:"status,omitempty"`
	Stage         StageRef  `json:"stage"`
	StagePosition *int      `json:"stage_position,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (l Lead) entry() ordering.Entry {
	return ordering.Entry{
		ID:        l.ID,
		StageID:   l.Stage.ID,
		Position:  ordering.FromPointer(l.StagePosition),
		UpdatedAt: l.UpdatedAt,
		CreatedAt: l.CreatedAt,
	}
}

func (l Lead) clone() Lead {
	if l.StagePosition != nil {
		position := *l.StagePosition
		l.StagePosition = &position
	}
	return l
}

func cloneLeads(leads []Lead) []Lead {
	out := make([]Lead, len(leads))
	for i, lead := range leads {
		out[i] = lead.clone()
	}
	return out
}
