package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	PIPELINE_TYPE_COURSE     = "course"
	PIPELINE_TYPE_INTERNSHIP = "internship"
	PIPELINE_TYPE_IT_PROJECT = "it-project"
)

type Stage struct {
	ID           bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name"`
	Description  string        `json:"description,omitempty" bson:"description,omitempty"`
	Color        string        `json:"color,omitempty" bson:"color,omitempty"`
	Order        int           `json:"order" bson:"order"`
	PipelineType string        `json:"pipeline_type" bson:"pipeline_type"`
	IsDefault    bool          `json:"is_default" bson:"is_default"`
	IsArchived   bool          `json:"is_archived" bson:"is_archived"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
	// ColumnVersion counts writes to the stage's lead column.
	ColumnVersion int64 `json:"-" bson:"column_version,omitempty"`
}

type StageInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Color        string `json:"color"`
	PipelineType string `json:"pipeline_type"`
}

// StagePatch is a partial stage update; nil fields are left untouched.
type StagePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

type StageReorderInput struct {
	PipelineType string   `json:"pipeline_type"`
	StageOrder   []string `json:"stage_order"`
}
