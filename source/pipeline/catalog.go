package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"worklogz/source/schemas"

	"gopkg.in/yaml.v3"
)

type StageTemplate struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type Definition struct {
	Prefix string          `yaml:"prefix"`
	Stages []StageTemplate `yaml:"stages"`
}

// Catalog maps every known pipeline type to its lead code prefix and the
// default stages seeded on first access.
type Catalog map[string]Definition

func DefaultCatalog() Catalog {
	return Catalog{
		schemas.PIPELINE_TYPE_COURSE: {
			Prefix: "CC",
			Stages: []StageTemplate{
				{Name: "New Enquiry", Color: "#64748b"},
				{Name: "Contacted", Color: "#3b82f6"},
				{Name: "Counselling Scheduled", Color: "#6366f1"},
				{Name: "Counselling Done", Color: "#8b5cf6"},
				{Name: "Demo Scheduled", Color: "#a855f7"},
				{Name: "Demo Attended", Color: "#d946ef"},
				{Name: "Follow Up", Color: "#f59e0b"},
				{Name: "Negotiation", Color: "#f97316"},
				{Name: "Payment Pending", Color: "#eab308"},
				{Name: "Enrolled", Color: "#22c55e"},
				{Name: "Not Interested", Color: "#94a3b8"},
				{Name: "Lost", Color: "#ef4444"},
			},
		},
		schemas.PIPELINE_TYPE_INTERNSHIP: {
			Prefix: "IC",
			Stages: []StageTemplate{
				{Name: "Application Received", Color: "#64748b"},
				{Name: "Screening", Color: "#3b82f6"},
				{Name: "Interview Scheduled", Color: "#6366f1"},
				{Name: "Interview Done", Color: "#8b5cf6"},
				{Name: "Offer Sent", Color: "#f59e0b"},
				{Name: "Offer Accepted", Color: "#14b8a6"},
				{Name: "Onboarded", Color: "#22c55e"},
				{Name: "Rejected", Color: "#ef4444"},
			},
		},
		schemas.PIPELINE_TYPE_IT_PROJECT: {
			Prefix: "ITP",
			Stages: []StageTemplate{
				{Name: "Requirement Received", Color: "#64748b"},
				{Name: "Discovery Call", Color: "#3b82f6"},
				{Name: "Proposal Sent", Color: "#6366f1"},
				{Name: "Negotiation", Color: "#f97316"},
				{Name: "Won", Color: "#22c55e"},
				{Name: "In Delivery", Color: "#14b8a6"},
				{Name: "Delivered", Color: "#0ea5e9"},
				{Name: "Lost", Color: "#ef4444"},
			},
		},
	}
}

// LoadCatalog reads a YAML file of the form
//
//	pipelines:
//	  course:
//	    prefix: CC
//	    stages:
//	      - {name: New Enquiry, color: "#64748b"}
//
// on top of the default catalog. Listed pipelines replace their defaults.
func LoadCatalog(path string) (Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipelines file: %w", err)
	}

	file := struct {
		Pipelines map[string]Definition `yaml:"pipelines"`
	}{}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pipelines file: %w", err)
	}

	for pipelineType, def := range file.Pipelines {
		pipelineType = strings.TrimSpace(pipelineType)
		if pipelineType == "" {
			return nil, fmt.Errorf("parse pipelines file: empty pipeline type")
		}
		for i, stage := range def.Stages {
			if strings.TrimSpace(stage.Name) == "" {
				return nil, fmt.Errorf("parse pipelines file: %s stage %d has no name", pipelineType, i)
			}
			def.Stages[i].Name = strings.TrimSpace(stage.Name)
		}
		catalog[pipelineType] = def
	}

	return catalog, nil
}

func (c Catalog) Has(pipelineType string) bool {
	_, ok := c[pipelineType]
	return ok
}

func (c Catalog) Types() []string {
	types := make([]string, 0, len(c))
	for t := range c {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Prefix returns the lead code prefix of a pipeline, derived from the
// initials of its type when the catalog does not set one.
func (c Catalog) Prefix(pipelineType string) string {
	if def, ok := c[pipelineType]; ok && def.Prefix != "" {
		return def.Prefix
	}

	prefix := ""
	for _, word := range strings.FieldsFunc(pipelineType, func(r rune) bool { return r == '-' || r == '_' || r == ' ' }) {
		initial, _ := utf8.DecodeRuneInString(word)
		prefix += string(unicode.ToUpper(initial))
	}
	if prefix == "" {
		return "LD"
	}
	return prefix
}
