package dof

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DOFRecord is a corrective/preventive action request. Heavyweight ones
// are driven to closure through an eight discipline workflow.
type DOFRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number        string             `bson:"number" json:"number"` // e.g. DOF-2026-0042
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Type          string             `bson:"type" json:"type"` // corrective, preventive
	SourceModule  string             `bson:"source_module,omitempty" json:"source_module,omitempty"`
	SourceRecord  string             `bson:"source_record,omitempty" json:"source_record,omitempty"`
	Department    string             `bson:"department,omitempty" json:"department,omitempty"`
	Responsible   string             `bson:"responsible,omitempty" json:"responsible,omitempty"`
	Status        string             `bson:"status" json:"status"` // open, workflow_active, closed
	WorkflowID    string             `bson:"workflow_id,omitempty" json:"workflow_id,omitempty"`
	OpenedBy      string             `bson:"opened_by" json:"opened_by"`
	OpenedAt      time.Time          `bson:"opened_at" json:"opened_at"`
	ClosedAt      *time.Time         `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
