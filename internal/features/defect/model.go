package defect

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type DefectStatus string

const (
	StatusOpen     DefectStatus = "open"
	StatusInReview DefectStatus = "in_review"
	StatusResolved DefectStatus = "resolved"
	StatusClosed   DefectStatus = "closed"
)

// validTransitions is the allowed status flow. Closed records are final.
var validTransitions = map[DefectStatus][]DefectStatus{
	StatusOpen:     {StatusInReview, StatusResolved},
	StatusInReview: {StatusOpen, StatusResolved},
	StatusResolved: {StatusClosed, StatusOpen},
}

func canTransition(from, to DefectStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Defect struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	VehicleID   string             `bson:"vehicle_id,omitempty" json:"vehicle_id,omitempty"`
	PartCode    string             `bson:"part_code,omitempty" json:"part_code,omitempty"`
	Unit        string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Severity    Severity           `bson:"severity" json:"severity"`
	Status      DefectStatus       `bson:"status" json:"status"`
	DetectedBy  string             `bson:"detected_by" json:"detected_by"`
	DetectedAt  time.Time          `bson:"detected_at" json:"detected_at"`
	ResolvedAt  *time.Time         `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	WorkflowID  string             `bson:"workflow_id,omitempty" json:"workflow_id,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
