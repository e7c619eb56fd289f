package qualitycost

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CostType categorizes where a quality cost was incurred.
type CostType string

const (
	CostScrap      CostType = "scrap"
	CostRework     CostType = "rework"
	CostWarranty   CostType = "warranty"
	CostInspection CostType = "inspection"
	CostComplaint  CostType = "complaint"
)

type CostEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type        CostType           `bson:"type" json:"type"`
	Amount      float64            `bson:"amount" json:"amount"`
	Unit        string             `bson:"unit" json:"unit"` // production unit / department
	PartCode    string             `bson:"part_code,omitempty" json:"part_code,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	VehicleID   string             `bson:"vehicle_id,omitempty" json:"vehicle_id,omitempty"`
	IncurredAt  time.Time          `bson:"incurred_at" json:"incurred_at"`
	CreatedBy   string             `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// UnitSummary aggregates cost per production unit for reporting.
type UnitSummary struct {
	Unit  string  `bson:"_id" json:"unit"`
	Total float64 `bson:"total" json:"total"`
	Count int64   `bson:"count" json:"count"`
}
