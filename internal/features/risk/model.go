package risk

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RiskEntry is a risk register row. Severity and Likelihood are 1..5
// scales; Score is their product and is recomputed on every write.
type RiskEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Unit        string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Severity    int                `bson:"severity" json:"severity"`
	Likelihood  int                `bson:"likelihood" json:"likelihood"`
	Score       int                `bson:"score" json:"score"`
	Mitigation  string             `bson:"mitigation,omitempty" json:"mitigation,omitempty"`
	Owner       string             `bson:"owner,omitempty" json:"owner,omitempty"`
	Status      string             `bson:"status" json:"status"` // open, mitigating, accepted, closed
	WorkflowID  string             `bson:"workflow_id,omitempty" json:"workflow_id,omitempty"`
	CreatedBy   string             `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
