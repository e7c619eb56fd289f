package vehicle

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleState string

const (
	StateProduction    VehicleState = "production"
	StateQualityCheck  VehicleState = "quality_check"
	StateRework        VehicleState = "rework"
	StateShipmentReady VehicleState = "shipment_ready"
	StateShipped       VehicleState = "shipped"
)

// validMoves is the allowed state machine. Shipped vehicles are final.
var validMoves = map[VehicleState][]VehicleState{
	StateProduction:    {StateQualityCheck},
	StateQualityCheck:  {StateRework, StateShipmentReady},
	StateRework:        {StateQualityCheck},
	StateShipmentReady: {StateShipped, StateQualityCheck},
}

func canMove(from, to VehicleState) bool {
	for _, next := range validMoves[from] {
		if next == to {
			return true
		}
	}
	return false
}

// warnThreshold is how long a vehicle may sit in a state before it is
// flagged. Shipped has no threshold.
var warnThreshold = map[VehicleState]time.Duration{
	StateProduction:    21 * 24 * time.Hour,
	StateQualityCheck:  2 * 24 * time.Hour,
	StateRework:        5 * 24 * time.Hour,
	StateShipmentReady: 7 * 24 * time.Hour,
}

type StateChange struct {
	From      VehicleState `bson:"from" json:"from"`
	To        VehicleState `bson:"to" json:"to"`
	ChangedBy string       `bson:"changed_by" json:"changed_by"`
	ChangedAt time.Time    `bson:"changed_at" json:"changed_at"`
	Note      string       `bson:"note,omitempty" json:"note,omitempty"`
}

type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SerialNumber string             `bson:"serial_number" json:"serial_number"`
	Model        string             `bson:"model" json:"model"`
	Project      string             `bson:"project,omitempty" json:"project,omitempty"`
	State        VehicleState       `bson:"state" json:"state"`
	StateSince   time.Time          `bson:"state_since" json:"state_since"`
	History      []StateChange      `bson:"history,omitempty" json:"history,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Warning marks a vehicle overstaying its current state.
type Warning struct {
	VehicleID    string       `json:"vehicle_id"`
	SerialNumber string       `json:"serial_number"`
	State        VehicleState `json:"state"`
	InStateFor   string       `json:"in_state_for"`
	Threshold    string       `json:"threshold"`
}
