package supplier

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SupplierStatus string

const (
	StatusApproved    SupplierStatus = "approved"
	StatusConditional SupplierStatus = "conditional"
	StatusBlocked     SupplierStatus = "blocked"
)

type SupplierAudit struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuditDate time.Time          `bson:"audit_date" json:"audit_date"`
	Auditor   string             `bson:"auditor" json:"auditor"`
	Score     float64            `bson:"score" json:"score"` // 0..100
	Findings  string             `bson:"findings,omitempty" json:"findings,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type Nonconformity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Description string             `bson:"description" json:"description"`
	Severity    string             `bson:"severity" json:"severity"` // low, medium, high, critical
	PartCode    string             `bson:"part_code,omitempty" json:"part_code,omitempty"`
	Open        bool               `bson:"open" json:"open"`
	ReportedBy  string             `bson:"reported_by" json:"reported_by"`
	ReportedAt  time.Time          `bson:"reported_at" json:"reported_at"`
	ClosedAt    *time.Time         `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
}

type Supplier struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Code            string             `bson:"code" json:"code"`
	Category        string             `bson:"category,omitempty" json:"category,omitempty"`
	ContactEmail    string             `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	Status          SupplierStatus     `bson:"status" json:"status"`
	Audits          []SupplierAudit    `bson:"audits,omitempty" json:"audits,omitempty"`
	Nonconformities []Nonconformity    `bson:"nonconformities,omitempty" json:"nonconformities,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}
