package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionCreate   AuditAction = "CREATE"
	AuditActionUpdate   AuditAction = "UPDATE"
	AuditActionDelete   AuditAction = "DELETE"
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionWorkflow AuditAction = "WORKFLOW"
	AuditActionImport   AuditAction = "IMPORT"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`       // The module/collection name
	RecordID  string             `bson:"record_id" json:"record_id"` // The ID of the record being modified
	ActorID   string             `bson:"actor_id" json:"actor_id"`   // User ID who performed the action
	ActorName string             `bson:"-" json:"actor_name,omitempty"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"` // For updates: field -> {old, new}
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// ModuleType identifies which quality module a record (and therefore a
// workflow context) belongs to. The workflow engine never interprets the
// record payload itself, only this discriminant.
type ModuleType string

const (
	ModuleQualityCost ModuleType = "quality_cost"
	ModuleDefect      ModuleType = "defect"
	ModuleSupplier    ModuleType = "supplier"
	ModuleRisk        ModuleType = "risk"
	ModuleVehicle     ModuleType = "vehicle"
	ModuleDOF         ModuleType = "dof"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Password   string             `bson:"password" json:"-"`
	Email      string             `bson:"email" json:"email"`
	FirstName  string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName   string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Status     string             `bson:"status" json:"status"` // active, inactive, suspended
	Roles      []string           `bson:"roles" json:"roles"`   // Role names (quality_engineer, quality_manager, ...)
	LastLogin  *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
