package model

import (
	"time"

	"gorm.io/datatypes"
)

// Purchase order status values. The API does not enforce a transition graph
// beyond the acknowledge guard; any status may be written via update.
const (
	StatusPending      = "Pending"
	StatusAccepted     = "Accepted"
	StatusShipmentSent = "Shipment Sent"
	StatusCompleted    = "Completed"
	StatusCanceled     = "Canceled"
)

// ValidStatus reports whether s is one of the known purchase order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusShipmentSent, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// PurchaseOrder represents a purchase order issued to a vendor.
//
// AcknowledgmentDate is set exactly once, through the acknowledge operation,
// and only while the order is in Accepted status.
type PurchaseOrder struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	PONumber string `json:"po_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	VendorID uint   `json:"vendor_id" gorm:"index;not null"`

	OrderDate          time.Time  `json:"order_date" gorm:"not null"`
	DeliveryDate       time.Time  `json:"delivery_date" gorm:"not null"`
	IssueDate          time.Time  `json:"issue_date" gorm:"not null"`
	AcknowledgmentDate *time.Time `json:"acknowledgment_date,omitempty"`

	Items         datatypes.JSON `json:"items" gorm:"type:jsonb"`
	Quantity      int            `json:"quantity" gorm:"not null"`
	Status        string         `json:"status" gorm:"type:varchar(50);index;default:'Pending'"`
	QualityRating *float64       `json:"quality_rating,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for PurchaseOrder
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}
