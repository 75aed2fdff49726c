package model

import (
	"time"
)

// Vendor represents a vendor stored in the database.
//
// The four performance fields are derived values. They are written only by
// the performance engine's recalculation pass; create/update requests never
// carry them.
type Vendor struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	Name           string `json:"name" gorm:"type:varchar(255);index;not null"`
	VendorCode     string `json:"vendor_code" gorm:"type:varchar(50);uniqueIndex;not null"`
	ContactDetails string `json:"contact_details" gorm:"type:text"`
	Address        string `json:"address" gorm:"type:text"`

	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate" gorm:"default:0"`
	QualityRatingAvg    float64 `json:"quality_rating_avg" gorm:"default:0"`
	AverageResponseTime float64 `json:"average_response_time" gorm:"default:0"`
	FulfillmentRate     float64 `json:"fulfillment_rate" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PurchaseOrders []PurchaseOrder         `json:"-" gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
	History        []HistoricalPerformance `json:"-" gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Vendor
func (Vendor) TableName() string {
	return "vendors"
}
