package model

import "time"

// HistoricalPerformance is a snapshot of a vendor's four performance metrics
// at a point in time. Rows are upserted by the exact (vendor_id, date) pair;
// since Date carries sub-second precision, recalculation passes append new
// rows in practice.
type HistoricalPerformance struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	VendorID uint      `json:"vendor_id" gorm:"index:idx_vendor_date;not null"`
	Date     time.Time `json:"date" gorm:"index:idx_vendor_date;not null"`

	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// TableName specifies the table name for HistoricalPerformance
func (HistoricalPerformance) TableName() string {
	return "historical_performances"
}
