package performance

import (
	"vendor-service/internal/model"
)

// Metrics holds the four derived performance statistics for a vendor.
type Metrics struct {
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// Compute derives the four performance metrics from a vendor's purchase
// orders. It is a pure function; callers decide when to invoke it and where
// to persist the result.
//
// Rates are percentages in [0, 100]; AverageResponseTime is in seconds.
// Each metric falls back to 0 when its denominator is empty.
func Compute(orders []model.PurchaseOrder) Metrics {
	var m Metrics

	var (
		completed     int
		onTime        int
		ratingSum     float64
		ratingCount   int
		responseSum   float64
		responseCount int
	)

	for _, po := range orders {
		if po.Status != model.StatusCompleted {
			continue
		}
		completed++

		// On-time means delivered no later than the acknowledgment date.
		// The comparison is against acknowledgment, not actual receipt.
		if po.AcknowledgmentDate != nil && !po.DeliveryDate.After(*po.AcknowledgmentDate) {
			onTime++
		}

		if po.QualityRating != nil {
			ratingSum += *po.QualityRating
			ratingCount++
		}

		if po.AcknowledgmentDate != nil {
			responseSum += po.AcknowledgmentDate.Sub(po.IssueDate).Seconds()
			responseCount++
		}
	}

	if completed > 0 {
		m.OnTimeDeliveryRate = float64(onTime) / float64(completed) * 100.0
	}
	if ratingCount > 0 {
		m.QualityRatingAvg = ratingSum / float64(ratingCount)
	}
	if responseCount > 0 {
		m.AverageResponseTime = responseSum / float64(responseCount)
	}
	if len(orders) > 0 {
		m.FulfillmentRate = float64(completed) / float64(len(orders)) * 100.0
	}

	return m
}
