package performance

import (
	"errors"
	"fmt"
	"time"

	"vendor-service/internal/model"
	"vendor-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrVendorNotFound is returned by Recalculate when the vendor id does not
// resolve to a vendor row.
var ErrVendorNotFound = errors.New("vendor not found")

// Engine recalculates a vendor's derived performance metrics from its
// purchase orders and persists the result.
//
// Recalculate must be invoked explicitly at every trigger point: an order
// saved or updated into Completed status, an order deleted, an order
// acknowledged, and a vendor updated through the API.
type Engine struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEngine returns an Engine writing through the given database handle.
func NewEngine(db *gorm.DB, log *zap.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// Recalculate reads all purchase orders for the vendor, recomputes the four
// metrics, writes them onto the vendor row and upserts a historical
// performance snapshot dated now. Any storage error aborts the pass and is
// returned to the caller.
func (e *Engine) Recalculate(vendorID uint) error {
	start := time.Now()
	prometheus.RecalculationsTotal.Inc()

	err := e.recalculate(vendorID)
	if err != nil {
		prometheus.RecalculationErrors.Inc()
		e.log.Error("Metrics recalculation failed",
			zap.Uint("vendor_id", vendorID),
			zap.Error(err))
		return err
	}

	prometheus.RecalculationDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (e *Engine) recalculate(vendorID uint) error {
	var vendor model.Vendor
	if err := e.db.First(&vendor, vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVendorNotFound
		}
		return fmt.Errorf("failed to load vendor: %w", err)
	}

	var orders []model.PurchaseOrder
	if err := e.db.Where("vendor_id = ?", vendorID).Find(&orders).Error; err != nil {
		return fmt.Errorf("failed to load purchase orders: %w", err)
	}

	metrics := Compute(orders)

	// Only this pass may write the derived fields.
	updates := map[string]interface{}{
		"on_time_delivery_rate": metrics.OnTimeDeliveryRate,
		"quality_rating_avg":    metrics.QualityRatingAvg,
		"average_response_time": metrics.AverageResponseTime,
		"fulfillment_rate":      metrics.FulfillmentRate,
	}
	if err := e.db.Model(&vendor).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to persist vendor metrics: %w", err)
	}

	if err := e.upsertSnapshot(vendorID, time.Now(), metrics); err != nil {
		return err
	}

	e.log.Info("Vendor metrics recalculated",
		zap.Uint("vendor_id", vendorID),
		zap.Int("order_count", len(orders)),
		zap.Float64("on_time_delivery_rate", metrics.OnTimeDeliveryRate),
		zap.Float64("quality_rating_avg", metrics.QualityRatingAvg),
		zap.Float64("average_response_time", metrics.AverageResponseTime),
		zap.Float64("fulfillment_rate", metrics.FulfillmentRate))
	return nil
}

// upsertSnapshot updates the snapshot for the exact (vendor, date) key if one
// exists, else inserts a new row. Dates carry sub-second precision, so in
// practice each recalculation appends its own row.
func (e *Engine) upsertSnapshot(vendorID uint, date time.Time, metrics Metrics) error {
	var snapshot model.HistoricalPerformance
	err := e.db.Where("vendor_id = ? AND date = ?", vendorID, date).First(&snapshot).Error
	switch {
	case err == nil:
		snapshot.OnTimeDeliveryRate = metrics.OnTimeDeliveryRate
		snapshot.QualityRatingAvg = metrics.QualityRatingAvg
		snapshot.AverageResponseTime = metrics.AverageResponseTime
		snapshot.FulfillmentRate = metrics.FulfillmentRate
		if err := e.db.Save(&snapshot).Error; err != nil {
			return fmt.Errorf("failed to update performance snapshot: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		snapshot = model.HistoricalPerformance{
			VendorID:            vendorID,
			Date:                date,
			OnTimeDeliveryRate:  metrics.OnTimeDeliveryRate,
			QualityRatingAvg:    metrics.QualityRatingAvg,
			AverageResponseTime: metrics.AverageResponseTime,
			FulfillmentRate:     metrics.FulfillmentRate,
		}
		if err := e.db.Create(&snapshot).Error; err != nil {
			return fmt.Errorf("failed to insert performance snapshot: %w", err)
		}
	default:
		return fmt.Errorf("failed to look up performance snapshot: %w", err)
	}
	return nil
}
