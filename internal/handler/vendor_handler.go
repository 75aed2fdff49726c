package handler

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VendorRequest defines the structure for vendor creation/update requests.
// The derived metric fields are intentionally absent; only the performance
// engine writes them.
type VendorRequest struct {
	Name           string `json:"name" validate:"required"`
	VendorCode     string `json:"vendor_code" validate:"required"`
	ContactDetails string `json:"contact_details"`
	Address        string `json:"address"`
}

// CreateVendor creates a new vendor and provisions its access credential
func CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new vendor")
	prometheus.RecordVendorOperation("create")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := c.Validate(&req); err != nil {
		log.Warn("Vendor validation failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	// Check if a vendor with the same code exists
	var count int64
	database.GetDB().Model(&model.Vendor{}).
		Where("vendor_code = ?", req.VendorCode).
		Count(&count)
	if count > 0 {
		log.Warn("Vendor with this code already exists", zap.String("vendor_code", req.VendorCode))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Vendor with this code already exists",
		})
	}

	vendor := model.Vendor{
		Name:           req.Name,
		VendorCode:     req.VendorCode,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	// Create the vendor, then issue its credential as an explicit second
	// step in the same transaction.
	var credential model.VendorCredential
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vendor).Error; err != nil {
			return err
		}

		token, jti, err := jwtutil.GenerateVendorToken(vendor.ID, vendor.VendorCode)
		if err != nil {
			return err
		}

		credential = model.VendorCredential{
			VendorID: vendor.ID,
			Token:    token,
			JTI:      jti,
			IssuedAt: time.Now(),
		}
		return tx.Create(&credential).Error
	})
	if err != nil {
		log.Error("Failed to create vendor",
			zap.String("name", req.Name),
			zap.String("vendor_code", req.VendorCode),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create vendor",
		})
	}

	log.Info("Vendor created successfully",
		zap.Uint("id", vendor.ID),
		zap.String("name", vendor.Name),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusCreated, echo.Map{
		"vendor": vendor,
		"token":  credential.Token,
	})
}

// GetVendor retrieves a vendor by ID
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Warn("Vendor not found", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	return c.JSON(http.StatusOK, vendor)
}

// ListVendors retrieves vendors with pagination
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("list")

	// Parse query parameters for pagination
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	offset := (page - 1) * limit

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendors []model.Vendor
	result := database.GetDB().
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&vendors)
	if result.Error != nil {
		log.Error("Failed to retrieve vendors", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendors",
		})
	}

	var total int64
	if err := database.GetDB().Model(&model.Vendor{}).Count(&total).Error; err != nil {
		log.Error("Failed to count vendors", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendors",
		})
	}

	log.Info("Vendors retrieved successfully",
		zap.Int("count", len(vendors)),
		zap.Int64("total", total))

	return c.JSON(http.StatusOK, echo.Map{
		"vendors": vendors,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateVendor updates an existing vendor and recalculates its metrics
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("vendor_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := c.Validate(&req); err != nil {
		log.Warn("Vendor validation failed", zap.Uint64("vendor_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Warn("Vendor not found for update", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Check if code is changed and if the new code already exists
	if req.VendorCode != vendor.VendorCode {
		var count int64
		database.GetDB().Model(&model.Vendor{}).
			Where("vendor_code = ? AND id != ?", req.VendorCode, id).
			Count(&count)
		if count > 0 {
			log.Warn("Vendor with this code already exists", zap.String("vendor_code", req.VendorCode))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Vendor with this code already exists",
			})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	vendor.Name = req.Name
	vendor.VendorCode = req.VendorCode
	vendor.ContactDetails = req.ContactDetails
	vendor.Address = req.Address

	result = database.GetDB().Save(&vendor)
	if result.Error != nil {
		log.Error("Failed to update vendor", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	// Vendor updates are a recalculation trigger point
	engine := performance.NewEngine(database.GetDB(), log)
	if err := engine.Recalculate(vendor.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to recalculate vendor metrics",
		})
	}

	// Reload so the response carries the recalculated metrics
	if result := database.GetDB().First(&vendor, vendor.ID); result.Error != nil {
		log.Error("Failed to reload vendor after recalculation",
			zap.Uint("vendor_id", vendor.ID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	log.Info("Vendor updated successfully",
		zap.Uint("vendor_id", vendor.ID),
		zap.String("name", vendor.Name),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor deletes a vendor along with its purchase orders, history and
// credential
func DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Warn("Vendor not found for delete", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	// Ownership cascade: orders, history and credential go with the vendor.
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vendor_id = ?", vendor.ID).Delete(&model.PurchaseOrder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vendor_id = ?", vendor.ID).Delete(&model.HistoricalPerformance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vendor_id = ?", vendor.ID).Delete(&model.VendorCredential{}).Error; err != nil {
			return err
		}
		return tx.Delete(&vendor).Error
	})
	if err != nil {
		log.Error("Failed to delete vendor", zap.Uint("vendor_id", vendor.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete vendor",
		})
	}

	log.Info("Vendor deleted successfully",
		zap.Uint("vendor_id", vendor.ID),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Vendor deleted successfully",
	})
}

// GetVendorPerformance returns a vendor's current performance metrics
func GetVendorPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("performance")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendor model.Vendor
	result := database.GetDB().First(&vendor, id)
	if result.Error != nil {
		log.Warn("Vendor not found", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	return c.JSON(http.StatusOK, performance.Metrics{
		OnTimeDeliveryRate:  vendor.OnTimeDeliveryRate,
		QualityRatingAvg:    vendor.QualityRatingAvg,
		AverageResponseTime: vendor.AverageResponseTime,
		FulfillmentRate:     vendor.FulfillmentRate,
	})
}

// GetVendorPerformanceHistory returns the mean of each metric across all of
// a vendor's historical snapshots. 404 if the vendor has no history rows.
func GetVendorPerformanceHistory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("performance_history")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid vendor ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid vendor ID",
		})
	}

	var vendor model.Vendor
	if result := database.GetDB().First(&vendor, id); result.Error != nil {
		log.Warn("Vendor not found", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var snapshots []model.HistoricalPerformance
	if result := database.GetDB().Where("vendor_id = ?", id).Find(&snapshots); result.Error != nil {
		log.Error("Failed to retrieve performance history", zap.Uint64("vendor_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve performance history",
		})
	}
	if len(snapshots) == 0 {
		log.Warn("No performance history for vendor", zap.Uint64("vendor_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "No performance history for this vendor",
		})
	}

	var agg performance.Metrics
	for _, s := range snapshots {
		agg.OnTimeDeliveryRate += s.OnTimeDeliveryRate
		agg.QualityRatingAvg += s.QualityRatingAvg
		agg.AverageResponseTime += s.AverageResponseTime
		agg.FulfillmentRate += s.FulfillmentRate
	}
	n := float64(len(snapshots))
	agg.OnTimeDeliveryRate /= n
	agg.QualityRatingAvg /= n
	agg.AverageResponseTime /= n
	agg.FulfillmentRate /= n

	return c.JSON(http.StatusOK, echo.Map{
		"vendor_id": vendor.ID,
		"snapshots": len(snapshots),
		"metrics":   agg,
	})
}
