package handler

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseOrderRequest defines the structure for purchase order
// creation/update requests. AcknowledgmentDate is deliberately absent; it is
// set only through the acknowledge endpoint.
type PurchaseOrderRequest struct {
	PONumber      string         `json:"po_number" validate:"required"`
	VendorID      uint           `json:"vendor_id" validate:"required"`
	OrderDate     time.Time      `json:"order_date" validate:"required"`
	DeliveryDate  time.Time      `json:"delivery_date" validate:"required"`
	IssueDate     time.Time      `json:"issue_date" validate:"required"`
	Items         datatypes.JSON `json:"items"`
	Quantity      int            `json:"quantity" validate:"required,gt=0"`
	Status        string         `json:"status"`
	QualityRating *float64       `json:"quality_rating"`
}

// CreatePurchaseOrder creates a new purchase order
func CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new purchase order")
	prometheus.RecordOrderOperation("create")

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := c.Validate(&req); err != nil {
		log.Warn("Purchase order validation failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	// Orders start in Pending unless a known status is supplied
	if req.Status == "" {
		req.Status = model.StatusPending
	}
	if !model.ValidStatus(req.Status) {
		log.Warn("Unknown purchase order status", zap.String("status", req.Status))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unknown purchase order status",
		})
	}

	// The owning vendor must exist
	var vendor model.Vendor
	if result := database.GetDB().First(&vendor, req.VendorID); result.Error != nil {
		log.Warn("Vendor not found for purchase order", zap.Uint("vendor_id", req.VendorID))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Check if an order with the same PO number exists
	var count int64
	database.GetDB().Model(&model.PurchaseOrder{}).
		Where("po_number = ?", req.PONumber).
		Count(&count)
	if count > 0 {
		log.Warn("Purchase order with this number already exists", zap.String("po_number", req.PONumber))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Purchase order with this number already exists",
		})
	}

	order := model.PurchaseOrder{
		PONumber:      req.PONumber,
		VendorID:      req.VendorID,
		OrderDate:     req.OrderDate,
		DeliveryDate:  req.DeliveryDate,
		IssueDate:     req.IssueDate,
		Items:         req.Items,
		Quantity:      req.Quantity,
		Status:        req.Status,
		QualityRating: req.QualityRating,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&order); result.Error != nil {
		log.Error("Failed to create purchase order",
			zap.String("po_number", req.PONumber),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create purchase order",
		})
	}

	// An order saved in Completed status is a recalculation trigger point
	if order.Status == model.StatusCompleted {
		engine := performance.NewEngine(database.GetDB(), log)
		if err := engine.Recalculate(order.VendorID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to recalculate vendor metrics",
			})
		}
	}

	log.Info("Purchase order created successfully",
		zap.Uint("id", order.ID),
		zap.String("po_number", order.PONumber),
		zap.Uint("vendor_id", order.VendorID),
		zap.String("status", order.Status))
	return c.JSON(http.StatusCreated, order)
}

// GetPurchaseOrder retrieves a purchase order by ID
func GetPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found", zap.Uint64("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	return c.JSON(http.StatusOK, order)
}

// ListPurchaseOrders retrieves purchase orders with optional vendor and
// status filters
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("list")

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

	var filterVendorID uint64
	if vendorID := c.QueryParam("vendor_id"); vendorID != "" {
		if vid, err := strconv.ParseUint(vendorID, 10, 32); err == nil {
			filterVendorID = vid
			log.Info("Filtering purchase orders by vendor", zap.Uint64("vendor_id", vid))
		} else {
			log.Warn("Invalid vendor_id parameter", zap.String("value", vendorID), zap.Error(err))
		}
	}
	filterStatus := c.QueryParam("status")
	if filterStatus != "" {
		log.Info("Filtering purchase orders by status", zap.String("status", filterStatus))
	}

	// filter applies the query parameters to a fresh statement; the count and
	// the page query must not share one, or the count inherits LIMIT/OFFSET
	filter := func(db *gorm.DB) *gorm.DB {
		if filterVendorID != 0 {
			db = db.Where("vendor_id = ?", filterVendorID)
		}
		if filterStatus != "" {
			db = db.Where("status = ?", filterStatus)
		}
		return db
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := filter(database.GetDB().Model(&model.PurchaseOrder{})).Count(&total).Error; err != nil {
		log.Error("Failed to count purchase orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}

	var orders []model.PurchaseOrder
	result := filter(database.GetDB()).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&orders)
	if result.Error != nil {
		log.Error("Failed to retrieve purchase orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"purchase_orders": orders,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdatePurchaseOrder updates an existing purchase order. Status transitions
// are not restricted here; only the acknowledge endpoint guards state.
func UpdatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("order_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if err := c.Validate(&req); err != nil {
		log.Warn("Purchase order validation failed", zap.Uint64("order_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}
	if req.Status != "" && !model.ValidStatus(req.Status) {
		log.Warn("Unknown purchase order status", zap.String("status", req.Status))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unknown purchase order status",
		})
	}

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found for update", zap.Uint64("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Check if the PO number is changed and if the new one already exists
	if req.PONumber != order.PONumber {
		var count int64
		database.GetDB().Model(&model.PurchaseOrder{}).
			Where("po_number = ? AND id != ?", req.PONumber, id).
			Count(&count)
		if count > 0 {
			log.Warn("Purchase order with this number already exists", zap.String("po_number", req.PONumber))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Purchase order with this number already exists",
			})
		}
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	order.PONumber = req.PONumber
	order.OrderDate = req.OrderDate
	order.DeliveryDate = req.DeliveryDate
	order.IssueDate = req.IssueDate
	order.Items = req.Items
	order.Quantity = req.Quantity
	if req.Status != "" {
		order.Status = req.Status
	}
	order.QualityRating = req.QualityRating
	// VendorID and AcknowledgmentDate are not updatable here

	if result := database.GetDB().Save(&order); result.Error != nil {
		log.Error("Failed to update purchase order", zap.Uint64("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update purchase order",
		})
	}

	// An order updated into Completed status is a recalculation trigger point
	if order.Status == model.StatusCompleted {
		engine := performance.NewEngine(database.GetDB(), log)
		if err := engine.Recalculate(order.VendorID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to recalculate vendor metrics",
			})
		}
	}

	log.Info("Purchase order updated successfully",
		zap.Uint("id", order.ID),
		zap.String("po_number", order.PONumber),
		zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// DeletePurchaseOrder deletes a purchase order and recalculates the owning
// vendor's metrics without it
func DeletePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found for delete", zap.Uint64("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := database.GetDB().Delete(&order); result.Error != nil {
		log.Error("Failed to delete purchase order", zap.Uint("order_id", order.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}

	// Order deletion is a recalculation trigger point
	engine := performance.NewEngine(database.GetDB(), log)
	if err := engine.Recalculate(order.VendorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to recalculate vendor metrics",
		})
	}

	log.Info("Purchase order deleted successfully",
		zap.Uint("order_id", order.ID),
		zap.String("po_number", order.PONumber),
		zap.Uint("vendor_id", order.VendorID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Purchase order deleted successfully",
	})
}

// AcknowledgePurchaseOrder records the vendor's acknowledgment of an order.
//
// Precondition: the order is in Accepted status. A second acknowledgment is
// a no-op; the original acknowledgment date is kept.
func AcknowledgePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("acknowledge")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid purchase order ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid purchase order ID",
		})
	}

	var order model.PurchaseOrder
	if result := database.GetDB().First(&order, id); result.Error != nil {
		log.Warn("Purchase order not found for acknowledge", zap.Uint64("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	if order.Status != model.StatusAccepted {
		log.Warn("Acknowledge rejected: order not in Accepted status",
			zap.Uint("order_id", order.ID),
			zap.String("status", order.Status))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Only orders in Accepted status can be acknowledged",
		})
	}

	if order.AcknowledgmentDate != nil {
		// Idempotent: keep the original acknowledgment date
		log.Info("Purchase order already acknowledged",
			zap.Uint("order_id", order.ID),
			zap.Time("acknowledgment_date", *order.AcknowledgmentDate))
		return c.JSON(http.StatusOK, order)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	now := time.Now()
	order.AcknowledgmentDate = &now
	if result := database.GetDB().Save(&order); result.Error != nil {
		log.Error("Failed to acknowledge purchase order", zap.Uint("order_id", order.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to acknowledge purchase order",
		})
	}

	// Acknowledgment is a recalculation trigger point
	engine := performance.NewEngine(database.GetDB(), log)
	if err := engine.Recalculate(order.VendorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to recalculate vendor metrics",
		})
	}

	log.Info("Purchase order acknowledged",
		zap.Uint("order_id", order.ID),
		zap.String("po_number", order.PONumber),
		zap.Uint("vendor_id", order.VendorID))
	return c.JSON(http.StatusOK, order)
}
