package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"vendor-service/internal/model"
	"vendor-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePurchaseOrder(t *testing.T) {
	e := setupTest(t)
	vendor := createTestVendor(t, e, "ACME-1")

	t.Run("DefaultsToPending", func(t *testing.T) {
		order := createTestOrder(t, e, vendor.ID, "PO-1", "", nil)
		assert.Equal(t, model.StatusPending, order.Status)
		assert.Nil(t, order.AcknowledgmentDate)
	})

	t.Run("CompletedTriggersRecalculation", func(t *testing.T) {
		createTestOrder(t, e, vendor.ID, "PO-2", model.StatusCompleted, nil)

		var got model.Vendor
		require.NoError(t, database.GetDB().First(&got, vendor.ID).Error)
		assert.Equal(t, 50.0, got.FulfillmentRate) // 1 of 2 orders completed
	})

	t.Run("DuplicateNumber", func(t *testing.T) {
		body := `{"po_number":"PO-1","vendor_id":` + itoa(vendor.ID) + `,` +
			`"order_date":"2024-03-01T12:00:00Z","delivery_date":"2024-03-02T12:00:00Z",` +
			`"issue_date":"2024-03-01T12:00:00Z","quantity":5}`
		rec := call(e, CreatePurchaseOrder, http.MethodPost, body, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("UnknownVendor", func(t *testing.T) {
		body := `{"po_number":"PO-9","vendor_id":9999,` +
			`"order_date":"2024-03-01T12:00:00Z","delivery_date":"2024-03-02T12:00:00Z",` +
			`"issue_date":"2024-03-01T12:00:00Z","quantity":5}`
		rec := call(e, CreatePurchaseOrder, http.MethodPost, body, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		body := `{"po_number":"PO-10","vendor_id":` + itoa(vendor.ID) + `,` +
			`"order_date":"2024-03-01T12:00:00Z","delivery_date":"2024-03-02T12:00:00Z",` +
			`"issue_date":"2024-03-01T12:00:00Z","quantity":5,"status":"Teleported"}`
		rec := call(e, CreatePurchaseOrder, http.MethodPost, body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MissingQuantity", func(t *testing.T) {
		body := `{"po_number":"PO-11","vendor_id":` + itoa(vendor.ID) + `,` +
			`"order_date":"2024-03-01T12:00:00Z","delivery_date":"2024-03-02T12:00:00Z",` +
			`"issue_date":"2024-03-01T12:00:00Z"}`
		rec := call(e, CreatePurchaseOrder, http.MethodPost, body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdatePurchaseOrderToCompleted(t *testing.T) {
	e := setupTest(t)
	vendor := createTestVendor(t, e, "ACME-1")
	order := createTestOrder(t, e, vendor.ID, "PO-1", model.StatusShipmentSent, nil)

	body := `{"po_number":"PO-1","vendor_id":` + itoa(vendor.ID) + `,` +
		`"order_date":"2024-03-01T12:00:00Z","delivery_date":"2024-03-02T12:00:00Z",` +
		`"issue_date":"2024-03-01T12:00:00Z","quantity":10,"status":"Completed"}`
	rec := call(e, UpdatePurchaseOrder, http.MethodPut, body, itoa(order.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got model.Vendor
	require.NoError(t, database.GetDB().First(&got, vendor.ID).Error)
	assert.Equal(t, 100.0, got.FulfillmentRate)
}

func TestDeletePurchaseOrderRecalculates(t *testing.T) {
	e := setupTest(t)
	vendor := createTestVendor(t, e, "ACME-1")
	// Pending order first; the completed save is the recalculation trigger
	createTestOrder(t, e, vendor.ID, "PO-2", model.StatusPending, nil)
	completed := createTestOrder(t, e, vendor.ID, "PO-1", model.StatusCompleted, nil)

	var got model.Vendor
	require.NoError(t, database.GetDB().First(&got, vendor.ID).Error)
	require.Equal(t, 50.0, got.FulfillmentRate)

	rec := call(e, DeletePurchaseOrder, http.MethodDelete, "", itoa(completed.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	// The deleted completed order is excluded from the new pass
	require.NoError(t, database.GetDB().First(&got, vendor.ID).Error)
	assert.Equal(t, 0.0, got.FulfillmentRate)
}

func TestAcknowledgePurchaseOrder(t *testing.T) {
	e := setupTest(t)
	vendor := createTestVendor(t, e, "ACME-1")

	t.Run("NotAcceptedIsRejected", func(t *testing.T) {
		order := createTestOrder(t, e, vendor.ID, "PO-1", model.StatusPending, nil)

		rec := call(e, AcknowledgePurchaseOrder, http.MethodPost, "", itoa(order.ID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		// State unchanged
		var got model.PurchaseOrder
		require.NoError(t, database.GetDB().First(&got, order.ID).Error)
		assert.Nil(t, got.AcknowledgmentDate)
		assert.Equal(t, model.StatusPending, got.Status)
	})

	t.Run("AcceptedSetsDateAndRecalculates", func(t *testing.T) {
		order := createTestOrder(t, e, vendor.ID, "PO-2", model.StatusAccepted, nil)

		rec := call(e, AcknowledgePurchaseOrder, http.MethodPost, "", itoa(order.ID))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got model.PurchaseOrder
		require.NoError(t, database.GetDB().First(&got, order.ID).Error)
		require.NotNil(t, got.AcknowledgmentDate)

		// Acknowledgment triggered a recalculation pass
		var count int64
		database.GetDB().Model(&model.HistoricalPerformance{}).
			Where("vendor_id = ?", vendor.ID).Count(&count)
		assert.NotZero(t, count)
	})

	t.Run("SecondAcknowledgeIsNoOp", func(t *testing.T) {
		order := createTestOrder(t, e, vendor.ID, "PO-3", model.StatusAccepted, nil)

		rec := call(e, AcknowledgePurchaseOrder, http.MethodPost, "", itoa(order.ID))
		require.Equal(t, http.StatusOK, rec.Code)

		var first model.PurchaseOrder
		require.NoError(t, database.GetDB().First(&first, order.ID).Error)
		require.NotNil(t, first.AcknowledgmentDate)

		rec = call(e, AcknowledgePurchaseOrder, http.MethodPost, "", itoa(order.ID))
		require.Equal(t, http.StatusOK, rec.Code)

		var second model.PurchaseOrder
		require.NoError(t, database.GetDB().First(&second, order.ID).Error)
		require.NotNil(t, second.AcknowledgmentDate)
		assert.True(t, first.AcknowledgmentDate.Equal(*second.AcknowledgmentDate),
			"acknowledgment date must not change on repeat calls")
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := call(e, AcknowledgePurchaseOrder, http.MethodPost, "", "9999")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListPurchaseOrdersFilters(t *testing.T) {
	e := setupTest(t)
	v1 := createTestVendor(t, e, "ACME-1")
	v2 := createTestVendor(t, e, "ACME-2")
	createTestOrder(t, e, v1.ID, "PO-1", model.StatusCompleted, nil)
	createTestOrder(t, e, v1.ID, "PO-2", model.StatusPending, nil)
	createTestOrder(t, e, v2.ID, "PO-3", model.StatusCompleted, nil)

	req := newListRequest(t, e, "/?vendor_id="+itoa(v1.ID)+"&status=Completed")
	var resp struct {
		PurchaseOrders []model.PurchaseOrder `json:"purchase_orders"`
	}
	require.NoError(t, json.Unmarshal(req, &resp))
	require.Len(t, resp.PurchaseOrders, 1)
	assert.Equal(t, "PO-1", resp.PurchaseOrders[0].PONumber)
}

func TestListPurchaseOrdersPagination(t *testing.T) {
	e := setupTest(t)
	vendor := createTestVendor(t, e, "ACME-1")
	createTestOrder(t, e, vendor.ID, "PO-1", model.StatusPending, nil)
	createTestOrder(t, e, vendor.ID, "PO-2", model.StatusPending, nil)
	createTestOrder(t, e, vendor.ID, "PO-3", model.StatusPending, nil)

	var resp struct {
		PurchaseOrders []model.PurchaseOrder `json:"purchase_orders"`
		Pagination     struct {
			CurrentPage int   `json:"current_page"`
			Limit       int   `json:"limit"`
			Total       int64 `json:"total"`
			TotalPages  int   `json:"total_pages"`
		} `json:"pagination"`
	}

	t.Run("FirstPage", func(t *testing.T) {
		body := newListRequest(t, e, "/?page=1&limit=2")
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Len(t, resp.PurchaseOrders, 2)
		assert.Equal(t, int64(3), resp.Pagination.Total)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
	})

	// The total must not inherit the page query's LIMIT/OFFSET
	t.Run("SecondPageKeepsTotal", func(t *testing.T) {
		body := newListRequest(t, e, "/?page=2&limit=2")
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Len(t, resp.PurchaseOrders, 1)
		assert.Equal(t, int64(3), resp.Pagination.Total)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
		assert.Equal(t, 2, resp.Pagination.CurrentPage)
	})

	t.Run("SecondPageWithFilter", func(t *testing.T) {
		body := newListRequest(t, e, "/?page=2&limit=2&vendor_id="+itoa(vendor.ID))
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Len(t, resp.PurchaseOrders, 1)
		assert.Equal(t, int64(3), resp.Pagination.Total)
	})
}
