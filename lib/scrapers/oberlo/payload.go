package oberlo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// the embedded payload read from the orders page. every field the
// flattener depends on is a pointer tagged required: the payload shape
// is assumed stable, so an absent field means the vendor changed the
// page and the whole page must fail rather than emit partial rows.
type ordersPayload struct {
	CurrentPage *int       `json:"current_page" validate:"required"`
	LastPage    *int       `json:"last_page" validate:"required"`
	PerPage     *int       `json:"per_page" validate:"required"`
	Data        []rawOrder `json:"data" validate:"dive"`
}

type rawOrder struct {
	OrderName         *string          `json:"order_name" validate:"required"`
	ProcessedAt       *string          `json:"processed_at" validate:"required"`
	TotalPrice        *decimal.Decimal `json:"total_price" validate:"required"`
	FinancialStatus   *string          `json:"financial_status" validate:"required"`
	FulfillmentStatus *string          `json:"fulfillment_status" validate:"required"`
	ShippingName      *string          `json:"shipping_name" validate:"required"`
	ShippingZip       *string          `json:"shipping_zip" validate:"required"`
	ShippingCity      *string          `json:"shipping_city" validate:"required"`
	ShippingAddress1  *string          `json:"shipping_address1" validate:"required"`
	ShippingAddress2  *string          `json:"shipping_address2" validate:"required"`
	LocalNote         *string          `json:"local_note" validate:"required"`
	OrderItems        []rawOrderItem   `json:"orderitems" validate:"dive"`
}

type rawOrderItem struct {
	AliOrderNo   *string          `json:"ali_order_no" validate:"required"`
	SKU          *string          `json:"sku" validate:"required"`
	SupplierName *string          `json:"supplier_name" validate:"required"`
	Title        *string          `json:"title" validate:"required"`
	VariantTitle *string          `json:"variant_title" validate:"required"`
	Cost         *decimal.Decimal `json:"cost" validate:"required"`
	Quantity     *int             `json:"quantity" validate:"required"`
	Price        *decimal.Decimal `json:"price" validate:"required"`
	Fulfillments []rawFulfillment `json:"fulfillments" validate:"dive"`
}

type rawFulfillment struct {
	TrackingNumber *string `json:"tracking_number" validate:"required"`
}

var validate = validator.New()

func decodeOrdersPage(raw []byte) (ordersPayload, error) {
	var payload ordersPayload
	err := json.Unmarshal(raw, &payload)
	if err != nil {
		return ordersPayload{}, fmt.Errorf("payload: %w", err)
	}

	// `required` on a slice rejects legitimately empty lists, so
	// presence is checked by hand: nil means the field was absent
	if payload.Data == nil {
		return ordersPayload{}, fmt.Errorf("payload: missing field data")
	}
	for i, order := range payload.Data {
		if order.OrderItems == nil {
			return ordersPayload{}, fmt.Errorf("payload: order %d: missing field orderitems", i)
		}
		for j, item := range order.OrderItems {
			if item.Fulfillments == nil {
				return ordersPayload{}, fmt.Errorf("payload: order %d item %d: missing field fulfillments", i, j)
			}
		}
	}

	err = validate.Struct(payload)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			return ordersPayload{}, fmt.Errorf(
				"payload: missing field %s",
				fieldErrors[0].Namespace(),
			)
		}
		return ordersPayload{}, fmt.Errorf("payload: %w", err)
	}

	return payload, nil
}
