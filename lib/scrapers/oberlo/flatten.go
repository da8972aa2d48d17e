package oberlo

import (
	"fmt"
	"strings"
	"time"

	"ordersync-backend/lib/orders"
	"ordersync-backend/lib/timezone"
)

// flattenOrders turns one page of the embedded payload into flat rows,
// one per order item. Order-level fields are duplicated onto every row
// of the same order; there is no shared order entity in the output.
func flattenOrders(payload ordersPayload) ([]orders.Row, error) {
	var rows []orders.Row

	for _, order := range payload.Data {
		created, err := time.ParseInLocation(
			orders.DateLayout, *order.ProcessedAt, timezone.Location,
		)
		if err != nil {
			return nil, fmt.Errorf("payload: order %s: bad processed_at: %w", *order.OrderName, err)
		}

		for _, item := range order.OrderItems {
			trackingNumbers := make([]string, len(item.Fulfillments))
			for i, fulfillment := range item.Fulfillments {
				trackingNumbers[i] = *fulfillment.TrackingNumber
			}

			rows = append(rows, orders.Row{
				OrderNumber:       *order.OrderName,
				CreatedDate:       created,
				FinancialStatus:   *order.FinancialStatus,
				FulfillmentStatus: *order.FulfillmentStatus,
				Supplier:          *item.SupplierName,
				SKU:               *item.SKU,
				ProductName:       *item.Title,
				Variant:           *item.VariantTitle,
				Quantity:          *item.Quantity,
				ProductPrice:      *item.Price,
				Cost:              *item.Cost,
				TotalPrice:        *order.TotalPrice,
				TrackingNumber:    strings.Join(trackingNumbers, ", "),
				AliOrderNumber:    *item.AliOrderNo,
				CustomerName:      *order.ShippingName,
				CustomerAddress:   *order.ShippingAddress1,
				CustomerAddress2:  *order.ShippingAddress2,
				CustomerCity:      *order.ShippingCity,
				CustomerZip:       *order.ShippingZip,
				OrderNote:         *order.LocalNote,
			})
		}
	}

	return rows, nil
}
