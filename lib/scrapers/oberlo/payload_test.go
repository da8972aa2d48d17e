package oberlo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMissingPagination(t *testing.T) {
	_, err := decodeOrdersPage([]byte(`{"current_page": 1, "per_page": 50, "data": []}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing field")
}

func TestDecodeMissingData(t *testing.T) {
	_, err := decodeOrdersPage([]byte(`{"current_page": 1, "last_page": 1, "per_page": 50}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "data")
}

func TestDecodeMissingOrderField(t *testing.T) {
	// shipping_city is absent
	raw := []byte(`{
		"current_page": 1, "last_page": 1, "per_page": 50,
		"data": [{
			"order_name": "#1", "processed_at": "2023-05-01 10:30:00",
			"total_price": "1", "financial_status": "paid",
			"fulfillment_status": "fulfilled", "shipping_name": "n",
			"shipping_zip": "z",
			"shipping_address1": "a", "shipping_address2": "",
			"local_note": "", "orderitems": []
		}]
	}`)
	_, err := decodeOrdersPage(raw)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing field")
}

func TestDecodeMissingFulfillments(t *testing.T) {
	raw := []byte(`{
		"current_page": 1, "last_page": 1, "per_page": 50,
		"data": [{
			"order_name": "#1", "processed_at": "2023-05-01 10:30:00",
			"total_price": "1", "financial_status": "paid",
			"fulfillment_status": "fulfilled", "shipping_name": "n",
			"shipping_zip": "z", "shipping_city": "c",
			"shipping_address1": "a", "shipping_address2": "",
			"local_note": "",
			"orderitems": [{
				"ali_order_no": "8", "sku": "s", "supplier_name": "sup",
				"title": "t", "variant_title": "", "cost": "1",
				"quantity": 1, "price": "2"
			}]
		}]
	}`)
	_, err := decodeOrdersPage(raw)
	require.Error(t, err)
	require.Contains(t, err.Error(), "fulfillments")
}

func TestDecodeNumericPrices(t *testing.T) {
	// prices arrive as json numbers on some pages, strings on others
	raw := []byte(`{
		"current_page": 1, "last_page": 1, "per_page": 50,
		"data": [{
			"order_name": "#1", "processed_at": "2023-05-01 10:30:00",
			"total_price": 59.9, "financial_status": "paid",
			"fulfillment_status": "fulfilled", "shipping_name": "n",
			"shipping_zip": "z", "shipping_city": "c",
			"shipping_address1": "a", "shipping_address2": "",
			"local_note": "",
			"orderitems": [{
				"ali_order_no": "8", "sku": "s", "supplier_name": "sup",
				"title": "t", "variant_title": "", "cost": 1.25,
				"quantity": 1, "price": 2.5, "fulfillments": []
			}]
		}]
	}`)
	payload, err := decodeOrdersPage(raw)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "1.25", payload.Data[0].OrderItems[0].Cost.String())
}
