// Package orders holds the flat per-line-item order record produced by
// the oberlo scraper and persisted to cache files. One order with N
// line items becomes N rows sharing every order-level field.
package orders

import (
	"fmt"
	"strconv"
	"time"

	"ordersync-backend/lib/timezone"

	"github.com/shopspring/decimal"
)

// DateLayout is the culture-invariant timestamp format used in cache
// files. Changing it breaks every previously written cache file.
const DateLayout = "2006-01-02 15:04:05"

type Row struct {
	OrderNumber       string
	CreatedDate       time.Time
	FinancialStatus   string
	FulfillmentStatus string
	Supplier          string
	SKU               string
	ProductName       string
	Variant           string
	Quantity          int
	ProductPrice      decimal.Decimal
	Cost              decimal.Decimal
	TotalPrice        decimal.Decimal
	TrackingNumber    string
	AliOrderNumber    string
	CustomerName      string
	CustomerAddress   string
	CustomerAddress2  string
	CustomerCity      string
	CustomerZip       string
	OrderNote         string
}

func (r Row) String() string {
	return fmt.Sprintf(
		"%s %s %s %s %s x %d %s",
		r.OrderNumber,
		r.CreatedDate.Format("2006-01-02"),
		r.AliOrderNumber,
		r.SKU,
		r.CustomerName,
		r.Quantity,
		r.Cost,
	)
}

// Header is the cache file header row; Record and FromRecord must stay
// in the same field order.
func Header() []string {
	return []string{
		"OrderNumber",
		"CreatedDate",
		"FinancialStatus",
		"FulfillmentStatus",
		"Supplier",
		"SKU",
		"ProductName",
		"Variant",
		"Quantity",
		"ProductPrice",
		"Cost",
		"TotalPrice",
		"TrackingNumber",
		"AliOrderNumber",
		"CustomerName",
		"CustomerAddress",
		"CustomerAddress2",
		"CustomerCity",
		"CustomerZip",
		"OrderNote",
	}
}

func (r Row) Record() []string {
	return []string{
		r.OrderNumber,
		r.CreatedDate.Format(DateLayout),
		r.FinancialStatus,
		r.FulfillmentStatus,
		r.Supplier,
		r.SKU,
		r.ProductName,
		r.Variant,
		strconv.Itoa(r.Quantity),
		r.ProductPrice.String(),
		r.Cost.String(),
		r.TotalPrice.String(),
		r.TrackingNumber,
		r.AliOrderNumber,
		r.CustomerName,
		r.CustomerAddress,
		r.CustomerAddress2,
		r.CustomerCity,
		r.CustomerZip,
		r.OrderNote,
	}
}

func FromRecord(record []string) (Row, error) {
	if len(record) != len(Header()) {
		return Row{}, fmt.Errorf("expected %d fields, got %d", len(Header()), len(record))
	}

	created, err := time.ParseInLocation(DateLayout, record[1], timezone.Location)
	if err != nil {
		return Row{}, fmt.Errorf("parse created date: %w", err)
	}
	quantity, err := strconv.Atoi(record[8])
	if err != nil {
		return Row{}, fmt.Errorf("parse quantity: %w", err)
	}
	productPrice, err := decimal.NewFromString(record[9])
	if err != nil {
		return Row{}, fmt.Errorf("parse product price: %w", err)
	}
	cost, err := decimal.NewFromString(record[10])
	if err != nil {
		return Row{}, fmt.Errorf("parse cost: %w", err)
	}
	totalPrice, err := decimal.NewFromString(record[11])
	if err != nil {
		return Row{}, fmt.Errorf("parse total price: %w", err)
	}

	return Row{
		OrderNumber:       record[0],
		CreatedDate:       created,
		FinancialStatus:   record[2],
		FulfillmentStatus: record[3],
		Supplier:          record[4],
		SKU:               record[5],
		ProductName:       record[6],
		Variant:           record[7],
		Quantity:          quantity,
		ProductPrice:      productPrice,
		Cost:              cost,
		TotalPrice:        totalPrice,
		TrackingNumber:    record[12],
		AliOrderNumber:    record[13],
		CustomerName:      record[14],
		CustomerAddress:   record[15],
		CustomerAddress2:  record[16],
		CustomerCity:      record[17],
		CustomerZip:       record[18],
		OrderNote:         record[19],
	}, nil
}
