package integration

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Address types on an order.
const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
)

// InstantLayout is the ISO-8601 instant format sent to the marketing platform.
const InstantLayout = "2006-01-02T15:04:05.000Z"

// acceptedTimeLayouts are tried in order. Layouts without a zone are UTC.
var acceptedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// OrderAddress is the projection of an order address.
type OrderAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Postcode string `json:"postcode"`
}

// OrderData is an order as stored in the contact "Orders" collection.
type OrderData struct {
	ID              string         `json:"id"`
	QuoteID         any            `json:"quoteId"`
	OrderStatus     string         `json:"orderStatus"`
	OrderTotal      float64        `json:"orderTotal"`
	Currency        string         `json:"currency"`
	PurchaseDate    string         `json:"purchaseDate"`
	OrderSubtotal   float64        `json:"orderSubtotal"`
	Products        []ProductEntry `json:"products"`
	StoreName       string         `json:"storeName"`
	DiscountAmount  float64        `json:"discountAmount"`
	Payment         string         `json:"payment"`
	DeliveryMethod  string         `json:"deliveryMethod"`
	DeliveryTotal   float64        `json:"deliveryTotal"`
	CouponCode      string         `json:"couponCode"`
	DeliveryAddress *OrderAddress  `json:"deliveryAddress,omitempty"`
	BillingAddress  *OrderAddress  `json:"billingAddress,omitempty"`
}

// BuildOrderData transforms a commerce order event into OrderData, including
// line items and addresses.
func BuildOrderData(order Record) (OrderData, error) {
	purchaseDate, err := FormatInstant(order["created_at"])
	if err != nil {
		return OrderData{}, err
	}
	items, _ := order.Slice("items")
	data := OrderData{
		ID:             order.String("increment_id"),
		QuoteID:        order["quote_id"],
		OrderStatus:    order.String("status"),
		OrderTotal:     ParseAmount(order["grand_total"]),
		Currency:       order.String("order_currency_code"),
		PurchaseDate:   purchaseDate,
		OrderSubtotal:  ParseAmount(order["subtotal"]),
		Products:       BuildLineItems(LineItemsFromSlice(items)),
		StoreName:      LastLine(order.String("store_name")),
		DiscountAmount: ParseAmount(order["discount_amount"]),
		Payment:        PaymentTitle(order["payment"]),
		DeliveryMethod: order.String("shipping_description"),
		DeliveryTotal:  ParseAmount(order["shipping_amount"]),
		CouponCode:     order.String("coupon_code"),
	}
	addresses, _ := order.Slice("addresses")
	return ApplyAddresses(data, addresses), nil
}

// ApplyAddresses returns a copy of order with a delivery address for each
// shipping entry and a billing address for each billing entry. When a type
// repeats, the last entry wins.
func ApplyAddresses(order OrderData, addresses []any) OrderData {
	for _, entry := range addresses {
		address, ok := AsRecord(entry)
		if !ok {
			continue
		}
		projection := OrderAddress{
			Address1: address.String("street"),
			Address2: "",
			City:     address.String("city"),
			Region:   address.String("region"),
			Country:  address.String("country_id"),
			Postcode: address.String("postcode"),
		}
		switch address.String("address_type") {
		case AddressTypeShipping:
			order.DeliveryAddress = &projection
		case AddressTypeBilling:
			order.BillingAddress = &projection
		}
	}
	return order
}

// PaymentTitle extracts payment.additional_information.method_title. The
// additional information may be an object or an array whose first element is
// the title.
func PaymentTitle(payment any) string {
	p, ok := AsRecord(payment)
	if !ok {
		return ""
	}
	switch info := p["additional_information"].(type) {
	case map[string]any:
		return StringOf(info["method_title"])
	case Record:
		return StringOf(info["method_title"])
	case []any:
		if len(info) == 0 {
			return ""
		}
		if r, ok := AsRecord(info[0]); ok {
			return StringOf(r["method_title"])
		}
		return StringOf(info[0])
	default:
		return ""
	}
}

// LastLine returns the text after the last newline.
func LastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// FormatInstant converts a commerce timestamp into an ISO-8601 UTC instant
// with millisecond precision. Numbers are read as Unix milliseconds.
func FormatInstant(v any) (string, error) {
	switch t := v.(type) {
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidTimestamp, t.String())
		}
		return time.UnixMilli(ms).UTC().Format(InstantLayout), nil
	case float64:
		return time.UnixMilli(int64(t)).UTC().Format(InstantLayout), nil
	case int64:
		return time.UnixMilli(t).UTC().Format(InstantLayout), nil
	case int:
		return time.UnixMilli(int64(t)).UTC().Format(InstantLayout), nil
	case time.Time:
		return t.UTC().Format(InstantLayout), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range acceptedTimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC().Format(InstantLayout), nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrInvalidTimestamp, t)
	default:
		return "", fmt.Errorf("%w: %v", ErrInvalidTimestamp, v)
	}
}
