package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRecord() Record {
	return Record{
		"entity_id":           json.Number("42"),
		"increment_id":        "000000042",
		"quote_id":            json.Number("99"),
		"status":              "pending",
		"grand_total":         "115.50",
		"subtotal":            "100.00",
		"discount_amount":     "-4.50",
		"shipping_amount":     "20.00",
		"order_currency_code": "EUR",
		"created_at":          "2024-03-05 10:20:30",
		"customer_email":      "jane@example.com",
		"store_name":          "Main Website\nMain Website Store\nDefault Store View",
		"shipping_description": "Flat Rate - Fixed",
		"payment": map[string]any{
			"additional_information": map[string]any{"method_title": "Check / Money order"},
		},
		"items": []any{
			map[string]any{"item_id": json.Number("1"), "product_id": json.Number("10"), "product_type": "simple", "name": "Mug", "sku": "MUG", "price": "50.00", "qty_ordered": json.Number("2")},
		},
		"addresses": []any{
			map[string]any{"address_type": "billing", "street": "1 Bill Rd", "city": "A", "region": "R", "country_id": "DE", "postcode": "10115"},
			map[string]any{"address_type": "shipping", "street": "1 Ship Rd", "city": "B", "region": "S", "country_id": "DE", "postcode": "20095"},
		},
	}
}

func TestBuildOrderData(t *testing.T) {
	data, err := BuildOrderData(orderRecord())
	require.NoError(t, err)

	assert.Equal(t, "000000042", data.ID)
	assert.Equal(t, json.Number("99"), data.QuoteID)
	assert.Equal(t, "pending", data.OrderStatus)
	assert.Equal(t, 115.5, data.OrderTotal)
	assert.Equal(t, 100.0, data.OrderSubtotal)
	assert.Equal(t, -4.5, data.DiscountAmount)
	assert.Equal(t, 20.0, data.DeliveryTotal)
	assert.Equal(t, "EUR", data.Currency)
	assert.Equal(t, "2024-03-05T10:20:30.000Z", data.PurchaseDate)
	assert.Equal(t, "Default Store View", data.StoreName)
	assert.Equal(t, "Check / Money order", data.Payment)
	assert.Equal(t, "Flat Rate - Fixed", data.DeliveryMethod)
	assert.Equal(t, "", data.CouponCode)
	require.Len(t, data.Products, 1)
	assert.Equal(t, "MUG", data.Products[0].SKU)
	require.NotNil(t, data.DeliveryAddress)
	require.NotNil(t, data.BillingAddress)
	assert.Equal(t, "1 Ship Rd", data.DeliveryAddress.Address1)
	assert.Equal(t, "1 Bill Rd", data.BillingAddress.Address1)
}

func TestBuildOrderData_InvalidTimestamp(t *testing.T) {
	order := orderRecord()
	order["created_at"] = "yesterday"

	_, err := BuildOrderData(order)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestBuildOrderData_CouponCode(t *testing.T) {
	order := orderRecord()
	order["coupon_code"] = "SPRING10"

	data, err := BuildOrderData(order)

	require.NoError(t, err)
	assert.Equal(t, "SPRING10", data.CouponCode)
}

func TestApplyAddresses_ShippingOnly(t *testing.T) {
	addresses := []any{
		map[string]any{"address_type": "shipping", "street": "1 Rd", "city": "X", "region": "Y", "country_id": "US", "postcode": "1"},
	}

	out := ApplyAddresses(OrderData{ID: "1"}, addresses)

	require.NotNil(t, out.DeliveryAddress)
	assert.Equal(t, OrderAddress{Address1: "1 Rd", Address2: "", City: "X", Region: "Y", Country: "US", Postcode: "1"}, *out.DeliveryAddress)
	assert.Nil(t, out.BillingAddress)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "billingAddress")
}

func TestApplyAddresses_LastOfTypeWins(t *testing.T) {
	addresses := []any{
		map[string]any{"address_type": "billing", "street": "first"},
		map[string]any{"address_type": "billing", "street": "second"},
		map[string]any{"address_type": "other", "street": "ignored"},
	}

	out := ApplyAddresses(OrderData{}, addresses)

	require.NotNil(t, out.BillingAddress)
	assert.Equal(t, "second", out.BillingAddress.Address1)
	assert.Nil(t, out.DeliveryAddress)
}

func TestApplyAddresses_DoesNotMutateInput(t *testing.T) {
	in := OrderData{ID: "1"}

	_ = ApplyAddresses(in, []any{map[string]any{"address_type": "shipping", "street": "1 Rd"}})

	assert.Nil(t, in.DeliveryAddress)
}

func TestPaymentTitle(t *testing.T) {
	tests := []struct {
		name     string
		payment  any
		expected string
	}{
		{"object", map[string]any{"additional_information": map[string]any{"method_title": "PayPal"}}, "PayPal"},
		{"array of strings", map[string]any{"additional_information": []any{"Bank Transfer", "x"}}, "Bank Transfer"},
		{"array of objects", map[string]any{"additional_information": []any{map[string]any{"method_title": "Card"}}}, "Card"},
		{"empty array", map[string]any{"additional_information": []any{}}, ""},
		{"missing", map[string]any{}, ""},
		{"not an object", "cash", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PaymentTitle(tt.payment))
		})
	}
}

func TestFormatInstant(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected string
		wantErr  bool
	}{
		{"mysql datetime", "2024-01-02 03:04:05", "2024-01-02T03:04:05.000Z", false},
		{"rfc3339 with offset", "2024-01-02T03:04:05+02:00", "2024-01-02T01:04:05.000Z", false},
		{"date only", "2024-01-02", "2024-01-02T00:00:00.000Z", false},
		{"unix millis", json.Number("1704164645000"), "2024-01-02T03:04:05.000Z", false},
		{"garbage", "not a date", "", true},
		{"nil", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatInstant(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimestamp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "Default Store View", LastLine("Main Website\nMain Store\nDefault Store View"))
	assert.Equal(t, "Single", LastLine("Single"))
	assert.Equal(t, "", LastLine("trailing\n"))
}
