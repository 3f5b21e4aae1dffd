package integration

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Commerce product types that shape the line item hierarchy.
const (
	ProductTypeSimple       = "simple"
	ProductTypeConfigurable = "configurable"
	ProductTypeBundle       = "bundle"
)

// LineItem is one order line as sent by the commerce platform.
// Identifiers keep their decoded JSON form.
type LineItem struct {
	ItemID       any
	ProductID    any
	ParentItemID any
	ProductType  string
	Name         string
	Price        any
	SKU          string
	Quantity     any
}

// LineItemFromRecord reads a line item from an order "items" entry.
func LineItemFromRecord(r Record) LineItem {
	return LineItem{
		ItemID:       r["item_id"],
		ProductID:    r["product_id"],
		ParentItemID: r["parent_item_id"],
		ProductType:  r.String("product_type"),
		Name:         r.String("name"),
		Price:        r["price"],
		SKU:          r.String("sku"),
		Quantity:     r["qty_ordered"],
	}
}

// LineItemsFromSlice converts decoded order items, skipping entries that are
// not objects.
func LineItemsFromSlice(items []any) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if r, ok := AsRecord(item); ok {
			out = append(out, LineItemFromRecord(r))
		}
	}
	return out
}

// ProductEntry is an order product as stored on the marketing platform.
// Bundle children are nested in SubItems of their bundle entry.
type ProductEntry struct {
	ProductID  any            `json:"product_id"`
	ParentID   any            `json:"parent_id"`
	ParentName string         `json:"parent_name,omitempty"`
	Name       string         `json:"name"`
	Price      float64        `json:"price"`
	SKU        string         `json:"sku"`
	Qty        any            `json:"qty"`
	SubItems   []ProductEntry `json:"sub_items,omitempty"`
}

// BuildLineItems rebuilds the two level product hierarchy of an order.
// Configurable items are structural and never emitted. A simple child of a
// bundle is nested under the bundle entry already emitted, and its SKU suffix
// is removed from the bundle SKU. A simple child of any other parent is
// emitted at top level with the parent's price.
func BuildLineItems(items []LineItem) []ProductEntry {
	products := make([]ProductEntry, 0, len(items))
	for _, item := range items {
		if item.ProductType == ProductTypeConfigurable {
			continue
		}
		product := ProductEntry{
			ProductID: item.ProductID,
			ParentID:  "",
			Name:      item.Name,
			Price:     ParseAmount(item.Price),
			SKU:       item.SKU,
			Qty:       item.Quantity,
		}

		if item.ProductType == ProductTypeSimple && Truthy(item.ParentItemID) {
			parent, found := findParentItem(items, item.ParentItemID)
			if found && parent.ProductType == ProductTypeBundle {
				product.ParentID = parent.ProductID
				product.ParentName = parent.Name
				if i := indexOfProduct(products, parent.ProductID); i >= 0 {
					products[i].SubItems = append(products[i].SubItems, product)
					products[i].SKU = strings.TrimSuffix(products[i].SKU, "-"+product.SKU)
				}
				continue
			}
			if found {
				product.ParentID = parent.ProductID
				product.ParentName = parent.Name
				product.Price = ParseAmount(parent.Price)
			}
		}
		products = append(products, product)
	}
	return products
}

func findParentItem(items []LineItem, parentItemID any) (LineItem, bool) {
	for _, candidate := range items {
		if SameID(candidate.ItemID, parentItemID) {
			return candidate, true
		}
	}
	return LineItem{}, false
}

func indexOfProduct(products []ProductEntry, productID any) int {
	for i, p := range products {
		if SameID(p.ProductID, productID) {
			return i
		}
	}
	return -1
}

// ParseAmount parses a monetary amount sent as a string or number.
// Values that are not numbers parse to zero.
func ParseAmount(v any) float64 {
	var d decimal.Decimal
	var err error
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(t))
	default:
		return 0
	}
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
