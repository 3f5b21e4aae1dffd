package integration

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Catalog product display values.
const (
	ProductStatusEnabled  = "Enabled"
	ProductStatusDisabled = "Disabled"
	ProductTypeVariant    = "Variant"
)

// CatalogProduct is a product as stored in the catalog collection.
type CatalogProduct struct {
	ID          any    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Stock       any    `json:"stock"`
	SKU         string `json:"sku"`
	CreatedDate string `json:"created_date"`
	Price       any    `json:"price"`
	URL         string `json:"url"`
	ImagePath   string `json:"imagePath"`
	ParentID    any    `json:"parent_id,omitempty"`
}

// BuildProductEntry transforms a commerce product event into a catalog
// product. storeLinkURL and storeMediaURL are the product store's link and
// media base URLs.
func BuildProductEntry(product Record, storeLinkURL, storeMediaURL string) (CatalogProduct, error) {
	created, err := FormatInstant(product["created_at"])
	if err != nil {
		return CatalogProduct{}, err
	}

	var stock any
	if stockData, ok := product.Map("stock_data"); ok {
		stock = stockData["qty"]
	}

	entry := CatalogProduct{
		ID:          product["entity_id"],
		Name:        product.String("name"),
		Type:        CapitalizeFirst(product.String("type_id")),
		Status:      ProductStatus(product["status"]),
		Stock:       stock,
		SKU:         product.String("sku"),
		CreatedDate: created,
		Price:       product["price"],
		URL:         storeLinkURL + product.String("url_key") + ".html",
		ImagePath:   storeMediaURL + "catalog/product" + product.String("image"),
	}
	if parentID := product["parent_id"]; Truthy(parentID) {
		entry.ParentID = parentID
		entry.Type = ProductTypeVariant
	}
	return entry, nil
}

// ProductStatus is Enabled only for the status string "1".
func ProductStatus(status any) string {
	if s, ok := status.(string); ok && s == "1" {
		return ProductStatusEnabled
	}
	return ProductStatusDisabled
}

// CapitalizeFirst upper-cases the first character and keeps the rest as is.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + s[size:]
}
