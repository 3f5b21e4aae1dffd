package integration

// OrdersCollection is the contact-scoped insight collection orders are stored in.
const OrdersCollection = "Orders"

// CollectionScope is the owner of an insight data collection.
type CollectionScope string

const (
	CollectionScopeAccount CollectionScope = "account"
	CollectionScopeContact CollectionScope = "contact"
)

// CollectionType is the kind of records an insight data collection holds.
type CollectionType string

const (
	CollectionTypeCatalog CollectionType = "catalog"
	CollectionTypeOrders  CollectionType = "orders"
)

// ContactIdentity links a contact-scoped insight record to its contact.
type ContactIdentity struct {
	Identifier string `json:"identifier"`
	Value      string `json:"value"`
}

// InsightRecord is one record of an insight data import.
type InsightRecord struct {
	Key             string           `json:"key"`
	ContactIdentity *ContactIdentity `json:"contactIdentity,omitempty"`
	JSON            any              `json:"json"`
}

// InsightImport declares a collection and supplies its records. Importing
// creates the collection when it does not exist yet.
type InsightImport struct {
	CollectionName  string          `json:"collectionName"`
	CollectionScope CollectionScope `json:"collectionScope"`
	CollectionType  CollectionType  `json:"collectionType"`
	Records         []InsightRecord `json:"records"`
}

// NewCatalogImport wraps a single account-scoped catalog record.
func NewCatalogImport(collection, key string, payload any) InsightImport {
	return InsightImport{
		CollectionName:  collection,
		CollectionScope: CollectionScopeAccount,
		CollectionType:  CollectionTypeCatalog,
		Records:         []InsightRecord{{Key: key, JSON: payload}},
	}
}

// NewContactOrderImport wraps a single order record owned by the contact with email.
func NewContactOrderImport(email, key string, payload any) InsightImport {
	return InsightImport{
		CollectionName:  OrdersCollection,
		CollectionScope: CollectionScopeContact,
		CollectionType:  CollectionTypeOrders,
		Records: []InsightRecord{{
			Key:             key,
			ContactIdentity: &ContactIdentity{Identifier: MatchIdentifierEmail, Value: email},
			JSON:            payload,
		}},
	}
}
