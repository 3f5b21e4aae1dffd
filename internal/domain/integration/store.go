package integration

// StoreView is a commerce store view.
type StoreView struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	WebsiteID    int64  `json:"website_id"`
	StoreGroupID int64  `json:"store_group_id"`
	IsActive     int    `json:"is_active"`
}

// Website is a commerce website.
type Website struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	DefaultGroupID int64  `json:"default_group_id"`
}

// CustomerGroup is a commerce customer group.
type CustomerGroup struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	TaxClassID   int64  `json:"tax_class_id"`
	TaxClassName string `json:"tax_class_name"`
}

// StoreConfig carries the URLs configured for a store view.
type StoreConfig struct {
	ID                  int64  `json:"id"`
	Code                string `json:"code"`
	WebsiteID           int64  `json:"website_id"`
	Locale              string `json:"locale"`
	BaseCurrencyCode    string `json:"base_currency_code"`
	Timezone            string `json:"timezone"`
	BaseURL             string `json:"base_url"`
	BaseLinkURL         string `json:"base_link_url"`
	BaseStaticURL       string `json:"base_static_url"`
	BaseMediaURL        string `json:"base_media_url"`
	SecureBaseURL       string `json:"secure_base_url"`
	SecureBaseLinkURL   string `json:"secure_base_link_url"`
	SecureBaseStaticURL string `json:"secure_base_static_url"`
	SecureBaseMediaURL  string `json:"secure_base_media_url"`
}

// URLType selects one of the URLs of a store config.
type URLType string

const (
	URLTypeBase   URLType = "base"
	URLTypeLink   URLType = "link"
	URLTypeStatic URLType = "static"
	URLTypeMedia  URLType = "media"
)

// URL returns the configured URL of the given type. The secure variant wins
// when requested and set. Unknown types resolve to the base URL.
func (c StoreConfig) URL(t URLType, secure bool) string {
	var plain, tls string
	switch t {
	case URLTypeLink:
		plain, tls = c.BaseLinkURL, c.SecureBaseLinkURL
	case URLTypeStatic:
		plain, tls = c.BaseStaticURL, c.SecureBaseStaticURL
	case URLTypeMedia:
		plain, tls = c.BaseMediaURL, c.SecureBaseMediaURL
	default:
		plain, tls = c.BaseURL, c.SecureBaseURL
	}
	if secure && tls != "" {
		return tls
	}
	return plain
}

// FindStoreURL resolves the URL of storeID among configs. The store id is
// parsed as an integer so "1" and 1 match the same store.
func FindStoreURL(configs []StoreConfig, storeID any, t URLType, secure bool) (string, bool) {
	id, ok := ToInt(storeID)
	if !ok {
		return "", false
	}
	for _, c := range configs {
		if c.ID == id {
			return c.URL(t, secure), true
		}
	}
	return "", false
}

// StoreViewName returns the name of the store view with id, or "".
func StoreViewName(views []StoreView, id any) string {
	for _, v := range views {
		if SameID(v.ID, id) {
			return v.Name
		}
	}
	return ""
}

// WebsiteName returns the name of the website with id, or "".
func WebsiteName(websites []Website, id any) string {
	for _, w := range websites {
		if SameID(w.ID, id) {
			return w.Name
		}
	}
	return ""
}
