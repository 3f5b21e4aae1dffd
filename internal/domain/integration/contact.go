package integration

import "encoding/json"

// MatchIdentifierEmail is the only identifier contacts are matched on.
const MatchIdentifierEmail = "email"

// MergeOption controls how a contact patch merges data fields.
type MergeOption string

const (
	MergeOptionOverwrite MergeOption = "overwrite"
	MergeOptionIgnore    MergeOption = "ignore"
)

// ContactIdentifiers holds the identifiers of a contact.
type ContactIdentifiers struct {
	Email string `json:"email"`
}

// Contact is the marketing platform contact payload. Lists is sent whenever
// it was set with WithLists, even when empty.
type Contact struct {
	MatchIdentifier string             `json:"matchIdentifier"`
	Identifiers     ContactIdentifiers `json:"identifiers"`
	DataFields      map[string]any     `json:"dataFields,omitempty"`
	Lists           []int64            `json:"lists,omitempty"`
}

// NewContact creates a contact matched by email.
func NewContact(email string) Contact {
	return Contact{
		MatchIdentifier: MatchIdentifierEmail,
		Identifiers:     ContactIdentifiers{Email: email},
	}
}

// WithDataFields returns a copy of the contact carrying fields.
func (c Contact) WithDataFields(fields map[string]any) Contact {
	c.DataFields = fields
	return c
}

// WithLists returns a copy of the contact enrolled in lists.
func (c Contact) WithLists(lists ...int64) Contact {
	c.Lists = append(make([]int64, 0, len(lists)), lists...)
	return c
}

// MarshalJSON keeps an explicitly empty list so the platform receives "lists": [].
func (c Contact) MarshalJSON() ([]byte, error) {
	type contact Contact
	out := struct {
		contact
		Lists *[]int64 `json:"lists,omitempty"`
	}{contact: contact(c)}
	if c.Lists != nil {
		out.Lists = &c.Lists
	}
	return json.Marshal(out)
}

// ListIDs converts an event supplied list array into list ids, skipping
// entries that are not numbers.
func ListIDs(v any) []int64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if id, ok := ToInt(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
