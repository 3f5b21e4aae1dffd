package integration

var subscriberStatusNames = map[string]string{
	"1": "Subscribed",
	"2": "Not Active",
	"3": "Unsubscribed",
	"4": "Unconfirmed",
}

// SubscriberStatusName returns the display name of a newsletter subscriber
// status code, or "" for unknown codes.
func SubscriberStatusName(code any) string {
	id, ok := IDString(code)
	if !ok {
		return ""
	}
	return subscriberStatusNames[id]
}
