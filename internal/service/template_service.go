package service

import "strings"

// MergeData carries the values merge tags resolve to for one recipient.
// Zero-value fields fall back to the defaults below.
type MergeData struct {
	FirstName string
	LastName  string
	Email     string
	ShopName  string
}

// Merge-tag fallbacks used when the customer/shop field is empty.
const (
	fallbackFirstName = "Customer"
	fallbackShopName  = "Our Shop"
)

// ReplaceMergeTags substitutes every occurrence of the supported merge tags.
// It is plain text substitution, safe inside HTML, and is applied to subject
// and body alike.
func ReplaceMergeTags(template string, data MergeData) string {
	firstName := data.FirstName
	if firstName == "" {
		firstName = fallbackFirstName
	}
	shopName := data.ShopName
	if shopName == "" {
		shopName = fallbackShopName
	}

	result := template
	result = strings.ReplaceAll(result, "{{firstName}}", firstName)
	result = strings.ReplaceAll(result, "{{lastName}}", data.LastName)
	result = strings.ReplaceAll(result, "{{email}}", data.Email)
	result = strings.ReplaceAll(result, "{{shopName}}", shopName)
	return result
}
