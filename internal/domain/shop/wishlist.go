package shop

// WishlistEntry is one saved product. The wishlist has set semantics keyed
// by product ID; the backend rejects duplicate adds.
type WishlistEntry struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Image       string `json:"image,omitempty"`
}

// WishlistContains reports membership of productID in the given entries.
func WishlistContains(entries []WishlistEntry, productID int64) bool {
	for i := range entries {
		if entries[i].ProductID == productID {
			return true
		}
	}
	return false
}
