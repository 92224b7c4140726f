package domain

// Roles carried by a session.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// SellerProfile is the store record created when a buyer registers as a
// seller.
type SellerProfile struct {
	StoreName   string `json:"storeName"`
	Bio         string `json:"bio,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}
