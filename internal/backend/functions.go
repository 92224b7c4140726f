package backend

// Remote function names.
const (
	fnGetCart           = "getCart"
	fnUpdateCart        = "updateCart"
	fnRemoveFromCart    = "removeFromCart"
	fnAddToCart         = "addToCart"
	fnCreateOrder       = "createOrder"
	fnGetOrder          = "getOrder"
	fnFetchAllProducts  = "fetchAllProducts"
	fnGetSingleProduct  = "getSingleProduct"
	fnGetSellerProducts = "getSellerProducts"
	fnGetSellerOrders   = "getSellerOrders"
	fnAddProduct        = "addProduct"
	fnUpdateProduct     = "updateProduct"
	fnDeleteProduct     = "deleteProduct"
	fnCompleteOrder     = "completeOrder"
	fnRegisterSeller    = "registerSeller"
	fnLogOut            = "logOut"
)
