// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthPasswordReset      = "auth.password_reset"
	KeyAuthEmailVerified      = "auth.email_verified"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserDeleted        = "user.deleted"

	// Products
	KeyProductCreated    = "product.created"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"
	KeyProductNotFound   = "product.not_found"
	KeyProductOutOfStock = "product.out_of_stock"

	// Cart
	KeyCartItemAdded        = "cart.item_added"
	KeyCartItemUpdated      = "cart.item_updated"
	KeyCartItemRemoved      = "cart.item_removed"
	KeyCartCleared          = "cart.cleared"
	KeyCartMerged           = "cart.merged"
	KeyCartItemUnavailable  = "cart.item_unavailable"
	KeyCartItemOutOfStock   = "cart.item_out_of_stock"
	KeyCartQuantityReduced  = "cart.quantity_reduced"
	KeyCartAdjusted         = "cart.adjusted"
	KeyCartEmpty            = "cart.empty"

	// Checkout / payments
	KeyCheckoutCartChanged = "checkout.cart_changed"
	KeyPaymentSuccess      = "payment.success"
	KeyPaymentFailed       = "payment.failed"
	KeyPaymentRefunded     = "payment.refunded"

	// Orders
	KeyOrderNotFound  = "order.not_found"
	KeyOrderCancelled = "order.cancelled"

	// Addresses
	KeyAddressCreated  = "address.created"
	KeyAddressUpdated  = "address.updated"
	KeyAddressDeleted  = "address.deleted"
	KeyAddressNotFound = "address.not_found"

	// Admin
	KeyAdminAccessDenied   = "admin.access_denied"
	KeyAdminSettingUpdated = "admin.setting_updated"
)
