// internal/handlers/cart.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sapphirus/sapphirus-backend/internal/i18n"
	"github.com/sapphirus/sapphirus-backend/internal/services"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
	guestCarts  *services.GuestCartStore
}

func NewCartHandler(cartService *services.CartService, guestCarts *services.GuestCartStore) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		guestCarts:  guestCarts,
	}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	owner, token, ok := h.resolveOwner(c, false)
	if !ok {
		return
	}

	items, err := h.cartService.GetCart(c.Request.Context(), owner)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	h.respondCart(c, token, gin.H{
		"items": items,
		"total": items.Total(),
	})
}

// GET /cart/reconciled
//
// Returns the cart after running it against the live catalog, with the
// notices produced by any corrections. The storefront calls this when
// rendering the cart page.
func (h *CartHandler) GetReconciledCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	owner, token, ok := h.resolveOwner(c, false)
	if !ok {
		return
	}

	result, err := h.cartService.ReconcileCart(c.Request.Context(), owner)
	if err != nil {
		utils.ServiceUnavailableResponse(c, "")
		return
	}

	h.respondCart(c, token, gin.H{
		"items":   result.Items,
		"total":   result.Items.Total(),
		"changed": result.Changed,
		"notices": localizeNotices(result.Notices, lang),
	})
}

// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	owner, token, ok := h.resolveOwner(c, true)
	if !ok {
		return
	}

	items, err := h.cartService.AddItem(c.Request.Context(), owner, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			utils.NotFoundResponse(c, "product")
		case errors.Is(err, services.ErrOutOfStock):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductOutOfStock), nil)
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	h.respondCart(c, token, gin.H{
		"message": i18n.T(lang, i18n.KeyCartItemAdded),
		"items":   items,
		"total":   items.Total(),
	})
}

// PUT /cart/items
func (h *CartHandler) UpdateItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	owner, token, ok := h.resolveOwner(c, false)
	if !ok {
		return
	}

	items, err := h.cartService.UpdateItem(c.Request.Context(), owner, &req)
	if err != nil {
		if errors.Is(err, services.ErrItemNotInCart) {
			utils.NotFoundResponse(c, "cart.item")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	h.respondCart(c, token, gin.H{
		"message": i18n.T(lang, i18n.KeyCartItemUpdated),
		"items":   items,
		"total":   items.Total(),
	})
}

// DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}
	size := c.Query("size")

	owner, token, ok := h.resolveOwner(c, false)
	if !ok {
		return
	}

	items, err := h.cartService.RemoveItem(c.Request.Context(), owner, productID, size)
	if err != nil {
		if errors.Is(err, services.ErrItemNotInCart) {
			utils.NotFoundResponse(c, "cart.item")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	h.respondCart(c, token, gin.H{
		"message": i18n.T(lang, i18n.KeyCartItemRemoved),
		"items":   items,
		"total":   items.Total(),
	})
}

// DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	owner, token, ok := h.resolveOwner(c, false)
	if !ok {
		return
	}

	if err := h.cartService.ClearCart(c.Request.Context(), owner); err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	h.respondCart(c, token, gin.H{
		"message": i18n.T(lang, i18n.KeyCartCleared),
	})
}

// POST /cart/merge
//
// Explicitly merges the guest cart named by X-Cart-Token into the
// authenticated user's cart. Sign-in does this automatically; this
// endpoint covers clients that authenticate through a restored session.
func (h *CartHandler) MergeCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	token := c.GetHeader("X-Cart-Token")
	if token == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "cart token"), nil)
		return
	}

	items, err := h.cartService.MergeGuestCart(c.Request.Context(), userID, token)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartMerged),
		"items":   items,
		"total":   items.Total(),
	})
}

// resolveOwner picks the cart the request operates on: the authenticated
// user's, or a guest cart addressed by X-Cart-Token. When mint is set a
// missing guest token is created on the fly so a first "add to cart"
// works without a prior handshake; the token comes back in the response.
func (h *CartHandler) resolveOwner(c *gin.Context, mint bool) (services.CartOwner, string, bool) {
	if userIDStr, exists := utils.GetUserIDFromContext(c); exists {
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user ID", nil)
			return services.CartOwner{}, "", false
		}
		return services.UserCartOwner(userID), "", true
	}

	token := c.GetHeader("X-Cart-Token")
	if token == "" {
		if !mint {
			utils.SuccessResponse(c, gin.H{
				"items": []interface{}{},
				"total": 0,
			})
			return services.CartOwner{}, "", false
		}

		newToken, err := h.guestCarts.NewToken()
		if err != nil {
			utils.InternalErrorResponse(c, "")
			return services.CartOwner{}, "", false
		}
		token = newToken
	}

	return services.GuestCartOwner(token), token, true
}

func (h *CartHandler) respondCart(c *gin.Context, token string, data gin.H) {
	if token != "" {
		data["cart_token"] = token
	}
	utils.SuccessResponse(c, data)
}

func localizeNotices(notices []services.CartNotice, lang string) []gin.H {
	out := make([]gin.H, 0, len(notices))
	for _, n := range notices {
		out = append(out, gin.H{
			"kind":       n.Kind,
			"product_id": n.ProductID,
			"name":       n.Name,
			"available":  n.Available,
			"message":    n.Localize(lang),
		})
	}
	return out
}
