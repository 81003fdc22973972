// internal/handlers/checkout.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sapphirus/sapphirus-backend/internal/i18n"
	"github.com/sapphirus/sapphirus-backend/internal/services"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// POST /checkout
//
// A 409 response means the cart was corrected against the live catalog
// since the customer last saw it; the body carries the corrected cart and
// the notices, and the client asks the customer to confirm again.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
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

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	response, err := h.checkoutService.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		var cartChanged *services.CartChangedError
		switch {
		case errors.As(err, &cartChanged):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyCheckoutCartChanged), gin.H{
				"items":   cartChanged.Result.Items,
				"total":   cartChanged.Result.Items.Total(),
				"notices": localizeNotices(cartChanged.Result.Notices, lang),
			})
		case errors.Is(err, services.ErrCartEmpty):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartEmpty), nil)
		case errors.Is(err, services.ErrAddressNotFound):
			utils.NotFoundResponse(c, "address")
		default:
			utils.ServiceUnavailableResponse(c, "")
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"order":         response.Order,
		"client_secret": response.ClientSecret,
	})
}
