package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/metrics"
	"storefront-auth/internal/service/customer"
	"storefront-auth/internal/service/order"
)

type handlers struct {
	deps         Deps
	cookieSecure bool
	logger       *zap.Logger
}

// fail maps service errors onto status codes.
func (h *handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, customer.ErrInvalidCredentials):
		status, msg = http.StatusBadRequest, "invalid credentials"
	case errors.Is(err, order.ErrPartialPlacement):
		status, msg = http.StatusBadRequest, "order could not be completed"
	case isCookieTooLarge(err):
		status, msg = http.StatusBadRequest, "cart too large"
	case errors.Is(err, domain.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (h *handlers) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("productid"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *handlers) viewCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.CartSvc.View(sessionFrom(c)))
}

func (h *handlers) addToCart(c *gin.Context) {
	pid, ok := productIDParam(c)
	if !ok {
		h.badRequest(c, "productid must be a positive integer")
		return
	}
	rec, err := h.deps.CartSvc.AddProduct(c.Request.Context(), sessionFrom(c), pid)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec.Message = "Product added to cart"
	h.writeSession(c, rec)
}

func (h *handlers) removeFromCart(c *gin.Context) {
	pid, ok := productIDParam(c)
	if !ok {
		h.badRequest(c, "productid must be a positive integer")
		return
	}
	rec, err := h.deps.CartSvc.RemoveProduct(sessionFrom(c), pid)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec.Message = "Product removed from cart"
	h.writeSession(c, rec)
}

func (h *handlers) updateCart(c *gin.Context) {
	pid, ok := productIDParam(c)
	if !ok {
		h.badRequest(c, "productid must be a positive integer")
		return
	}
	qty, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		h.badRequest(c, "quantity must be an integer")
		return
	}
	rec, err := h.deps.CartSvc.UpdateQuantity(sessionFrom(c), pid, qty)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec.Message = "Cart updated"
	h.writeSession(c, rec)
}

func (h *handlers) login(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		name = c.PostForm("name")
	}
	password, ok := c.GetQuery("password")
	if !ok {
		password = c.PostForm("password")
	}
	if strings.TrimSpace(name) == "" || password == "" {
		metrics.RecordLogin("bad_request")
		h.badRequest(c, "name and password are required")
		return
	}

	rec, err := h.deps.CustomerSvc.Login(c.Request.Context(), sessionFrom(c), name, password)
	switch {
	case err == nil:
		metrics.RecordLogin("success")
	case errors.Is(err, customer.ErrInvalidCredentials):
		metrics.RecordLogin("invalid_credentials")
		h.fail(c, err)
		return
	default:
		metrics.RecordLogin("error")
		h.fail(c, err)
		return
	}
	rec.Message = "Login successful"
	h.writeSession(c, rec)
}

func (h *handlers) logout(c *gin.Context) {
	h.clearSession(c)
	c.JSON(http.StatusOK, h.deps.CustomerSvc.Logout())
}

func (h *handlers) isLoggedIn(c *gin.Context) {
	rec, ok := h.deps.CustomerSvc.IsLoggedIn(sessionFrom(c))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not logged in"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) bindDetails(c *gin.Context) (domain.CheckoutDetails, bool) {
	var details domain.CheckoutDetails
	if c.Request.ContentLength == 0 {
		if err := c.ShouldBindQuery(&details); err != nil {
			h.badRequest(c, "invalid checkout fields")
			return details, false
		}
		return details, true
	}
	if err := c.ShouldBind(&details); err != nil {
		h.badRequest(c, "invalid checkout fields")
		return details, false
	}
	return details, true
}

func (h *handlers) saveCheckout(c *gin.Context) {
	details, ok := h.bindDetails(c)
	if !ok {
		return
	}
	rec, err := h.deps.OrderSvc.SaveDraft(sessionFrom(c), details)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec.Message = "Checkout details saved"
	h.writeSession(c, rec)
}

func (h *handlers) placeOrder(c *gin.Context) {
	details, ok := h.bindDetails(c)
	if !ok {
		return
	}
	res, err := h.deps.OrderSvc.Place(c.Request.Context(), sessionFrom(c), details)
	if err != nil {
		metrics.RecordOrderPlacement(placementOutcome(err))
		h.fail(c, err)
		return
	}
	metrics.RecordOrderPlacement("placed")
	h.logger.Info("order placed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Int64("order_id", res.Order.ID),
	)
	rec := res.Session
	rec.Message = "Your order is confirmed"
	h.writeSession(c, rec)
}

func placementOutcome(err error) string {
	switch {
	case errors.Is(err, order.ErrPartialPlacement):
		return "partial"
	case errors.Is(err, domain.ErrNotFound):
		return "no_cart"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "unavailable"
	}
}
