package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

// 支払いと注文履歴
type OrderHandler struct {
	payment *usecase.PaymentUsecase
	orders  *usecase.OrderUsecase
}

// DI
func NewOrderHandler(payment *usecase.PaymentUsecase, orders *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{payment: payment, orders: orders}
}

type PaymentRequest struct {
	CardNumber     string `json:"cardNumber"`
	DateExpiration string `json:"dateExpiration"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/order")
	g.Use(middleware.Session(cfg))
	g.POST("/paymentProcess", h.paymentProcess)
	g.GET("/history", h.history)
}

func (h *OrderHandler) paymentProcess(c echo.Context) error {
	sid, ok := getSessionIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("Idempotency-Key")
	if idemKey == "" {
		idemKey = c.Request().Header.Get("X-Idempotency-Key")
	}

	out, err := h.payment.Pay(c.Request().Context(), usecase.PaymentInput{
		SessionID:      sid,
		CardNumber:     req.CardNumber,
		DateExpiration: req.DateExpiration,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	//1行も確定しなければ409（本文に行ごとのエラー）
	if !out.Fulfilled() {
		return c.JSON(http.StatusConflict, out)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) history(c echo.Context) error {
	sid, ok := getSessionIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	lines, err := h.orders.History(c.Request().Context(), sid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}
