package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListWorkties returns catalog templates, or the caller's owned workties
// with owned=true.
// (GET /api/v1/workties)
func (s *Server) ListWorkties(c echo.Context) error {
	ctx := c.Request().Context()
	opts := parseListOptions(c)

	var err error
	var workties any
	if c.QueryParam("owned") == "true" {
		workties, err = s.Registry.ListOwnedWorkties(ctx, s.caller(c), opts)
	} else {
		workties, err = s.Registry.ListCatalog(ctx, c.QueryParam("category"), opts)
	}
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(workties, opts.Fields))
}

// GetWorkty returns one template or owned workty.
// (GET /api/v1/workties/:id)
func (s *Server) GetWorkty(c echo.Context) error {
	opts := parseListOptions(c)
	workty, err := s.Registry.GetWorkty(c.Request().Context(), s.caller(c), c.Param("id"), opts.Embeds)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(workty, opts.Fields))
}

// PurchaseRequest is the body of a purchase call.
type PurchaseRequest struct {
	WorktyID string `json:"workty_id"`
}

// CreatePurchase buys a catalog template for the caller's account.
// (POST /api/v1/purchases)
func (s *Server) CreatePurchase(c echo.Context) error {
	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	result, err := s.Purchases.Purchase(c.Request().Context(), s.caller(c), req.WorktyID)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// ListPayments returns the caller's payment transactions.
// (GET /api/v1/payments)
func (s *Server) ListPayments(c echo.Context) error {
	opts := parseListOptions(c)
	txs, err := s.Registry.ListTransactions(c.Request().Context(), s.caller(c), c.QueryParam("account_id"), opts)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(txs, opts.Fields))
}

// PaymentMessageRequest is the body of a message edit.
type PaymentMessageRequest struct {
	Message string `json:"message"`
}

// UpdatePaymentMessage edits the free-form message of a transaction.
// (PUT /api/v1/payments/:id/message)
func (s *Server) UpdatePaymentMessage(c echo.Context) error {
	var req PaymentMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	tx, err := s.Registry.UpdateTransactionMessage(c.Request().Context(), s.caller(c), c.Param("id"), req.Message)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, tx)
}
