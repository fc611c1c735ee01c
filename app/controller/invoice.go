package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dagpay/app/factory"
	"github.com/vibast-solutions/ms-go-dagpay/app/gateway"
	"github.com/vibast-solutions/ms-go-dagpay/app/mapper"
	"github.com/vibast-solutions/ms-go-dagpay/app/service"
	"github.com/vibast-solutions/ms-go-dagpay/app/types"
)

const invalidSignatureMessage = "Invalid signature provided"

type InvoiceController struct {
	invoiceService *service.InvoiceService
	logger         logrus.FieldLogger
}

func NewInvoiceController(invoiceService *service.InvoiceService) *InvoiceController {
	return &InvoiceController{
		invoiceService: invoiceService,
		logger:         factory.NewModuleLogger("invoices-controller"),
	}
}

func (c *InvoiceController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *InvoiceController) CreateInvoice(ctx echo.Context) error {
	req, err := types.NewCreateInvoiceRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.invoiceService.CreateInvoice(ctx.Request().Context(), req)
	if err != nil {
		return c.writeCreateError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, &types.CreateInvoiceResponse{
		Invoice:       mapper.InvoiceToResponse(result.Invoice),
		InvoiceID:     result.InvoiceID,
		PaymentURL:    result.PaymentURL,
		CorrelationID: result.CorrelationID,
		Verified:      result.Invoice != nil,
	})
}

// Buy is the shop checkout: it creates an invoice and sends the buyer to the
// gateway payment page.
func (c *InvoiceController) Buy(ctx echo.Context) error {
	req, err := types.NewCreateInvoiceRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.invoiceService.CreateInvoice(ctx.Request().Context(), req)
	if err != nil {
		return c.writeCreateError(ctx, err)
	}

	return ctx.Redirect(http.StatusFound, result.PaymentURL)
}

func (c *InvoiceController) GetInvoice(ctx echo.Context) error {
	req, err := types.NewGetInvoiceRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.invoiceService.GetInvoice(ctx.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "invoice not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get invoice failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.InvoiceEnvelopeResponse{Invoice: mapper.InvoiceToResponse(item)})
}

// HandleStatusCallback answers the gateway. Rejections get a non-2xx status so
// the gateway keeps retrying delivery.
func (c *InvoiceController) HandleStatusCallback(ctx echo.Context) error {
	req, err := types.NewStatusCallbackRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if _, err := c.invoiceService.HandleStatusCallback(ctx.Request().Context(), req); err != nil {
		if errors.Is(err, service.ErrCallbackRejected) {
			return ctx.String(http.StatusInternalServerError, invalidSignatureMessage)
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle status callback failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Status update accepted"})
}

func (c *InvoiceController) writeCreateError(ctx echo.Context, err error) error {
	var remoteErr *gateway.RemoteInvoiceCreationError
	switch {
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrUnknownEnvironment), errors.Is(err, service.ErrInvalidRequest):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRemoteRejected) && errors.As(err, &remoteErr):
		return ctx.JSON(http.StatusBadGateway, &types.RemoteErrorResponse{
			Error:  service.ErrRemoteRejected.Error(),
			Status: remoteErr.StatusCode,
			Data:   remoteBody(remoteErr.Body),
		})
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create invoice failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *InvoiceController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}

func remoteBody(body string) json.RawMessage {
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	encoded, _ := json.Marshal(body)
	return encoded
}
