package controller

import (
	"net/http"

	"proposal-management-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

type contractRoutesHandler struct {
	contractService service.Contract
	validate        *validator.Validate
}

func newContractRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *contractRoutesHandler {
	h := &contractRoutesHandler{contractService: services.Contract, validate: v}

	outer.GET("/contracts/:contractId", h.GetContract)
	outer.POST("/contracts/:contractId/request", h.SubmitRequest)
	outer.POST("/contracts/:contractId/document", h.AttachDocument)
	outer.POST("/contracts/:contractId/send-to-sales", h.SendToSales)
	outer.POST("/contracts/:contractId/send", h.SendToClient)
	outer.POST("/contracts/:contractId/hardbound", h.ReceiveHardbound)

	return h
}

// /contracts/:contractId
func (h *contractRoutesHandler) GetContract(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	contract, err := h.contractService.GetContractById(c.Request().Context(), c.Param("contractId"), username)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, contract)
}

type submitRequestInput struct {
	Username string `query:"username" validate:"required"`
	Details  string `json:"details" validate:"required,max=2000"`
}

// /contracts/:contractId/request
func (h *contractRoutesHandler) SubmitRequest(c echo.Context) error {
	var input submitRequestInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}

	input.Username = c.QueryParam("username")
	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	contract, err := h.contractService.SubmitContractRequest(c.Request().Context(), c.Param("contractId"), input.Username, input.Details)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, contract)
}

type attachDocumentInput struct {
	Username string `query:"username" validate:"required"`
	PdfUrl   string `json:"pdfUrl" validate:"required,max=2000"`
}

// /contracts/:contractId/document
func (h *contractRoutesHandler) AttachDocument(c echo.Context) error {
	var input attachDocumentInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}

	input.Username = c.QueryParam("username")
	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	contract, err := h.contractService.AttachContractDocument(c.Request().Context(), c.Param("contractId"), input.Username, input.PdfUrl)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, contract)
}

// /contracts/:contractId/send-to-sales
func (h *contractRoutesHandler) SendToSales(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	contract, err := h.contractService.SendContractToSales(c.Request().Context(), c.Param("contractId"), username)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, contract)
}

// /contracts/:contractId/hardbound
func (h *contractRoutesHandler) ReceiveHardbound(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	contract, err := h.contractService.ReceiveHardbound(c.Request().Context(), c.Param("contractId"), username)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, contract)
}

// /contracts/:contractId/send
func (h *contractRoutesHandler) SendToClient(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	contract, err := h.contractService.SendContractToClient(c.Request().Context(), c.Param("contractId"), username)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, contract)
}
