package controller

import (
	"net/http"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

// publicRoutesHandler serves the unauthenticated surface. There is no
// session here: possession of the emailed token is the whole authorization.
type publicRoutesHandler struct {
	proposalService service.Proposal
	contractService service.Contract
	validate        *validator.Validate
}

func newPublicRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *publicRoutesHandler {
	h := &publicRoutesHandler{proposalService: services.Proposal, contractService: services.Contract, validate: v}

	outer.GET("/proposals/public/:proposalId/status", h.GetProposalStatus)
	outer.POST("/proposals/public/:proposalId/accept", h.AcceptProposal)
	outer.POST("/proposals/public/:proposalId/reject", h.RejectProposal)
	outer.GET("/contracts/public/:contractId/status", h.GetContractStatus)
	outer.POST("/contracts/public/:contractId/sign", h.SignContract)

	return h
}

// /proposals/public/:proposalId/status
func (h *publicRoutesHandler) GetProposalStatus(c echo.Context) error {
	status, err := h.proposalService.GetPublicProposalStatus(c.Request().Context(), c.Param("proposalId"), c.QueryParam("token"))
	if err != nil {
		code, msg := serviceErrorStatus(err)
		return c.JSON(code, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

func (h *publicRoutesHandler) respond(c echo.Context, response string) error {
	proposal, err := h.proposalService.RespondToProposal(
		c.Request().Context(), c.Param("proposalId"), c.QueryParam("token"), response, c.RealIP())
	if err != nil {
		code, msg := serviceErrorStatus(err)
		return c.JSON(code, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}

// /proposals/public/:proposalId/accept
func (h *publicRoutesHandler) AcceptProposal(c echo.Context) error {
	return h.respond(c, common.ResponseAccepted)
}

// /proposals/public/:proposalId/reject
func (h *publicRoutesHandler) RejectProposal(c echo.Context) error {
	return h.respond(c, common.ResponseRejected)
}

// /contracts/public/:contractId/status
func (h *publicRoutesHandler) GetContractStatus(c echo.Context) error {
	status, err := h.contractService.GetPublicContractStatus(c.Request().Context(), c.Param("contractId"), c.QueryParam("token"))
	if err != nil {
		code, msg := serviceErrorStatus(err)
		return c.JSON(code, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

type signContractInput struct {
	SignedPdfUrl string `json:"signedPdfUrl" validate:"required,max=2000"`
}

// /contracts/public/:contractId/sign
func (h *publicRoutesHandler) SignContract(c echo.Context) error {
	var input signContractInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	contract, err := h.contractService.SignContract(
		c.Request().Context(), c.Param("contractId"), c.QueryParam("token"), input.SignedPdfUrl, c.RealIP())
	if err != nil {
		code, msg := serviceErrorStatus(err)
		return c.JSON(code, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, contract)
}
