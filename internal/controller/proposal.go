package controller

import (
	"encoding/json"
	"net/http"

	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
)

type proposalRoutesHandler struct {
	proposalService service.Proposal
	validate        *validator.Validate
}

func newProposalRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *proposalRoutesHandler {
	h := &proposalRoutesHandler{proposalService: services.Proposal, validate: v}

	outer.POST("/proposals/new", h.PostProposal)
	outer.GET("/proposals", h.GetUserProposals)
	outer.GET("/proposals/:proposalId", h.GetProposal)
	outer.GET("/proposals/:proposalId/activity", h.GetProposalActivity)
	outer.PATCH("/proposals/:proposalId/edit", h.EditProposal)
	outer.POST("/proposals/:proposalId/approve", h.ApproveProposal)
	outer.POST("/proposals/:proposalId/reject", h.RejectProposal)
	outer.POST("/proposals/:proposalId/send", h.SendProposal)
	outer.POST("/proposals/:proposalId/cancel", h.CancelProposal)

	return h
}

type postProposalInput struct {
	Username      string          `query:"username" validate:"required"`
	InquiryId     string          `json:"inquiryId" validate:"required,uuid"`
	ServiceType   string          `json:"serviceType" validate:"required,max=100"`
	ClientEmail   string          `json:"clientEmail" validate:"required,email"`
	ClientCompany string          `json:"clientCompany" validate:"required,max=200"`
	ProposalData  json.RawMessage `json:"proposalData" validate:"required"`
}

// /proposals/new
func (h *proposalRoutesHandler) PostProposal(c echo.Context) error {
	var input postProposalInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}

	input.Username = c.QueryParam("username")
	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	model := &entity.CreateProposalInput{
		InquiryId:     input.InquiryId,
		ServiceType:   input.ServiceType,
		ProposalData:  input.ProposalData,
		ClientEmail:   input.ClientEmail,
		ClientCompany: input.ClientCompany,
		RequestedBy:   input.Username,
	}

	proposal, err := h.proposalService.CreateProposal(c.Request().Context(), model)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}

type listProposalsInput struct {
	Username string `query:"username" validate:"required"`
	Limit    int32  `query:"limit" validate:"gte=0,lte=50"`
	Offset   int32  `query:"offset" validate:"gte=0"`
}

// /proposals
func (h *proposalRoutesHandler) GetUserProposals(c echo.Context) error {
	input := listProposalsInput{Limit: defaultLimit, Offset: defaultOffset}
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	pg := entity.NewPaginationInput(int(input.Limit), int(input.Offset))
	proposals, err := h.proposalService.GetUserProposals(c.Request().Context(), input.Username, pg)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposals)
}

// /proposals/:proposalId
func (h *proposalRoutesHandler) GetProposal(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	proposal, err := h.proposalService.GetProposalById(c.Request().Context(), c.Param("proposalId"), username)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}

// /proposals/:proposalId/activity
func (h *proposalRoutesHandler) GetProposalActivity(c echo.Context) error {
	input := listProposalsInput{Limit: defaultLimit, Offset: defaultOffset}
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	pg := entity.NewPaginationInput(int(input.Limit), int(input.Offset))
	entries, err := h.proposalService.GetProposalActivity(c.Request().Context(), c.Param("proposalId"), input.Username, pg)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, entries)
}

type editProposalInput struct {
	Username     string          `query:"username" validate:"required"`
	ServiceType  string          `json:"serviceType" validate:"max=100"`
	ProposalData json.RawMessage `json:"proposalData" validate:"required"`
}

// /proposals/:proposalId/edit
func (h *proposalRoutesHandler) EditProposal(c echo.Context) error {
	var input editProposalInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}

	input.Username = c.QueryParam("username")
	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	proposal, err := h.proposalService.EditProposal(c.Request().Context(), c.Param("proposalId"), input.Username, input.ProposalData, input.ServiceType)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}

// /proposals/:proposalId/approve
func (h *proposalRoutesHandler) ApproveProposal(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	proposal, err := h.proposalService.ReviewProposal(c.Request().Context(), c.Param("proposalId"), username, true, "")
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}

type rejectProposalInput struct {
	Username string `query:"username" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

// /proposals/:proposalId/reject
func (h *proposalRoutesHandler) RejectProposal(c echo.Context) error {
	var input rejectProposalInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
	}

	input.Username = c.QueryParam("username")
	if err := h.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	proposal, err := h.proposalService.ReviewProposal(c.Request().Context(), c.Param("proposalId"), input.Username, false, input.Reason)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}

// /proposals/:proposalId/send
func (h *proposalRoutesHandler) SendProposal(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	proposal, err := h.proposalService.SendProposal(c.Request().Context(), c.Param("proposalId"), username)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}

// /proposals/:proposalId/cancel
func (h *proposalRoutesHandler) CancelProposal(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"'username': this field is required"})
	}

	proposal, err := h.proposalService.CancelProposal(c.Request().Context(), c.Param("proposalId"), username)
	if err != nil {
		status, msg := serviceErrorStatus(err)
		return c.JSON(status, errorResponse{msg})
	}

	return c.JSON(http.StatusOK, proposal)
}
