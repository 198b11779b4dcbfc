package controller

import (
	"fmt"
	"net/http"
	"strings"

	"proposal-management-api/internal/service"

	"github.com/go-playground/validator/v10"
)

const (
	defaultLimit  = 20
	defaultOffset = 0
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// serviceErrorStatus maps the engine's typed failures onto HTTP codes.
// External actors get small plain-language terminal messages; internal
// actors get the specific conflict kind so the UI can refetch.
func serviceErrorStatus(err error) (int, string) {
	switch err {
	case service.ErrProposalNotFound:
		return http.StatusNotFound, "There is no proposal with given id"
	case service.ErrContractNotFound:
		return http.StatusNotFound, "There is no contract with given id"
	case service.ErrEmployeeNotFound:
		return http.StatusUnauthorized, "There is no employee with given username"
	case service.ErrNotOwner:
		return http.StatusForbidden, "You don't have sufficient rights to perform this action"
	case service.ErrNotReviewer:
		return http.StatusForbidden, "Only a reviewer can perform this action"
	case service.ErrAlreadyReviewed:
		return http.StatusBadRequest, "The proposal has already been reviewed"
	case service.ErrWrongState:
		return http.StatusBadRequest, "The requested transition is not possible from the current status"
	case service.ErrInvalidResponse:
		return http.StatusBadRequest, "Response must be accepted or rejected"
	case service.ErrArtifactMissing:
		return http.StatusBadRequest, "The contract document is missing"
	case service.ErrTokenAlreadyConsumed:
		return http.StatusBadRequest, "A response has already been recorded for this link"
	case service.ErrTokenInvalid, service.ErrTokenNotIssued:
		return http.StatusForbidden, "This link is not valid"
	case service.ErrTokenExpired:
		return http.StatusGone, "This link has expired"
	}

	return http.StatusBadRequest, "Error"
}

func getAllErrorMessages(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Input data is not formed correctly"
	}

	var builder strings.Builder
	for _, fe := range validationErrors {
		builder.WriteString(fmt.Sprintf("'%s': %s\n", fe.Field(), getMessage(fe)))
	}

	return builder.String()
}

func getMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	case "oneof":
		return "should have value in: " + fe.Param()
	case "email":
		return "should be a valid email address"
	}

	return "incorrect value passed"
}
