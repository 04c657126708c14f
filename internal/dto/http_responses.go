package dto

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	DocumentNotFound  = "DOCUMENT_NOT_FOUND"
	NoSession         = "NO_SESSION"
	NoActiveEvent     = "NO_ACTIVE_EVENT"
	AlvaraNotIssued   = "ALVARA_NOT_ISSUED"
	InvalidTransition = "INVALID_INPUT"

	LoginPage    = "/login"
	NewEventPage = "/nova-solicitacao"
)

type LoginRequest struct {
	Name  string `json:"name" validate:"notblank,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
}

type DocumentRequest struct {
	Name      string   `json:"name" validate:"notblank,max=255"`
	Authority string   `json:"authority" validate:"max=255"`
	Kind      string   `json:"type" validate:"required,oneof=upload payment self_declaration"`
	Amount    *float64 `json:"amount,omitempty"`
}

// CreateEventRequest starts a permit request. Without Documents the
// default checklist is used, with Fee as the licensing fee.
type CreateEventRequest struct {
	Name         string            `json:"name" validate:"notblank,max=255"`
	Location     string            `json:"location" validate:"notblank,max=255"`
	Date         time.Time         `json:"date" validate:"required,future"`
	Attendance   int               `json:"attendance" validate:"positive"`
	AutoApproved bool              `json:"auto_approved"`
	Fee          float64           `json:"fee" validate:"gte=0"`
	Documents    []DocumentRequest `json:"documents" validate:"omitempty,dive"`
}

type SubmitRequest struct {
	FileName string `json:"file_name" validate:"max=255"`
	Comment  string `json:"comment" validate:"max=1000"`
}

type DeclarationRequest struct {
	Checks  []bool `json:"checks" validate:"required"`
	Comment string `json:"comment" validate:"max=1000"`
}

type TitleRequest struct {
	Title string `json:"title" validate:"notblank,max=255"`
}

type RejectRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type EmailResponse struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code     string `json:"code"`
	Desc     string `json:"desc"`
	Redirect string `json:"redirect,omitempty"`
}

func errorResponse(c *ginext.Context, status int, e Error) {
	c.JSON(status, Response{
		Status: "error",
		Error:  &e,
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	errorResponse(c, http.StatusBadRequest, Error{Code: code, Desc: desc})
}

func InternalServerError(c *ginext.Context) {
	errorResponse(c, http.StatusInternalServerError, Error{Code: ServiceUnavailable, Desc: InternalError})
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func FieldIncorrectError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldIncorrect, "Field '"+fieldName+"' is incorrect")
}

func DocumentNotFoundError(c *ginext.Context, desc string) {
	errorResponse(c, http.StatusNotFound, Error{Code: DocumentNotFound, Desc: desc})
}

// PreconditionFailedError tells the client which page has to come first.
func PreconditionFailedError(c *ginext.Context, code, desc, redirect string) {
	errorResponse(c, http.StatusPreconditionFailed, Error{Code: code, Desc: desc, Redirect: redirect})
}

func AlvaraNotIssuedError(c *ginext.Context) {
	errorResponse(c, http.StatusConflict, Error{Code: AlvaraNotIssued, Desc: "Alvará is not issued until every document is settled"})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Status: "ok",
		Data:   data,
	})
}
