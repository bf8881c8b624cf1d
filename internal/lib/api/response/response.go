package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SpinResponse acknowledges a spin request.
type SpinResponse struct {
	Response
	Accepted bool `json:"accepted"`
}

const (
	StatusOK = 200
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string, status int) Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return Response{
		Status: status,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is required", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "oneof":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be one of %s", err.Field(), err.Param()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}

	return Response{
		Status: http.StatusBadRequest,
		Error:  strings.Join(errMsgs, ", "),
	}
}
