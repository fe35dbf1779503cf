package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

const msgInternal = "Internal server error"

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes err using the status and code of the *apierr.Error it wraps.
// Unclassified failures are recorded on the context for the request logger and reported as 500.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.As(err)
	if ae == nil {
		ae = apierr.Internal(errors.New("nil error"))
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if ae.Code == "internal_error" {
		RespondError(c, ae.Status, ae.Code, errors.New(msgInternal))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

// RespondBindError turns a gin binding failure into a 400.
func RespondBindError(c *gin.Context, err error) {
	RespondAPIError(c, BindError(err))
}

// BindError maps validator failures on required fields to the generic missing fields message.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() != "required" {
				return apierr.BadRequest("Invalid value for " + fe.Field())
			}
		}
		return apierr.BadRequest("Missing required fields")
	}
	return apierr.BadRequest("Invalid request body")
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondMessage writes {"message": msg} merged with extra.
func RespondMessage(c *gin.Context, status int, msg string, extra gin.H) {
	body := gin.H{"message": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
