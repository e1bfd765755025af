package controller

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/identra/identra/logger"
	"github.com/identra/identra/web/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return ips[0]
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// jsonMsg sends a success envelope with a message and optional data.
func jsonMsg(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, entity.Msg{
		Message: msg,
		Data:    data,
	})
}

// problem sends a business-rule failure as a short title.
func problem(c *gin.Context, statusCode int, title string) {
	c.JSON(statusCode, entity.Problem{Title: title})
}

// validationProblem translates a binding error into field-level messages.
func validationProblem(c *gin.Context, err error) {
	fieldErrors := make(map[string][]string)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := jsonFieldName(fe.Field())
			fieldErrors[field] = append(fieldErrors[field], msgForTag(fe))
		}
	} else {
		fieldErrors["body"] = []string{"invalid request payload"}
	}

	c.JSON(http.StatusBadRequest, entity.ValidationProblem{Errors: fieldErrors})
}

// internalError logs the cause and replies with an opaque 500 body.
func internalError(c *gin.Context, msg string, err error) {
	logger.Error(msg+": ", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + jsonFieldName(fe.Field()) + " field is required."
	case "email":
		return "The " + jsonFieldName(fe.Field()) + " field must be a valid email address."
	default:
		return "The " + jsonFieldName(fe.Field()) + " field is invalid."
	}
}
