package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their query or json name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range [...]string{"query", "json"} {
			if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds c into req, fills defaults and validates.
// A non-nil result is ready for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	return ValidateStruct(c.Request().Context(), req)
}

// ValidateStruct fills defaults and validates a value decoded outside echo, such as a websocket frame.
func ValidateStruct(ctx context.Context, req interface{}) []ValidationError {
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// rule renders one validator tag. param names the key the tag's argument is reported under.
type rule struct {
	format string
	param  string
}

var rules = map[string]rule{
	"required":  {format: "%s is required"},
	"gte":       {format: "%s must be greater than or equal to %s", param: "min"},
	"lte":       {format: "%s must be less than or equal to %s", param: "max"},
	"min":       {format: "%s must be at least %s", param: "min"},
	"max":       {format: "%s must be at most %s", param: "max"},
	"oneof":     {format: "%s must be one of: %s", param: "options"},
	"dive":      {format: "%s contains an invalid value"},
	"uppercase": {format: "%s contains an invalid value"},
	"alphanum":  {format: "%s contains an invalid value"},
}

func toValidationErrors(err error) []ValidationError {
	var fes validator.ValidationErrors
	if errors.As(err, &fes) {
		out := make([]ValidationError, len(fes))
		for i, fe := range fes {
			out[i] = fieldError(fe)
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

func fieldError(fe validator.FieldError) ValidationError {
	ve := ValidationError{Code: "ERR_" + strings.ToUpper(fe.Tag()), Field: fe.Field()}

	r, ok := rules[fe.Tag()]
	if !ok {
		ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
		return ve
	}
	args := []interface{}{fe.Field()}
	if strings.Count(r.format, "%s") == 2 {
		args = append(args, fe.Param())
	}
	ve.Message = fmt.Sprintf(r.format, args...)
	if r.param == "" {
		return ve
	}

	var value interface{} = fe.Param()
	if fe.Tag() == "oneof" {
		value = strings.Fields(fe.Param())
	}
	ve.Params = map[string]interface{}{r.param: value}
	return ve
}
