package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/RodolfoParada/middleware-express/internal/i18n"
	"github.com/RodolfoParada/middleware-express/internal/middleware"
)

// ValidationDetail describes one invalid field.
type ValidationDetail struct {
	Key     string `json:"key"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

var registerTagNameOnce sync.Once

// useJSONFieldNames makes validation errors report JSON field names.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON decodes and validates the body into obj. On failure it writes a
// 400 response and returns false.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		// An empty body validates as an empty object.
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return true
	}

	var (
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		validateErrs validator.ValidationErrors
		maxBytesErr  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validateErrs):
		rejectInvalid(c, validationDetails(validateErrs))
	case errors.As(err, &typeErr):
		rejectInvalid(c, []ValidationDetail{{
			Key:     typeErr.Field,
			Message: fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type)),
			Type:    jsonKind(typeErr.Type) + ".base",
		}})
	case errors.As(err, &maxBytesErr):
		middleware.AbortWithMessage(c, http.StatusRequestEntityTooLarge, i18n.InvalidData)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		middleware.AbortWithMessage(c, http.StatusBadRequest, i18n.JSONParseError)
	default:
		middleware.AbortWithMessage(c, http.StatusBadRequest, i18n.JSONParseError)
	}
	return false
}

func rejectInvalid(c *gin.Context, details []ValidationDetail) {
	middleware.JSON(c, http.StatusBadRequest, gin.H{
		"error":     middleware.T(c, i18n.InvalidData),
		"details":   details,
		"timestamp": middleware.Timestamp(c),
	})
	c.Abort()
}

// validationDetails renders validator errors in the same shape as the
// schema errors clients of this API already parse.
func validationDetails(errs validator.ValidationErrors) []ValidationDetail {
	details := make([]ValidationDetail, 0, len(errs))
	for _, fe := range errs {
		details = append(details, describeFieldError(fe))
	}
	return details
}

func describeFieldError(fe validator.FieldError) ValidationDetail {
	key := fe.Field()
	kind := jsonKind(fe.Type())

	d := ValidationDetail{Key: key}
	switch fe.Tag() {
	case "required":
		d.Message = key + " is required"
		d.Type = "any.required"
	case "email":
		d.Message = key + " must be a valid email"
		d.Type = "string.email"
	case "min":
		if kind == "string" {
			d.Message = fmt.Sprintf("%s length must be at least %s characters long", key, fe.Param())
		} else {
			d.Message = fmt.Sprintf("%s must be greater than or equal to %s", key, fe.Param())
		}
		d.Type = kind + ".min"
	case "gt":
		d.Message = fmt.Sprintf("%s must be greater than %s", key, fe.Param())
		d.Type = kind + ".greater"
	default:
		d.Message = key + " is invalid"
		d.Type = kind + "." + fe.Tag()
	}
	return d
}

// jsonKind names t the way a JSON schema would.
func jsonKind(t reflect.Type) string {
	if t == nil {
		return "any"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
