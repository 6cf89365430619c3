package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/storeadmin/internal/domain"
)

// Response is the JSON envelope every API endpoint answers with.
// RecordsTotal and RecordsFiltered are only set for list responses.
type Response struct {
	Status          bool   `json:"status"`
	Message         string `json:"message,omitempty"`
	Data            any    `json:"data"`
	RecordsTotal    *int64 `json:"recordsTotal,omitempty"`
	RecordsFiltered *int64 `json:"recordsFiltered,omitempty"`
}

// ValidationErrorResponse is the envelope for validation failures.
type ValidationErrorResponse struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// ListResult is one page of a list together with its counts.
type ListResult[T any] struct {
	Items           []T
	RecordsTotal    int64
	RecordsFiltered int64
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status: true,
		Data:   data,
	})
}

// Error sends a JSON error response. If err is a *domain.AppError, its code is
// mapped to the appropriate HTTP status; otherwise 500 is returned.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)

	var appErr *domain.AppError
	msg := "internal error"
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	c.JSON(status, Response{
		Status:  false,
		Message: msg,
	})
}

// List sends a 200 JSON response carrying one page of items and the
// recordsTotal/recordsFiltered counts. A nil page is sent as an empty array.
func List[T any](c *gin.Context, result ListResult[T]) {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	total, filtered := result.RecordsTotal, result.RecordsFiltered
	c.JSON(http.StatusOK, Response{
		Status:          true,
		Data:            items,
		RecordsTotal:    &total,
		RecordsFiltered: &filtered,
	})
}

// ValidationError sends a 400 JSON response with per-field validation error details.
// It detects validator.ValidationErrors and extracts field-level messages.
func ValidationError(c *gin.Context, err error) {
	validationErrorWithType(c, err, nil)
}

// BindAndValidate binds the request to obj and validates it. GET requests bind
// from the query string using form tags.
// On failure it sends a ValidationError response and returns false.
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		validationErrorWithType(c, err, obj)
		return false
	}
	return true
}

// validationErrorWithType sends a 400 validation error response.
// When obj is non-nil, it reflects on the struct to prefer json or form tag names.
func validationErrorWithType(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		// Malformed input rather than a rule violation.
		c.JSON(http.StatusBadRequest, Response{
			Status:  false,
			Message: "bad request",
		})
		return
	}

	tags := buildTagMap(obj)

	fieldErrors := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, ok := tags[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		fieldErrors[name] = fieldMessage(fe)
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Status:  false,
		Message: "validation error",
		Errors:  fieldErrors,
	})
}

// fieldMessage turns a validator rule failure into a readable message.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min", "gte":
		return "Must be at least " + fe.Param()
	case "max", "lte":
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

// buildTagMap returns a map from struct field name to its json tag name,
// falling back to the form tag. If obj is nil or not a struct (pointer), it
// returns nil.
func buildTagMap(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := parseTagName(f.Tag.Get("json"))
		if name == "" {
			name = parseTagName(f.Tag.Get("form"))
		}
		if name != "" {
			m[f.Name] = name
		}
	}
	return m
}

// parseTagName extracts the field name from a json or form struct tag value.
func parseTagName(tag string) string {
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return ""
	}
	return name
}
