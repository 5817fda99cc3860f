package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lestrix/serverless-todo/internal/apperr"
)

const invalidBodyMsg = "Invalid request body"

// Todo is the single entity served by the API. The dynamodbav tags keep
// DynamoDB attribute names aligned with the JSON wire names.
type Todo struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Completed bool      `json:"completed" dynamodbav:"completed"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
}

// CreateInput is the accepted body for POST /todos.
type CreateInput struct {
	Title     string `json:"title" validate:"required,max=200"`
	Completed bool   `json:"completed"`
}

// UpdateInput is the accepted body for PATCH /todos/:id. Nil fields leave
// the stored values unchanged.
type UpdateInput struct {
	Title     *string `json:"title" validate:"omitnil,min=1,max=200"`
	Completed *bool   `json:"completed"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report issues under the JSON field names clients actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewTodo builds a persisted entity from validated input. The id and the
// creation time are always assigned server-side.
func NewTodo(in CreateInput) Todo {
	return Todo{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Completed: in.Completed,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond), // postgres keeps microseconds
	}
}

// ApplyUpdate merges the non-nil fields of in onto t and returns the result.
// ID and CreatedAt are never touched.
func ApplyUpdate(t Todo, in UpdateInput) Todo {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	return t
}

// DecodeCreateInput parses and validates a POST /todos body. Unknown JSON
// fields are ignored.
func DecodeCreateInput(raw []byte) (CreateInput, error) {
	var in CreateInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return CreateInput{}, decodeError(err)
	}
	if err := in.Validate(); err != nil {
		return CreateInput{}, err
	}
	return in, nil
}

// DecodeUpdateInput parses and validates a PATCH /todos/:id body. An empty
// object is valid and updates nothing.
func DecodeUpdateInput(raw []byte) (UpdateInput, error) {
	var in UpdateInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return UpdateInput{}, decodeError(err)
	}
	if err := in.Validate(); err != nil {
		return UpdateInput{}, err
	}
	return in, nil
}

// Validate checks the declarative rules on the input.
func (in CreateInput) Validate() error {
	return validationError(validate.Struct(in))
}

// Validate checks the declarative rules on the input.
func (in UpdateInput) Validate() error {
	return validationError(validate.Struct(in))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) {
		return apperr.InvalidInput(invalidBodyMsg)
	}
	issues := make([]apperr.Issue, 0, len(verr))
	for _, fe := range verr {
		issues = append(issues, apperr.Issue{Field: fe.Field(), Message: issueMessage(fe)})
	}
	return apperr.InvalidInput(invalidBodyMsg, issues...)
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.InvalidInput(invalidBodyMsg, apperr.Issue{
			Field:   typeErr.Field,
			Message: "must be of type " + jsonTypeName(typeErr.Type),
		})
	}
	return apperr.InvalidInput(invalidBodyMsg, apperr.Issue{
		Field:   "body",
		Message: "must be valid JSON",
	})
}

func jsonTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	default:
		return t.String()
	}
}
