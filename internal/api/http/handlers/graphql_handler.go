package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/spec-kit/timetracker/internal/api/dto"
	"github.com/spec-kit/timetracker/internal/api/gql"
	apperrors "github.com/spec-kit/timetracker/pkg/util"
)

// GraphQLHandler executes GraphQL operations against the schema.
type GraphQLHandler struct {
	schema graphql.Schema
}

// NewGraphQLHandler constructs a handler.
func NewGraphQLHandler(schema graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema}
}

// Execute handles POST /graphql. Resolver failures are reported in the
// response's errors array with status 200; only malformed bodies fail the request.
func (h *GraphQLHandler) Execute(c *fiber.Ctx) error {
	var req dto.GraphQLRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Query) == "" {
		return apperrors.NewValidationError("query is required", nil)
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		RootObject:     gql.RootObject(c.Get(fiber.HeaderAuthorization)),
		Context:        c.UserContext(),
	})
	return c.JSON(result)
}
