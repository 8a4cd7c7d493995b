package gql

import (
	"context"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/timetracker/internal/auth"
	"github.com/spec-kit/timetracker/internal/observability"
	"github.com/spec-kit/timetracker/internal/repository/memory"
	"github.com/spec-kit/timetracker/internal/service"
	apperrors "github.com/spec-kit/timetracker/pkg/util"
)

type harness struct {
	schema  graphql.Schema
	metrics *observability.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	users := memory.NewUserStore()
	records := memory.NewRecordStore()
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret", 0)
	metrics := observability.NewMetrics()

	schema, err := NewSchema(NewResolver(ResolverDependencies{
		Sessions: service.NewSessionService(service.SessionDependencies{Users: users, Hasher: hasher, Tokens: tokens}),
		Records:  service.NewRecordService(service.RecordDependencies{Records: records}),
		Gate:     auth.NewGate(tokens, users),
		Metrics:  metrics,
	}))
	require.NoError(t, err)
	return &harness{schema: schema, metrics: metrics}
}

func (h *harness) do(query, authorization string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:        h.schema,
		RequestString: query,
		RootObject:    RootObject(authorization),
		Context:       context.Background(),
	})
}

func (h *harness) login(t *testing.T, email string) string {
	t.Helper()

	res := h.do(`mutation { addUser(name: "Random name", email: "`+email+`", password: "pw", passwordAgain: "pw") { _id } }`, "")
	require.Empty(t, res.Errors)

	res = h.do(`mutation { loginUser(email: "`+email+`", password: "pw") }`, "")
	require.Empty(t, res.Errors)
	token, ok := res.Data.(map[string]interface{})["loginUser"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return "Bearer " + token
}

func field(t *testing.T, res *graphql.Result, name string) map[string]interface{} {
	t.Helper()
	require.Empty(t, res.Errors)
	out, ok := res.Data.(map[string]interface{})[name].(map[string]interface{})
	require.True(t, ok, "field %s missing in %v", name, res.Data)
	return out
}

func errorCode(t *testing.T, res *graphql.Result) string {
	t.Helper()
	require.NotEmpty(t, res.Errors)
	code, _ := res.Errors[0].Extensions["code"].(string)
	return code
}

func TestAddUser(t *testing.T) {
	h := newHarness(t)

	res := h.do(`mutation { addUser(name: "Random name", email: " Random@Example.com ", password: "pw", passwordAgain: "pw") { _id name email } }`, "")
	user := field(t, res, "addUser")
	assert.NotEmpty(t, user["_id"])
	assert.Equal(t, "Random name", user["name"])
	assert.Equal(t, "random@example.com", user["email"])
}

func TestAddUser_Errors(t *testing.T) {
	h := newHarness(t)
	h.login(t, "taken@example.com")

	res := h.do(`mutation { addUser(name: "n", email: "taken@example.com", password: "pw", passwordAgain: "pw") { _id } }`, "")
	assert.Equal(t, apperrors.CodeDuplicateEmail, errorCode(t, res))
	assert.Equal(t, "Email already in use", res.Errors[0].Message)

	res = h.do(`mutation { addUser(name: "n", email: "new@example.com", password: "a", passwordAgain: "b") { _id } }`, "")
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(t, res))
	assert.Equal(t, "Passwords do not match", res.Errors[0].Message)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.login(t, "jane@example.com")

	wrong := h.do(`mutation { loginUser(email: "jane@example.com", password: "nope") }`, "")
	unknown := h.do(`mutation { loginUser(email: "ghost@example.com", password: "pw") }`, "")

	assert.Equal(t, apperrors.CodeInvalidCredentials, errorCode(t, wrong))
	assert.Equal(t, apperrors.CodeInvalidCredentials, errorCode(t, unknown))
	assert.Equal(t, wrong.Errors[0].Message, unknown.Errors[0].Message)
}

func TestGatedFieldsRequireToken(t *testing.T) {
	h := newHarness(t)

	for _, q := range []string{
		`{ records { _id } }`,
		`{ user { _id } }`,
		`mutation { startRecord(start: "2024-03-05T14:30:00Z", type: "WORK") { _id } }`,
		`mutation { endRecord(id: "x", end: "2024-03-05T14:30:00Z") { _id } }`,
	} {
		res := h.do(q, "")
		assert.Equal(t, apperrors.CodeUnauthorized, errorCode(t, res), q)
		assert.Equal(t, "Unauthorized Access", res.Errors[0].Message, q)

		res = h.do(q, "Bearer not-a-token")
		assert.Equal(t, apperrors.CodeUnauthorized, errorCode(t, res), q)
	}
}

func TestRecordLifecycle(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "jane@example.com")

	started := field(t, h.do(`mutation { startRecord(start: "2024-03-05T14:30:00Z", type: "workout") { _id uid start end type done } }`, token), "startRecord")
	assert.Equal(t, "WORKOUT", started["type"])
	assert.Equal(t, "2024-03-05T14:30:00Z", started["start"])
	assert.Nil(t, started["end"])
	assert.Equal(t, false, started["done"])
	id := started["_id"].(string)

	user := field(t, h.do(`{ user { _id activeRecord { _id } records { _id } } }`, token), "user")
	assert.Equal(t, started["uid"], user["_id"])
	assert.Equal(t, id, user["activeRecord"].(map[string]interface{})["_id"])
	assert.Len(t, user["records"], 1)

	ended := field(t, h.do(`mutation { endRecord(id: "`+id+`", end: "1709652600000") { _id end done } }`, token), "endRecord")
	assert.Equal(t, id, ended["_id"])
	assert.Equal(t, "2024-03-05T15:30:00Z", ended["end"])
	assert.Equal(t, true, ended["done"])

	again := h.do(`mutation { endRecord(id: "`+id+`", end: "2024-03-05T16:00:00Z") { _id } }`, token)
	assert.Equal(t, apperrors.CodeNoOpenRecord, errorCode(t, again))

	user = field(t, h.do(`{ user { activeRecord { _id } } }`, token), "user")
	assert.Nil(t, user["activeRecord"])

	snap := h.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Operations["startRecord|OK"])
	assert.Equal(t, int64(1), snap.Operations["endRecord|"+apperrors.CodeNoOpenRecord])
}

func TestStartRecord_SecondStartRejected(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "jane@example.com")

	field(t, h.do(`mutation { startRecord(start: "2024-03-05T14:30:00Z", type: "WORK") { _id } }`, token), "startRecord")
	res := h.do(`mutation { startRecord(start: "2024-03-05T15:30:00Z", type: "SLEEP") { _id } }`, token)
	assert.Equal(t, apperrors.CodeAlreadyOpen, errorCode(t, res))

	res = h.do(`{ records { _id } }`, token)
	require.Empty(t, res.Errors)
	assert.Len(t, res.Data.(map[string]interface{})["records"], 1)
}

func TestStartRecord_InvalidArguments(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "jane@example.com")

	res := h.do(`mutation { startRecord(start: "2024-03-05T14:30:00Z", type: "NAP") { _id } }`, token)
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(t, res))

	res = h.do(`mutation { startRecord(start: "whenever", type: "WORK") { _id } }`, token)
	assert.Equal(t, apperrors.CodeValidationFailed, errorCode(t, res))
	assert.Equal(t, "start", res.Errors[0].Extensions["details"].(map[string]any)["field"])
}

func TestEndRecord_OtherUsersRecord(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t, "owner@example.com")
	other := h.login(t, "other@example.com")

	started := field(t, h.do(`mutation { startRecord(start: "2024-03-05T14:30:00Z", type: "WORK") { _id } }`, owner), "startRecord")

	res := h.do(`mutation { endRecord(id: "`+started["_id"].(string)+`", end: "2024-03-05T15:30:00Z") { _id } }`, other)
	assert.Equal(t, apperrors.CodeNoOpenRecord, errorCode(t, res))

	res = h.do(`{ records { _id } }`, other)
	require.Empty(t, res.Errors)
	assert.Empty(t, res.Data.(map[string]interface{})["records"])
}
