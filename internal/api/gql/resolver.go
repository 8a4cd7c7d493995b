package gql

import (
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/auth"
	"github.com/spec-kit/timetracker/internal/domain"
	"github.com/spec-kit/timetracker/internal/observability"
	"github.com/spec-kit/timetracker/internal/service"
	apperrors "github.com/spec-kit/timetracker/pkg/util"
)

const authorizationKey = "authorization"

// RootObject carries per-request transport values into resolvers.
func RootObject(authorization string) map[string]interface{} {
	return map[string]interface{}{authorizationKey: authorization}
}

// Resolver binds schema fields to the session and record services.
type Resolver struct {
	sessions *service.SessionService
	records  *service.RecordService
	gate     *auth.Gate
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// ResolverDependencies bundles what the resolvers call into.
type ResolverDependencies struct {
	Sessions *service.SessionService
	Records  *service.RecordService
	Gate     *auth.Gate
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewResolver constructs a resolver.
func NewResolver(deps ResolverDependencies) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		sessions: deps.Sessions,
		records:  deps.Records,
		gate:     deps.Gate,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// field wraps a resolver with metrics and client-safe error conversion.
func (r *Resolver) field(name string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		out, err := fn(p)
		if err != nil {
			de := apperrors.ToDomainError(err)
			r.metrics.RecordOperation(name, de.Code)
			if de.HTTPStatus >= 500 {
				r.logger.Error("resolver failed", zap.String("field", name), zap.Error(err))
			}
			return nil, apperrors.NewDomainError(de.Code, de.Message, de.HTTPStatus, de.Details)
		}
		r.metrics.RecordOperation(name, "OK")
		return out, nil
	}
}

func (r *Resolver) authenticate(p graphql.ResolveParams) (string, error) {
	var header string
	if root, ok := p.Info.RootValue.(map[string]interface{}); ok {
		header, _ = root[authorizationKey].(string)
	}
	return r.gate.Resolve(p.Context, header)
}

func (r *Resolver) listRecords(p graphql.ResolveParams) (interface{}, error) {
	uid, err := r.authenticate(p)
	if err != nil {
		return nil, err
	}
	list, err := r.records.List(p.Context, uid)
	if err != nil {
		return nil, err
	}
	return recordList(list), nil
}

func (r *Resolver) currentUser(p graphql.ResolveParams) (interface{}, error) {
	uid, err := r.authenticate(p)
	if err != nil {
		return nil, err
	}
	return r.sessions.User(p.Context, uid)
}

func (r *Resolver) userRecords(p graphql.ResolveParams) (interface{}, error) {
	u, ok := p.Source.(*domain.User)
	if !ok || u == nil {
		return nil, nil
	}
	list, err := r.records.List(p.Context, u.ID)
	if err != nil {
		return nil, err
	}
	return recordList(list), nil
}

func (r *Resolver) userActiveRecord(p graphql.ResolveParams) (interface{}, error) {
	u, ok := p.Source.(*domain.User)
	if !ok || u == nil {
		return nil, nil
	}
	rec, err := r.records.Active(p.Context, u.ID)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}

func (r *Resolver) addUser(p graphql.ResolveParams) (interface{}, error) {
	u, err := r.sessions.Register(p.Context, service.RegisterInput{
		Name:          stringArg(p, "name"),
		Email:         stringArg(p, "email"),
		Password:      stringArg(p, "password"),
		PasswordAgain: stringArg(p, "passwordAgain"),
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Resolver) loginUser(p graphql.ResolveParams) (interface{}, error) {
	token, err := r.sessions.Login(p.Context, stringArg(p, "email"), stringArg(p, "password"))
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *Resolver) startRecord(p graphql.ResolveParams) (interface{}, error) {
	uid, err := r.authenticate(p)
	if err != nil {
		return nil, err
	}
	start, err := domain.ParseTimestamp(stringArg(p, "start"))
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "start"})
	}
	recordType, err := domain.ParseRecordType(stringArg(p, "type"))
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "type"})
	}
	rec, err := r.records.Start(p.Context, uid, start, recordType)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Resolver) endRecord(p graphql.ResolveParams) (interface{}, error) {
	uid, err := r.authenticate(p)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseTimestamp(stringArg(p, "end"))
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "end"})
	}
	rec, err := r.records.End(p.Context, uid, stringArg(p, "id"), end)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func recordList(records []domain.Record) []*domain.Record {
	out := make([]*domain.Record, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out
}
