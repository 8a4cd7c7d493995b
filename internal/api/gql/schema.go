// Package gql defines the GraphQL schema and binds its fields to the services.
package gql

import (
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/spec-kit/timetracker/internal/domain"
)

var dateScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Date",
	Description: "An RFC 3339 timestamp in UTC.",
	Serialize:   serializeDate,
	ParseValue: func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		return parseDate(s)
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		s, ok := valueAST.(*ast.StringValue)
		if !ok {
			return nil
		}
		return parseDate(s.Value)
	},
})

func serializeDate(value interface{}) interface{} {
	switch t := value.(type) {
	case time.Time:
		return domain.FormatTimestamp(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return domain.FormatTimestamp(*t)
	}
	return nil
}

func parseDate(s string) interface{} {
	t, err := domain.ParseTimestamp(s)
	if err != nil {
		return nil
	}
	return t
}

func recordTypeEnum() *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, t := range domain.RecordTypes {
		values[string(t)] = &graphql.EnumValueConfig{Value: string(t)}
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:   "RecordType",
		Values: values,
	})
}

// NewSchema builds the executable schema backed by r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	recordType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Record",
		Fields: graphql.Fields{
			"start": &graphql.Field{Type: dateScalar, Resolve: recordField(func(rec *domain.Record) interface{} {
				return rec.Start
			})},
			"end": &graphql.Field{Type: dateScalar, Resolve: recordField(func(rec *domain.Record) interface{} {
				if rec.End == nil {
					return nil
				}
				return *rec.End
			})},
			"type": &graphql.Field{Type: recordTypeEnum(), Resolve: recordField(func(rec *domain.Record) interface{} {
				return string(rec.Type)
			})},
			"uid": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: recordField(func(rec *domain.Record) interface{} {
				return rec.UserID
			})},
			"_id": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: recordField(func(rec *domain.Record) interface{} {
				return rec.ID
			})},
			"done": &graphql.Field{Type: graphql.Boolean, Resolve: recordField(func(rec *domain.Record) interface{} {
				return rec.Done
			})},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: userField(func(u *domain.User) interface{} {
				return u.Name
			})},
			"_id": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: userField(func(u *domain.User) interface{} {
				return u.ID
			})},
			"email": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: userField(func(u *domain.User) interface{} {
				return u.Email
			})},
			"records": &graphql.Field{
				Type:    graphql.NewList(recordType),
				Resolve: r.field("User.records", r.userRecords),
			},
			"activeRecord": &graphql.Field{
				Type:    recordType,
				Resolve: r.field("User.activeRecord", r.userActiveRecord),
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"records": &graphql.Field{
				Type:    graphql.NewList(recordType),
				Resolve: r.field("records", r.listRecords),
			},
			"user": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Resolve: r.field("user", r.currentUser),
			},
		},
	})

	requiredString := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"name":          requiredString,
					"email":         requiredString,
					"password":      requiredString,
					"passwordAgain": requiredString,
				},
				Resolve: r.field("addUser", r.addUser),
			},
			"loginUser": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{
					"email":    requiredString,
					"password": requiredString,
				},
				Resolve: r.field("loginUser", r.loginUser),
			},
			"startRecord": &graphql.Field{
				Type: recordType,
				Args: graphql.FieldConfigArgument{
					"start": requiredString,
					"type":  requiredString,
				},
				Resolve: r.field("startRecord", r.startRecord),
			},
			"endRecord": &graphql.Field{
				Type: recordType,
				Args: graphql.FieldConfigArgument{
					"id":  requiredString,
					"end": requiredString,
				},
				Resolve: r.field("endRecord", r.endRecord),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func recordField(get func(*domain.Record) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		rec, ok := p.Source.(*domain.Record)
		if !ok || rec == nil {
			return nil, nil
		}
		return get(rec), nil
	}
}

func userField(get func(*domain.User) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		u, ok := p.Source.(*domain.User)
		if !ok || u == nil {
			return nil, nil
		}
		return get(u), nil
	}
}
