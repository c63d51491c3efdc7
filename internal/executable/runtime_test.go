package executable

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	executor "github.com/hanpama/gqlmodules/internal/executor"
	"github.com/hanpama/gqlmodules/internal/resolver"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

type profile struct {
	DisplayName string `json:"name"`
	Email       string
	Hidden      string `json:"-"`
	secret      string
}

type account struct {
	profile
	Login string
}

func (a account) Greeting() string { return "hello " + a.Login }

func (a *account) Fail() (string, error) { return "", errors.New("no access") }

func TestDefaultFieldResolver(t *testing.T) {
	acc := &account{profile: profile{DisplayName: "Ann", Email: "ann@example.com", Hidden: "h", secret: "s"}, Login: "ann"}
	fn := func(context.Context, any, map[string]any) (any, error) { return nil, nil }

	cases := []struct {
		name    string
		source  any
		field   string
		want    any
		wantErr string
	}{
		{"map key", map[string]any{"a": 1}, "a", 1, ""},
		{"missing map key", map[string]any{"a": 1}, "b", nil, ""},
		{"typed map", map[string]string{"a": "x"}, "a", "x", ""},
		{"json tag", acc, "name", "Ann", ""},
		{"case-insensitive name", acc, "email", "ann@example.com", ""},
		{"promoted through embedding", acc, "login", "ann", ""},
		{"json dash skipped", acc, "hidden", nil, ""},
		{"unexported skipped", acc, "secret", nil, ""},
		{"value method", acc, "greeting", "hello ann", ""},
		{"method error", acc, "fail", nil, "no access"},
		{"function not called", map[string]any{"f": fn}, "f", nil, ""},
		{"nil source", nil, "a", nil, ""},
		{"nil pointer", (*account)(nil), "login", nil, ""},
		{"scalar source", 42, "a", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := resolver.WithInfo(context.Background(), resolver.Info{ParentType: "T", FieldName: tc.field})
			got, err := DefaultFieldResolver(ctx, tc.source, nil)
			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.name == "function not called" {
				require.NotNil(t, got)
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSerializeLeafValue(t *testing.T) {
	s := mustBuild(t, []string{`
type Query { a: String }
enum Color { RED GREEN }
scalar Upper
scalar Raw
`}, nil)
	rt := newRuntime(s.AST(), resolver.Map{"Upper": &resolver.ScalarType{Name: "Upper", Serialize: func(v any) (any, error) {
		return strings.ToUpper(fmt.Sprint(v)), nil
	}}}, DefaultFieldResolver)

	type color string
	cases := []struct {
		typeName string
		in       any
		want     any
		wantErr  bool
	}{
		{"String", "x", "x", false},
		{"String", 12, "12", false},
		{"String", true, "true", false},
		{"ID", int64(7), "7", false},
		{"ID", 1.5, nil, true},
		{"Int", int64(3), 3, false},
		{"Int", 3.0, 3, false},
		{"Int", 3.5, nil, true},
		{"Int", int64(1) << 40, nil, true},
		{"Int", "3", nil, true},
		{"Float", 2, 2.0, false},
		{"Float", float32(0.5), 0.5, false},
		{"Boolean", true, true, false},
		{"Boolean", "yes", nil, true},
		{"Color", "RED", "RED", false},
		{"Color", color("GREEN"), "GREEN", false},
		{"Color", "BLUE", nil, true},
		{"Upper", "abc", "ABC", false},
		{"Raw", []int{1}, []int{1}, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%v", tc.typeName, tc.in), func(t *testing.T) {
			got, err := rt.SerializeLeafValue(context.Background(), tc.typeName, tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCustomScalar_ParseAndSerialize(t *testing.T) {
	date := &resolver.ScalarType{
		Name: "Date",
		Serialize: func(v any) (any, error) {
			return v.(time.Time).Format(time.DateOnly), nil
		},
		ParseValue: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("Date must be a string, got %T", v)
			}
			return time.Parse(time.DateOnly, s)
		},
	}
	nextDay := resolver.FieldResolver(func(_ context.Context, _ any, args map[string]any) (any, error) {
		return args["from"].(time.Time).AddDate(0, 0, 1), nil
	})
	firstDay := resolver.FieldResolver(func(_ context.Context, _ any, args map[string]any) (any, error) {
		in := args["range"].(map[string]any)
		return in["days"].([]any)[0].(time.Time), nil
	})
	s := mustBuild(t,
		[]string{`
scalar Date
input Range { days: [Date!]! }
type Query { nextDay(from: Date!): Date firstDay(range: Range!): Date }
`},
		[]resolver.Map{{
			"Date":  date,
			"Query": resolver.Map{"nextDay": nextDay, "firstDay": firstDay},
		}},
	)

	require.Equal(t, map[string]any{"nextDay": "2024-03-01"}, execData(t, s, `{ nextDay(from: "2024-02-29") }`))

	res := s.Execute(context.Background(), Request{
		Query:     `query($r: Range!) { firstDay(range: $r) }`,
		Variables: map[string]any{"r": map[string]any{"days": []any{"2024-01-05", "2024-01-06"}}},
	})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"firstDay": "2024-01-05"}, res.Data)

	res = s.Execute(context.Background(), Request{
		Query:     `query($d: Date!) { nextDay(from: $d) }`,
		Variables: map[string]any{"d": 5},
	})
	require.Len(t, res.Errors, 1)
	require.Equal(t, `argument "from": Date must be a string, got int`, res.Errors[0].Message)
}

type Cat struct{ Name string }
type Dog struct{ Name string }

func TestResolveType(t *testing.T) {
	typeDefs := []string{`
type Query { pets: [Pet] first: Animal }
interface Animal { name: String }
type Cat implements Animal { name: String }
type Dog implements Animal { name: String }
union Pet = Cat | Dog
`}
	pets := resolver.Value([]any{Cat{Name: "tom"}, &Dog{Name: "rex"}, map[string]any{"__typename": "Cat", "name": "kit"}})

	s := mustBuild(t, typeDefs, []resolver.Map{{"Query": resolver.Map{"pets": pets}}})
	require.Equal(t,
		map[string]any{"pets": []any{
			map[string]any{"__typename": "Cat", "name": "tom"},
			map[string]any{"__typename": "Dog", "name": "rex"},
			map[string]any{"__typename": "Cat", "name": "kit"},
		}},
		execData(t, s, "{ pets { __typename ... on Cat { name } ... on Dog { name } } }"),
	)

	s = mustBuild(t, typeDefs, []resolver.Map{{
		"Query":  resolver.Map{"first": resolver.Value("anything")},
		"Animal": resolver.Map{"__resolveType": resolver.Value("Dog")},
	}})
	require.Equal(t,
		map[string]any{"first": map[string]any{"__typename": "Dog"}},
		execData(t, s, "{ first { __typename } }"),
	)

	s = mustBuild(t, typeDefs, []resolver.Map{{"Query": resolver.Map{"first": resolver.Value(42)}}})
	res := s.Execute(context.Background(), Request{Query: "{ first { name } }"})
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, `Abstract type "Animal" must resolve to an Object type at runtime`)
}

func TestRuntime_IsAsync(t *testing.T) {
	s := mustBuild(t,
		[]string{"type Query { user: User }", "type User { id: ID name: String }"},
		[]resolver.Map{{
			"Query": resolver.Map{"user": resolver.Value(map[string]any{"id": "1"})},
			"User":  resolver.Map{"name": resolver.Map{resolver.KeyResolve: resolver.Value("ann")}},
		}},
	)
	rt := newRuntime(s.AST(), resolver.Merge(
		resolver.Map{"Query": resolver.Map{"user": resolver.Value(nil)}},
		resolver.Map{"User": resolver.Map{"name": resolver.Map{resolver.KeyResolve: resolver.Value("ann")}}},
	), DefaultFieldResolver)

	require.True(t, rt.IsAsync("Query", "user"))
	require.True(t, rt.IsAsync("User", "name"))
	require.False(t, rt.IsAsync("User", "id"))
	require.False(t, rt.IsAsync("Missing", "id"))
	require.Equal(t,
		map[string]any{"user": map[string]any{"id": "1", "name": "ann"}},
		execData(t, s, "{ user { id name } }"),
	)
}

func subscriptionSchema(t *testing.T, field resolver.Resolver) *Schema {
	t.Helper()
	return mustBuild(t,
		[]string{"type Query { ok: Boolean }", "type Subscription { tick(limit: Int): Int }"},
		[]resolver.Map{{"Subscription": resolver.Map{"tick": field}}},
	)
}

func collect(t *testing.T, stream <-chan *executor.ExecutionResult) []any {
	t.Helper()
	var got []any
	for res := range stream {
		require.Empty(t, res.Errors)
		got = append(got, res.Data)
	}
	return got
}

func TestSubscribe_DefaultResolveReadsEventField(t *testing.T) {
	s := subscriptionSchema(t, resolver.Map{
		resolver.KeySubscribe: resolver.FieldResolver(func(_ context.Context, _ any, args map[string]any) (any, error) {
			ch := make(chan any, 3)
			for i := 1; i <= args["limit"].(int); i++ {
				ch <- map[string]any{"tick": i}
			}
			close(ch)
			return ch, nil
		}),
	})

	stream, err := s.Subscribe(context.Background(), Request{Query: "subscription { tick(limit: 2) }"})
	require.NoError(t, err)
	require.Equal(t, []any{map[string]any{"tick": 1}, map[string]any{"tick": 2}}, collect(t, stream))
}

func TestSubscribe_TypedChannelAndResolve(t *testing.T) {
	s := subscriptionSchema(t, resolver.Map{
		resolver.KeySubscribe: resolver.FieldResolver(func(context.Context, any, map[string]any) (any, error) {
			ch := make(chan int, 2)
			ch <- 10
			ch <- 20
			close(ch)
			return (<-chan int)(ch), nil
		}),
		resolver.KeyResolve: resolver.FieldResolver(func(_ context.Context, source any, _ map[string]any) (any, error) {
			return source.(int) + 1, nil
		}),
	})

	stream, err := s.Subscribe(context.Background(), Request{Query: "subscription { tick }"})
	require.NoError(t, err)
	require.Equal(t, []any{map[string]any{"tick": 11}, map[string]any{"tick": 21}}, collect(t, stream))
}

func TestSubscribe_Errors(t *testing.T) {
	s := subscriptionSchema(t, resolver.Map{
		resolver.KeySubscribe: resolver.Value("not a channel"),
	})
	_, err := s.Subscribe(context.Background(), Request{Query: "subscription { tick }"})
	require.EqualError(t, err, "Subscription field Subscription.tick must return a receive channel, got string")

	_, err = s.Subscribe(context.Background(), Request{Query: "subscription { nope }"})
	var invalid gqlerror.List
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid, 1)
	require.Contains(t, invalid[0].Message, `Cannot query field "nope"`)

	s = subscriptionSchema(t, resolver.Value(1))
	_, err = s.Subscribe(context.Background(), Request{Query: "subscription { tick }"})
	require.EqualError(t, err, `Subscription field Subscription.tick has no "subscribe" resolver`)
}

func TestSubscribe_CancelClosesStream(t *testing.T) {
	source := make(chan any)
	s := subscriptionSchema(t, resolver.Map{resolver.KeySubscribe: resolver.Value(source)})

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := s.Subscribe(ctx, Request{Query: "subscription { tick }"})
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-stream:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("stream not closed after cancel")
	}
}
