package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func call(t *testing.T, r Resolver) any {
	t.Helper()
	fn, ok := r.(FieldResolver)
	require.True(t, ok, "want FieldResolver, got %T", r)
	v, err := fn(context.Background(), nil, nil)
	require.NoError(t, err)
	return v
}

func TestMerge_DeepAndLaterWins(t *testing.T) {
	a := Map{"Query": Map{"a": Value("a1"), "b": Value("b1")}}
	b := Map{"Query": Map{"b": Value("b2")}, "User": Map{"name": Value("n")}}

	got := Merge(a, b)

	q, ok := got.Lookup("Query")
	require.True(t, ok)
	require.Len(t, q.(Map), 2)
	require.Equal(t, "a1", call(t, q.(Map)["a"]))
	require.Equal(t, "b2", call(t, q.(Map)["b"]))

	name, ok := got.Lookup("User", "name")
	require.True(t, ok)
	require.Equal(t, "n", call(t, name))
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	a := Map{"Query": Map{"a": Value(1)}}
	b := Map{"Query": Map{"b": Value(2)}}

	merged := Merge(a, b)
	merged["Query"].(Map)["c"] = Value(3)

	require.Len(t, a["Query"].(Map), 1)
	require.Len(t, b["Query"].(Map), 1)
}

func TestMerge_LeafReplacesMap(t *testing.T) {
	scalar := &ScalarType{Name: "Date"}
	got := Merge(Map{"Date": Map{"x": Value(1)}}, Map{"Date": scalar})
	require.Same(t, scalar, got["Date"])

	got = Merge(Map{"Date": scalar}, Map{"Date": Map{"x": Value(1)}})
	require.IsType(t, Map{}, got["Date"])
}

func TestLookup_Missing(t *testing.T) {
	m := Map{"Query": Map{"a": Value(1)}}
	_, ok := m.Lookup("Query", "b")
	require.False(t, ok)
	_, ok = m.Lookup("Query", "a", "deeper")
	require.False(t, ok)
}

func TestFieldConfig(t *testing.T) {
	resolve := Value("r")
	subscribe := Value("s")

	cases := []struct {
		name          string
		in            Resolver
		wantResolve   bool
		wantSubscribe bool
		wantOK        bool
	}{
		{"function", resolve, true, false, true},
		{"config with both", Map{KeyResolve: resolve, KeySubscribe: subscribe}, true, true, true},
		{"subscribe only", Map{KeySubscribe: subscribe}, false, true, true},
		{"nested map", Map{"child": resolve}, false, false, false},
		{"scalar", &ScalarType{Name: "Date"}, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, s, ok := FieldConfig(tc.in)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantResolve, r != nil)
			require.Equal(t, tc.wantSubscribe, s != nil)
		})
	}
}

func TestIsFieldConfig(t *testing.T) {
	require.True(t, IsFieldConfig(Map{KeySubscribe: Value(1)}))
	require.True(t, IsFieldConfig(Map{KeyResolve: Value(1), KeySubscribe: Value(1)}))
	require.False(t, IsFieldConfig(Map{"name": Value(1)}))
	require.False(t, IsFieldConfig(Map{}))
}

func TestInfoFromContext(t *testing.T) {
	_, ok := InfoFromContext(context.Background())
	require.False(t, ok)

	ctx := WithInfo(context.Background(), Info{ParentType: "Query", FieldName: "ping"})
	info, ok := InfoFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, Info{ParentType: "Query", FieldName: "ping"}, info)
}
