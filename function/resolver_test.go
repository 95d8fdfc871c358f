package function

import (
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-datagrid/grid"
)

func TestDefaultArgumentResolver(t *testing.T) {
	payload := []any{"a", 1}

	tests := []struct {
		name string
		args any
		want []any
	}{
		{"nil payload", nil, []any{}},
		{"slice payload", payload, []any{"a", 1}},
		{"single value", "solo", []any{"solo"}},
		{"typed slice is one argument", []string{"x", "y"}, []any{[]string{"x", "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultArgumentResolver{}.ResolveArguments(&testContext{args: tt.args})
			if err != nil {
				t.Fatalf("ResolveArguments() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveArguments() = %v, want %v", got, tt.want)
			}
		})
	}

	got, _ := DefaultArgumentResolver{}.ResolveArguments(&testContext{args: payload})
	got[0] = "mutated"
	if payload[0] != "a" {
		t.Error("resolver must copy the payload")
	}
}

func TestPortableArgumentResolver(t *testing.T) {
	customerType := reflect.TypeOf(Customer{})
	customerName := grid.TypeName(customerType)
	deserializer := &testDeserializer{types: map[string]reflect.Type{customerName: customerType}}

	matching := portableCustomer{typeName: customerName, name: "Jon"}
	unknown := portableCustomer{typeName: "example.com/other.Thing", name: "x"}

	tests := []struct {
		name    string
		types   []reflect.Type
		support grid.PortableSupport
		args    []any
		want    []any
	}{
		{
			name:    "all conditions hold",
			types:   []reflect.Type{customerType},
			support: portableSupport(deserializer),
			args:    []any{matching},
			want:    []any{Customer{Name: "Jon"}},
		},
		{
			name:    "no deserializer configured",
			types:   []reflect.Type{customerType},
			support: portableSupport(nil),
			args:    []any{matching},
			want:    []any{matching},
		},
		{
			name:    "nil capability",
			types:   []reflect.Type{customerType},
			support: nil,
			args:    []any{matching},
			want:    []any{matching},
		},
		{
			name:    "declared type is any",
			types:   []reflect.Type{reflect.TypeOf((*any)(nil)).Elem()},
			support: portableSupport(deserializer),
			args:    []any{matching},
			want:    []any{matching},
		},
		{
			name:    "type not resolvable",
			types:   []reflect.Type{reflect.TypeOf(Customer{})},
			support: portableSupport(&testDeserializer{types: map[string]reflect.Type{}}),
			args:    []any{matching},
			want:    []any{matching},
		},
		{
			name:    "mixed arguments are checked one by one",
			types:   []reflect.Type{reflect.TypeOf(""), customerType, reflect.TypeOf(Customer{})},
			support: portableSupport(deserializer),
			args:    []any{"plain", matching, unknown},
			want:    []any{"plain", Customer{Name: "Jon"}, unknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPortableArgumentResolver(DefaultArgumentResolver{}, tt.types, tt.support)
			got, err := r.ResolveArguments(&testContext{args: tt.args})
			if err != nil {
				t.Fatalf("ResolveArguments() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveArguments() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestContextInjectingArgumentResolver_Positions(t *testing.T) {
	fn := func(filter grid.KeySet, a string, fc grid.FunctionContext, data grid.RegionData, b int, rs grid.ResultSender) {}
	params, err := InspectParameters("injected", reflect.TypeOf(fn))
	if err != nil {
		t.Fatalf("InspectParameters() error = %v", err)
	}

	r, err := NewContextInjectingArgumentResolver(params, DefaultArgumentResolver{})
	if err != nil {
		t.Fatalf("NewContextInjectingArgumentResolver() error = %v", err)
	}

	sender := &recordingSender{}
	fc := &testRegionContext{
		testContext: testContext{id: "injected", args: []any{"x", 7}, sender: sender, member: "m1"},
		region:      newMapRegion("Customers", map[any]any{"k": "v"}),
		filter:      grid.NewKeySet("k"),
	}

	got, err := r.ResolveArguments(fc)
	if err != nil {
		t.Fatalf("ResolveArguments() error = %v", err)
	}
	if len(got) != params.Count() {
		t.Fatalf("expected %d arguments, got %d", params.Count(), len(got))
	}

	if ks, ok := got[0].(grid.KeySet); !ok || !ks.Contains("k") {
		t.Errorf("position 0 = %v, want filter", got[0])
	}
	if got[1] != "x" || got[4] != 7 {
		t.Errorf("caller arguments misplaced: %v", got)
	}
	if got[2] != grid.FunctionContext(fc) {
		t.Errorf("position 2 = %v, want context", got[2])
	}
	if data, ok := got[3].(grid.RegionData); !ok || data["k"] != "v" {
		t.Errorf("position 3 = %v, want region data", got[3])
	}
	if got[5] != grid.ResultSender(sender) {
		t.Errorf("position 5 = %v, want result sender", got[5])
	}
}

func TestContextInjectingArgumentResolver_PartitionLocalData(t *testing.T) {
	region := &partitionedRegion{
		mapRegion: newMapRegion("Orders", map[any]any{"A": 1, "B": 2}),
		owners:    map[any]grid.MemberID{"A": "node1", "B": "node2"},
	}

	params, err := InspectParameters("local", reflect.TypeOf(func(data grid.RegionData) {}))
	if err != nil {
		t.Fatalf("InspectParameters() error = %v", err)
	}
	r, err := NewContextInjectingArgumentResolver(params, nil)
	if err != nil {
		t.Fatalf("NewContextInjectingArgumentResolver() error = %v", err)
	}

	got, err := r.ResolveArguments(&testRegionContext{
		testContext: testContext{id: "local", member: "node1"},
		region:      region,
	})
	if err != nil {
		t.Fatalf("ResolveArguments() error = %v", err)
	}

	data := got[0].(grid.RegionData)
	if len(data) != 1 || data["A"] != 1 {
		t.Errorf("expected only {A}, got %v", data)
	}
}

func TestContextInjectingArgumentResolver_RegionReference(t *testing.T) {
	region := &partitionedRegion{
		mapRegion: newMapRegion("Orders", map[any]any{"A": 1, "B": 2}),
		owners:    map[any]grid.MemberID{"A": "node1", "B": "node2"},
	}

	params, _ := InspectParameters("ref", reflect.TypeOf(func(r grid.Region) {}))
	r, _ := NewContextInjectingArgumentResolver(params, nil)

	got, err := r.ResolveArguments(&testRegionContext{
		testContext: testContext{id: "ref", member: "node2"},
		region:      region,
	})
	if err != nil {
		t.Fatalf("ResolveArguments() error = %v", err)
	}

	local := got[0].(grid.Region)
	if local.Size() != 1 {
		t.Errorf("expected the partition-local view, got %d entries", local.Size())
	}
	if _, ok := local.Get("B"); !ok {
		t.Error("expected B in node2's view")
	}
}

func TestContextInjectingArgumentResolver_CountMismatch(t *testing.T) {
	params, _ := InspectParameters("count", reflect.TypeOf(func(fc grid.FunctionContext, a, b string) {}))
	r, _ := NewContextInjectingArgumentResolver(params, nil)

	_, err := r.ResolveArguments(&testContext{id: "count", args: []any{"only-one"}})
	if err == nil {
		t.Fatal("expected argument count error")
	}
	if !IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "wrong number of arguments for method [count]; expected [3], but was [2]") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestContextInjectingArgumentResolver_NonRegionContextSkipsRegion(t *testing.T) {
	params, _ := InspectParameters("region", reflect.TypeOf(func(data grid.RegionData, s string) {}))
	r, _ := NewContextInjectingArgumentResolver(params, nil)

	_, err := r.ResolveArguments(&testContext{id: "region", args: []any{"s"}})
	if err == nil {
		t.Fatal("expected argument count error for a non-region context")
	}
}

func TestNewContextInjectingArgumentResolver_RejectsInvalidDescriptor(t *testing.T) {
	str := reflect.TypeOf("")
	p := NewParameters("bad", str, str)
	p.Context = 0
	p.ResultSender = 0

	if _, err := NewContextInjectingArgumentResolver(p, nil); err == nil {
		t.Error("expected construction error")
	}
}
