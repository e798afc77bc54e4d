package dag

import (
	"errors"
	"reflect"
	"testing"
)

func TestGraph_AddModel_Idempotent(t *testing.T) {
	g := NewGraph()

	first := g.AddModel("bronze.users")
	second := g.AddModel("bronze.users")

	if first != second {
		t.Errorf("expected same index for repeated add, got %d and %d", first, second)
	}
	if g.ModelCount() != 1 {
		t.Errorf("expected 1 model, got %d", g.ModelCount())
	}
}

func TestGraph_AddDependency_Idempotent(t *testing.T) {
	g := NewGraph()

	g.AddDependency("gold.orders", "bronze.users")
	g.AddDependency("gold.orders", "bronze.users")

	if g.ModelCount() != 2 {
		t.Errorf("expected 2 models, got %d", g.ModelCount())
	}
	if g.DependencyCount() != 1 {
		t.Errorf("expected 1 dependency, got %d", g.DependencyCount())
	}
}

func TestGraph_DependentsAndDependencies(t *testing.T) {
	g := NewGraph()
	g.AddDependency("gold.orders", "bronze.users")
	g.AddDependency("silver.customers", "bronze.users")

	dependents := g.Dependents("bronze.users")
	want := []string{"gold.orders", "silver.customers"}
	if !reflect.DeepEqual(dependents, want) {
		t.Errorf("expected dependents %v, got %v", want, dependents)
	}

	dependencies := g.Dependencies("gold.orders")
	if !reflect.DeepEqual(dependencies, []string{"bronze.users"}) {
		t.Errorf("expected dependencies [bronze.users], got %v", dependencies)
	}
}

func TestGraph_UnknownNamesReturnEmpty(t *testing.T) {
	g := NewGraph()
	g.AddModel("a")

	if deps := g.Dependencies("missing"); len(deps) != 0 {
		t.Errorf("expected no dependencies for unknown name, got %v", deps)
	}
	if deps := g.Dependents("missing"); len(deps) != 0 {
		t.Errorf("expected no dependents for unknown name, got %v", deps)
	}
	if up := g.Upstream("missing", 1); len(up) != 0 {
		t.Errorf("expected no upstream for unknown name, got %v", up)
	}
}

func TestGraph_ExecutionOrder(t *testing.T) {
	g := NewGraph()
	// gold.summary depends on silver.orders and silver.customers,
	// both of which depend on bronze.raw.
	g.AddDependency("silver.orders", "bronze.raw")
	g.AddDependency("silver.customers", "bronze.raw")
	g.AddDependency("gold.summary", "silver.orders")
	g.AddDependency("gold.summary", "silver.customers")

	order, err := g.ExecutionOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("expected 4 models in order, got %d", len(order))
	}

	pos := make(map[string]int)
	for i, name := range order {
		pos[name] = i
	}
	if pos["bronze.raw"] > pos["silver.orders"] {
		t.Error("bronze.raw must run before silver.orders")
	}
	if pos["bronze.raw"] > pos["silver.customers"] {
		t.Error("bronze.raw must run before silver.customers")
	}
	if pos["silver.orders"] > pos["gold.summary"] {
		t.Error("silver.orders must run before gold.summary")
	}
	if pos["silver.customers"] > pos["gold.summary"] {
		t.Error("silver.customers must run before gold.summary")
	}
}

func TestGraph_ExecutionOrder_Deterministic(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		g.AddModel("c")
		g.AddModel("a")
		g.AddModel("b")
		g.AddDependency("b", "a")
		return g
	}

	first, err := build().ExecutionOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := build().ExecutionOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected deterministic order, got %v and %v", first, second)
	}
}

func TestGraph_Cycle(t *testing.T) {
	g := NewGraph()
	g.AddDependency("a", "b")
	g.AddDependency("b", "a")

	if !g.HasCycles() {
		t.Error("expected cycle to be detected")
	}

	_, err := g.ExecutionOrder()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if len(cycleErr.Cycle) < 3 {
		t.Errorf("expected cycle path with repeated endpoint, got %v", cycleErr.Cycle)
	}
}

func TestGraph_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddDependency("a", "a")

	if !g.HasCycles() {
		t.Error("expected self-loop to surface as a cycle")
	}
	if _, err := g.ExecutionOrder(); err == nil {
		t.Error("expected execution order to fail on self-loop")
	}
}

func TestGraph_NoCycle(t *testing.T) {
	g := NewGraph()
	g.AddDependency("b", "a")
	g.AddDependency("c", "b")

	if g.HasCycles() {
		t.Error("expected no cycle")
	}
}

func TestGraph_UpstreamSingleHop(t *testing.T) {
	g := NewGraph()
	g.AddDependency("b", "a")
	g.AddDependency("c", "b")

	up := g.Upstream("c", 1)
	if !reflect.DeepEqual(up, []string{"b"}) {
		t.Errorf("expected single-hop upstream [b], got %v", up)
	}
}

func TestGraph_UpstreamTransitive(t *testing.T) {
	g := NewGraph()
	g.AddDependency("b", "a")
	g.AddDependency("c", "b")
	g.AddDependency("d", "c")

	up := g.Upstream("d", -1)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(up, want) {
		t.Errorf("expected transitive upstream %v, got %v", want, up)
	}

	up = g.Upstream("d", 2)
	want = []string{"b", "c"}
	if !reflect.DeepEqual(up, want) {
		t.Errorf("expected two-hop upstream %v, got %v", want, up)
	}
}

func TestGraph_Downstream(t *testing.T) {
	g := NewGraph()
	g.AddDependency("b", "a")
	g.AddDependency("c", "a")
	g.AddDependency("d", "c")

	down := g.Downstream("a", 1)
	want := []string{"b", "c"}
	if !reflect.DeepEqual(down, want) {
		t.Errorf("expected single-hop downstream %v, got %v", want, down)
	}

	down = g.Downstream("a", -1)
	want = []string{"b", "c", "d"}
	if !reflect.DeepEqual(down, want) {
		t.Errorf("expected transitive downstream %v, got %v", want, down)
	}
}

func TestGraph_Clear(t *testing.T) {
	g := NewGraph()
	g.AddDependency("b", "a")
	g.Clear()

	if g.ModelCount() != 0 || g.DependencyCount() != 0 {
		t.Errorf("expected empty graph after clear, got %d models, %d edges",
			g.ModelCount(), g.DependencyCount())
	}
}

func TestGraph_Models_InsertionOrder(t *testing.T) {
	g := NewGraph()
	g.AddModel("c")
	g.AddModel("a")
	g.AddModel("b")

	want := []string{"c", "a", "b"}
	if got := g.Models(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected models %v, got %v", want, got)
	}
}
