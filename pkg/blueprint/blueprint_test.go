package blueprint

import "testing"

func TestCatalogBuildsBothBlueprints(t *testing.T) {
	catalog, err := Catalog()
	if err != nil {
		t.Fatalf("unexpected error building catalog: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 blueprints, got %d", len(catalog))
	}

	seen := make(map[string]bool, len(catalog))
	for _, bp := range catalog {
		seen[bp.ID] = true
		if bp.MinimumRows == 0 {
			t.Fatalf("blueprint %q: expected a non-zero minimum row count", bp.ID)
		}
	}
	if !seen[momentumTradingSystemName] || !seen[laggedReturnsTradingSystemName] {
		t.Fatalf("expected both known blueprint ids, got %+v", seen)
	}
}

func TestMomentumSchemaShape(t *testing.T) {
	bp, err := Momentum()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := bp.Schematic.SchemaFields()
	last := fields[len(fields)-1]
	if last.Name != momentumEntryConditionCol {
		t.Fatalf("expected the entry-condition column last in schema order, got %q", last.Name)
	}
}

func TestLaggedReturnsSchemaShape(t *testing.T) {
	bp, err := LaggedReturns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := bp.Schematic.SchemaFields()
	last := fields[len(fields)-1]
	if last.Name != targetCol {
		t.Fatalf("expected the target column last in schema order, got %q", last.Name)
	}
}
