package schema

import (
	"fmt"
	"sync"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
)

// Layer is a set of mutually-independent expressions sharing an evaluation
// step (spec.md §3, "Layer"). Expressions within a layer may only depend on
// raw columns or columns produced by a strictly earlier layer.
type Layer []*Expression

// DataFrameSchematic is the immutable schema + layered expression pipeline
// applied to produce a frame (spec.md §4.2). Construct with New; the
// zero value is not usable.
type DataFrameSchematic struct {
	fields []dataframe.Field
	layers []Layer
}

// New validates and constructs a DataFrameSchematic from an ordered field
// list and ordered expression layers. It rejects malformed schematics with a
// dferr.KindSchema error:
//   - duplicate field names,
//   - an expression output name absent from fields,
//   - an expression input name not present in the schema as of its layer
//     (raw fields plus every earlier layer's outputs).
func New(fields []dataframe.Field, layers []Layer) (*DataFrameSchematic, error) {
	seen := make(map[string]bool, len(fields))
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return nil, dferr.New(dferr.KindSchema, "duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		declared[f.Name] = true
	}

	// Raw fields are the declared fields no expression produces; only they are
	// available to the first layer.
	produced := make(map[string]bool)
	for _, layer := range layers {
		for _, expr := range layer {
			for _, out := range expr.Outputs() {
				produced[out] = true
			}
		}
	}
	available := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !produced[f.Name] {
			available[f.Name] = true
		}
	}

	for li, layer := range layers {
		for _, expr := range layer {
			for _, in := range expr.Inputs() {
				if !available[in] {
					return nil, dferr.New(dferr.KindSchema,
						"layer %d expression %s references undefined input %q", li, expr, in)
				}
			}
		}
		// Outputs become available only after the whole layer is declared,
		// matching the independence invariant (a layer cannot consume its own
		// output).
		for _, expr := range layer {
			for _, out := range expr.Outputs() {
				if !declared[out] {
					return nil, dferr.New(dferr.KindSchema,
						"layer %d expression %s produces undeclared output %q", li, expr, out)
				}
			}
		}
		for _, expr := range layer {
			for _, out := range expr.Outputs() {
				available[out] = true
			}
		}
	}

	for name := range declared {
		if !available[name] {
			return nil, dferr.New(dferr.KindSchema, "field %q is never produced by any layer or raw column", name)
		}
	}

	return &DataFrameSchematic{
		fields: append([]dataframe.Field(nil), fields...),
		layers: layers,
	}, nil
}

// SchemaFields returns the schematic's declared field list, in order.
func (s *DataFrameSchematic) SchemaFields() []dataframe.Field {
	return append([]dataframe.Field(nil), s.fields...)
}

// NewEmptyFrame allocates a DataFrame matching this schematic's schema,
// seeded with zero rows (spec.md I4, lazy FrameCell creation).
func (s *DataFrameSchematic) NewEmptyFrame() *dataframe.DataFrame {
	return dataframe.New(s.fields)
}

// Apply evaluates every layer in order against df, appending each
// expression's output column(s) before the next layer runs. Expressions
// within a layer are independent and are evaluated concurrently (spec.md
// §4.2). After the final layer, df's columns match the schematic's schema
// field-for-field (P5 idempotence requires calling this only on a frame
// whose raw columns are already populated for the full row range).
func (s *DataFrameSchematic) Apply(df *dataframe.DataFrame) error {
	for li, layer := range s.layers {
		results := make([]map[string]*dataframe.Series, len(layer))
		errs := make([]error, len(layer))

		var wg sync.WaitGroup
		for i, expr := range layer {
			wg.Add(1)
			go func(i int, expr *Expression) {
				defer wg.Done()
				out, err := expr.eval(df)
				results[i] = out
				errs[i] = err
			}(i, expr)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				return dferr.Wrap(dferr.KindCompute, err, "layer %d expression %s failed", li, layer[i])
			}
		}
		for _, out := range results {
			for name, series := range out {
				if err := setColumn(df, name, series); err != nil {
					return dferr.Wrap(dferr.KindCompute, err, "layer %d: assigning column %q", li, name)
				}
			}
		}
	}

	if df.Height() > 0 {
		for _, f := range s.fields {
			col, ok := df.Column(f.Name)
			if !ok || col.Len() != df.Height() {
				return dferr.New(dferr.KindCompute, "schematic produced a frame that does not match schema at column %q", f.Name)
			}
		}
	}
	return nil
}

// setColumn replaces df's named column's contents in place, since
// DataFrame.columns is allocated up-front by schema at construction and
// expressions compute a whole new column each time they run.
func setColumn(df *dataframe.DataFrame, name string, series *dataframe.Series) error {
	col, ok := df.Column(name)
	if !ok {
		return fmt.Errorf("no such column %q", name)
	}
	if col.DType != series.DType {
		return fmt.Errorf("column %q: dtype mismatch, schema wants %s, expression produced %s", name, col.DType, series.DType)
	}
	*col = *series
	col.Name = name
	return nil
}

// Describe returns a diagnostic summary of the schematic's fields and layer
// boundaries, for operator tooling (supplements the enumerated §4.2
// contract; does not change evaluation semantics).
func (s *DataFrameSchematic) Describe() string {
	out := fmt.Sprintf("fields: %d, layers: %d\n", len(s.fields), len(s.layers))
	for i, layer := range s.layers {
		out += fmt.Sprintf("  layer %d:\n", i)
		for _, expr := range layer {
			out += fmt.Sprintf("    %s\n", expr)
		}
	}
	return out
}
