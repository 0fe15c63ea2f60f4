// Package schema checks the shape of loosely typed field maps.
//
// Journey fields travel as map[string]any and come back from JSON stores as
// float64, []any and map[string]any. A Schema maps field names to a Type that
// accepts both the in-memory and the decoded form of a value:
//
//	shapes := schema.Schema{
//	    "name":       schema.String(),
//	    "sumInsured": schema.Int(),
//	    "addons":     schema.Slice(schema.String()),
//	}
//
//	if err := schema.Check(shapes, snap.Fields); err != nil {
//	    // treat the snapshot as corrupt
//	}
//
// Validate requires every declared field; Check only inspects the ones present.
package schema
