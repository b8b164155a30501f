// Package query builds immutable query plans for the provider directory
// search. Composition is pure: a Plan is assembled and validated without any
// store access, then consumed once by the postgres repository.
package query

import (
	"fmt"
	"math"
	"strings"
)

// Filter is a single attribute predicate. Filters are AND-combined.
type Filter struct {
	Field string `json:"field"`
	Op    string `json:"op"` // eq, ne, gt, gte, lt, lte
	Value any    `json:"value"`
}

// Sort is one (field, direction) pair of an ordering specification.
type Sort struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Distance restricts results to providers within RadiusKm of a point,
// measured as great-circle distance.
type Distance struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius"`
}

// Plan is the composed, immutable query plan. Stage order is fixed:
// filters narrow first, then the distance restriction, then ordering.
type Plan struct {
	Filters  []Filter
	Distance *Distance
	Sort     []Sort
}

// SpecError reports an invalid filter or sort specification, scoped to the
// offending field for direct display.
type SpecError struct {
	Field   string
	Message string
}

func (e *SpecError) Error() string { return e.Field + ": " + e.Message }

// columns maps externally visible field names to provider table columns.
// Any other field name targets the jsonb attributes payload.
var columns = map[string]string{
	"username": "username",
	"name":     "name",
	"country":  "country",
	"state":    "state",
	"city":     "city",
	"street":   "street",
	"zipcode":  "zipcode",
}

var ops = map[string]string{
	"eq":  "=",
	"ne":  "<>",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

// Compose validates the given specifications and folds them into a Plan.
// A nil Distance and empty filter/sort slices yield the empty plan, which
// renders the base query in store-natural order.
func Compose(filters []Filter, distance *Distance, sort []Sort) (Plan, error) {
	for _, f := range filters {
		if f.Field == "" {
			return Plan{}, &SpecError{Field: "filters", Message: "filter field must not be empty"}
		}
		if _, ok := ops[f.Op]; !ok {
			return Plan{}, &SpecError{Field: f.Field, Message: fmt.Sprintf("unknown filter operator %q", f.Op)}
		}
		if f.Value == nil {
			return Plan{}, &SpecError{Field: f.Field, Message: "filter value must not be null"}
		}
	}
	if distance != nil && distance.RadiusKm < 0 {
		return Plan{}, &SpecError{Field: "within", Message: "radius must not be negative"}
	}
	for _, s := range sort {
		if s.Field == "" {
			return Plan{}, &SpecError{Field: "sort", Message: "sort field must not be empty"}
		}
	}
	return Plan{Filters: filters, Distance: distance, Sort: sort}, nil
}

// Empty reports whether the plan adds nothing to the base query.
func (p Plan) Empty() bool {
	return len(p.Filters) == 0 && p.Distance == nil && len(p.Sort) == 0
}

// SQL renders the plan as a single statement over the given base SELECT,
// with positional arguments. Stages are applied in fixed order:
// filter conditions, distance restriction, ORDER BY.
func (p Plan) SQL(base string) (string, []any) {
	var (
		sb    strings.Builder
		conds []string
		args  []any
	)
	sb.WriteString(base)

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range p.Filters {
		op := ops[f.Op]
		if col, ok := columns[f.Field]; ok {
			conds = append(conds, fmt.Sprintf("%s %s %s", col, op, next(f.Value)))
			continue
		}
		// jsonb attribute: numeric values compare as numbers, the rest as text
		if isNumeric(f.Value) {
			conds = append(conds, fmt.Sprintf("(attributes->>%s)::numeric %s %s", next(f.Field), op, next(f.Value)))
		} else {
			conds = append(conds, fmt.Sprintf("attributes->>%s %s %s", next(f.Field), op, next(f.Value)))
		}
	}

	if d := p.Distance; d != nil {
		lat := next(d.Latitude)
		lng := next(d.Longitude)
		conds = append(conds,
			"latitude IS NOT NULL",
			"longitude IS NOT NULL",
			fmt.Sprintf(
				"6371 * 2 * asin(sqrt(power(sin(radians(%[1]s - latitude) / 2), 2) + cos(radians(latitude)) * cos(radians(%[1]s)) * power(sin(radians(%[2]s - longitude) / 2), 2))) <= %[3]s",
				lat, lng, next(d.RadiusKm)),
		)
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(p.Sort) > 0 {
		var orders []string
		for _, s := range p.Sort {
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			if col, ok := columns[s.Field]; ok {
				orders = append(orders, col+" "+dir)
			} else {
				orders = append(orders, fmt.Sprintf("attributes->>%s %s", next(s.Field), dir))
			}
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}

	return sb.String(), args
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// (latitude, longitude) points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// Contains reports whether the point lies within the distance restriction.
// Mirrors the SQL rendering exactly, including the inclusive radius bound.
func (d Distance) Contains(lat, lng float64) bool {
	return HaversineKm(d.Latitude, d.Longitude, lat, lng) <= d.RadiusKm
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
