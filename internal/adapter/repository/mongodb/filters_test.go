package mongodb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

// evalFilter interprets the subset of MongoDB query operators that
// lowerExpr and buildFilter emit, directly against a domain listing.
// It lets the tests check that the lowered filter document selects
// exactly the listings the in-memory rule evaluation selects.
func evalFilter(q bson.M, l *domain.Listing) bool {
	for key, val := range q {
		switch key {
		case "$and":
			for _, clause := range val.(bson.A) {
				if !evalFilter(clause.(bson.M), l) {
					return false
				}
			}
		case "$or":
			matched := false
			for _, clause := range val.(bson.A) {
				if evalFilter(clause.(bson.M), l) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case "$nor":
			for _, clause := range val.(bson.A) {
				if evalFilter(clause.(bson.M), l) {
					return false
				}
			}
		case "images":
			if !evalImages(val.(bson.M), l) {
				return false
			}
		default:
			if !evalField(key, val, l) {
				return false
			}
		}
	}
	return true
}

func evalImages(op bson.M, l *domain.Listing) bool {
	if cond, ok := op["$elemMatch"].(bson.M); ok {
		return anyImageMatches(l, cond)
	}
	if not, ok := op["$not"].(bson.M); ok {
		if cond, ok := not["$elemMatch"].(bson.M); ok {
			return !anyImageMatches(l, cond)
		}
	}
	panic(fmt.Sprintf("unsupported images operator %v", op))
}

func anyImageMatches(l *domain.Listing, cond bson.M) bool {
	for _, img := range l.Images {
		ok := true
		for k, v := range cond {
			switch k {
			case "is_hidden":
				ok = ok && img.IsHidden == v.(bool)
			case "id":
				ok = ok && img.ID == v.(string)
			default:
				panic(fmt.Sprintf("unsupported image field %s", k))
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func evalField(name string, val interface{}, l *domain.Listing) bool {
	actual := fieldValue(name, l)
	switch v := val.(type) {
	case bson.M:
		if ne, ok := v["$ne"]; ok {
			return actual != fmt.Sprintf("%v", ne)
		}
		if in, ok := v["$in"]; ok {
			return inClauseMatches(in, actual)
		}
		panic(fmt.Sprintf("unsupported operator for field %s: %v", name, v))
	default:
		return actual == fmt.Sprintf("%v", v)
	}
}

func inClauseMatches(in interface{}, actual string) bool {
	switch xs := in.(type) {
	case []domain.ListingStatus:
		for _, x := range xs {
			if string(x) == actual {
				return true
			}
		}
	case []domain.ListingType:
		for _, x := range xs {
			if string(x) == actual {
				return true
			}
		}
	case []string:
		for _, x := range xs {
			if x == actual {
				return true
			}
		}
	default:
		panic(fmt.Sprintf("unsupported $in operand %T", in))
	}
	return false
}

func fieldValue(name string, l *domain.Listing) string {
	switch name {
	case "title":
		return l.Title
	case "description":
		return l.Description
	case "price":
		return l.Price
	case "type":
		return string(l.Type)
	case "status":
		return string(l.Status)
	case "owner_id":
		return l.OwnerID
	case "is_hidden":
		return fmt.Sprintf("%t", l.IsHidden)
	}
	panic(fmt.Sprintf("unsupported field %s", name))
}

// listingGrid enumerates listings across the dimensions the issue rules
// read: type, status, price, description, image visibility, hidden
// flag.
func listingGrid() []*domain.Listing {
	imageSets := map[string][]domain.ListingImage{
		"none":    nil,
		"visible": {{ID: "a", IsHidden: false}},
		"hidden":  {{ID: "a", IsHidden: true}},
		"mixed":   {{ID: "a", IsHidden: true}, {ID: "b", IsHidden: false}},
	}

	var out []*domain.Listing
	id := int64(0)
	for _, typ := range []domain.ListingType{domain.TypeBuy, domain.TypeSell} {
		for _, status := range []domain.ListingStatus{domain.StatusOpen, domain.StatusPending, domain.StatusClosed} {
			for _, price := range []string{"", "5 EUR"} {
				for _, description := range []string{"", "some text"} {
					for _, images := range imageSets {
						for _, hidden := range []bool{false, true} {
							id++
							out = append(out, &domain.Listing{
								ID:          id,
								Title:       "Lamp",
								Description: description,
								Price:       price,
								Type:        typ,
								Status:      status,
								IsHidden:    hidden,
								OwnerID:     "owner",
								Images:      images,
							})
						}
					}
				}
			}
		}
	}
	return out
}

// Every rule expression must select the same listings whether it is
// walked in memory or lowered to a filter document.
func TestLowerExpr_AgreesWithMatches(t *testing.T) {
	exprs := map[string]domain.Expr{"any open issue": domain.AnyOpenIssue()}
	for _, rule := range domain.IssueRules {
		exprs[rule.Details.Title] = rule.Cond
	}

	for name, expr := range exprs {
		t.Run(name, func(t *testing.T) {
			lowered, err := lowerExpr(expr)
			require.NoError(t, err)

			for _, l := range listingGrid() {
				assert.Equal(t, expr.Matches(l), evalFilter(lowered, l),
					"listing %+v, filter %v", l, lowered)
			}
		})
	}
}

func TestLowerExpr_Shapes(t *testing.T) {
	t.Run("field equality", func(t *testing.T) {
		q, err := lowerExpr(domain.FieldIs{Field: domain.FieldPrice, Value: ""})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"price": ""}, q)
	})

	t.Run("negated field", func(t *testing.T) {
		q, err := lowerExpr(domain.Not{Expr: domain.FieldIs{Field: domain.FieldStatus, Value: "closed"}})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"status": bson.M{"$ne": "closed"}}, q)
	})

	t.Run("visible image", func(t *testing.T) {
		q, err := lowerExpr(domain.HasVisibleImage{})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"images": bson.M{"$elemMatch": bson.M{"is_hidden": false}}}, q)
	})

	t.Run("no visible image", func(t *testing.T) {
		q, err := lowerExpr(domain.Not{Expr: domain.HasVisibleImage{}})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"images": bson.M{"$not": bson.M{"$elemMatch": bson.M{"is_hidden": false}}}}, q)
	})
}

func TestBuildFilter(t *testing.T) {
	t.Run("default excludes hidden", func(t *testing.T) {
		q, err := buildFilter(domain.Filter{})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"is_hidden": false}, q)
	})

	t.Run("include hidden drops the clause", func(t *testing.T) {
		q, err := buildFilter(domain.Filter{IncludeHidden: true})
		require.NoError(t, err)
		assert.Equal(t, bson.M{}, q)
	})

	t.Run("enum filters become $in clauses", func(t *testing.T) {
		q, err := buildFilter(domain.Filter{
			Statuses:      []domain.ListingStatus{domain.StatusOpen, domain.StatusPending},
			Owners:        []string{"alice"},
			Types:         []domain.ListingType{domain.TypeSell},
			IncludeHidden: true,
		})
		require.NoError(t, err)
		assert.Equal(t, bson.M{
			"status":   bson.M{"$in": []domain.ListingStatus{domain.StatusOpen, domain.StatusPending}},
			"owner_id": bson.M{"$in": []string{"alice"}},
			"type":     bson.M{"$in": []domain.ListingType{domain.TypeSell}},
		}, q)
	})

	t.Run("has-issues merges under $and", func(t *testing.T) {
		q, err := buildFilter(domain.Filter{HasIssues: true, IncludeHidden: true})
		require.NoError(t, err)
		clauses, ok := q["$and"].(bson.A)
		require.True(t, ok)
		require.Len(t, clauses, 2)
	})

	t.Run("full filter selects the expected listings", func(t *testing.T) {
		f := domain.Filter{
			Owners:    []string{"owner"},
			HasIssues: true,
		}
		q, err := buildFilter(f)
		require.NoError(t, err)

		issues := domain.AnyOpenIssue()
		for _, l := range listingGrid() {
			want := !l.IsHidden && issues.Matches(l)
			assert.Equal(t, want, evalFilter(q, l), "listing %+v", l)
		}
	})
}
