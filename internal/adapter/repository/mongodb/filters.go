package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

// lowerExpr translates an issue rule expression tree into a MongoDB
// filter document. This is the second interpreter of the rule set; the
// first is Expr.Matches. Both read the same tree, so a rule changed in
// one place changes in both.
func lowerExpr(e domain.Expr) (bson.M, error) {
	switch x := e.(type) {
	case domain.And:
		clauses, err := lowerAll(x)
		if err != nil {
			return nil, err
		}
		return bson.M{"$and": clauses}, nil
	case domain.Or:
		clauses, err := lowerAll(x)
		if err != nil {
			return nil, err
		}
		return bson.M{"$or": clauses}, nil
	case domain.Not:
		switch inner := x.Expr.(type) {
		case domain.FieldIs:
			return bson.M{string(inner.Field): bson.M{"$ne": inner.Value}}, nil
		case domain.HasVisibleImage:
			return bson.M{"images": bson.M{"$not": bson.M{"$elemMatch": bson.M{"is_hidden": false}}}}, nil
		default:
			clause, err := lowerExpr(inner)
			if err != nil {
				return nil, err
			}
			return bson.M{"$nor": bson.A{clause}}, nil
		}
	case domain.FieldIs:
		return bson.M{string(x.Field): x.Value}, nil
	case domain.HasVisibleImage:
		return bson.M{"images": bson.M{"$elemMatch": bson.M{"is_hidden": false}}}, nil
	}
	return nil, fmt.Errorf("cannot lower expression of type %T", e)
}

func lowerAll(exprs []domain.Expr) (bson.A, error) {
	out := make(bson.A, 0, len(exprs))
	for _, e := range exprs {
		clause, err := lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, nil
}

// buildFilter assembles the query document for a bulk listing search.
func buildFilter(f domain.Filter) (bson.M, error) {
	query := bson.M{}
	if len(f.Statuses) > 0 {
		query["status"] = bson.M{"$in": f.Statuses}
	}
	if len(f.Owners) > 0 {
		query["owner_id"] = bson.M{"$in": f.Owners}
	}
	if len(f.Types) > 0 {
		query["type"] = bson.M{"$in": f.Types}
	}
	if !f.IncludeHidden {
		query["is_hidden"] = false
	}
	if f.HasIssues {
		issues, err := lowerExpr(domain.AnyOpenIssue())
		if err != nil {
			return nil, err
		}
		// Merge via $and: the issues clause carries its own status
		// constraint and must not clobber the one above.
		query = bson.M{"$and": bson.A{query, issues}}
	}
	return query, nil
}
