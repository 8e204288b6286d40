package domain

// Issue rules must give identical answers whether evaluated against one
// in-memory listing or pushed down into a bulk store query. Each rule is
// therefore declared once as a boolean expression tree; Matches walks it
// directly, and the mongodb adapter lowers the same tree to a filter
// document. Rule authors touch only the Cond field.

type Expr interface {
	Matches(l *Listing) bool
}

type And []Expr

func (e And) Matches(l *Listing) bool {
	for _, sub := range e {
		if !sub.Matches(l) {
			return false
		}
	}
	return true
}

type Or []Expr

func (e Or) Matches(l *Listing) bool {
	for _, sub := range e {
		if sub.Matches(l) {
			return true
		}
	}
	return false
}

type Not struct {
	Expr Expr
}

func (e Not) Matches(l *Listing) bool { return !e.Expr.Matches(l) }

// FieldIs compares a scalar listing field against a literal value.
type FieldIs struct {
	Field Field
	Value string
}

func (e FieldIs) Matches(l *Listing) bool {
	switch e.Field {
	case FieldTitle:
		return l.Title == e.Value
	case FieldDescription:
		return l.Description == e.Value
	case FieldPrice:
		return l.Price == e.Value
	case FieldType:
		return string(l.Type) == e.Value
	case FieldStatus:
		return string(l.Status) == e.Value
	}
	return false
}

// HasVisibleImage is true when at least one non-hidden image is
// attached.
type HasVisibleImage struct{}

func (HasVisibleImage) Matches(l *Listing) bool { return len(l.VisibleImages()) > 0 }

type IssueDetails struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Icon               string `json:"icon"`
	ResolutionLocation string `json:"resolution_location"`
}

type IssueRule struct {
	Details IssueDetails
	Cond    Expr
}

func (r IssueRule) Applies(l *Listing) bool { return r.Cond.Matches(l) }

var IssueRules = []IssueRule{
	{
		Details: IssueDetails{
			Title:              "No images",
			Description:        "Your listing has no images. Please send at least one photo of the item in your listing's thread.",
			Icon:               "image",
			ResolutionLocation: "discord",
		},
		Cond: And{Not{HasVisibleImage{}}, FieldIs{Field: FieldType, Value: string(TypeSell)}},
	},
	{
		Details: IssueDetails{
			Title:              "No price",
			Description:        "Your listing has no price.",
			Icon:               "dollar-sign",
			ResolutionLocation: "ui",
		},
		Cond: And{FieldIs{Field: FieldPrice, Value: ""}, FieldIs{Field: FieldType, Value: string(TypeSell)}},
	},
	{
		Details: IssueDetails{
			Title:              "No description",
			Description:        "Your listing has no description.",
			Icon:               "text",
			ResolutionLocation: "ui",
		},
		Cond: FieldIs{Field: FieldDescription, Value: ""},
	},
}

// AnyOpenIssue is the bulk-OR combination of all rules, restricted to
// non-closed listings. It backs both search's hasIssues filter and the
// reminder sweep.
func AnyOpenIssue() Expr {
	conds := make(Or, 0, len(IssueRules))
	for _, rule := range IssueRules {
		conds = append(conds, rule.Cond)
	}
	return And{Not{FieldIs{Field: FieldStatus, Value: string(StatusClosed)}}, conds}
}

// Issues evaluates every rule against the listing. Closed listings are
// exempt: a closed listing never has issues, whatever its fields hold.
func (l *Listing) Issues() []IssueDetails {
	if l.Status == StatusClosed {
		return nil
	}
	var out []IssueDetails
	for _, rule := range IssueRules {
		if rule.Applies(l) {
			out = append(out, rule.Details)
		}
	}
	return out
}
