package listing

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/openebl/pkiconsole/pkg/console/model"
)

type SortDirection string
type Operator string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"

	OpEqual       Operator = "equal"
	OpNotEqual    Operator = "not_equal"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
)

var operators = []interface{}{OpEqual, OpNotEqual, OpContains, OpNotContains, OpStartsWith, OpEndsWith, OpBefore, OpAfter}

type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Filter is one (field, operator, value) triple. On the wire it is encoded as field[operator]value,
// e.g. status[equal]ACTIVE.
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

func (f Filter) String() string {
	return fmt.Sprintf("%s[%s]%s", f.Field, f.Operator, f.Value)
}

// ParseFilter decodes the field[operator]value form.
func ParseFilter(s string) (Filter, error) {
	open := strings.Index(s, "[")
	end := strings.Index(s, "]")
	if open <= 0 || end < open {
		return Filter{}, fmt.Errorf("malformed filter %q%w", s, model.ErrInvalidParameter)
	}

	f := Filter{
		Field:    s[:open],
		Operator: Operator(s[open+1 : end]),
		Value:    s[end+1:],
	}
	if err := ValidateFilter(f); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func ValidateFilter(f Filter) error {
	if err := validation.ValidateStruct(&f,
		validation.Field(&f.Field, validation.Required),
		validation.Field(&f.Operator, validation.Required, validation.In(operators...)),
	); err != nil {
		return fmt.Errorf("%s%w", err.Error(), model.ErrInvalidParameter)
	}
	return nil
}

func ValidateSortSpec(sort SortSpec) error {
	if sort.Field == "" && sort.Direction == "" {
		return nil
	}
	if err := validation.ValidateStruct(&sort,
		validation.Field(&sort.Field, validation.Required),
		validation.Field(&sort.Direction, validation.Required, validation.In(SortAsc, SortDesc)),
	); err != nil {
		return fmt.Errorf("%s%w", err.Error(), model.ErrInvalidParameter)
	}
	return nil
}

// ParseSortDirection accepts asc and desc in any case.
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(s)) {
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q%w", s, model.ErrInvalidParameter)
}

func equalFilters(a, b []Filter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
