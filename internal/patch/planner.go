package patch

import (
	"errors"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Assignment is one column set to one coerced value.
type Assignment struct {
	Column string
	Value  any
}

// Rejection records a patch key that did not become an assignment.
type Rejection struct {
	Field string
	Err   *coerce.FieldError
}

// Plan is the validated set of assignments derived from a patch.
// Every patch key ends up in exactly one of Assignments or Rejected,
// except the identifier column which is skipped.
type Plan struct {
	Table       *schema.TableSpec
	ID          any
	Assignments []Assignment
	Rejected    []Rejection
}

// Empty reports whether the plan assigns nothing.
func (p *Plan) Empty() bool {
	return len(p.Assignments) == 0
}

// Lookup returns the value assigned to column, if any.
func (p *Plan) Lookup(column string) (any, bool) {
	for _, a := range p.Assignments {
		if a.Column == column {
			return a.Value, true
		}
	}
	return nil, false
}

// Set assigns value to column, replacing an existing assignment in place.
// Repositories use it to inject derived columns after planning.
func (p *Plan) Set(column string, value any) {
	for i := range p.Assignments {
		if p.Assignments[i].Column == column {
			p.Assignments[i].Value = value
			return
		}
	}
	p.Assignments = append(p.Assignments, Assignment{Column: column, Value: value})
}

// Columns returns the assigned column names in order.
func (p *Plan) Columns() []string {
	cols := make([]string, len(p.Assignments))
	for i, a := range p.Assignments {
		cols[i] = a.Column
	}
	return cols
}

// Ignored returns the keys rejected as unknown or immutable. They do not
// fail the request.
func (p *Plan) Ignored() []string {
	var out []string
	for _, r := range p.Rejected {
		if r.Err.Reason == coerce.ReasonUnknownOrImmutable {
			out = append(out, r.Field)
		}
	}
	return out
}

// Invalid returns the rejections caused by values that failed coercion.
func (p *Plan) Invalid() []Rejection {
	var out []Rejection
	for _, r := range p.Rejected {
		if r.Err.Reason != coerce.ReasonUnknownOrImmutable {
			out = append(out, r)
		}
	}
	return out
}

// Validate returns the client error for a plan that must not be applied:
// every invalid field value at once, or PLAN_EMPTY when nothing is left.
func (p *Plan) Validate() error {
	if invalid := p.Invalid(); len(invalid) > 0 {
		issues := make([]apperrors.FieldIssue, len(invalid))
		for i, r := range invalid {
			issues[i] = issueOf(r.Err)
		}
		msg := invalid[0].Err.Error()
		if len(invalid) > 1 {
			msg = "Invalid values for " + joinFields(invalid)
		}
		return apperrors.NewValidationError(apperrors.CodeValidationFailed, msg).WithFields(issues)
	}
	if p.Empty() {
		return apperrors.NewValidationError(apperrors.CodePlanEmpty, "No valid fields to update")
	}
	return nil
}

func joinFields(rs []Rejection) string {
	s := ""
	for i, r := range rs {
		if i > 0 {
			s += ", "
		}
		s += r.Field
	}
	return s
}

func issueOf(fe *coerce.FieldError) apperrors.FieldIssue {
	return apperrors.FieldIssue{Field: fe.Field, Reason: string(fe.Reason), Message: fe.Error()}
}

// requiredViolation aborts the whole plan. It is never collected with
// other field errors.
func requiredViolation(fe *coerce.FieldError) error {
	return apperrors.NewValidationError(apperrors.CodeRequiredField, fe.Error()).
		WithFields([]apperrors.FieldIssue{issueOf(fe)})
}

// BuildUpdate plans a partial update of the row identified by id. The
// caller has already confirmed the row exists. A required-field violation
// returns an error immediately; all other problems are recorded on the plan.
func BuildUpdate(table *schema.TableSpec, id any, p *Patch) (*Plan, error) {
	plan := &Plan{Table: table, ID: id}

	for _, key := range p.Keys() {
		if key == table.Identifier {
			continue
		}
		raw, _ := p.Get(key)
		if err := plan.add(key, raw); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// BuildInsert plans a new row. For tables with client-supplied identifiers
// the identifier is taken from the patch into plan.ID. Required fields must
// be present, and absent columns with a default receive it.
func BuildInsert(table *schema.TableSpec, p *Patch) (*Plan, error) {
	plan := &Plan{Table: table}

	if table.IDStrategy == schema.IDClientSupplied {
		idCol := table.IdentifierColumn()
		raw, _ := p.Get(table.Identifier)
		id, err := coerce.Coerce(idCol, raw, true)
		if err != nil {
			var fe *coerce.FieldError
			if errors.As(err, &fe) {
				return nil, requiredViolation(fe)
			}
			return nil, err
		}
		plan.ID = id
	}

	for _, key := range p.Keys() {
		if key == table.Identifier {
			continue
		}
		raw, _ := p.Get(key)
		if err := plan.add(key, raw); err != nil {
			return nil, err
		}
	}

	for _, name := range table.Required {
		if !p.Has(name) {
			c, _ := table.Column(name)
			return nil, requiredViolation(&coerce.FieldError{Field: name, Label: c.DisplayName(), Reason: coerce.ReasonRequired})
		}
	}

	for _, c := range table.Columns {
		if !c.Mutable || c.Default == nil || p.Has(c.Name) {
			continue
		}
		plan.Assignments = append(plan.Assignments, Assignment{Column: c.Name, Value: c.Default})
	}
	return plan, nil
}

// add coerces one patch entry onto the p.
func (p *Plan) add(key string, raw any) error {
	table := p.Table
	c, ok := table.Column(key)
	if !ok || !c.Mutable {
		p.Rejected = append(p.Rejected, Rejection{
			Field: key,
			Err:   &coerce.FieldError{Field: key, Label: key, Reason: coerce.ReasonUnknownOrImmutable},
		})
		return nil
	}

	required := table.IsRequired(key)
	v, err := coerce.Coerce(c, raw, required)
	if err != nil {
		var fe *coerce.FieldError
		if !errors.As(err, &fe) {
			return err
		}
		if required {
			return requiredViolation(fe)
		}
		p.Rejected = append(p.Rejected, Rejection{Field: key, Err: fe})
		return nil
	}

	// Non-text required fields can coerce a blank input to a zero value;
	// the required rule still treats that input as empty.
	if required && c.Kind != schema.KindText && c.Kind != schema.KindBoundedText && coerce.IsBlank(raw) {
		return requiredViolation(&coerce.FieldError{Field: key, Label: c.DisplayName(), Reason: coerce.ReasonRequired})
	}

	p.Assignments = append(p.Assignments, Assignment{Column: key, Value: v})
	return nil
}
