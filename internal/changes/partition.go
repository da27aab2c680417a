package changes

import "github.com/alexanderramin/budgetops/internal/domain"

// Group is one independently reviewable slice of a proposed edit.
type Group struct {
	// Name is the change request field group: the budget field name, or
	// domain.StatusFieldGroup.
	Name string
	Data domain.FieldValues
}

// Partitioned is a changed field set split by how it must be applied.
type Partitioned struct {
	// Direct fields never need review.
	Direct domain.FieldValues
	// Groups holds one entry per changed budget field, in domain.BudgetFields
	// order, followed by the status group when status changed.
	Groups []Group
}

// Partition splits changed fields into direct fields and review groups.
// Fields that are neither budget, status nor direct fields are ignored.
func Partition(changed domain.FieldValues) Partitioned {
	p := Partitioned{Direct: domain.FieldValues{}}
	for _, f := range domain.BudgetFields {
		if v, ok := changed[f]; ok {
			p.Groups = append(p.Groups, Group{Name: f, Data: domain.FieldValues{f: v}})
		}
	}
	if v, ok := changed[domain.FieldStatus]; ok {
		p.Groups = append(p.Groups, Group{
			Name: domain.StatusFieldGroup,
			Data: domain.FieldValues{domain.FieldStatus: v},
		})
	}
	for _, f := range domain.DirectFields {
		if v, ok := changed[f]; ok {
			p.Direct[f] = v
		}
	}
	return p
}

// Reviewed merges every review group back into one field set.
func (p Partitioned) Reviewed() domain.FieldValues {
	out := domain.FieldValues{}
	for _, g := range p.Groups {
		for k, v := range g.Data {
			out[k] = v
		}
	}
	return out
}

// HasStatusChange reports whether the status group is present.
func (p Partitioned) HasStatusChange() bool {
	for _, g := range p.Groups {
		if g.Name == domain.StatusFieldGroup {
			return true
		}
	}
	return false
}
