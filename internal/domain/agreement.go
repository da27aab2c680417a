package domain

import (
	"fmt"
	"time"
)

const (
	FieldName                 = "name"
	FieldDescription          = "description"
	FieldProjectID            = "project_id"
	FieldProductServiceCodeID = "product_service_code_id"
	FieldAwardingEntityID     = "awarding_entity_id"
	FieldAgreementReason      = "agreement_reason"
	FieldProjectOfficerID     = "project_officer_id"
	FieldVendor               = "vendor"
)

type Agreement struct {
	ID                   string
	Type                 AgreementType
	Name                 string
	Description          string
	ProjectID            *string
	ProductServiceCodeID *string
	AwardingEntityID     *string
	AgreementReason      *AgreementReason
	ProjectOfficerID     *string
	Vendor               *string
	TeamMemberIDs        []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsTeamMember reports whether userID works on the agreement. The project
// officer always counts as a member.
func (a *Agreement) IsTeamMember(userID string) bool {
	if a.ProjectOfficerID != nil && *a.ProjectOfficerID == userID {
		return true
	}
	for _, id := range a.TeamMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// FieldValue returns the canonical serialized value of an agreement field.
func (a *Agreement) FieldValue(name string) (*string, error) {
	switch name {
	case FieldName:
		return nonEmpty(StrPtr(a.Name)), nil
	case FieldDescription:
		return nonEmpty(StrPtr(a.Description)), nil
	case FieldProjectID:
		return a.ProjectID, nil
	case FieldProductServiceCodeID:
		return a.ProductServiceCodeID, nil
	case FieldAwardingEntityID:
		return a.AwardingEntityID, nil
	case FieldAgreementReason:
		if a.AgreementReason == nil {
			return nil, nil
		}
		return StrPtr(string(*a.AgreementReason)), nil
	case FieldProjectOfficerID:
		return a.ProjectOfficerID, nil
	case FieldVendor:
		return nonEmpty(a.Vendor), nil
	default:
		return nil, fmt.Errorf("agreement has no field %q", name)
	}
}

// ApplyField sets an agreement field from its canonical serialized value.
func (a *Agreement) ApplyField(name string, v *string) error {
	switch name {
	case FieldName:
		a.Name = Deref(v)
	case FieldDescription:
		a.Description = Deref(v)
	case FieldProjectID:
		a.ProjectID = v
	case FieldProductServiceCodeID:
		a.ProductServiceCodeID = v
	case FieldAwardingEntityID:
		a.AwardingEntityID = v
	case FieldAgreementReason:
		if v == nil {
			a.AgreementReason = nil
			return nil
		}
		r := AgreementReason(*v)
		a.AgreementReason = &r
	case FieldProjectOfficerID:
		a.ProjectOfficerID = v
	case FieldVendor:
		a.Vendor = v
	default:
		return fmt.Errorf("agreement field %q is not editable", name)
	}
	return nil
}

// NormalizeAgreementField validates a raw agreement field value and returns its canonical form.
func NormalizeAgreementField(name string, v *string) (*string, error) {
	switch name {
	case FieldName:
		s := nonEmpty(v)
		if s == nil {
			return nil, fmt.Errorf("%s: cannot be empty", name)
		}
		return s, nil
	case FieldDescription, FieldProjectID, FieldProductServiceCodeID,
		FieldAwardingEntityID, FieldProjectOfficerID, FieldVendor:
		return nonEmpty(v), nil
	case FieldAgreementReason:
		s := nonEmpty(v)
		if s == nil {
			return nil, nil
		}
		switch AgreementReason(*s) {
		case ReasonNewRequirement, ReasonRecompete, ReasonLogicalFollowOn:
			return s, nil
		}
		return nil, fmt.Errorf("%s: unknown reason %q", name, *s)
	default:
		return nil, fmt.Errorf("%s: not an editable agreement field", name)
	}
}

// AgreementVariant carries the per-type rules of an agreement.
type AgreementVariant interface {
	Type() AgreementType
	// RequiredFieldsForStatusChange lists the agreement fields that must be
	// present before any of its budget lines leaves DRAFT.
	RequiredFieldsForStatusChange() []string
	// RequiredFieldsForAward lists the fields frozen once the agreement is awarded.
	RequiredFieldsForAward() []string
	// RequiresVendorRule reports whether the vendor must agree with the agreement reason.
	RequiresVendorRule() bool
}

type agreementVariant struct {
	agreementType AgreementType
	statusChange  []string
	award         []string
	vendorRule    bool
}

func (v agreementVariant) Type() AgreementType                      { return v.agreementType }
func (v agreementVariant) RequiredFieldsForStatusChange() []string { return v.statusChange }
func (v agreementVariant) RequiredFieldsForAward() []string        { return v.award }
func (v agreementVariant) RequiresVendorRule() bool                { return v.vendorRule }

var procurementStatusFields = []string{
	FieldProjectID, FieldDescription, FieldProductServiceCodeID,
	FieldAwardingEntityID, FieldAgreementReason, FieldProjectOfficerID,
}

var procurementAwardFields = []string{
	FieldName, FieldProductServiceCodeID, FieldAwardingEntityID,
	FieldAgreementReason, FieldVendor, FieldProjectID,
}

var agreementVariants = map[AgreementType]agreementVariant{
	AgreementContract: {
		agreementType: AgreementContract,
		statusChange:  procurementStatusFields,
		award:         procurementAwardFields,
		vendorRule:    true,
	},
	AgreementAA: {
		agreementType: AgreementAA,
		statusChange:  procurementStatusFields,
		award:         procurementAwardFields,
		vendorRule:    true,
	},
	AgreementIAA: {
		agreementType: AgreementIAA,
		statusChange:  []string{FieldProjectID, FieldDescription, FieldAwardingEntityID, FieldProjectOfficerID},
		award:         []string{FieldName, FieldAwardingEntityID, FieldProjectID},
	},
	AgreementGrant: {
		agreementType: AgreementGrant,
		statusChange:  []string{FieldProjectID, FieldDescription, FieldProjectOfficerID},
		award:         []string{FieldName, FieldProjectID},
	},
	AgreementDirectObligation: {
		agreementType: AgreementDirectObligation,
		statusChange:  []string{FieldProjectID, FieldDescription},
		award:         []string{FieldName},
	},
}

// AgreementTypes lists every supported agreement type.
var AgreementTypes = []AgreementType{
	AgreementContract, AgreementAA, AgreementIAA, AgreementGrant, AgreementDirectObligation,
}

// VariantFor dispatches on the agreement type tag.
func VariantFor(t AgreementType) (AgreementVariant, error) {
	v, ok := agreementVariants[t]
	if !ok {
		return nil, fmt.Errorf("unknown agreement type %q", t)
	}
	return v, nil
}
