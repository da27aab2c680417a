package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNameCounter atomic.Int64

func nextName(prefix string) string {
	return fmt.Sprintf("%s-%03d", prefix, testNameCounter.Add(1))
}

// User options
type UserOption func(*domain.User)

func WithCapabilities(caps ...domain.Capability) UserOption {
	return func(u *domain.User) {
		u.Capabilities = caps
	}
}

func NewTestUser(name string, opts ...UserOption) *domain.User {
	u := &domain.User{
		ID:        uuid.New().String(),
		FullName:  name,
		Email:     name + "@example.gov",
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Agreement options
type AgreementOption func(*domain.Agreement)

func WithAgreementType(t domain.AgreementType) AgreementOption {
	return func(a *domain.Agreement) {
		a.Type = t
	}
}

func WithAwardingEntity(shopID string) AgreementOption {
	return func(a *domain.Agreement) {
		a.AwardingEntityID = &shopID
	}
}

func WithProjectOfficer(userID string) AgreementOption {
	return func(a *domain.Agreement) {
		a.ProjectOfficerID = &userID
	}
}

func WithTeamMembers(userIDs ...string) AgreementOption {
	return func(a *domain.Agreement) {
		a.TeamMemberIDs = userIDs
	}
}

func WithoutAgreementField(field string) AgreementOption {
	return func(a *domain.Agreement) {
		_ = a.ApplyField(field, nil)
	}
}

// NewTestAgreement returns an agreement with every field a budget line needs
// to leave DRAFT. The awarding entity must be set with WithAwardingEntity
// before it is stored.
func NewTestAgreement(opts ...AgreementOption) *domain.Agreement {
	now := time.Now().UTC()
	reason := domain.ReasonNewRequirement
	a := &domain.Agreement{
		ID:                   uuid.New().String(),
		Type:                 domain.AgreementContract,
		Name:                 nextName("agreement"),
		Description:          "Test agreement",
		ProjectID:            domain.StrPtr("project-1"),
		ProductServiceCodeID: domain.StrPtr("psc-1"),
		AgreementReason:      &reason,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BudgetLineItem options
type BudgetLineOption func(*domain.BudgetLineItem)

func WithAmount(amount string) BudgetLineOption {
	return func(b *domain.BudgetLineItem) {
		d := decimal.RequireFromString(amount)
		b.Amount = &d
	}
}

func WithCAN(canID string) BudgetLineOption {
	return func(b *domain.BudgetLineItem) {
		b.CANID = &canID
	}
}

func WithDateNeeded(d time.Time) BudgetLineOption {
	return func(b *domain.BudgetLineItem) {
		b.DateNeeded = &d
	}
}

func WithStatus(s domain.BudgetLineStatus) BudgetLineOption {
	return func(b *domain.BudgetLineItem) {
		b.Status = s
	}
}

func WithServicesComponent(id string) BudgetLineOption {
	return func(b *domain.BudgetLineItem) {
		b.ServicesComponentID = &id
	}
}

func WithCreatedBy(userID string) BudgetLineOption {
	return func(b *domain.BudgetLineItem) {
		b.CreatedBy = userID
	}
}

func NewTestBudgetLine(agreementID string, opts ...BudgetLineOption) *domain.BudgetLineItem {
	now := time.Now().UTC()
	b := &domain.BudgetLineItem{
		ID:          uuid.New().String(),
		AgreementID: agreementID,
		Status:      domain.BudgetLineDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func NewTestDivision(name string, directorID, deputyID *string) *domain.Division {
	return &domain.Division{
		ID:               uuid.New().String(),
		Name:             name,
		Abbreviation:     name[:1],
		DirectorID:       directorID,
		DeputyDirectorID: deputyID,
	}
}

func NewTestCAN(number string, divisionID *string) *domain.CAN {
	return &domain.CAN{ID: uuid.New().String(), Number: number, DivisionID: divisionID}
}
