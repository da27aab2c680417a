package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/google/uuid"
)

// World is a seeded reference data set: two divisions with leadership, one
// CAN per division, a procurement shop and a procurement-ready contract.
type World struct {
	DB    *sql.DB
	Repos *repository.Repositories

	Director       *domain.User
	Deputy         *domain.User
	OtherDirector  *domain.User
	Submitter      *domain.User
	Elevated       *domain.User
	GlobalReviewer *domain.User
	Outsider       *domain.User

	Division      *domain.Division
	OtherDivision *domain.Division
	CAN           *domain.CAN
	OtherCAN      *domain.CAN
	Shop          *domain.ProcurementShop
	Agreement     *domain.Agreement
}

// NewWorld seeds database and returns the created entities.
func NewWorld(t *testing.T, database *sql.DB) *World {
	t.Helper()
	ctx := context.Background()
	repos := repository.New(database)
	w := &World{DB: database, Repos: repos}

	w.Director = w.mustUser(t, NewTestUser("director"))
	w.Deputy = w.mustUser(t, NewTestUser("deputy"))
	w.OtherDirector = w.mustUser(t, NewTestUser("other-director"))
	w.Submitter = w.mustUser(t, NewTestUser("submitter"))
	w.Elevated = w.mustUser(t, NewTestUser("budget-team", WithCapabilities(domain.CapabilityDirectEdit)))
	w.GlobalReviewer = w.mustUser(t, NewTestUser("admin", WithCapabilities(domain.CapabilityReviewAll)))
	w.Outsider = w.mustUser(t, NewTestUser("outsider"))

	w.Division = NewTestDivision("Economic Independence", &w.Director.ID, &w.Deputy.ID)
	w.OtherDivision = NewTestDivision("Child Care", &w.OtherDirector.ID, nil)
	for _, d := range []*domain.Division{w.Division, w.OtherDivision} {
		if err := repos.Divisions.Create(ctx, d); err != nil {
			t.Fatalf("seeding division: %v", err)
		}
	}

	w.CAN = NewTestCAN("500", &w.Division.ID)
	w.OtherCAN = NewTestCAN("501", &w.OtherDivision.ID)
	for _, c := range []*domain.CAN{w.CAN, w.OtherCAN} {
		if err := repos.CANs.Create(ctx, c); err != nil {
			t.Fatalf("seeding can: %v", err)
		}
	}

	w.Shop = &domain.ProcurementShop{ID: uuid.New().String(), Name: "Product Service Center", Abbr: "PSC"}
	if err := repos.Shops.CreateShop(ctx, w.Shop); err != nil {
		t.Fatalf("seeding procurement shop: %v", err)
	}

	w.Agreement = w.AddAgreement(t)
	return w
}

// AddAgreement stores a procurement-ready agreement run by the submitter.
func (w *World) AddAgreement(t *testing.T, opts ...AgreementOption) *domain.Agreement {
	t.Helper()
	base := []AgreementOption{
		WithAwardingEntity(w.Shop.ID),
		WithProjectOfficer(w.Submitter.ID),
	}
	a := NewTestAgreement(append(base, opts...)...)
	if err := w.Repos.Agreements.Create(context.Background(), a); err != nil {
		t.Fatalf("seeding agreement: %v", err)
	}
	return a
}

// AddBudgetLine stores a budget line on the world's agreement unless an
// agreement id is given through opts.
func (w *World) AddBudgetLine(t *testing.T, opts ...BudgetLineOption) *domain.BudgetLineItem {
	t.Helper()
	return w.AddBudgetLineTo(t, w.Agreement.ID, opts...)
}

func (w *World) AddBudgetLineTo(t *testing.T, agreementID string, opts ...BudgetLineOption) *domain.BudgetLineItem {
	t.Helper()
	b := NewTestBudgetLine(agreementID, append([]BudgetLineOption{WithCreatedBy(w.Submitter.ID)}, opts...)...)
	if err := w.Repos.BudgetLines.Create(context.Background(), b); err != nil {
		t.Fatalf("seeding budget line: %v", err)
	}
	return b
}

func (w *World) mustUser(t *testing.T, u *domain.User) *domain.User {
	t.Helper()
	if err := w.Repos.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}
