package service

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/testutil"
	"github.com/stretchr/testify/require"
)

var (
	testNow    = time.Date(2030, 6, 15, 10, 30, 0, 0, time.UTC)
	testToday  = "2030-06-15"
	dateNeeded = time.Date(2032, 1, 15, 0, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return testNow }

// harness wires every service against one seeded database.
type harness struct {
	t   *testing.T
	ctx context.Context
	w   *testutil.World
	db  *sql.DB
	uow db.UnitOfWork
	log *bytes.Buffer

	budgetLines BudgetLineService
	reviews     ReviewService
	trackers    ProcurementTrackerService
	agreements  AgreementService
	history     HistoryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, testutil.NewTestDB(t), nil)
}

// newHarnessWith builds a harness on database; a non-nil uow replaces the
// default unit of work for every service.
func newHarnessWith(t *testing.T, database *sql.DB, uow db.UnitOfWork) *harness {
	t.Helper()
	if uow == nil {
		uow = testutil.NewTestUoW(database)
	}
	buf := &bytes.Buffer{}
	opts := []Option{
		WithClock(fixedClock),
		WithLogger(slog.New(slog.NewTextHandler(buf, nil))),
	}
	return &harness{
		t:           t,
		ctx:         context.Background(),
		w:           testutil.NewWorld(t, database),
		db:          database,
		uow:         uow,
		log:         buf,
		budgetLines: NewBudgetLineService(database, uow, opts...),
		reviews:     NewReviewService(database, uow, opts...),
		trackers:    NewProcurementTrackerService(database, uow, opts...),
		agreements:  NewAgreementService(database, uow, opts...),
		history:     NewHistoryService(database),
	}
}

func actorOf(u *domain.User) domain.Actor {
	return domain.ActorFor(u)
}

// vals builds a raw change set from name/value pairs.
func vals(kv ...string) map[string]*string {
	out := make(map[string]*string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = domain.StrPtr(kv[i+1])
	}
	return out
}

// plannedLine stores a complete PLANNED line funded by the world's CAN.
func (h *harness) plannedLine(opts ...testutil.BudgetLineOption) *domain.BudgetLineItem {
	h.t.Helper()
	base := []testutil.BudgetLineOption{
		testutil.WithStatus(domain.BudgetLinePlanned),
		testutil.WithCAN(h.w.CAN.ID),
		testutil.WithAmount("1000.00"),
		testutil.WithDateNeeded(dateNeeded),
	}
	return h.w.AddBudgetLine(h.t, append(base, opts...)...)
}

func (h *harness) submit(line *domain.BudgetLineItem, by *domain.User, changes map[string]*string) *contract.SubmitChangeResponse {
	h.t.Helper()
	resp, err := h.budgetLines.SubmitChange(h.ctx, contract.SubmitChangeRequest{
		BudgetLineID: line.ID,
		Changes:      changes,
		Actor:        actorOf(by),
	})
	require.NoError(h.t, err)
	return resp
}

func (h *harness) review(crID string, by *domain.User, action domain.ReviewAction) (*contract.ReviewResponse, error) {
	return h.reviews.Review(h.ctx, contract.ReviewRequest{
		ChangeRequestID: crID,
		Action:          action,
		Reviewer:        actorOf(by),
		Notes:           "reviewed",
	})
}

// requestExecution opens a change request moving line to IN_EXECUTION.
func (h *harness) requestExecution(line *domain.BudgetLineItem) string {
	h.t.Helper()
	resp := h.submit(line, h.w.Submitter, vals(domain.FieldStatus, string(domain.BudgetLineInExecution)))
	require.Len(h.t, resp.PendingChangeRequestIDs, 1)
	return resp.PendingChangeRequestIDs[0]
}

// execute moves line to IN_EXECUTION through an approved change request.
func (h *harness) execute(line *domain.BudgetLineItem) *contract.ReviewResponse {
	h.t.Helper()
	resp, err := h.review(h.requestExecution(line), h.w.Director, domain.ReviewApprove)
	require.NoError(h.t, err)
	return resp
}

func (h *harness) events(t domain.OpsEventType) []*domain.OpsEvent {
	h.t.Helper()
	evs, err := h.history.ListEvents(h.ctx, t)
	require.NoError(h.t, err)
	return evs
}

func (h *harness) eventsWithStatus(t domain.OpsEventType, status domain.OpsEventStatus) []*domain.OpsEvent {
	h.t.Helper()
	var out []*domain.OpsEvent
	for _, ev := range h.events(t) {
		if ev.EventStatus == status {
			out = append(out, ev)
		}
	}
	return out
}

func (h *harness) line(id string) *domain.BudgetLineItem {
	h.t.Helper()
	b, err := h.budgetLines.GetByID(h.ctx, id)
	require.NoError(h.t, err)
	return b
}

func (h *harness) changeRequest(id string) *domain.ChangeRequest {
	h.t.Helper()
	cr, err := h.reviews.GetByID(h.ctx, id)
	require.NoError(h.t, err)
	return cr
}

func (h *harness) tracker(agreementID string) *domain.ProcurementTracker {
	h.t.Helper()
	tr, err := h.trackers.GetByAgreement(h.ctx, agreementID)
	require.NoError(h.t, err)
	return tr
}
