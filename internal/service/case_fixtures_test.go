package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-case-api/internal/dto"
	"github.com/noah-isme/compliance-case-api/internal/models"
	"github.com/noah-isme/compliance-case-api/internal/repository"
	appErrors "github.com/noah-isme/compliance-case-api/pkg/errors"
	"github.com/noah-isme/compliance-case-api/pkg/export"
)

const (
	orgAcme   = "org-acme"
	orgGlobex = "org-globex"

	statusSubmitted  = "st-submitted"
	statusInProgress = "st-in-progress"
	statusAwaiting   = "st-awaiting"
	statusEscalated  = "st-escalated"
	statusClosed     = "st-closed"
	statusArchived   = "st-archived"

	adminID   = "u-admin"
	officerID = "u-officer"
	analystID = "u-analyst"
	outsideID = "u-outside"
)

var (
	acmeAdmin   = models.Actor{UserID: adminID, OrganizationID: orgAcme, Role: models.RoleAdmin}
	acmeUser    = models.Actor{UserID: analystID, OrganizationID: orgAcme, Role: models.RoleUser}
	globexAdmin = models.Actor{UserID: outsideID, OrganizationID: orgGlobex, Role: models.RoleAdmin}
)

// memCaseStore mimics the transactional case repository: writes are staged per transaction,
// rows locked by LockForUpdate stay locked until the transaction ends, and updates carry the
// same last_updated_at guard as the SQL statement.
type memCaseStore struct {
	mu             sync.Mutex
	cases          map[string]models.CaseRecord
	history        map[string][]models.HistoryEntry
	rowLocks       map[string]*sync.Mutex
	seq            int64
	updateFailures []error
	// onInjectedFailure runs, with the store locked, whenever an injected update failure fires.
	onInjectedFailure func(cases map[string]models.CaseRecord)
	commits           int
}

func newMemCaseStore() *memCaseStore {
	return &memCaseStore{
		cases:    map[string]models.CaseRecord{},
		history:  map[string][]models.HistoryEntry{},
		rowLocks: map[string]*sync.Mutex{},
	}
}

func (m *memCaseStore) failNextUpdates(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateFailures = append(m.updateFailures, errs...)
}

func (m *memCaseStore) RunInTx(ctx context.Context, fn func(w repository.CaseWriter) error) error {
	tx := &memCaseTx{store: m, updates: map[string]models.CaseRecord{}}
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range tx.inserts {
		m.cases[record.ID] = record
	}
	for id, record := range tx.updates {
		m.cases[id] = record
	}
	for _, entry := range tx.entries {
		m.history[entry.CaseID] = append(m.history[entry.CaseID], entry)
	}
	m.commits++
	return nil
}

func (m *memCaseStore) GetByID(_ context.Context, id string) (*models.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.cases[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

func (m *memCaseStore) List(_ context.Context, filter models.CaseFilter) ([]models.CaseRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.CaseRecord
	for _, record := range m.cases {
		if record.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.CaseType != "" && record.CaseType != filter.CaseType {
			continue
		}
		if filter.OpenOnly && record.IsClosed() {
			continue
		}
		matched = append(matched, record)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, len(matched), nil
}

func (m *memCaseStore) ListHistory(_ context.Context, caseID string) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]models.HistoryEntry, len(m.history[caseID]))
	copy(entries, m.history[caseID])
	return entries, nil
}

func (m *memCaseStore) historyLen(caseID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history[caseID])
}

func (m *memCaseStore) rowLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.rowLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.rowLocks[id] = lock
	}
	return lock
}

type memCaseTx struct {
	store   *memCaseStore
	held    []*sync.Mutex
	inserts []models.CaseRecord
	updates map[string]models.CaseRecord
	entries []models.HistoryEntry
}

func (t *memCaseTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
}

func (t *memCaseTx) LockForUpdate(ctx context.Context, id string) (*models.CaseRecord, error) {
	lock := t.store.rowLock(id)
	lock.Lock()
	t.held = append(t.held, lock)
	return t.store.GetByID(ctx, id)
}

func (t *memCaseTx) Insert(_ context.Context, record *models.CaseRecord) error {
	t.inserts = append(t.inserts, *record)
	return nil
}

func (t *memCaseTx) Update(_ context.Context, record *models.CaseRecord, prevUpdatedAt time.Time) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if len(t.store.updateFailures) > 0 {
		err := t.store.updateFailures[0]
		t.store.updateFailures = t.store.updateFailures[1:]
		if t.store.onInjectedFailure != nil {
			t.store.onInjectedFailure(t.store.cases)
		}
		return err
	}
	current, ok := t.store.cases[record.ID]
	if !ok || current.OrganizationID != record.OrganizationID || !current.LastUpdatedAt.Equal(prevUpdatedAt) || current.IsClosed() {
		return repository.ErrConcurrentUpdate
	}
	t.updates[record.ID] = *record
	return nil
}

func (t *memCaseTx) AppendHistory(_ context.Context, entry *models.HistoryEntry) error {
	t.store.mu.Lock()
	t.store.seq++
	entry.Seq = t.store.seq
	t.store.mu.Unlock()
	t.entries = append(t.entries, *entry)
	return nil
}

type staffStub struct {
	users map[string]models.User
}

func (s *staffStub) BelongsToOrganization(_ context.Context, userID, organizationID string) (bool, error) {
	user, ok := s.users[userID]
	return ok && user.Active && user.OrganizationID == organizationID, nil
}

func (s *staffStub) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

type orgStub struct {
	orgs map[string]models.Organization
}

func (o *orgStub) FindByID(_ context.Context, id string) (*models.Organization, error) {
	org, ok := o.orgs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &org, nil
}

type dispatcherStub struct {
	mu      sync.Mutex
	intents []models.NotificationIntent
	err     error
}

func (d *dispatcherStub) Dispatch(_ context.Context, intent models.NotificationIntent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
	return d.err
}

func (d *dispatcherStub) sent(kind models.NotificationKind) []models.NotificationIntent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.NotificationIntent
	for _, intent := range d.intents {
		if intent.Kind == kind {
			out = append(out, intent)
		}
	}
	return out
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func catalogFixture() []models.Status {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Status{
		{ID: statusSubmitted, Name: "Submitted", SLADays: 5, IsActive: true, CreatedAt: created},
		{ID: statusInProgress, Name: "In Progress", SLADays: 5, IsActive: true, CreatedAt: created},
		{ID: statusAwaiting, Name: "Awaiting Info", SLADays: 3, IsActive: true, CreatedAt: created},
		{ID: statusEscalated, Name: "Escalated", SLADays: 2, IsActive: true, CreatedAt: created},
		{ID: statusClosed, Name: "Closed", SLADays: 0, IsActive: true, CreatedAt: created},
		{ID: statusArchived, Name: "Archived", SLADays: 0, IsActive: false, CreatedAt: created},
	}
}

type caseHarness struct {
	svc        *CaseService
	store      *memCaseStore
	dispatcher *dispatcherStub
	clock      *testClock
}

func newCaseHarness(t *testing.T) *caseHarness {
	t.Helper()
	store := newMemCaseStore()
	statuses := NewStatusService(newStatusRepoStub(catalogFixture()...), nil, 0, "Submitted", "Closed", nil, nil)
	staff := &staffStub{users: map[string]models.User{
		adminID:   {ID: adminID, OrganizationID: orgAcme, Email: "admin@acme.test", Role: models.RoleAdmin, Active: true},
		officerID: {ID: officerID, OrganizationID: orgAcme, Email: "officer@acme.test", Role: models.RoleUser, Active: true},
		analystID: {ID: analystID, OrganizationID: orgAcme, Email: "analyst@acme.test", Role: models.RoleUser, Active: true},
		outsideID: {ID: outsideID, OrganizationID: orgGlobex, Email: "admin@globex.test", Role: models.RoleAdmin, Active: true},
	}}
	orgs := &orgStub{orgs: map[string]models.Organization{
		orgAcme:   {ID: orgAcme, BusinessName: "Acme Data Co", ContactEmail: "dpo@acme.test"},
		orgGlobex: {ID: orgGlobex, BusinessName: "Globex", ContactEmail: "dpo@globex.test"},
	}}
	dispatcher := &dispatcherStub{}
	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	svc := NewCaseService(store, statuses, staff, orgs, dispatcher, nil, nil,
		WithCaseClock(clock.Now),
		WithHistoryExporter("csv", export.NewCSVExporter()),
	)
	return &caseHarness{svc: svc, store: store, dispatcher: dispatcher, clock: clock}
}

func (h *caseHarness) openDPR(t *testing.T) *models.CaseRecord {
	t.Helper()
	record, err := h.svc.CreateCase(context.Background(), dto.CreateCaseInput{
		OrganizationID: orgAcme,
		CaseType:       models.CaseTypeDPR,
		Request: dto.CreateCaseRequest{
			FirstName:   "Asha",
			LastName:    "Rao",
			Email:       "asha@example.com",
			RequestType: string(models.RequestTypeErasure),
			Comment:     "please erase my account data",
		},
	})
	require.NoError(t, err)
	return record
}

func strPtr(v string) *string { return &v }

func requireCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, want.Code, appErr.Code, "unexpected error: %v", err)
}
