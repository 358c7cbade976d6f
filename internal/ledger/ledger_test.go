package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/events"
	"havenjob-engine/internal/notify"
	"havenjob-engine/internal/store"
	"havenjob-engine/internal/testutil"
)

type recorder struct {
	mu   sync.Mutex
	evts []events.Event
}

func (r *recorder) Publish(evt string) {
	var e events.Event
	_ = json.Unmarshal([]byte(evt), &e)
	r.mu.Lock()
	r.evts = append(r.evts, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.evts))
	for _, e := range r.evts {
		out = append(out, e.Type)
	}
	return out
}

type failingNotifier struct{}

func (failingNotifier) NotifyApplicationCreated(context.Context, store.Querier, string, string, *string, *string) (domain.Notification, error) {
	return domain.Notification{}, errors.New("notification store down")
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newLedger(t *testing.T) (*Ledger, *sql.DB, domain.User, *recorder, *clock) {
	t.Helper()
	db := testutil.OpenDB(t)
	u := testutil.SeedUser(t, db, "fwd@havenjob.app", "jobs@acme.com")
	rec := &recorder{}
	c := &clock{t: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}
	l := &Ledger{DB: db, Notifier: notify.Dispatcher{}, Events: rec, Now: c.now}
	return l, db, u, rec, c
}

func ptr[T any](v T) *T { return &v }

func extraction(company, title string, date *time.Time) domain.Extraction {
	return domain.Extraction{CompanyName: ptr(company), JobTitle: ptr(title), DateApplied: date}
}

func TestCreateFromExtraction(t *testing.T) {
	l, db, u, rec, _ := newLedger(t)
	ctx := context.Background()

	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.FixedZone("naive", 5*3600))
	app, created, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme Corp", "Software Engineer", &date), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatalf("expected created")
	}
	if app.Status != domain.StatusApplied || app.Source == nil || *app.Source != "Email" {
		t.Fatalf("unexpected status/source: %+v", app)
	}
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !app.DateApplied.Equal(want) {
		t.Fatalf("date_applied = %v, want %v", app.DateApplied, want)
	}

	stored, err := l.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.CompanyName != "Acme Corp" || stored.JobTitle != "Software Engineer" || !stored.DateApplied.Equal(want) {
		t.Fatalf("stored mismatch: %+v", stored)
	}

	ns, err := store.NotificationsFor(ctx, db, domain.RelatedEntityApplication, app.ID)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(ns) != 1 || ns[0].Type != "application_created" || ns[0].IsRead || ns[0].UserID != u.ID {
		t.Fatalf("unexpected notifications %+v", ns)
	}

	hist, _ := l.History(ctx, app.ID)
	if len(hist) != 0 {
		t.Fatalf("creation must not write history, got %d rows", len(hist))
	}

	if got := strings.Join(rec.types(), ","); got != "application_created,notification_created" {
		t.Fatalf("events = %s", got)
	}
}

func TestCreateFromExtractionDefaultsDateToNow(t *testing.T) {
	l, _, u, _, c := newLedger(t)

	app, created, err := l.CreateFromExtraction(context.Background(), u.ID, extraction("Globex", "Analyst", nil), nil)
	if err != nil || !created {
		t.Fatalf("create = %v, %v", created, err)
	}
	if !app.DateApplied.Equal(c.t) || app.DateApplied.Location() != time.UTC {
		t.Fatalf("date_applied = %v, want %v UTC", app.DateApplied, c.t)
	}
}

func TestCreateFromExtractionIncomplete(t *testing.T) {
	l, _, u, rec, _ := newLedger(t)
	ctx := context.Background()

	cases := []domain.Extraction{
		{},
		{CompanyName: ptr("Acme")},
		{JobTitle: ptr("Engineer")},
		{CompanyName: ptr("  "), JobTitle: ptr("Engineer")},
	}
	for _, ext := range cases {
		app, created, err := l.CreateFromExtraction(ctx, u.ID, ext, nil)
		if err != nil || created || app.ID != "" {
			t.Fatalf("CreateFromExtraction(%+v) = (%+v, %v, %v)", ext, app, created, err)
		}
	}
	list, _ := l.List(ctx, u.ID)
	if len(list) != 0 {
		t.Fatalf("incomplete extraction wrote %d applications", len(list))
	}
	if len(rec.types()) != 0 {
		t.Fatalf("unexpected events %v", rec.types())
	}
}

func TestCreateFromExtractionTruncates(t *testing.T) {
	l, _, u, _, _ := newLedger(t)

	long := strings.Repeat("é", 300)
	app, _, err := l.CreateFromExtraction(context.Background(), u.ID, extraction(long, long, nil), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n := len([]rune(app.CompanyName)); n != 255 {
		t.Fatalf("company runes = %d", n)
	}
	if n := len([]rune(app.JobTitle)); n != 255 {
		t.Fatalf("title runes = %d", n)
	}
}

func TestCreateFromExtractionDedupesByHash(t *testing.T) {
	l, db, u, _, _ := newLedger(t)
	ctx := context.Background()
	hash := "abc123"

	first, created, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), &hash)
	if err != nil || !created {
		t.Fatalf("first = %v, %v", created, err)
	}
	second, created, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), &hash)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("redelivery created=%v id=%s, want existing %s", created, second.ID, first.ID)
	}

	list, _ := l.List(ctx, u.ID)
	if len(list) != 1 {
		t.Fatalf("applications = %d, want 1", len(list))
	}
	ns, _ := store.NotificationsFor(ctx, db, domain.RelatedEntityApplication, first.ID)
	if len(ns) != 1 {
		t.Fatalf("notifications = %d, want 1", len(ns))
	}

	other := testutil.SeedUser(t, db, "other@havenjob.app")
	_, created, err = l.CreateFromExtraction(ctx, other.ID, extraction("Acme", "Engineer", nil), &hash)
	if err != nil || !created {
		t.Fatalf("same hash for another user should create: %v, %v", created, err)
	}
}

func TestCreateFromExtractionRollsBackOnNotifyFailure(t *testing.T) {
	l, _, u, rec, _ := newLedger(t)
	l.Notifier = failingNotifier{}
	ctx := context.Background()

	_, created, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), ptr("h1"))
	if err == nil || created {
		t.Fatalf("expected failure, got created=%v err=%v", created, err)
	}
	list, _ := l.List(ctx, u.ID)
	if len(list) != 0 {
		t.Fatalf("application survived rollback")
	}
	if len(rec.types()) != 0 {
		t.Fatalf("events published for rolled back write: %v", rec.types())
	}
}

func TestTransitionStatus(t *testing.T) {
	l, _, u, rec, c := newLedger(t)
	ctx := context.Background()

	app, _, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.t = c.t.Add(time.Hour)
	got, err := l.TransitionStatus(ctx, app.ID, domain.StatusUnderReview, domain.ChangedByUser)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got.Status != domain.StatusUnderReview || !got.UpdatedAt.Equal(c.t) {
		t.Fatalf("unexpected result %+v", got)
	}

	hist, err := l.History(ctx, app.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("history rows = %d, want 1", len(hist))
	}
	h := hist[0]
	if h.OldStatus == nil || *h.OldStatus != domain.StatusApplied || h.NewStatus != domain.StatusUnderReview || h.ChangedBy != domain.ChangedByUser {
		t.Fatalf("unexpected history row %+v", h)
	}

	stored, _ := l.Get(ctx, app.ID)
	if stored.Status != domain.StatusUnderReview || !stored.UpdatedAt.Equal(c.t) {
		t.Fatalf("stored = %+v", stored)
	}

	types := rec.types()
	if types[len(types)-1] != events.TypeApplicationStatusChanged {
		t.Fatalf("last event = %s", types[len(types)-1])
	}
}

func TestTransitionStatusSameStatusIsNoop(t *testing.T) {
	l, _, u, rec, c := newLedger(t)
	ctx := context.Background()

	app, _, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := len(rec.types())

	c.t = c.t.Add(time.Hour)
	got, err := l.TransitionStatus(ctx, app.ID, domain.StatusApplied, domain.ChangedByEmailParser)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !got.UpdatedAt.Equal(app.UpdatedAt) {
		t.Fatalf("updated_at moved on no-op: %v -> %v", app.UpdatedAt, got.UpdatedAt)
	}
	stored, _ := l.Get(ctx, app.ID)
	if !stored.UpdatedAt.Equal(app.UpdatedAt) {
		t.Fatalf("stored updated_at moved on no-op")
	}
	hist, _ := l.History(ctx, app.ID)
	if len(hist) != 0 {
		t.Fatalf("no-op wrote %d history rows", len(hist))
	}
	if len(rec.types()) != before {
		t.Fatalf("no-op published events")
	}
}

func TestTransitionStatusChainAndErrors(t *testing.T) {
	l, _, u, _, c := newLedger(t)
	ctx := context.Background()

	app, _, _ := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), nil)

	steps := []struct {
		status domain.Status
		by     domain.ChangedBy
	}{
		{domain.StatusRejected, domain.ChangedByEmailParser},
		{domain.StatusOffer, domain.ChangedBySystem},
		{domain.StatusApplied, domain.ChangedByUser},
	}
	for _, s := range steps {
		c.t = c.t.Add(time.Minute)
		if _, err := l.TransitionStatus(ctx, app.ID, s.status, s.by); err != nil {
			t.Fatalf("transition to %s: %v", s.status, err)
		}
	}
	hist, _ := l.History(ctx, app.ID)
	if len(hist) != len(steps) {
		t.Fatalf("history rows = %d, want %d", len(hist), len(steps))
	}
	prev := domain.StatusApplied
	for i, h := range hist {
		if *h.OldStatus != prev || h.NewStatus != steps[i].status || h.ChangedBy != steps[i].by {
			t.Fatalf("row %d = %+v", i, h)
		}
		prev = h.NewStatus
	}

	if _, err := l.TransitionStatus(ctx, app.ID, "Ghosted", domain.ChangedByUser); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := l.TransitionStatus(ctx, app.ID, domain.StatusOffer, "robot"); !errors.Is(err, ErrInvalidActor) {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
	if _, err := l.TransitionStatus(ctx, "missing", domain.StatusOffer, domain.ChangedByUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransitionStatusConcurrentKeepsChain(t *testing.T) {
	l, _, u, _, _ := newLedger(t)
	ctx := context.Background()

	app, _, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 40
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := domain.Statuses[i%len(domain.Statuses)]
			if _, err := l.TransitionStatus(ctx, app.ID, next, domain.ChangedBySystem); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("transition: %v", err)
	}

	hist, err := l.History(ctx, app.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) == 0 || len(hist) > workers {
		t.Fatalf("history rows = %d", len(hist))
	}
	prev := domain.StatusApplied
	for i, h := range hist {
		if h.OldStatus == nil || *h.OldStatus != prev {
			t.Fatalf("row %d: old_status = %v, want %s", i, h.OldStatus, prev)
		}
		if h.NewStatus == *h.OldStatus {
			t.Fatalf("row %d records a same-status change %s", i, h.NewStatus)
		}
		prev = h.NewStatus
	}

	final, err := l.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != prev {
		t.Fatalf("final status %s, chain ends at %s", final.Status, prev)
	}
}

func TestCreateFromExtractionConcurrentSameHash(t *testing.T) {
	l, db, u, _, _ := newLedger(t)
	ctx := context.Background()
	hash := "same-delivery"

	const workers = 20
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		ids     = make([]string, workers)
		errs    = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			app, ok, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", nil), &hash)
			ids[i], errs[i] = app.ID, err
			if ok {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
		if ids[i] == "" || ids[i] != ids[0] {
			t.Fatalf("worker %d got id %q, worker 0 got %q", i, ids[i], ids[0])
		}
	}
	if n := created.Load(); n != 1 {
		t.Fatalf("created = %d, want 1", n)
	}

	list, _ := l.List(ctx, u.ID)
	if len(list) != 1 {
		t.Fatalf("applications = %d, want 1", len(list))
	}
	ns, _ := store.NotificationsFor(ctx, db, domain.RelatedEntityApplication, ids[0])
	if len(ns) != 1 {
		t.Fatalf("notifications = %d, want 1", len(ns))
	}
}

func TestCreateManual(t *testing.T) {
	l, db, u, _, _ := newLedger(t)
	ctx := context.Background()

	in := NewApplication{
		CompanyName:    "Initech",
		JobTitle:       "Developer",
		DateApplied:    time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC),
		Status:         domain.StatusInterview,
		Location:       ptr("Remote"),
		SalaryMin:      ptr(100000),
		SalaryMax:      ptr(120000),
		SalaryCurrency: ptr("USD"),
	}
	app, err := l.CreateManual(ctx, u.ID, in)
	if err != nil {
		t.Fatalf("create manual: %v", err)
	}
	stored, _ := l.Get(ctx, app.ID)
	if stored.Status != domain.StatusInterview || *stored.SalaryMax != 120000 || *stored.Location != "Remote" {
		t.Fatalf("stored = %+v", stored)
	}
	ns, _ := store.NotificationsFor(ctx, db, domain.RelatedEntityApplication, app.ID)
	if len(ns) != 0 {
		t.Fatalf("manual add should not notify")
	}

	bad := []NewApplication{
		{JobTitle: "Dev", DateApplied: in.DateApplied, Status: domain.StatusApplied},
		{CompanyName: "X", DateApplied: in.DateApplied, Status: domain.StatusApplied},
		{CompanyName: "X", JobTitle: "Dev", Status: domain.StatusApplied},
		{CompanyName: "X", JobTitle: "Dev", DateApplied: in.DateApplied, Status: "Pending"},
		{CompanyName: strings.Repeat("a", 256), JobTitle: "Dev", DateApplied: in.DateApplied, Status: domain.StatusApplied},
		{CompanyName: "X", JobTitle: "Dev", DateApplied: in.DateApplied, Status: domain.StatusApplied, SalaryCurrency: ptr("EURO")},
	}
	for i, b := range bad {
		if _, err := l.CreateManual(ctx, u.ID, b); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	l, _, u, _, _ := newLedger(t)
	ctx := context.Background()

	for _, d := range []int{1, 20, 10} {
		date := time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
		if _, _, err := l.CreateFromExtraction(ctx, u.ID, extraction("Acme", "Engineer", &date), nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := l.List(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].DateApplied.Day() != 20 || list[2].DateApplied.Day() != 1 {
		t.Fatalf("unexpected order")
	}
}
