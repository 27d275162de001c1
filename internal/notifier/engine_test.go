package notifier_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/notifier"
	"jobwatch/notify-service/internal/notifier/channel"
	"jobwatch/notify-service/internal/store"
)

// ── In-memory fakes ────────────────────────────────────────────────────────

type fakeJobs map[string]model.JobPosting

func (f fakeJobs) GetByURL(_ context.Context, url string) (model.JobPosting, error) {
	job, ok := f[url]
	if !ok {
		return model.JobPosting{}, store.ErrNotFound
	}
	return job, nil
}

type fakeSubs struct {
	keywords    []model.SubscriptionItem
	subscribers map[string][]int64
}

func (f *fakeSubs) AllKeywords(context.Context) ([]model.SubscriptionItem, error) {
	return f.keywords, nil
}

func (f *fakeSubs) SubscribersOf(_ context.Context, keyword string) ([]int64, error) {
	return f.subscribers[keyword], nil
}

type fakeDirectory map[int64]model.Recipient

func (f fakeDirectory) Recipient(_ context.Context, userID int64) (model.Recipient, error) {
	rec, ok := f[userID]
	if !ok {
		return model.Recipient{}, store.ErrNotFound
	}
	return rec, nil
}

type recordedSend struct {
	userID int64
	jobID  int64
}

type fakeSender struct {
	sends   []recordedSend
	failFor map[int64]error
}

func (f *fakeSender) Send(_ context.Context, rec model.Recipient, job model.JobPosting) error {
	if err, ok := f.failFor[rec.UserID]; ok {
		return err
	}
	f.sends = append(f.sends, recordedSend{userID: rec.UserID, jobID: job.ID})
	return nil
}

type fakeRecorder struct {
	rows []recordedSend
}

func (f *fakeRecorder) Record(_ context.Context, userID, jobID int64) error {
	f.rows = append(f.rows, recordedSend{userID: userID, jobID: jobID})
	return nil
}

// ── Fixture ────────────────────────────────────────────────────────────────

var testJob = model.JobPosting{
	ID:       42,
	Title:    "Senior Golang Engineer",
	Employer: "Acme",
	URL:      "https://jobs.example/42",
}

func newFixture(subscribers map[string][]int64, keywords ...string) (*notifier.Engine, *fakeSender, *fakeRecorder) {
	items := make([]model.SubscriptionItem, 0, len(keywords))
	for i, kw := range keywords {
		items = append(items, model.SubscriptionItem{ID: int64(i + 1), Keyword: kw})
	}

	dir := fakeDirectory{}
	for _, ids := range subscribers {
		for _, id := range ids {
			dir[id] = model.Recipient{
				UserID:  id,
				Channel: model.ChannelEmail,
				Email:   fmt.Sprintf("user%d@example.com", id),
			}
		}
	}

	sender := &fakeSender{failFor: map[int64]error{}}
	registry := channel.NewRegistry()
	registry.Register(model.ChannelEmail, sender)

	recorder := &fakeRecorder{}
	engine := notifier.NewEngine(
		fakeJobs{testJob.URL: testJob},
		&fakeSubs{keywords: items, subscribers: subscribers},
		dir,
		recorder,
		registry,
	)
	return engine, sender, recorder
}

// ── Tests ──────────────────────────────────────────────────────────────────

// A user subscribed to two keywords that both match the title must receive
// exactly one notification for the job.
func TestHandleJob_PerUserDedup(t *testing.T) {
	engine, sender, recorder := newFixture(map[string][]int64{
		"golang":   {7},
		"engineer": {7},
	}, "golang", "engineer")

	engine.HandleJob(context.Background(), testJob)

	if len(sender.sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.sends))
	}
	if len(recorder.rows) != 1 {
		t.Fatalf("notification rows = %d, want 1", len(recorder.rows))
	}
	if recorder.rows[0] != (recordedSend{userID: 7, jobID: 42}) {
		t.Errorf("recorded %+v, want user 7 / job 42", recorder.rows[0])
	}
}

// A delivery failure for one recipient must not abort the remaining
// recipients of the same event.
func TestHandleJob_FailureIsolation(t *testing.T) {
	engine, sender, recorder := newFixture(map[string][]int64{
		"golang": {1, 2},
	}, "golang")
	sender.failFor[1] = &channel.DeliveryError{Channel: model.ChannelEmail, Err: errors.New("smtp down")}

	engine.HandleJob(context.Background(), testJob)

	if len(recorder.rows) != 1 || recorder.rows[0].userID != 2 {
		t.Fatalf("rows = %+v, want exactly one row for user 2", recorder.rows)
	}
}

// A failed delivery leaves no history row; absence of the row is the only
// record of the failure.
func TestHandleJob_NoRecordOnFailure(t *testing.T) {
	engine, sender, recorder := newFixture(map[string][]int64{
		"golang": {1},
	}, "golang")
	sender.failFor[1] = &channel.DeliveryError{Channel: model.ChannelEmail, Err: errors.New("boom")}

	engine.HandleJob(context.Background(), testJob)

	if len(recorder.rows) != 0 {
		t.Errorf("rows = %+v, want none after failed delivery", recorder.rows)
	}
}

// An event whose title matches no keyword is dropped silently.
func TestHandleJob_NoMatchDropsEvent(t *testing.T) {
	engine, sender, recorder := newFixture(map[string][]int64{
		"rust": {1},
	}, "rust")

	engine.HandleJob(context.Background(), testJob)

	if len(sender.sends) != 0 || len(recorder.rows) != 0 {
		t.Errorf("expected no dispatch for unmatched title, got sends=%d rows=%d",
			len(sender.sends), len(recorder.rows))
	}
}

// An event referencing a url absent from the store is dropped — the
// consistency guard against ingestion/publish races.
func TestHandleJob_UnknownJobDropsEvent(t *testing.T) {
	engine, sender, recorder := newFixture(map[string][]int64{
		"golang": {1},
	}, "golang")

	ghost := testJob
	ghost.URL = "https://jobs.example/ghost"
	engine.HandleJob(context.Background(), ghost)

	if len(sender.sends) != 0 || len(recorder.rows) != 0 {
		t.Errorf("expected no dispatch for unknown job, got sends=%d rows=%d",
			len(sender.sends), len(recorder.rows))
	}
}

// Recipients are dispatched in first-matched order: keyword order first,
// then subscription order within a keyword.
func TestHandleJob_FirstMatchedOrder(t *testing.T) {
	engine, sender, _ := newFixture(map[string][]int64{
		"golang":   {3, 1},
		"engineer": {2, 1},
	}, "golang", "engineer")

	engine.HandleJob(context.Background(), testJob)

	want := []int64{3, 1, 2}
	if len(sender.sends) != len(want) {
		t.Fatalf("sends = %+v, want users %v", sender.sends, want)
	}
	for i, uid := range want {
		if sender.sends[i].userID != uid {
			t.Errorf("send[%d] = user %d, want %d", i, sender.sends[i].userID, uid)
		}
	}
}

// A recipient on a channel with no registered strategy is skipped; the
// remaining recipients still get their notification.
func TestHandleJob_UnknownChannelIsolated(t *testing.T) {
	subscribers := map[string][]int64{"golang": {1, 2}}
	items := []model.SubscriptionItem{{ID: 1, Keyword: "golang"}}
	dir := fakeDirectory{
		1: {UserID: 1, Channel: model.ChannelTelegram, ChatID: "123"},
		2: {UserID: 2, Channel: model.ChannelEmail, Email: "u2@example.com"},
	}
	sender := &fakeSender{failFor: map[int64]error{}}
	registry := channel.NewRegistry()
	registry.Register(model.ChannelEmail, sender)
	recorder := &fakeRecorder{}

	engine := notifier.NewEngine(
		fakeJobs{testJob.URL: testJob},
		&fakeSubs{keywords: items, subscribers: subscribers},
		dir, recorder, registry,
	)
	engine.HandleJob(context.Background(), testJob)

	if len(recorder.rows) != 1 || recorder.rows[0].userID != 2 {
		t.Fatalf("rows = %+v, want exactly one row for user 2", recorder.rows)
	}
}
