package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"absenku_backend/internals/features/attendance/repository"
	recordModel "absenku_backend/internals/features/attendance/records/model"
	sessionModel "absenku_backend/internals/features/attendance/sessions/model"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

var testDate = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

type ledgerFixture struct {
	svc     *LedgerService
	store   *repository.MemStore
	clock   *fakeClock
	classID uuid.UUID
	s1, s2  uuid.UUID
}

// newLedgerFixture: sesi (class, 2024-05-10) total_hours=4, jendela 08:00–08:30,
// roster {s1, s2}, dua record absent ter-seed.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctx := context.Background()

	store := repository.NewMemStore()
	clock := &fakeClock{t: time.Date(2024, 5, 10, 8, 5, 0, 0, time.UTC)}
	classID, s1, s2 := uuid.New(), uuid.New(), uuid.New()
	store.SeedRoster(classID, s1, s2)

	sess := &sessionModel.AttendanceSessionModel{
		AttendanceSessionClassID:    classID,
		AttendanceSessionDate:       testDate,
		AttendanceSessionTotalHours: 4,
		AttendanceSessionStartTime:  time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
		AttendanceSessionEndTime:    time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC),
		AttendanceSessionIsActive:   true,
	}
	if err := store.Sessions().Create(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.Records().SeedAbsent(ctx, classID, testDate, []uuid.UUID{s1, s2}); err != nil {
		t.Fatalf("seed records: %v", err)
	}

	return &ledgerFixture{
		svc:     NewLedgerService(store, clock),
		store:   store,
		clock:   clock,
		classID: classID,
		s1:      s1,
		s2:      s2,
	}
}

func (f *ledgerFixture) record(t *testing.T, studentID uuid.UUID) *recordModel.AttendanceRecordModel {
	t.Helper()
	rec, err := f.store.Records().Find(context.Background(), f.classID, studentID, testDate)
	if err != nil || rec == nil {
		t.Fatalf("record not found: %v", err)
	}
	return rec
}

func TestMarkPresent_HappyPath(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	snapshot := datatypes.JSONMap{"status": "success", "code": "MATCH"}
	if err := f.svc.MarkPresent(ctx, f.classID, f.s1, testDate, snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := f.record(t, f.s1)
	if rec.AttendanceRecordStatus != recordModel.AttendanceStatusPresent {
		t.Fatalf("expected present, got %s", rec.AttendanceRecordStatus)
	}
	if rec.AttendanceRecordAttendanceTime == nil || !rec.AttendanceRecordAttendanceTime.Equal(f.clock.Now()) {
		t.Fatalf("attendance_time not stamped with clock time")
	}
	if rec.AttendanceRecordVerifySnapshot["code"] != "MATCH" {
		t.Fatalf("verify snapshot not stored")
	}

	marked, err := f.svc.IsAlreadyMarked(ctx, f.classID, f.s1, testDate)
	if err != nil || !marked {
		t.Fatalf("expected marked, got %v (%v)", marked, err)
	}
}

func TestMarkPresent_NoSessionOrInactive(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	// Kelas lain tanpa sesi.
	other := uuid.New()
	if err := f.svc.MarkPresent(ctx, other, f.s1, testDate, nil); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}

	// Sesi dimatikan dosen.
	sess, _ := f.store.Sessions().FindByClassDate(ctx, f.classID, testDate)
	sess.AttendanceSessionIsActive = false
	if err := f.store.Sessions().Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.svc.MarkPresent(ctx, f.classID, f.s1, testDate, nil); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestMarkPresent_ExpiredWindow(t *testing.T) {
	f := newLedgerFixture(t)

	// is_active masih true tapi jendela sudah lewat → lazy expiry menang.
	f.clock.t = time.Date(2024, 5, 10, 8, 30, 1, 0, time.UTC)
	err := f.svc.MarkPresent(context.Background(), f.classID, f.s1, testDate, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	rec := f.record(t, f.s1)
	if rec.AttendanceRecordStatus != recordModel.AttendanceStatusAbsent {
		t.Fatalf("record must be untouched, got %s", rec.AttendanceRecordStatus)
	}
}

func TestMarkPresent_NotEnrolledAndNotSeeded(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	// Bukan anggota kelas.
	if err := f.svc.MarkPresent(ctx, f.classID, uuid.New(), testDate, nil); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}

	// Masuk roster SETELAH generate → terdaftar tapi tidak ter-seed.
	late := uuid.New()
	f.store.SeedRoster(f.classID, f.s1, f.s2, late)
	if err := f.svc.MarkPresent(ctx, f.classID, late, testDate, nil); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMarkPresent_AlreadyMarked(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	if err := f.svc.MarkPresent(ctx, f.classID, f.s1, testDate, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.MarkPresent(ctx, f.classID, f.s1, testDate, nil); !errors.Is(err, ErrAlreadyMarked) {
		t.Fatalf("expected ErrAlreadyMarked, got %v", err)
	}
}

func TestMarkPresent_ReconciledAbsentDoesNotBlockRemark(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	// Dosen merekonsiliasi s1 menjadi excused; itu BUKAN "sudah absen".
	rec := f.record(t, f.s1)
	rec.AttendanceRecordStatus = recordModel.AttendanceStatusExcused
	if err := f.store.Records().Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	marked, err := f.svc.IsAlreadyMarked(ctx, f.classID, f.s1, testDate)
	if err != nil || marked {
		t.Fatalf("excused must not count as marked")
	}
	if err := f.svc.MarkPresent(ctx, f.classID, f.s1, testDate, nil); err != nil {
		t.Fatalf("self-mark after reconciliation must succeed: %v", err)
	}
}

func TestMarkPresent_ConcurrentScansOnlyOneWins(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.MarkPresent(ctx, f.classID, f.s2, testDate, nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyMarked):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning mark, got %d", wins)
	}
}

func TestReconcileBatch_SkipsBadEntriesPersistsGood(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	actor := uuid.New()

	r1, r2 := f.record(t, f.s1), f.record(t, f.s2)

	// total_hours=4: entry s1 valid (3+1+0+0), entry s2 salah jumlah (5+0+0+0).
	result, err := f.svc.ReconcileBatch(ctx, actor, []ReconcileEntry{
		{RecordID: r1.AttendanceRecordID, Status: "late", HoursPresent: 3, HoursAbsent: 1},
		{RecordID: r2.AttendanceRecordID, Status: "present", HoursPresent: 5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SuccessCount != 1 || result.ErrorCount != 1 {
		t.Fatalf("expected 1/1, got %d/%d", result.SuccessCount, result.ErrorCount)
	}

	got1 := f.record(t, f.s1)
	if got1.AttendanceRecordStatus != recordModel.AttendanceStatusLate || got1.HoursSum() != 4 {
		t.Fatalf("valid entry not persisted: %s sum=%d", got1.AttendanceRecordStatus, got1.HoursSum())
	}
	if got1.AttendanceRecordLastEditedBy == nil || *got1.AttendanceRecordLastEditedBy != actor {
		t.Fatalf("last_edited_by not stamped")
	}
	if got1.AttendanceRecordLastEditedAt == nil || !got1.AttendanceRecordLastEditedAt.Equal(f.clock.Now()) {
		t.Fatalf("last_edited_at not stamped")
	}

	// Entry yang gagal validasi tidak menyentuh recordnya.
	got2 := f.record(t, f.s2)
	if got2.AttendanceRecordStatus != recordModel.AttendanceStatusAbsent || got2.HoursSum() != 0 {
		t.Fatalf("invalid entry must not be persisted: %s sum=%d", got2.AttendanceRecordStatus, got2.HoursSum())
	}
}

func TestReconcileBatch_ValidationFailureShapes(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	r1 := f.record(t, f.s1)

	cases := []struct {
		name  string
		entry ReconcileEntry
	}{
		{"unknown record", ReconcileEntry{RecordID: uuid.New(), Status: "present", HoursPresent: 4}},
		{"bad status", ReconcileEntry{RecordID: r1.AttendanceRecordID, Status: "vanished", HoursPresent: 4}},
		{"negative hours", ReconcileEntry{RecordID: r1.AttendanceRecordID, Status: "present", HoursPresent: 5, HoursAbsent: -1}},
		{"sum mismatch", ReconcileEntry{RecordID: r1.AttendanceRecordID, Status: "present", HoursPresent: 3}},
	}
	for _, tc := range cases {
		result, err := f.svc.ReconcileBatch(ctx, uuid.New(), []ReconcileEntry{tc.entry})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if result.SuccessCount != 0 || result.ErrorCount != 1 {
			t.Fatalf("%s: expected 0/1, got %d/%d", tc.name, result.SuccessCount, result.ErrorCount)
		}
	}
}

/* ===============================
   Fault → rollback seluruh batch
================================*/

type faultStore struct {
	repository.Store
	saveCalls int
	failOn    int
}

func (f *faultStore) Records() repository.RecordStore {
	return &faultRecordStore{RecordStore: f.Store.Records(), owner: f}
}

func (f *faultStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return f.Store.WithinTx(ctx, func(repository.Store) error { return fn(f) })
}

type faultRecordStore struct {
	repository.RecordStore
	owner *faultStore
}

func (r *faultRecordStore) Save(ctx context.Context, m *recordModel.AttendanceRecordModel) error {
	r.owner.saveCalls++
	if r.owner.saveCalls == r.owner.failOn {
		return errors.New("koneksi DB putus")
	}
	return r.RecordStore.Save(ctx, m)
}

func TestReconcileBatch_FaultRollsBackWholeBatch(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	r1, r2 := f.record(t, f.s1), f.record(t, f.s2)
	svc := NewLedgerService(&faultStore{Store: f.store, failOn: 2}, f.clock)

	_, err := svc.ReconcileBatch(ctx, uuid.New(), []ReconcileEntry{
		{RecordID: r1.AttendanceRecordID, Status: "present", HoursPresent: 4},
		{RecordID: r2.AttendanceRecordID, Status: "present", HoursPresent: 4},
	})
	if err == nil {
		t.Fatalf("expected fault to abort the batch")
	}

	// Entry pertama sempat ditulis dalam tx → ikut ter-rollback.
	got1 := f.record(t, f.s1)
	if got1.AttendanceRecordStatus != recordModel.AttendanceStatusAbsent || got1.HoursSum() != 0 {
		t.Fatalf("first entry must be rolled back, got %s sum=%d", got1.AttendanceRecordStatus, got1.HoursSum())
	}
}

func TestListByClassDate_ReturnsSeededRoster(t *testing.T) {
	f := newLedgerFixture(t)

	rows, err := f.svc.ListByClassDate(context.Background(), f.classID, testDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}
