package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	recordModel "absenku_backend/internals/features/attendance/records/model"
	sessionModel "absenku_backend/internals/features/attendance/sessions/model"
)

/* =========================================
   In-memory Store
   Dipakai di test service (tanpa Postgres); semantiknya meniru
   implementasi GORM: unique per key komposit, update kondisional
   satu "statement", dan rollback transaksi via snapshot.
========================================= */

type MemStore struct {
	mu       sync.Mutex
	sessions map[string]sessionModel.AttendanceSessionModel // classID|date
	records  map[string]recordModel.AttendanceRecordModel   // classID|studentID|date
	roster   map[string][]uuid.UUID                         // classID → studentIDs
}

func NewMemStore() *MemStore {
	return &MemStore{
		sessions: map[string]sessionModel.AttendanceSessionModel{},
		records:  map[string]recordModel.AttendanceRecordModel{},
		roster:   map[string][]uuid.UUID{},
	}
}

func dateKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func sessionKey(classID uuid.UUID, date time.Time) string {
	return classID.String() + "|" + dateKey(date)
}

func recordKey(classID, studentID uuid.UUID, date time.Time) string {
	return classID.String() + "|" + studentID.String() + "|" + dateKey(date)
}

// SeedRoster mengisi roster kelas (pengganti tabel class_students).
func (m *MemStore) SeedRoster(classID uuid.UUID, studentIDs ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster[classID.String()] = append([]uuid.UUID{}, studentIDs...)
}

func (m *MemStore) Sessions() SessionStore      { return (*memSessionStore)(m) }
func (m *MemStore) Records() RecordStore        { return (*memRecordStore)(m) }
func (m *MemStore) Enrollment() EnrollmentStore { return (*memEnrollmentStore)(m) }

func (m *MemStore) snapshot() (map[string]sessionModel.AttendanceSessionModel, map[string]recordModel.AttendanceRecordModel) {
	sess := make(map[string]sessionModel.AttendanceSessionModel, len(m.sessions))
	for k, v := range m.sessions {
		sess[k] = v
	}
	recs := make(map[string]recordModel.AttendanceRecordModel, len(m.records))
	for k, v := range m.records {
		recs[k] = v
	}
	return sess, recs
}

// WithinTx: error dari fn mengembalikan seluruh state ke snapshot awal.
func (m *MemStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	sess, recs := m.snapshot()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.sessions, m.records = sess, recs
		m.mu.Unlock()
		return err
	}
	return nil
}

/* ===============================
   Sessions
================================*/

type memSessionStore MemStore

func (m *memSessionStore) FindByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) (*sessionModel.AttendanceSessionModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionKey(classID, date)]; ok {
		cp := s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSessionStore) FindByToken(ctx context.Context, token string) (*sessionModel.AttendanceSessionModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.AttendanceSessionToken != nil && *s.AttendanceSessionToken == token {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessionStore) Create(ctx context.Context, s *sessionModel.AttendanceSessionModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.AttendanceSessionID == uuid.Nil {
		s.AttendanceSessionID = uuid.New()
	}
	m.sessions[sessionKey(s.AttendanceSessionClassID, s.AttendanceSessionDate)] = *s
	return nil
}

func (m *memSessionStore) Save(ctx context.Context, s *sessionModel.AttendanceSessionModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.AttendanceSessionUpdatedAt = time.Now().UTC()
	m.sessions[sessionKey(s.AttendanceSessionClassID, s.AttendanceSessionDate)] = *s
	return nil
}

/* ===============================
   Records
================================*/

type memRecordStore MemStore

func (m *memRecordStore) SeedAbsent(ctx context.Context, classID uuid.UUID, date time.Time, studentIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sid := range studentIDs {
		key := recordKey(classID, sid, date)
		if _, exists := m.records[key]; exists {
			continue // ON CONFLICT DO NOTHING
		}
		m.records[key] = recordModel.AttendanceRecordModel{
			AttendanceRecordID:        uuid.New(),
			AttendanceRecordClassID:   classID,
			AttendanceRecordStudentID: sid,
			AttendanceRecordDate:      date,
			AttendanceRecordStatus:    recordModel.AttendanceStatusAbsent,
		}
	}
	return nil
}

func (m *memRecordStore) Find(ctx context.Context, classID, studentID uuid.UUID, date time.Time) (*recordModel.AttendanceRecordModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[recordKey(classID, studentID, date)]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (m *memRecordStore) FindByID(ctx context.Context, id uuid.UUID) (*recordModel.AttendanceRecordModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.AttendanceRecordID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRecordStore) ListByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) ([]recordModel.AttendanceRecordModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []recordModel.AttendanceRecordModel
	for _, r := range m.records {
		if r.AttendanceRecordClassID == classID && dateKey(r.AttendanceRecordDate) == dateKey(date) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].AttendanceRecordStudentID.String() < rows[j].AttendanceRecordStudentID.String()
	})
	return rows, nil
}

func (m *memRecordStore) MarkPresentIfUnmarked(ctx context.Context, classID, studentID uuid.UUID, date time.Time, at time.Time, snapshot datatypes.JSONMap) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(classID, studentID, date)
	r, ok := m.records[key]
	if !ok {
		return false, nil
	}
	if r.AttendanceRecordStatus.Marked() {
		return false, nil
	}
	r.AttendanceRecordStatus = recordModel.AttendanceStatusPresent
	r.AttendanceRecordAttendanceTime = &at
	r.AttendanceRecordUpdatedAt = at
	if snapshot != nil {
		r.AttendanceRecordVerifySnapshot = snapshot
	}
	m.records[key] = r
	return true, nil
}

func (m *memRecordStore) Save(ctx context.Context, r *recordModel.AttendanceRecordModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.AttendanceRecordUpdatedAt = time.Now().UTC()
	m.records[recordKey(r.AttendanceRecordClassID, r.AttendanceRecordStudentID, r.AttendanceRecordDate)] = *r
	return nil
}

/* ===============================
   Enrollment
================================*/

type memEnrollmentStore MemStore

func (m *memEnrollmentStore) ListEnrolledStudents(ctx context.Context, classID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := append([]uuid.UUID{}, m.roster[classID.String()]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (m *memEnrollmentStore) IsEnrolled(ctx context.Context, studentID, classID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.roster[classID.String()] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}
