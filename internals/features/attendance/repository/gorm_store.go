package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	enrollModel "absenku_backend/internals/features/attendance/enrollment/model"
	recordModel "absenku_backend/internals/features/attendance/records/model"
	sessionModel "absenku_backend/internals/features/attendance/sessions/model"
)

/* =========================================
   GORM implementation
========================================= */

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Sessions() SessionStore      { return (*gormSessionStore)(s) }
func (s *gormStore) Records() RecordStore        { return (*gormRecordStore)(s) }
func (s *gormStore) Enrollment() EnrollmentStore { return (*gormEnrollmentStore)(s) }

func (s *gormStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

/* ===============================
   Sessions
================================*/

type gormSessionStore gormStore

func (s *gormSessionStore) FindByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) (*sessionModel.AttendanceSessionModel, error) {
	var m sessionModel.AttendanceSessionModel
	err := s.db.WithContext(ctx).
		Where("attendance_session_class_id = ? AND attendance_session_date = ?", classID, date).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormSessionStore) FindByToken(ctx context.Context, token string) (*sessionModel.AttendanceSessionModel, error) {
	var m sessionModel.AttendanceSessionModel
	err := s.db.WithContext(ctx).
		Where("attendance_session_token = ?", token).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormSessionStore) Create(ctx context.Context, m *sessionModel.AttendanceSessionModel) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormSessionStore) Save(ctx context.Context, m *sessionModel.AttendanceSessionModel) error {
	m.AttendanceSessionUpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Save(m).Error
}

/* ===============================
   Records
================================*/

type gormRecordStore gormStore

func (s *gormRecordStore) SeedAbsent(ctx context.Context, classID uuid.UUID, date time.Time, studentIDs []uuid.UUID) error {
	if len(studentIDs) == 0 {
		return nil
	}
	rows := make([]recordModel.AttendanceRecordModel, 0, len(studentIDs))
	for _, sid := range studentIDs {
		rows = append(rows, recordModel.AttendanceRecordModel{
			AttendanceRecordClassID:   classID,
			AttendanceRecordStudentID: sid,
			AttendanceRecordDate:      date,
			AttendanceRecordStatus:    recordModel.AttendanceStatusAbsent,
		})
	}
	// Idempotent reseed: baris existing dibiarkan apa adanya.
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (s *gormRecordStore) Find(ctx context.Context, classID, studentID uuid.UUID, date time.Time) (*recordModel.AttendanceRecordModel, error) {
	var m recordModel.AttendanceRecordModel
	err := s.db.WithContext(ctx).
		Where("attendance_record_class_id = ? AND attendance_record_student_id = ? AND attendance_record_date = ?",
			classID, studentID, date).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormRecordStore) FindByID(ctx context.Context, id uuid.UUID) (*recordModel.AttendanceRecordModel, error) {
	var m recordModel.AttendanceRecordModel
	err := s.db.WithContext(ctx).
		Where("attendance_record_id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormRecordStore) ListByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) ([]recordModel.AttendanceRecordModel, error) {
	var rows []recordModel.AttendanceRecordModel
	err := s.db.WithContext(ctx).
		Where("attendance_record_class_id = ? AND attendance_record_date = ?", classID, date).
		Order("attendance_record_student_id ASC").
		Find(&rows).Error
	return rows, err
}

func (s *gormRecordStore) MarkPresentIfUnmarked(ctx context.Context, classID, studentID uuid.UUID, date time.Time, at time.Time, snapshot datatypes.JSONMap) (bool, error) {
	// Satu statement kondisional: dari dua scan berbarengan hanya satu yang
	// kena baris, sisanya RowsAffected=0 → AlreadyMarked di service.
	updates := map[string]any{
		"attendance_record_status":          recordModel.AttendanceStatusPresent,
		"attendance_record_attendance_time": at,
		"attendance_record_updated_at":      at,
	}
	if snapshot != nil {
		updates["attendance_record_verify_snapshot"] = snapshot
	}
	res := s.db.WithContext(ctx).
		Model(&recordModel.AttendanceRecordModel{}).
		Where("attendance_record_class_id = ? AND attendance_record_student_id = ? AND attendance_record_date = ?",
			classID, studentID, date).
		Where("attendance_record_status NOT IN ?", []string{
			string(recordModel.AttendanceStatusPresent),
			string(recordModel.AttendanceStatusLate),
		}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *gormRecordStore) Save(ctx context.Context, m *recordModel.AttendanceRecordModel) error {
	m.AttendanceRecordUpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Save(m).Error
}

/* ===============================
   Enrollment (oracle)
================================*/

type gormEnrollmentStore gormStore

func (s *gormEnrollmentStore) ListEnrolledStudents(ctx context.Context, classID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&enrollModel.ClassStudentModel{}).
		Where("class_student_class_id = ? AND class_student_is_active = TRUE", classID).
		Order("class_student_student_id ASC").
		Pluck("class_student_student_id", &ids).Error
	return ids, err
}

func (s *gormEnrollmentStore) IsEnrolled(ctx context.Context, studentID, classID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&enrollModel.ClassStudentModel{}).
		Where("class_student_class_id = ? AND class_student_student_id = ? AND class_student_is_active = TRUE",
			classID, studentID).
		Count(&count).Error
	return count > 0, err
}
