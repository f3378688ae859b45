package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	recordModel "absenku_backend/internals/features/attendance/records/model"
	sessionModel "absenku_backend/internals/features/attendance/sessions/model"
)

// Store membungkus akses tabel inti absensi plus batas transaksi.
// Pattern repository diambil supaya service bisa dites tanpa Postgres.
type Store interface {
	Sessions() SessionStore
	Records() RecordStore
	Enrollment() EnrollmentStore

	// WithinTx menjalankan fn dalam satu transaksi; error apa pun dari fn
	// me-rollback seluruhnya.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type SessionStore interface {
	// FindByClassDate mengembalikan (nil, nil) jika sesi belum ada.
	FindByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) (*sessionModel.AttendanceSessionModel, error)
	// FindByToken mengembalikan (nil, nil) jika tidak ada sesi yang memegang token.
	FindByToken(ctx context.Context, token string) (*sessionModel.AttendanceSessionModel, error)
	Create(ctx context.Context, m *sessionModel.AttendanceSessionModel) error
	Save(ctx context.Context, m *sessionModel.AttendanceSessionModel) error
}

type RecordStore interface {
	// SeedAbsent insert baris default (status=absent, bucket 0) untuk tiap student;
	// baris yang sudah ada dilewati (ON CONFLICT DO NOTHING).
	SeedAbsent(ctx context.Context, classID uuid.UUID, date time.Time, studentIDs []uuid.UUID) error
	// Find mengembalikan (nil, nil) jika baris belum ada.
	Find(ctx context.Context, classID, studentID uuid.UUID, date time.Time) (*recordModel.AttendanceRecordModel, error)
	FindByID(ctx context.Context, id uuid.UUID) (*recordModel.AttendanceRecordModel, error)
	ListByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) ([]recordModel.AttendanceRecordModel, error)
	// MarkPresentIfUnmarked: update kondisional satu statement; false artinya
	// baris sudah berstatus present/late (kalah race atau memang sudah absen).
	MarkPresentIfUnmarked(ctx context.Context, classID, studentID uuid.UUID, date time.Time, at time.Time, snapshot datatypes.JSONMap) (bool, error)
	Save(ctx context.Context, m *recordModel.AttendanceRecordModel) error
}

type EnrollmentStore interface {
	ListEnrolledStudents(ctx context.Context, classID uuid.UUID) ([]uuid.UUID, error)
	IsEnrolled(ctx context.Context, studentID, classID uuid.UUID) (bool, error)
}
