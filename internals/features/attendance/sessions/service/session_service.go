package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"absenku_backend/internals/apperr"
	"absenku_backend/internals/features/attendance/repository"
	sessionModel "absenku_backend/internals/features/attendance/sessions/model"
	helper "absenku_backend/internals/helpers"
)

// DefaultWindow: lama jendela absensi sejak generate.
const DefaultWindow = 30 * time.Minute

const DefaultToleranceMinutes = 15

// Pilihan menit perpanjangan yang diizinkan.
var allowedExtendMinutes = map[int]bool{10: true, 20: true, 30: true}

var (
	ErrNoStudentsEnrolled = apperr.Conflict("belum ada siswa terdaftar di kelas ini")
	ErrSessionNotFound    = apperr.NotFound("sesi absensi tidak ditemukan")
	ErrSessionExpired     = apperr.Expired("sesi absensi sudah berakhir")
)

type SessionService struct {
	store repository.Store
	clock helper.Clock
}

func NewSessionService(store repository.Store, clock helper.Clock) *SessionService {
	if clock == nil {
		clock = helper.RealClock()
	}
	return &SessionService{store: store, clock: clock}
}

// NormalizeDate memotong instan ke tanggal kalender (UTC midnight) —
// kunci identitas sesi dan record.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type GenerateInput struct {
	Week          int
	MeetingNumber int
	TotalHours    int
}

type SessionHandle struct {
	SessionID   uuid.UUID `json:"session_id"`
	ClassID     uuid.UUID `json:"class_id"`
	Date        time.Time `json:"date"`
	ExpiresAt   time.Time `json:"expires_at"`
	SeededTotal int       `json:"seeded_total"`
}

// Generate membuat sesi untuk (class, tanggal) bila belum ada dan seed satu
// record absent per siswa terdaftar. Satu transaksi: gagal di tengah = tidak
// ada sesi maupun baris parsial. Dipanggil ulang = reseed idempotent.
func (s *SessionService) Generate(ctx context.Context, classID uuid.UUID, date time.Time, in GenerateInput) (*SessionHandle, error) {
	date = NormalizeDate(date)
	now := s.clock.Now()

	var handle *SessionHandle
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		students, err := tx.Enrollment().ListEnrolledStudents(ctx, classID)
		if err != nil {
			return err
		}
		if len(students) == 0 {
			// Sesi tanpa baris kehadiran tidak boleh ada.
			return ErrNoStudentsEnrolled
		}

		sess, err := tx.Sessions().FindByClassDate(ctx, classID, date)
		if err != nil {
			return err
		}
		if sess == nil {
			sess = &sessionModel.AttendanceSessionModel{
				AttendanceSessionClassID:          classID,
				AttendanceSessionDate:             date,
				AttendanceSessionWeek:             in.Week,
				AttendanceSessionMeetingNumber:    in.MeetingNumber,
				AttendanceSessionTotalHours:       in.TotalHours,
				AttendanceSessionStartTime:        now,
				AttendanceSessionEndTime:          now.Add(DefaultWindow),
				AttendanceSessionToleranceMinutes: DefaultToleranceMinutes,
				AttendanceSessionIsActive:         true,
			}
			if err := tx.Sessions().Create(ctx, sess); err != nil {
				return err
			}
		}

		// Siswa yang sudah punya baris dilewati (ON CONFLICT DO NOTHING).
		if err := tx.Records().SeedAbsent(ctx, classID, date, students); err != nil {
			return err
		}

		handle = &SessionHandle{
			SessionID:   sess.AttendanceSessionID,
			ClassID:     classID,
			Date:        date,
			ExpiresAt:   sess.AttendanceSessionEndTime,
			SeededTotal: len(students),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// Extend menambah end_time sesi yang BELUM lewat jendelanya. Sesi yang sudah
// lapsed tidak bisa dihidupkan lewat extend (harus generate/issue baru).
// Dua extend berbarengan = last-writer-wins (limitasi yang diterima).
func (s *SessionService) Extend(ctx context.Context, classID uuid.UUID, date time.Time, minutes int) (time.Time, error) {
	if !allowedExtendMinutes[minutes] {
		return time.Time{}, apperr.Validation("menit perpanjangan harus 10, 20, atau 30")
	}
	date = NormalizeDate(date)

	sess, err := s.store.Sessions().FindByClassDate(ctx, classID, date)
	if err != nil {
		return time.Time{}, err
	}
	if sess == nil {
		return time.Time{}, ErrSessionNotFound
	}
	if sess.ExpiredAt(s.clock.Now()) {
		return time.Time{}, ErrSessionExpired
	}

	sess.AttendanceSessionEndTime = sess.AttendanceSessionEndTime.Add(time.Duration(minutes) * time.Minute)
	sess.AttendanceSessionIsActive = true
	if err := s.store.Sessions().Save(ctx, sess); err != nil {
		return time.Time{}, err
	}
	return sess.AttendanceSessionEndTime, nil
}

// Deactivate mematikan sesi tanpa syarat; idempotent, sesi yang tidak ada
// juga dianggap sukses.
func (s *SessionService) Deactivate(ctx context.Context, classID uuid.UUID, date time.Time) error {
	date = NormalizeDate(date)

	sess, err := s.store.Sessions().FindByClassDate(ctx, classID, date)
	if err != nil {
		return err
	}
	if sess == nil || !sess.AttendanceSessionIsActive {
		return nil
	}
	sess.AttendanceSessionIsActive = false
	return s.store.Sessions().Save(ctx, sess)
}
