package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"absenku_backend/internals/apperr"
	"absenku_backend/internals/features/attendance/repository"
	recordModel "absenku_backend/internals/features/attendance/records/model"
	sessionService "absenku_backend/internals/features/attendance/sessions/service"
	helper "absenku_backend/internals/helpers"
)

var (
	ErrNoActiveSession = apperr.NotFound("sesi absensi aktif tidak ditemukan")
	ErrSessionExpired  = sessionService.ErrSessionExpired
	ErrNotEnrolled     = apperr.NotFound("siswa tidak terdaftar di kelas ini")
	ErrRecordNotFound  = apperr.NotFound("record kehadiran tidak ditemukan untuk siswa ini")
	ErrAlreadyMarked   = apperr.Conflict("siswa sudah tercatat hadir di sesi ini")
)

type LedgerService struct {
	store repository.Store
	clock helper.Clock
}

func NewLedgerService(store repository.Store, clock helper.Clock) *LedgerService {
	if clock == nil {
		clock = helper.RealClock()
	}
	return &LedgerService{store: store, clock: clock}
}

// IsAlreadyMarked: true hanya untuk present/late. Hasil rekonsiliasi dosen ke
// absent/excused tidak menghalangi scan mandiri berikutnya.
func (s *LedgerService) IsAlreadyMarked(ctx context.Context, classID, studentID uuid.UUID, date time.Time) (bool, error) {
	rec, err := s.store.Records().Find(ctx, classID, studentID, sessionService.NormalizeDate(date))
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return rec.AttendanceRecordStatus.Marked(), nil
}

// MarkPresent mencatat absen mandiri. Prasyarat: sesi aktif & belum lewat
// jendela, record sudah ter-seed, belum marked. Update-nya satu statement
// kondisional sehingga dua scan berbarengan hanya satu yang menang; yang
// kalah dapat ErrAlreadyMarked, bukan double record.
func (s *LedgerService) MarkPresent(ctx context.Context, classID, studentID uuid.UUID, date time.Time, snapshot datatypes.JSONMap) error {
	date = sessionService.NormalizeDate(date)
	now := s.clock.Now()

	sess, err := s.store.Sessions().FindByClassDate(ctx, classID, date)
	if err != nil {
		return err
	}
	if sess == nil || !sess.AttendanceSessionIsActive {
		return ErrNoActiveSession
	}
	if sess.ExpiredAt(now) {
		return ErrSessionExpired
	}

	enrolled, err := s.store.Enrollment().IsEnrolled(ctx, studentID, classID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}

	rec, err := s.store.Records().Find(ctx, classID, studentID, date)
	if err != nil {
		return err
	}
	if rec == nil {
		// terdaftar sekarang tapi belum ter-seed (masuk roster setelah generate)
		return ErrRecordNotFound
	}
	if rec.AttendanceRecordStatus.Marked() {
		return ErrAlreadyMarked
	}

	ok, err := s.store.Records().MarkPresentIfUnmarked(ctx, classID, studentID, date, now, snapshot)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyMarked
	}
	return nil
}

/* ===============================
   Rekonsiliasi bucket jam
================================*/

type ReconcileEntry struct {
	RecordID       uuid.UUID `json:"record_id" validate:"required"`
	Status         string    `json:"status" validate:"required"`
	HoursPresent   int       `json:"hours_present" validate:"min=0"`
	HoursAbsent    int       `json:"hours_absent" validate:"min=0"`
	HoursPermitted int       `json:"hours_permitted" validate:"min=0"`
	HoursSick      int       `json:"hours_sick" validate:"min=0"`
	Remarks        *string   `json:"remarks,omitempty"`
}

type ReconcileResult struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
}

// ReconcileBatch menulis status + empat bucket jam per entry, dalam SATU
// transaksi. Kontraknya asimetris dan memang begitu: entry yang gagal
// validasi (record tak ada, status tak dikenal, jam negatif, jumlah bucket
// != total_hours sesi) dilewati dan dihitung di ErrorCount tanpa
// menggagalkan sisanya; hanya fault tak terduga (error datastore) yang
// membatalkan seluruh batch.
func (s *LedgerService) ReconcileBatch(ctx context.Context, actingUserID uuid.UUID, entries []ReconcileEntry) (ReconcileResult, error) {
	var result ReconcileResult
	now := s.clock.Now()

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		type sessionKey struct {
			classID uuid.UUID
			date    time.Time
		}
		totalHoursCache := map[sessionKey]int{}

		for _, e := range entries {
			rec, err := tx.Records().FindByID(ctx, e.RecordID)
			if err != nil {
				return err
			}
			if rec == nil {
				result.ErrorCount++
				continue
			}
			if !recordModel.ValidAttendanceStatus(e.Status) {
				result.ErrorCount++
				continue
			}
			if e.HoursPresent < 0 || e.HoursAbsent < 0 || e.HoursPermitted < 0 || e.HoursSick < 0 {
				result.ErrorCount++
				continue
			}

			key := sessionKey{rec.AttendanceRecordClassID, rec.AttendanceRecordDate}
			totalHours, cached := totalHoursCache[key]
			if !cached {
				sess, err := tx.Sessions().FindByClassDate(ctx, key.classID, key.date)
				if err != nil {
					return err
				}
				if sess == nil {
					result.ErrorCount++
					continue
				}
				totalHours = sess.AttendanceSessionTotalHours
				totalHoursCache[key] = totalHours
			}

			sum := e.HoursPresent + e.HoursAbsent + e.HoursPermitted + e.HoursSick
			if sum != totalHours {
				result.ErrorCount++
				continue
			}

			rec.AttendanceRecordStatus = recordModel.AttendanceStatus(e.Status)
			rec.AttendanceRecordHoursPresent = e.HoursPresent
			rec.AttendanceRecordHoursAbsent = e.HoursAbsent
			rec.AttendanceRecordHoursPermitted = e.HoursPermitted
			rec.AttendanceRecordHoursSick = e.HoursSick
			rec.AttendanceRecordRemarks = e.Remarks
			rec.AttendanceRecordLastEditedAt = &now
			rec.AttendanceRecordLastEditedBy = &actingUserID

			if err := tx.Records().Save(ctx, rec); err != nil {
				return err
			}
			result.SuccessCount++
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	return result, nil
}

// ListByClassDate: roster satu sesi untuk tampilan dosen.
func (s *LedgerService) ListByClassDate(ctx context.Context, classID uuid.UUID, date time.Time) ([]recordModel.AttendanceRecordModel, error) {
	return s.store.Records().ListByClassDate(ctx, classID, sessionService.NormalizeDate(date))
}
