package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/* =========================
   Enum status kehadiran
========================= */

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

func ValidAttendanceStatus(s string) bool {
	switch AttendanceStatus(s) {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	}
	return false
}

// Marked: status yang dihitung sebagai "sudah absen mandiri".
// Rekonsiliasi ke absent/excused oleh dosen TIDAK memblokir scan berikutnya.
func (s AttendanceStatus) Marked() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusLate
}

/* =========================================
   Model: attendance_records
   Catatan: relasi ke sesi sengaja lewat (class_id, session_date),
   bukan FK ke attendance_sessions (denormalisasi dari sistem asal).
========================================= */

type AttendanceRecordModel struct {
	// PK
	AttendanceRecordID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:attendance_record_id" json:"attendance_record_id"`

	// Identitas unik: satu baris per (class, student, tanggal)
	AttendanceRecordClassID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_records_class_student_date;column:attendance_record_class_id" json:"attendance_record_class_id"`
	AttendanceRecordStudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_records_class_student_date;column:attendance_record_student_id" json:"attendance_record_student_id"`
	AttendanceRecordDate      time.Time `gorm:"type:date;not null;uniqueIndex:uq_attendance_records_class_student_date;column:attendance_record_date" json:"attendance_record_date"`

	AttendanceRecordStatus AttendanceStatus `gorm:"type:varchar(16);not null;default:'absent';column:attendance_record_status" json:"attendance_record_status"`

	// Bucket jam: present+absent+permitted+sick harus == total_hours sesi
	// pada setiap write rekonsiliasi (tidak di-enforce saat seeding).
	AttendanceRecordHoursPresent   int `gorm:"not null;default:0;column:attendance_record_hours_present" json:"attendance_record_hours_present"`
	AttendanceRecordHoursAbsent    int `gorm:"not null;default:0;column:attendance_record_hours_absent" json:"attendance_record_hours_absent"`
	AttendanceRecordHoursPermitted int `gorm:"not null;default:0;column:attendance_record_hours_permitted" json:"attendance_record_hours_permitted"`
	AttendanceRecordHoursSick      int `gorm:"not null;default:0;column:attendance_record_hours_sick" json:"attendance_record_hours_sick"`

	// Jejak absen mandiri
	AttendanceRecordAttendanceTime *time.Time        `gorm:"type:timestamptz;column:attendance_record_attendance_time" json:"attendance_record_attendance_time,omitempty"`
	AttendanceRecordVerifySnapshot datatypes.JSONMap `gorm:"type:jsonb;column:attendance_record_verify_snapshot" json:"attendance_record_verify_snapshot,omitempty"`

	AttendanceRecordRemarks *string `gorm:"type:text;column:attendance_record_remarks" json:"attendance_record_remarks,omitempty"`

	// Audit rekonsiliasi manual
	AttendanceRecordLastEditedAt *time.Time `gorm:"type:timestamptz;column:attendance_record_last_edited_at" json:"attendance_record_last_edited_at,omitempty"`
	AttendanceRecordLastEditedBy *uuid.UUID `gorm:"type:uuid;column:attendance_record_last_edited_by" json:"attendance_record_last_edited_by,omitempty"`

	AttendanceRecordCreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:attendance_record_created_at" json:"attendance_record_created_at"`
	AttendanceRecordUpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:attendance_record_updated_at" json:"attendance_record_updated_at"`
}

func (AttendanceRecordModel) TableName() string { return "attendance_records" }

func (m *AttendanceRecordModel) HoursSum() int {
	return m.AttendanceRecordHoursPresent +
		m.AttendanceRecordHoursAbsent +
		m.AttendanceRecordHoursPermitted +
		m.AttendanceRecordHoursSick
}
