package model

import (
	"time"

	"github.com/google/uuid"
)

/* =========================================
   Model: class_students (roster)
   Pengelolaan roster di luar scope; tabel ini hanya
   backing untuk Enrollment Oracle.
========================================= */

type ClassStudentModel struct {
	ClassStudentID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:class_student_id" json:"class_student_id"`

	ClassStudentClassID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_class_students_class_student;column:class_student_class_id" json:"class_student_class_id"`
	ClassStudentStudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_class_students_class_student;column:class_student_student_id" json:"class_student_student_id"`

	ClassStudentIsActive bool `gorm:"not null;default:true;column:class_student_is_active" json:"class_student_is_active"`

	ClassStudentCreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:class_student_created_at" json:"class_student_created_at"`
}

func (ClassStudentModel) TableName() string { return "class_students" }
