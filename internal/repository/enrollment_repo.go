package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// EnrollmentRepository manages the student and teacher batch junctions.
type EnrollmentRepository interface {
	AddStudent(ctx context.Context, studentID, batchID uint) (models.StudentBatchAssignment, error)
	AddTeacher(ctx context.Context, teacherID, batchID uint) (models.TeacherBatchAssignment, error)
	StudentEnrolled(ctx context.Context, studentID, batchID uint) (bool, error)
	TeacherAssigned(ctx context.Context, teacherID, batchID uint) (bool, error)
	RemoveStudent(ctx context.Context, studentID, batchID uint) (int64, error)
	RemoveTeacher(ctx context.Context, teacherID, batchID uint) (int64, error)
	ListStudents(ctx context.Context, batchID uint) ([]models.User, error)
	StudentIDs(ctx context.Context, batchID uint) ([]uint, error)
	StudentBatches(ctx context.Context, studentID uint) ([]models.Batch, error)
	StudentBatchIDsForCourse(ctx context.Context, studentID, courseID uint) ([]uint, error)
	TeacherBatches(ctx context.Context, teacherID uint) ([]models.Batch, error)
	StudentsOfTeacher(ctx context.Context, teacherID uint) ([]models.User, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) AddStudent(ctx context.Context, studentID, batchID uint) (models.StudentBatchAssignment, error) {
	record := models.StudentBatchAssignment{StudentID: studentID, BatchID: batchID}
	if err := r.db.WithContext(ctx).Omit("Student", "Batch").Create(&record).Error; err != nil {
		return models.StudentBatchAssignment{}, err
	}
	return record, nil
}

func (r *enrollmentRepository) AddTeacher(ctx context.Context, teacherID, batchID uint) (models.TeacherBatchAssignment, error) {
	record := models.TeacherBatchAssignment{TeacherID: teacherID, BatchID: batchID}
	if err := r.db.WithContext(ctx).Omit("Teacher", "Batch").Create(&record).Error; err != nil {
		return models.TeacherBatchAssignment{}, err
	}
	return record, nil
}

func (r *enrollmentRepository) StudentEnrolled(ctx context.Context, studentID, batchID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StudentBatchAssignment{}).
		Where("student_id = ? AND batch_id = ?", studentID, batchID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepository) TeacherAssigned(ctx context.Context, teacherID, batchID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TeacherBatchAssignment{}).
		Where("teacher_id = ? AND batch_id = ?", teacherID, batchID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepository) RemoveStudent(ctx context.Context, studentID, batchID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("student_id = ? AND batch_id = ?", studentID, batchID).
		Delete(&models.StudentBatchAssignment{})
	return result.RowsAffected, result.Error
}

func (r *enrollmentRepository) RemoveTeacher(ctx context.Context, teacherID, batchID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("teacher_id = ? AND batch_id = ?", teacherID, batchID).
		Delete(&models.TeacherBatchAssignment{})
	return result.RowsAffected, result.Error
}

func (r *enrollmentRepository) ListStudents(ctx context.Context, batchID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN student_batch_assignments sba ON sba.student_id = users.id").
		Where("sba.batch_id = ?", batchID).
		Order("users.id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *enrollmentRepository) StudentIDs(ctx context.Context, batchID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.StudentBatchAssignment{}).
		Where("batch_id = ?", batchID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *enrollmentRepository) StudentBatches(ctx context.Context, studentID uint) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Joins("JOIN student_batch_assignments sba ON sba.batch_id = batches.id").
		Where("sba.student_id = ?", studentID).
		Order("batches.id ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *enrollmentRepository) StudentBatchIDsForCourse(ctx context.Context, studentID, courseID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Batch{}).
		Joins("JOIN student_batch_assignments sba ON sba.batch_id = batches.id").
		Where("sba.student_id = ? AND batches.course_id = ?", studentID, courseID).
		Order("batches.id ASC").
		Pluck("batches.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *enrollmentRepository) TeacherBatches(ctx context.Context, teacherID uint) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Joins("JOIN teacher_batch_assignments tba ON tba.batch_id = batches.id").
		Where("tba.teacher_id = ?", teacherID).
		Order("batches.id ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *enrollmentRepository) StudentsOfTeacher(ctx context.Context, teacherID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Distinct("users.*").
		Joins("JOIN student_batch_assignments sba ON sba.student_id = users.id").
		Joins("JOIN teacher_batch_assignments tba ON tba.batch_id = sba.batch_id").
		Where("tba.teacher_id = ?", teacherID).
		Order("users.id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
