package repository

import (
	"gorm.io/gorm"

	"github.com/noah-isme/cohort-lms-api/internal/models"
)

// The helpers below remove aggregates bottom-up inside an open transaction.
// Each takes the identifiers of the parent rows and deletes every dependent row first.

func pluckIDs(tx *gorm.DB, model interface{}, column string, values []uint) ([]uint, error) {
	var ids []uint
	if len(values) == 0 {
		return ids, nil
	}
	if err := tx.Model(model).Where(column+" IN ?", values).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func deleteQuestions(tx *gorm.DB, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.StudentAnswer{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", questionIDs).Delete(&models.Question{}).Error
}

func deleteQuizzes(tx *gorm.DB, quizIDs []uint) error {
	if len(quizIDs) == 0 {
		return nil
	}
	questionIDs, err := pluckIDs(tx, &models.Question{}, "quiz_id", quizIDs)
	if err != nil {
		return err
	}
	if err := deleteQuestions(tx, questionIDs); err != nil {
		return err
	}
	if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizCompletion{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", quizIDs).Delete(&models.Quiz{}).Error
}

func deleteAssignments(tx *gorm.DB, assignmentIDs []uint) error {
	if len(assignmentIDs) == 0 {
		return nil
	}
	if err := tx.Where("assignment_id IN ?", assignmentIDs).Delete(&models.Submission{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", assignmentIDs).Delete(&models.Assignment{}).Error
}

func deleteLiveClasses(tx *gorm.DB, liveClassIDs []uint) error {
	if len(liveClassIDs) == 0 {
		return nil
	}
	if err := tx.Where("live_class_id IN ?", liveClassIDs).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", liveClassIDs).Delete(&models.LiveClass{}).Error
}

func deleteBatches(tx *gorm.DB, batchIDs []uint) error {
	if len(batchIDs) == 0 {
		return nil
	}
	if err := tx.Where("batch_id IN ?", batchIDs).Delete(&models.StudentBatchAssignment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("batch_id IN ?", batchIDs).Delete(&models.TeacherBatchAssignment{}).Error; err != nil {
		return err
	}
	assignmentIDs, err := pluckIDs(tx, &models.Assignment{}, "batch_id", batchIDs)
	if err != nil {
		return err
	}
	if err := deleteAssignments(tx, assignmentIDs); err != nil {
		return err
	}
	liveClassIDs, err := pluckIDs(tx, &models.LiveClass{}, "batch_id", batchIDs)
	if err != nil {
		return err
	}
	if err := deleteLiveClasses(tx, liveClassIDs); err != nil {
		return err
	}
	return tx.Where("id IN ?", batchIDs).Delete(&models.Batch{}).Error
}

func deleteLessons(tx *gorm.DB, lessonIDs []uint) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.LessonCompletion{}).Error; err != nil {
		return err
	}
	if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.LessonFeedback{}).Error; err != nil {
		return err
	}
	quizIDs, err := pluckIDs(tx, &models.Quiz{}, "lesson_id", lessonIDs)
	if err != nil {
		return err
	}
	if err := deleteQuizzes(tx, quizIDs); err != nil {
		return err
	}
	assignmentIDs, err := pluckIDs(tx, &models.Assignment{}, "lesson_id", lessonIDs)
	if err != nil {
		return err
	}
	if err := deleteAssignments(tx, assignmentIDs); err != nil {
		return err
	}
	return tx.Where("id IN ?", lessonIDs).Delete(&models.Lesson{}).Error
}

func deleteModules(tx *gorm.DB, moduleIDs []uint) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	lessonIDs, err := pluckIDs(tx, &models.Lesson{}, "module_id", moduleIDs)
	if err != nil {
		return err
	}
	if err := deleteLessons(tx, lessonIDs); err != nil {
		return err
	}
	quizIDs, err := pluckIDs(tx, &models.Quiz{}, "module_id", moduleIDs)
	if err != nil {
		return err
	}
	if err := deleteQuizzes(tx, quizIDs); err != nil {
		return err
	}
	assignmentIDs, err := pluckIDs(tx, &models.Assignment{}, "module_id", moduleIDs)
	if err != nil {
		return err
	}
	if err := deleteAssignments(tx, assignmentIDs); err != nil {
		return err
	}
	if err := tx.Where("module_id IN ?", moduleIDs).Delete(&models.LessonCompletion{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", moduleIDs).Delete(&models.Module{}).Error
}

func deleteCourse(tx *gorm.DB, courseID uint) error {
	ids := []uint{courseID}

	moduleIDs, err := pluckIDs(tx, &models.Module{}, "course_id", ids)
	if err != nil {
		return err
	}
	if err := deleteModules(tx, moduleIDs); err != nil {
		return err
	}
	batchIDs, err := pluckIDs(tx, &models.Batch{}, "course_id", ids)
	if err != nil {
		return err
	}
	if err := deleteBatches(tx, batchIDs); err != nil {
		return err
	}
	liveClassIDs, err := pluckIDs(tx, &models.LiveClass{}, "course_id", ids)
	if err != nil {
		return err
	}
	if err := deleteLiveClasses(tx, liveClassIDs); err != nil {
		return err
	}
	result := tx.Delete(&models.Course{}, courseID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func deleteUser(tx *gorm.DB, userID uint) error {
	cleanups := []struct {
		model  interface{}
		column string
	}{
		{&models.StudentBatchAssignment{}, "student_id"},
		{&models.TeacherBatchAssignment{}, "teacher_id"},
		{&models.StudentAnswer{}, "student_id"},
		{&models.QuizCompletion{}, "student_id"},
		{&models.LessonCompletion{}, "student_id"},
		{&models.LessonFeedback{}, "student_id"},
		{&models.Submission{}, "student_id"},
		{&models.Notification{}, "user_id"},
	}
	for _, cleanup := range cleanups {
		if err := tx.Where(cleanup.column+" = ?", userID).Delete(cleanup.model).Error; err != nil {
			return err
		}
	}

	result := tx.Delete(&models.User{}, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
