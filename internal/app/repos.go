package app

import (
	"github.com/lumenlearn/lms-backend/internal/data/repos/accounts"
	"github.com/lumenlearn/lms-backend/internal/data/repos/learning"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type Repos struct {
	Student        accounts.StudentRepo
	Course         learning.CourseRepo
	CourseModule   learning.CourseModuleRepo
	Lesson         learning.LessonRepo
	Enrollment     learning.EnrollmentRepo
	LessonProgress learning.LessonProgressRepo
}

func wireRepos(clients Clients, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	writeDB := clients.Postgres.DB()
	readDB := clients.Postgres.ReadDB()
	return Repos{
		Student:        accounts.NewStudentRepo(writeDB, log),
		Course:         learning.NewCourseRepo(writeDB, log),
		CourseModule:   learning.NewCourseModuleRepo(writeDB, log),
		Lesson:         learning.NewLessonRepo(writeDB, log),
		Enrollment:     learning.NewEnrollmentRepo(writeDB, readDB, clients.Cache, log),
		LessonProgress: learning.NewLessonProgressRepo(writeDB, readDB, clients.Cache, log),
	}
}
