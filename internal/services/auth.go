package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/data/repos/accounts"
	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, student *types.Student) (*types.Student, error)
	Login(ctx context.Context, email, password string) (string, error)
	ParseToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	studentRepo  accounts.StudentRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, studentRepo accounts.StudentRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:           db,
		log:          serviceLog,
		studentRepo:  studentRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (s *authService) Register(ctx context.Context, student *types.Student) (*types.Student, error) {
	const op = "AuthService.Register"

	if student == nil {
		return nil, types.NewValidation(op, "student required")
	}
	student.Email = strings.ToLower(strings.TrimSpace(student.Email))
	if student.Email == "" {
		return nil, types.NewValidation(op, "email required")
	}
	if student.Password == "" {
		return nil, types.NewValidation(op, "password required")
	}
	if strings.TrimSpace(student.FirstName) == "" || strings.TrimSpace(student.LastName) == "" {
		return nil, types.NewValidation(op, "first and last name required")
	}

	exists, err := s.studentRepo.EmailExists(ctx, nil, student.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.NewConflict(op, "email already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(student.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, types.NewError(types.KindDatabase, op, "failed to hash password", err)
	}
	student.Password = string(hashed)

	created, err := s.studentRepo.Create(ctx, nil, []*types.Student{student})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "AuthService.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", types.NewValidation(op, "email and password required")
	}

	student, err := s.studentRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", err
	}
	// Unknown email and wrong password answer identically so a caller
	// cannot tell which accounts exist.
	if student == nil {
		return "", types.NewValidation(op, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(password)); err != nil {
		return "", types.NewValidation(op, "invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub": student.ID.String(),
		"exp": time.Now().Add(s.accessTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecretKey))
	if err != nil {
		return "", types.NewError(types.KindDatabase, op, "failed to sign token", err)
	}
	return signed, nil
}

func (s *authService) ParseToken(tokenString string) (uuid.UUID, error) {
	const op = "AuthService.ParseToken"

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, types.NewValidation(op, "unexpected signing method")
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, types.NewValidation(op, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, types.NewValidation(op, "invalid claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, types.NewValidation(op, "invalid subject")
	}
	return id, nil
}
