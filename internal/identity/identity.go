// Package identity manages user accounts and session tokens.
package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/jfarrow/healthdeck/internal/errors"
)

// User is an account. Email is the owner key on every health record.
type User struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_date"`
}

// tokenTTL is how long issued session tokens stay valid.
const tokenTTL = 7 * 24 * time.Hour

// Service handles registration, login, and token verification.
type Service struct {
	db     *gorm.DB
	secret []byte
}

// NewService migrates the users table and returns a service.
func NewService(db *gorm.DB, jwtSecret string) (*Service, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreFailed.Code, "failed to migrate users")
	}
	return &Service{db: db, secret: []byte(jwtSecret)}, nil
}

// Register creates a new account with a hashed password.
func (s *Service) Register(email, fullName, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.Wrap(nil, apperrors.ErrBadRequest.Code, "email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.Code, "failed to hash password")
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "email already registered")
	}

	return user, nil
}

// Authenticate verifies credentials and returns the matching user.
func (s *Service) Authenticate(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	return &user, nil
}

// ListEmails returns every registered account email.
func (s *Service) ListEmails() ([]string, error) {
	var emails []string
	if err := s.db.Model(&User{}).Pluck("email", &emails).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreFailed.Code, "failed to list users")
	}
	return emails, nil
}

// IssueToken creates a signed session token for user.
func (s *Service) IssueToken(user *User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal.Code, "failed to sign token")
	}
	return signed, nil
}

// VerifyToken validates a session token and returns its user.
func (s *Service) VerifyToken(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var user User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	return &user, nil
}
