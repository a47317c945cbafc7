package services

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moneybook/internal/booktpl"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/session"
)

// UserService handles registration, login and profile changes.
type UserService struct {
	db          *gorm.DB
	bookService *BookService
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB, bookService *BookService) *UserService {
	return &UserService{db: db, bookService: bookService}
}

// Register creates a user together with a personal group, a default book
// seeded from the bundled template, and an owner membership.
func (s *UserService) Register(username, nickName, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:     username,
		NickName:     nickName,
		Password:     string(hashedPassword),
		Enable:       true,
		RegisterTime: time.Now().UnixMilli(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		group := &models.Group{
			Name:                fmt.Sprintf("%s's group", username),
			Enable:              true,
			CreatorID:           user.ID,
			DefaultCurrencyCode: "CNY",
		}
		if err := tx.Create(group).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		book, err := s.bookService.CreateFromTemplate(tx, group.ID, booktpl.Default(), group.DefaultCurrencyCode)
		if err != nil {
			return err
		}

		if err := tx.Model(group).Update("default_book_id", book.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		group.DefaultBookID = &book.ID

		relation := &models.UserGroupRelation{UserID: user.ID, GroupID: group.ID, Role: models.RoleOwner}
		if err := tx.Create(relation).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(user).Updates(map[string]interface{}{
			"default_group_id": group.ID,
			"default_book_id":  book.ID,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		user.DefaultGroupID = &group.ID
		user.DefaultBookID = &book.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetByUsername retrieves an enabled user by username.
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? AND enable = ?", username, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash.
func (s *UserService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// Login authenticates a username/password pair.
func (s *UserService) Login(username, password string) (*models.User, error) {
	user, err := s.GetByUsername(username)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the caller's password after verifying the old one.
func (s *UserService) ChangePassword(sess *session.Session, oldPassword, newPassword string) error {
	if newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "new password is required")
	}
	if !s.VerifyPassword(sess.User, oldPassword) {
		return apperrors.ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(sess.User).Update("password", string(hashed)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	sess.User.Password = string(hashed)
	return nil
}
