package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	var user models.User
	if err := r.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.DB.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDs returns the users for ids in no particular order; callers that
// care about ordering (leaderboard cache path) re-sort.
func (r *UserRepository) GetByIDs(ids []int64) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Exists(id int64) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new account after checking email/username are free.
// The pre-checks race on concurrent signups; the unique indexes still
// guarantee consistency and the handler maps the driver error to 400.
func (r *UserRepository) Create(user *models.User) error {
	var count int64
	if err := r.DB.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	if err := r.DB.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) UpdateProfile(id int64, updates map[string]interface{}) error {
	res := r.DB.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddStudyTime bumps the running study-time counter with a store-side
// increment. Runs inside the caller's transaction.
func (r *UserRepository) AddStudyTime(tx *gorm.DB, id int64, seconds int64) error {
	return tx.Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("total_study_time", gorm.Expr("total_study_time + ?", seconds)).Error
}

func (r *UserRepository) TouchLastActive(id int64) error {
	now := time.Now()
	return r.DB.Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("last_active_at", now).Error
}
