package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clipscloud-bot/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the repository layer over the database. Handlers and the engine go
// through it and never touch tables directly.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindOrCreateUser returns the user for telegramID, creating a fresh record
// on first contact. Reports whether the record was created.
func (s *Store) FindOrCreateUser(telegramID int64, name string) (*models.User, bool, error) {
	var user models.User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up user %d: %w", telegramID, err)
	}

	user = models.User{
		TelegramID:   telegramID,
		Name:         name,
		Joined:       true,
		PaymentState: models.PaymentStateNormal,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create user %d: %w", telegramID, err)
	}
	return &user, true, nil
}

func (s *Store) UserByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	if err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user %d: %w", telegramID, err)
	}
	return &user, nil
}

func (s *Store) SaveUser(user *models.User) error {
	if err := s.db.Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user %d: %w", user.TelegramID, err)
	}
	return nil
}

func (s *Store) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UsersAwaitingProofBefore returns users whose awaiting-proof state expired
// before the given moment.
func (s *Store) UsersAwaitingProofBefore(deadline time.Time) ([]models.User, error) {
	var users []models.User
	err := s.db.Where("payment_state = ? AND payment_state_expires_at < ?",
		models.PaymentStateAwaitingProof, deadline).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired proof states: %w", err)
	}
	return users, nil
}

// AddVideo appends a catalog entry. Reports false without error when the
// file ID is already present.
func (s *Store) AddVideo(fileID string, uploaderID int64) (bool, error) {
	var existing models.Video
	err := s.db.Where("file_id = ?", fileID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to check catalog for %s: %w", fileID, err)
	}

	video := models.Video{FileID: fileID, UploaderID: uploaderID}
	if err := s.db.Create(&video).Error; err != nil {
		return false, fmt.Errorf("failed to add video %s: %w", fileID, err)
	}
	return true, nil
}

// VideosPage returns up to limit catalog entries starting at offset, in
// insertion order.
func (s *Store) VideosPage(offset, limit int) ([]models.Video, error) {
	var videos []models.Video
	if err := s.db.Order("id").Offset(offset).Limit(limit).Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to page catalog: %w", err)
	}
	return videos, nil
}

func (s *Store) CountVideos() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Video{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	return count, nil
}

func (s *Store) ListVideos() ([]models.Video, error) {
	var videos []models.Video
	if err := s.db.Order("id").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return videos, nil
}

// RemoveVideo drops a catalog entry whose stored reference turned out to be
// invalid. Removing an absent entry is not an error.
func (s *Store) RemoveVideo(fileID string) error {
	if err := s.db.Where("file_id = ?", fileID).Delete(&models.Video{}).Error; err != nil {
		return fmt.Errorf("failed to remove video %s: %w", fileID, err)
	}
	return nil
}

func (s *Store) CreatePaymentRequest(req *models.PaymentRequest) error {
	if err := s.db.Create(req).Error; err != nil {
		return fmt.Errorf("failed to create payment request for %d: %w", req.TelegramID, err)
	}
	return nil
}

func (s *Store) DeletePaymentRequests(telegramID int64) error {
	if err := s.db.Where("telegram_id = ?", telegramID).Delete(&models.PaymentRequest{}).Error; err != nil {
		return fmt.Errorf("failed to delete payment requests for %d: %w", telegramID, err)
	}
	return nil
}

func (s *Store) PaymentRequestByUser(telegramID int64) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := s.db.Where("telegram_id = ?", telegramID).Order("id DESC").First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up payment request for %d: %w", telegramID, err)
	}
	return &req, nil
}

func (s *Store) GetSetting(key string) (string, error) {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting.Value, nil
}

func (s *Store) PutSetting(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}
