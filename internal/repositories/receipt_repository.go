package repositories

import (
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// receiptRepository implements ReceiptRepositoryInterface
type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) ReceiptRepositoryInterface {
	return &receiptRepository{
		db: db,
	}
}

func (r *receiptRepository) Create(receipt *models.Receipt) error {
	if err := r.db.Omit("Transaction").Create(receipt).Error; err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

func (r *receiptRepository) GetByID(userID, id uuid.UUID) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

// ListByUser returns the user's receipts newest first with the total count
func (r *receiptRepository) ListByUser(userID uuid.UUID, offset, limit int) ([]models.Receipt, int64, error) {
	var receipts []models.Receipt
	var total int64

	if err := r.db.Model(&models.Receipt{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count receipts: %w", err)
	}

	if err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&receipts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}

	return receipts, total, nil
}

// Update persists the OCR outcome columns of a receipt
func (r *receiptRepository) Update(receipt *models.Receipt) error {
	result := r.db.Model(receipt).
		Where("user_id = ?", receipt.UserID).
		Select("ocr_raw_text", "ocr_model", "ocr_processed_at", "extracted_data", "status", "error_message", "updated_at").
		Omit("Transaction").
		Updates(receipt)
	if result.Error != nil {
		return fmt.Errorf("failed to update receipt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

// SetTransaction links the receipt to a transaction, or unlinks it when transactionID is nil
func (r *receiptRepository) SetTransaction(userID, id uuid.UUID, transactionID *uuid.UUID) error {
	result := r.db.Model(&models.Receipt{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"transaction_id": transactionID,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update receipt link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (r *receiptRepository) Delete(userID, id uuid.UUID) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Receipt{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete receipt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}
