package database

import (
	"errors"

	"orionpay/models"

	"gorm.io/gorm"
)

// Store is the GORM-backed persistence layer consumed by the webhook
// pipeline. Lookups return (nil, nil) when no row matches so callers do
// not have to care about gorm.ErrRecordNotFound.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) TransactionByProviderID(txID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.Where("transaction_id = ?", txID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *Store) CreateTransaction(txn *models.Transaction) error {
	return s.db.Create(txn).Error
}

func (s *Store) SaveTransaction(txn *models.Transaction) error {
	return s.db.Save(txn).Error
}

func (s *Store) UserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UserByProviderIDs(entityID, walletID string) (*models.User, error) {
	if entityID == "" && walletID == "" {
		return nil, nil
	}

	// Match only on the ids the event actually carries; an empty id must
	// not match rows whose stored provider ids are empty.
	query := s.db
	switch {
	case entityID != "" && walletID != "":
		query = query.Where("entity_id = ? OR wallet_id = ?", entityID, walletID)
	case entityID != "":
		query = query.Where("entity_id = ?", entityID)
	default:
		query = query.Where("wallet_id = ?", walletID)
	}

	var user models.User
	err := query.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) PartnerByCode(code string) (*models.Partner, error) {
	var partner models.Partner
	err := s.db.Where("partner_code = ?", code).First(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}
