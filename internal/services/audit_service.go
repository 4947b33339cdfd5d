package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Wikid82/chimera/backend/internal/models"
)

// ErrNilDecision is returned when LogDecision is handed nothing to store.
var ErrNilDecision = errors.New("nil security decision")

// MaxDecisionPage caps how many rows ListDecisions returns in one call.
const MaxDecisionPage = 500

type AuditService struct {
	db *gorm.DB
}

// NewAuditService returns an AuditService using the provided DB
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// LogDecision stores a mitigation decision record
func (s *AuditService) LogDecision(d *models.SecurityDecision) error {
	if d == nil {
		return ErrNilDecision
	}
	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	return s.db.Create(d).Error
}

// ListDecisions returns recent decisions, newest first. A non-positive or
// oversized limit is clamped to MaxDecisionPage.
func (s *AuditService) ListDecisions(limit int) ([]models.SecurityDecision, error) {
	if limit <= 0 || limit > MaxDecisionPage {
		limit = MaxDecisionPage
	}
	var res []models.SecurityDecision
	if err := s.db.Order("created_at desc").Order("id desc").Limit(limit).Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// ListDecisionsForSource returns decisions for one source, newest first.
func (s *AuditService) ListDecisionsForSource(source string, limit int) ([]models.SecurityDecision, error) {
	if limit <= 0 || limit > MaxDecisionPage {
		limit = MaxDecisionPage
	}
	var res []models.SecurityDecision
	q := s.db.Where("source = ?", source).Order("created_at desc").Order("id desc").Limit(limit)
	if err := q.Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// CountDecisions returns the number of stored decisions.
func (s *AuditService) CountDecisions() (int64, error) {
	var n int64
	err := s.db.Model(&models.SecurityDecision{}).Count(&n).Error
	return n, err
}
