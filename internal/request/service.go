package request

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"blood-donation-bot/internal/chatbot"
)

// Notifier fans a freshly created request out to donors/coordinators.
type Notifier interface {
	SendRequestAlert(ctx context.Context, br BloodRequest) error
}

type Service interface {
	CreateBloodRequest(ctx context.Context, d chatbot.Draft) (uuid.UUID, error)
	Create(ctx context.Context, br *BloodRequest) error
	ListOpen(ctx context.Context) ([]BloodRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error)
}

type service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) Service {
	return &service{repo: repo, notifier: notifier}
}

// CreateBloodRequest persists a confirmed intake draft. The draft has
// already been validated and repaired by the intake engine, so the bag
// count is parseable here; the fallback covers a corrupted value.
func (s *service) CreateBloodRequest(ctx context.Context, d chatbot.Draft) (uuid.UUID, error) {
	bags, err := strconv.Atoi(d.BagNeeded)
	if err != nil || bags < 1 {
		bags = 1
	}

	br := &BloodRequest{
		ID:              uuid.New(),
		RequesterID:     d.RequesterID,
		BloodType:       d.BloodType,
		Hospital:        d.Hospital,
		Location:        d.Location,
		Zone:            d.Zone,
		PatientProblem:  d.PatientProblem,
		BagNeeded:       bags,
		NeededDate:      d.Date,
		NeededTime:      d.Time,
		HemoglobinPoint: d.HemoglobinPoint,
		AdditionalInfo:  d.AdditionalInfo,
		Status:          StatusOpen,
	}
	if err := s.Create(ctx, br); err != nil {
		return uuid.Nil, err
	}
	return br.ID, nil
}

func (s *service) Create(ctx context.Context, br *BloodRequest) error {
	if br.ID == uuid.Nil {
		br.ID = uuid.New()
	}
	if br.Status == "" {
		br.Status = StatusOpen
	}
	if br.CreatedAt.IsZero() {
		br.CreatedAt = time.Now()
	}

	if err := s.repo.Save(ctx, br); err != nil {
		return fmt.Errorf("save blood request: %w", err)
	}

	// Fan-out happens in the background with a detached context; a
	// notification failure never fails the already-committed request.
	if s.notifier != nil {
		go func(br BloodRequest) {
			if err := s.notifier.SendRequestAlert(context.Background(), br); err != nil {
				log.Printf("request alert failed for %s: %v", br.ID, err)
			}
		}(*br)
	}
	return nil
}

func (s *service) ListOpen(ctx context.Context) ([]BloodRequest, error) {
	return s.repo.ListOpen(ctx)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error) {
	return s.repo.GetByID(ctx, id)
}
