package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
)

type ContactService struct {
	contactRepo models.ContactRepo
	logger      *slog.Logger
}

func NewContactService(contactRepo models.ContactRepo, logger *slog.Logger) *ContactService {
	return &ContactService{contactRepo: contactRepo, logger: logger}
}

func (cs *ContactService) Submit(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.TrimSpace(contact.Email)
	contact.Message = strings.TrimSpace(contact.Message)
	if err := models.Validate.Struct(contact); err != nil {
		return nil, models.Validationf("invalid contact form: %v", err)
	}
	contact.ID = uuid.New()
	contact.IsRead = false
	contact.CreatedAt = time.Now().UTC()

	created, err := cs.contactRepo.CreateContact(ctx, contact)
	if err != nil {
		return nil, err
	}
	cs.logger.Info("Contact message received", "contact_id", created.ID)
	return created, nil
}

func (cs *ContactService) List(ctx context.Context) ([]*models.Contact, error) {
	return cs.contactRepo.ListContacts(ctx, adminListLimit)
}

func (cs *ContactService) MarkRead(ctx context.Context, id uuid.UUID, read bool) error {
	if id == uuid.Nil {
		return models.Validationf("invalid contact ID")
	}
	return cs.contactRepo.SetContactRead(ctx, id, read)
}
