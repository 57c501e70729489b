package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"edupanel/internal/database"
	"edupanel/internal/models"
	"edupanel/internal/pagination"
	"edupanel/internal/repository"
)

// Family is a URL-addressable group of accounts sharing one role.
type Family struct {
	Name       string
	Collection string
	Role       models.Role
	Managers   []models.Role
}

var families = map[string]Family{
	"students": {
		Name:       "students",
		Collection: database.StudentsCollection,
		Role:       models.RoleStudent,
		Managers:   []models.Role{models.RoleAssistant, models.RoleAdmin, models.RoleDeveloper},
	},
	"assistants": {
		Name:       "assistants",
		Collection: database.UsersCollection,
		Role:       models.RoleAssistant,
		Managers:   []models.Role{models.RoleAdmin, models.RoleDeveloper},
	},
	"admins": {
		Name:       "admins",
		Collection: database.UsersCollection,
		Role:       models.RoleAdmin,
		Managers:   []models.Role{models.RoleDeveloper},
	},
}

func (f Family) ManagedBy(role string) bool {
	return slices.Contains(f.Managers, models.Role(role))
}

type DeviceStore interface {
	List(ctx context.Context, collection string, role models.Role, filter repository.AccountFilter) ([]models.Account, int64, error)
	SetAllowedDevices(ctx context.Context, collection string, role models.Role, id string, allowed int) error
	RemoveDevice(ctx context.Context, collection string, role models.Role, id string, deviceID string) error
}

type DeviceService struct {
	accounts DeviceStore
	log      zerolog.Logger
}

func NewDeviceService(accounts DeviceStore, log zerolog.Logger) *DeviceService {
	return &DeviceService{accounts: accounts, log: log}
}

// Family resolves name and checks that callerRole may manage it.
func (s *DeviceService) Family(name string, callerRole string) (Family, error) {
	family, ok := families[name]
	if !ok {
		return Family{}, ErrUnknownFamily
	}
	if !family.ManagedBy(callerRole) {
		return Family{}, ErrForbidden
	}
	return family, nil
}

type AccountPage struct {
	Data       []models.Account
	Pagination pagination.Meta
}

func (s *DeviceService) List(ctx context.Context, family Family, page pagination.Params, search string) (AccountPage, error) {
	accounts, total, err := s.accounts.List(ctx, family.Collection, family.Role, repository.AccountFilter{
		Search: search,
		Skip:   page.Skip(),
		Limit:  page.Limit,
	})
	if err != nil {
		return AccountPage{}, fmt.Errorf("list %s: %w", family.Name, err)
	}
	return AccountPage{Data: accounts, Pagination: pagination.NewMeta(page, total)}, nil
}

// SetAllowedDevices changes the cap only. Devices over a lowered cap stay.
func (s *DeviceService) SetAllowedDevices(ctx context.Context, family Family, id string, allowed int) error {
	fields := fieldErrors{}
	id = strings.TrimSpace(id)
	if id == "" {
		fields.add("id", "required")
	}
	if allowed < 0 {
		fields.add("allowed_devices", "must_be_non_negative")
	}
	if err := fields.err(); err != nil {
		return err
	}

	err := s.accounts.SetAllowedDevices(ctx, family.Collection, family.Role, id, allowed)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("set allowed devices: %w", err)
	}
	s.log.Info().Str("family", family.Name).Str("account_id", id).Int("allowed_devices", allowed).Msg("device cap changed")
	return nil
}

// RemoveDevice succeeds when the device is already gone.
func (s *DeviceService) RemoveDevice(ctx context.Context, family Family, id string, deviceID string) error {
	fields := fieldErrors{}
	id = strings.TrimSpace(id)
	deviceID = strings.TrimSpace(deviceID)
	if id == "" {
		fields.add("id", "required")
	}
	if deviceID == "" {
		fields.add("device_id", "required")
	}
	if err := fields.err(); err != nil {
		return err
	}

	err := s.accounts.RemoveDevice(ctx, family.Collection, family.Role, id, deviceID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("remove device: %w", err)
	}
	return nil
}
