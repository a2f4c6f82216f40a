package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/db/models"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// ServiceParams groups dependencies for the address service.
type ServiceParams struct {
	AddressRepo *Repository
}

// Service exposes address book management.
type Service interface {
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error)
	UpdateAddress(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, id uuid.UUID) error
	ResolveShipping(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (types.ShippingAddress, error)
}

// AddressInput carries the fields a user can set on an address.
type AddressInput struct {
	RecipientName string
	Phone         string
	Line1         string
	Line2         *string
	City          string
	Province      string
	PostalCode    string
	IsDefault     bool
}

type service struct {
	addressRepo *Repository
}

// NewService builds an address service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AddressRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address repo is required")
	}
	return &service{addressRepo: params.AddressRepo}, nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.addressRepo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *service) CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := input.toShipping().Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	addr := models.Address{
		UserID:        userID,
		RecipientName: input.RecipientName,
		Phone:         input.Phone,
		Line1:         input.Line1,
		Line2:         input.Line2,
		City:          input.City,
		Province:      input.Province,
		PostalCode:    input.PostalCode,
		IsDefault:     input.IsDefault,
	}
	if err := s.addressRepo.Create(ctx, &addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return &addr, nil
}

func (s *service) UpdateAddress(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*models.Address, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	if err := input.toShipping().Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	addr := models.Address{
		ID:            id,
		UserID:        userID,
		RecipientName: input.RecipientName,
		Phone:         input.Phone,
		Line1:         input.Line1,
		Line2:         input.Line2,
		City:          input.City,
		Province:      input.Province,
		PostalCode:    input.PostalCode,
		IsDefault:     input.IsDefault,
	}
	if err := s.addressRepo.Update(ctx, &addr); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	return s.findOwned(ctx, userID, id)
}

func (s *service) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	if err := s.addressRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

// ResolveShipping snapshots the address checkout will stamp onto the
// order: the explicit address when given, otherwise the user's default.
func (s *service) ResolveShipping(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (types.ShippingAddress, error) {
	if userID == uuid.Nil {
		return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var (
		addr *models.Address
		err  error
	)
	if addressID != nil && *addressID != uuid.Nil {
		addr, err = s.addressRepo.FindByID(ctx, userID, *addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ShippingAddress{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
			}
			return types.ShippingAddress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
	} else {
		addr, err = s.addressRepo.FindDefault(ctx, userID)
		if err != nil {
			return types.ShippingAddress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default address")
		}
		if addr == nil {
			return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeValidation, "no shipping address on file")
		}
	}

	return types.ShippingAddress{
		RecipientName: addr.RecipientName,
		Phone:         addr.Phone,
		Line1:         addr.Line1,
		Line2:         addr.Line2,
		City:          addr.City,
		Province:      addr.Province,
		PostalCode:    addr.PostalCode,
	}, nil
}

func (s *service) findOwned(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	addr, err := s.addressRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload address")
	}
	return addr, nil
}

func (in AddressInput) toShipping() types.ShippingAddress {
	return types.ShippingAddress{
		RecipientName: in.RecipientName,
		Phone:         in.Phone,
		Line1:         in.Line1,
		Line2:         in.Line2,
		City:          in.City,
		Province:      in.Province,
		PostalCode:    in.PostalCode,
	}
}
