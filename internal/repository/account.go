package repository

import (
	"context"
	"fmt"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository/dao"
)

var (
	ErrAccountExists   = dao.ErrAccountExists
	ErrAccountNotFound = dao.ErrAccountNotFound
)

type AccountDAO interface {
	Insert(ctx context.Context, account dao.Account) (dao.Account, error)
	FindByID(ctx context.Context, id uint) (dao.Account, error)
	FindByExternalID(ctx context.Context, externalID string) (dao.Account, error)
	UpdateProfile(ctx context.Context, account dao.Account) (dao.Account, error)
}

type AccountRepository struct {
	dao AccountDAO
}

func NewAccountRepository(dao AccountDAO) *AccountRepository {
	return &AccountRepository{
		dao: dao,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	created, err := r.dao.Insert(ctx, accountDomainToDAO(account))
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return accountDAOToDomain(created), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uint) (domain.Account, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return accountDAOToDomain(found), nil
}

func (r *AccountRepository) FindByExternalID(ctx context.Context, externalID string) (domain.Account, error) {
	found, err := r.dao.FindByExternalID(ctx, externalID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.FindByExternalID -> %w", err)
	}

	return accountDAOToDomain(found), nil
}

func (r *AccountRepository) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	updated, err := r.dao.UpdateProfile(ctx, accountDomainToDAO(account))
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.UpdateProfile -> %w", err)
	}

	return accountDAOToDomain(updated), nil
}

func accountDomainToDAO(a domain.Account) dao.Account {
	return dao.Account{
		ID:                a.ID,
		ExternalID:        a.ExternalID,
		Name:              a.Name,
		BalanceCents:      int64(a.Balance),
		TaxID:             a.TaxID,
		PixKey:            a.PixKey,
		Phone:             a.Phone,
		City:              a.City,
		State:             a.State,
		ProfileComplete:   a.ProfileComplete,
		GatewayCustomerID: a.GatewayCustomerID,
		Archived:          a.Archived,
		ArchivedAt:        a.ArchivedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func accountDAOToDomain(a dao.Account) domain.Account {
	return domain.Account{
		ID:                a.ID,
		ExternalID:        a.ExternalID,
		Name:              a.Name,
		Balance:           domain.Money(a.BalanceCents),
		TaxID:             a.TaxID,
		PixKey:            a.PixKey,
		Phone:             a.Phone,
		City:              a.City,
		State:             a.State,
		ProfileComplete:   a.ProfileComplete,
		GatewayCustomerID: a.GatewayCustomerID,
		Archived:          a.Archived,
		ArchivedAt:        a.ArchivedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}
