package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// CreateCustomerCommand describes a new customer.
type CreateCustomerCommand struct {
	TenantID string `validate:"required"`
	Name     string `validate:"required"`
	Phone    string
	Email    string `validate:"omitempty,email"`
	Address  string
}

// CustomerService manages customers and their CUST codes.
type CustomerService struct {
	uow       domain.UnitOfWork
	customers domain.CustomerRepository
	sequences domain.SequenceAllocator
}

// NewCustomerService creates a customer service.
func NewCustomerService(uow domain.UnitOfWork, customers domain.CustomerRepository, sequences domain.SequenceAllocator) *CustomerService {
	return &CustomerService{uow: uow, customers: customers, sequences: sequences}
}

// Create registers a customer under the next customer code of the tenant.
func (s *CustomerService) Create(ctx context.Context, cmd CreateCustomerCommand) (domain.Customer, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Customer{}, err
	}

	var customer domain.Customer
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		return withFreshCode(ctx, s.sequences, cmd.TenantID, domain.SeriesCustomer, func(code string) error {
			customer = domain.NewCustomer(generateID(), cmd.TenantID, code, cmd.Name, cmd.Phone, cmd.Email, cmd.Address)
			return s.customers.Create(ctx, customer)
		})
	})
	if err != nil {
		return domain.Customer{}, fmt.Errorf("creating customer: %w", err)
	}
	return customer, nil
}

// Get returns a customer of the tenant.
func (s *CustomerService) Get(ctx context.Context, tenantID, id string) (domain.Customer, error) {
	return s.customers.GetByID(ctx, tenantID, id)
}

// List returns the tenant's customers matching the filter.
func (s *CustomerService) List(ctx context.Context, tenantID string, filter domain.CustomerFilter) ([]domain.Customer, error) {
	return s.customers.List(ctx, tenantID, filter)
}

// withFreshCode allocates a code and hands it to insert. A collision with an
// existing code allocates once more before giving up.
func withFreshCode(ctx context.Context, sequences domain.SequenceAllocator, tenantID string, series domain.Series, insert func(code string) error) error {
	const attempts = 2

	var err error
	for range attempts {
		var seq int64
		seq, err = sequences.Next(ctx, tenantID, series)
		if err != nil {
			return fmt.Errorf("allocating %s number: %w", series, err)
		}

		err = insert(domain.FormatCode(series.Prefix(), seq, tenantID))
		if !errors.Is(err, domain.ErrDuplicateIdentifier) {
			return err
		}
	}
	return err
}
