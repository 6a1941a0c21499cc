package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/oklog/ulid/v2"
)

// MemoryAccountRepository implements domain.AccountRepository in process memory
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewMemoryAccountRepository creates an empty account store
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, ok := r.accounts[key]; ok {
		return domain.ErrAlreadyExists
	}
	account.ID = ulid.Make().String()
	account.CreatedAt = time.Now()

	stored := *account
	r.accounts[key] = &stored
	return nil
}

func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *account
	return &copied, nil
}
