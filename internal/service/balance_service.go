package service

import (
	"context"

	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
)

type BalanceService struct {
	requests repository.RequestRepository
}

func NewBalanceService(requests repository.RequestRepository) *BalanceService {
	return &BalanceService{requests: requests}
}

// ComputeBalance sums pending USD and received local-currency amounts over
// the conversation's current requests. Amounts are not rounded.
func (s *BalanceService) ComputeBalance(ctx context.Context, key domain.ConversationKey) (*domain.Balance, error) {
	requests, err := s.requests.ListByConversation(ctx, key)
	if err != nil {
		return nil, storageErr("list conversation requests", err)
	}

	balance := &domain.Balance{ConversationKey: key}
	for i := range requests {
		balance.Add(&requests[i])
	}
	return balance, nil
}
