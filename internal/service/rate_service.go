package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/internal/repository"
)

type RateSource string

const (
	RateSourceConversation RateSource = "conversation"
	RateSourceStandard     RateSource = "standard"
	RateSourceFallback     RateSource = "fallback"
)

// StandardRateSource reports the admin-set default rate, if one was set.
type StandardRateSource interface {
	StandardRate(ctx context.Context) (decimal.Decimal, bool, error)
}

type RateQuote struct {
	Rate   decimal.Decimal `json:"rate"`
	Source RateSource      `json:"source"`
}

// RateService picks the starting rate for a new request.
type RateService struct {
	prefs    repository.PreferenceRepository
	standard StandardRateSource
	fallback decimal.Decimal
}

func NewRateService(prefs repository.PreferenceRepository, standard StandardRateSource, fallback decimal.Decimal) *RateService {
	return &RateService{
		prefs:    prefs,
		standard: standard,
		fallback: fallback,
	}
}

// ResolveDefaultRate returns the conversation's last rate, else the
// standard rate, else the built-in fallback.
func (s *RateService) ResolveDefaultRate(ctx context.Context, key domain.ConversationKey) (decimal.Decimal, error) {
	quote, err := s.Quote(ctx, key)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return quote.Rate, nil
}

// Quote is ResolveDefaultRate plus where the rate came from.
func (s *RateService) Quote(ctx context.Context, key domain.ConversationKey) (*RateQuote, error) {
	pref, err := s.prefs.Get(ctx, key)
	if err != nil {
		return nil, storageErr("get rate preference", err)
	}
	if pref != nil {
		return &RateQuote{Rate: pref.LastRate, Source: RateSourceConversation}, nil
	}

	rate, ok, err := s.standard.StandardRate(ctx)
	if err != nil {
		return nil, storageErr("get standard rate", err)
	}
	if ok {
		return &RateQuote{Rate: rate, Source: RateSourceStandard}, nil
	}

	return &RateQuote{Rate: s.fallback, Source: RateSourceFallback}, nil
}
