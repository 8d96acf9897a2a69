package cricketprovider

import (
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

// New builds the client for the configured provider. The JSON providers need
// an API key; the scraper does not.
func New(kind string, cfg Config) (usecase.MatchProvider, error) {
	switch usecase.ProviderKind(strings.ToLower(strings.TrimSpace(kind))) {
	case usecase.ProviderCricAPI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, crerr.New("cricapi key required")
		}
		return NewCricAPIClient(cfg), nil
	case usecase.ProviderCricketData:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, crerr.New("cricketdata key required")
		}
		return NewCricketDataClient(cfg), nil
	case usecase.ProviderESPNCricinfo:
		return NewESPNCricinfoClient(cfg), nil
	default:
		return nil, crerr.Newf("unknown score provider: %s", kind)
	}
}
