package eastmoney

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/fundpilot/pkg/config"
	"github.com/wonny/fundpilot/pkg/httputil"
	"github.com/wonny/fundpilot/pkg/logger"
	"github.com/wonny/fundpilot/pkg/redis"
)

// Browser-ish headers: the fund endpoints reject the default Go agent
var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Referer":    "https://fundf10.eastmoney.com/",
}

// Client fetches fund data from the eastmoney endpoints: realtime
// valuation estimates, NAV history and disclosed holdings. Implements
// contracts.PriceProvider and contracts.HoldingsProvider.
//
// All requests share one local token-bucket limiter so a batch run
// cannot hammer the provider, whatever the worker count.
// ⭐ SSOT: 펀드 시세 조회는 여기서만
type Client struct {
	cfg     config.EastmoneyConfig
	http    *httputil.Client
	limiter *rate.Limiter
	cache   *redis.Cache
	logger  *logger.Logger
}

// New creates the data client. cache may be backed by a disabled Redis;
// every read then misses and every write is a no-op.
func New(cfg config.EastmoneyConfig, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		cfg:     cfg,
		http:    httputil.NewWithTimeout(log, 15*time.Second),
		limiter: rate.NewLimiter(rate.Limit(5), 5), // 5 req/s burst 5
		cache:   cache,
		logger:  log.Component("eastmoney"),
	}
}
