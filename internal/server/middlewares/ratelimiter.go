package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/syftbox/internal/server/handlers/api"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
)

// RateLimiter throttles a route by client IP. The rate is a limiter format
// string like "5-M" (5 per minute). Each call gets its own counter store, so
// routes with different budgets never share buckets.
func RateLimiter(formattedRate string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		panic(fmt.Sprintf("invalid rate %q: %v", formattedRate, err))
	}

	lim := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(
		lim,
		mgin.WithLimitReachedHandler(rateLimitReached),
		mgin.WithErrorHandler(rateLimitError),
	)
}

func rateLimitReached(c *gin.Context) {
	c.PureJSON(http.StatusTooManyRequests, api.SyftAPIError{
		Code:    api.CodeRateLimited,
		Message: "rate limit exceeded",
	})
}

func rateLimitError(c *gin.Context, err error) {
	c.PureJSON(http.StatusInternalServerError, api.SyftAPIError{
		Code:    api.CodeInternalError,
		Message: err.Error(),
	})
}
