package cache

import (
	"errors"
	"net/http"

	"github.com/rifs/rifs-api/internal/pkg/errorhandler"
)

var (
	ErrEntryNotFound = errors.New("cache entry not found")
	ErrCacheDisabled = errors.New("cache is disabled")
)

func init() {
	errorhandler.Register(ErrEntryNotFound, errorhandler.KindNotFound, http.StatusNotFound, "NOT_FOUND", "Cache entry not found")
	errorhandler.Register(ErrCacheDisabled, errorhandler.KindUnavailable, http.StatusServiceUnavailable, "CACHE_DISABLED", "Cache is disabled")
}
