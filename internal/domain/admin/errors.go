package admin

import (
	"errors"
	"net/http"

	"github.com/rifs/rifs-api/internal/pkg/errorhandler"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin login is not configured")
)

func init() {
	errorhandler.Register(ErrInvalidCredentials, errorhandler.KindInvalidInput, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	errorhandler.Register(ErrAdminDisabled, errorhandler.KindUnavailable, http.StatusServiceUnavailable, "ADMIN_DISABLED", "Admin login is not configured")
}
