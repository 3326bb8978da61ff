package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/stowpoint/mono-repo/backend/shared/go-repositories"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// errNoChange aborts an UpdateWithRetry loop when the stored row already
// has the requested state.
var errNoChange = errors.New("no change")

// repoError maps repository failures onto AppErrors. AppErrors returned
// from inside a mutate callback pass through untouched.
func repoError(err error, what, action string) error {
	var appErr *utils.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, pgx.ErrNoRows):
		return utils.NewNotFoundError("%s not found", what)
	case errors.Is(err, utils.ErrRowVersionConflict):
		return utils.NewRowVersionConflictError(what)
	case errors.Is(err, repositories.ErrDuplicate):
		return utils.NewConflictError("%s already exists", what)
	}
	return utils.NewInternalError("Failed to "+action+" "+what, err)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
