package gateway

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
)

// StateProvider supplies the board a new connection starts from. Both
// *draft.App and *draft.ServiceClient satisfy it.
type StateProvider interface {
	GetBoard(ctx context.Context, draftID uuid.UUID) (*draft.Board, error)
}

var (
	_ StateProvider = (*draft.App)(nil)
	_ StateProvider = (*draft.ServiceClient)(nil)
)

// isNotFound recognises a missing draft from either a local or remote provider.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || connect.CodeOf(err) == connect.CodeNotFound
}
