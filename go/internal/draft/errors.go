package draft

import (
	"errors"

	"github.com/mcdev12/snakedraft/go/internal/draft/bot"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/order"
)

// Turn action failures. All are returned wrapped; match with errors.Is.
var (
	ErrConfiguration         = order.ErrConfiguration
	ErrDraftComplete         = order.ErrDraftComplete
	ErrPlayerAlreadyDrafted  = ledger.ErrPlayerAlreadyDrafted
	ErrNoAvailableCandidates = bot.ErrNoAvailableCandidates

	// ErrUnauthorized means the acting team is not on the clock.
	ErrUnauthorized = errors.New("team is not on the clock")
	// ErrClaimRequired means the token does not own the on-clock team.
	ErrClaimRequired = errors.New("team claim required")
	// ErrAlreadyClaimedByOther means a different token owns the team.
	ErrAlreadyClaimedByOther = errors.New("team already claimed by another owner")
	// ErrNotOnClock means the turn moved on before the action landed. Stale
	// timer fires and lost races end here; callers refresh and do not retry.
	ErrNotOnClock = errors.New("pick is no longer on the clock")
)
