package draft

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/mcdev12/snakedraft/go/internal/player"
)

// ServiceName is the fully-qualified name of the draft service.
const ServiceName = "draft.v1.DraftService"

// Procedure paths served by NewServiceHandler.
const (
	CreateDraftProcedure         = "/" + ServiceName + "/CreateDraft"
	ClaimTeamProcedure           = "/" + ServiceName + "/ClaimTeam"
	CommitPickProcedure          = "/" + ServiceName + "/CommitPick"
	AutoPickProcedure            = "/" + ServiceName + "/AutoPick"
	UndoLastPickProcedure        = "/" + ServiceName + "/UndoLastPick"
	GetOnClockProcedure          = "/" + ServiceName + "/GetOnClock"
	GetSecondsRemainingProcedure = "/" + ServiceName + "/GetSecondsRemaining"
	GetRosterProcedure           = "/" + ServiceName + "/GetRoster"
	GetSurvivabilityProcedure    = "/" + ServiceName + "/GetSurvivability"
	GetBoardProcedure            = "/" + ServiceName + "/GetBoard"
)

// CommissionerKeyHeader carries the commissioner key on override requests.
const CommissionerKeyHeader = "X-Commissioner-Key"

// DraftApp defines what the service layer needs from the draft application
type DraftApp interface {
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*Board, error)
	Claim(ctx context.Context, draftID, teamID uuid.UUID, token string) (*models.Team, error)
	CommitPick(ctx context.Context, req CommitPickRequest) (*CommitResult, error)
	AutoPick(ctx context.Context, req AutoPickRequest) (*CommitResult, error)
	UndoLastPick(ctx context.Context, draftID uuid.UUID) (*UndoResult, error)
	GetOnClock(ctx context.Context, draftID uuid.UUID) (*OnClock, error)
	GetSecondsRemaining(ctx context.Context, draftID uuid.UUID) (*ClockState, error)
	GetRoster(ctx context.Context, draftID, teamID uuid.UUID) (*models.Roster, error)
	GetSurvivability(ctx context.Context, draftID, viewerTeamID uuid.UUID, playerIDs []string) ([]Survivability, error)
	GetBoard(ctx context.Context, draftID uuid.UUID) (*Board, error)
}

var (
	_ DraftApp = (*App)(nil)
	_ DraftApp = (*ServiceClient)(nil)
)

// DraftRequest addresses one draft.
type DraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

// ClaimTeamRequest claims a seat for a bearer token.
type ClaimTeamRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	TeamID  uuid.UUID `json:"team_id"`
	Token   string    `json:"token"`
}

// ClaimTeamResponse is the claimed team.
type ClaimTeamResponse struct {
	Team models.Team `json:"team"`
}

// GetRosterRequest addresses one team's roster.
type GetRosterRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	TeamID  uuid.UUID `json:"team_id"`
}

// GetSurvivabilityRequest asks about queued players for a viewer.
type GetSurvivabilityRequest struct {
	DraftID      uuid.UUID `json:"draft_id"`
	ViewerTeamID uuid.UUID `json:"viewer_team_id"`
	PlayerIDs    []string  `json:"player_ids"`
}

// GetSurvivabilityResponse holds one estimate per requested player.
type GetSurvivabilityResponse struct {
	Estimates []Survivability `json:"estimates"`
}

// Service exposes the turn controller over connect. Commissioner-level
// procedures (override picks, auto-pick, undo) require the commissioner key
// when one is configured.
type Service struct {
	app             DraftApp
	commissionerKey string
}

// NewService creates a new draft connect service
func NewService(app DraftApp, commissionerKey string) *Service {
	return &Service{
		app:             app,
		commissionerKey: commissionerKey,
	}
}

// NewServiceHandler builds an http.Handler serving every procedure, and
// returns the path prefix to mount it on.
func NewServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{}), connect.WithCodec(protoCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateDraftProcedure, connect.NewUnaryHandler(CreateDraftProcedure, svc.CreateDraft, opts...))
	mux.Handle(ClaimTeamProcedure, connect.NewUnaryHandler(ClaimTeamProcedure, svc.ClaimTeam, opts...))
	mux.Handle(CommitPickProcedure, connect.NewUnaryHandler(CommitPickProcedure, svc.CommitPick, opts...))
	mux.Handle(AutoPickProcedure, connect.NewUnaryHandler(AutoPickProcedure, svc.AutoPick, opts...))
	mux.Handle(UndoLastPickProcedure, connect.NewUnaryHandler(UndoLastPickProcedure, svc.UndoLastPick, opts...))
	mux.Handle(GetOnClockProcedure, connect.NewUnaryHandler(GetOnClockProcedure, svc.GetOnClock, opts...))
	mux.Handle(GetSecondsRemainingProcedure, connect.NewUnaryHandler(GetSecondsRemainingProcedure, svc.GetSecondsRemaining, opts...))
	mux.Handle(GetRosterProcedure, connect.NewUnaryHandler(GetRosterProcedure, svc.GetRoster, opts...))
	mux.Handle(GetSurvivabilityProcedure, connect.NewUnaryHandler(GetSurvivabilityProcedure, svc.GetSurvivability, opts...))
	mux.Handle(GetBoardProcedure, connect.NewUnaryHandler(GetBoardProcedure, svc.GetBoard, opts...))
	return "/" + ServiceName + "/", mux
}

// CreateDraft creates a new draft
func (s *Service) CreateDraft(ctx context.Context, req *connect.Request[CreateDraftRequest]) (*connect.Response[Board], error) {
	board, err := s.app.CreateDraft(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(board), nil
}

// ClaimTeam binds a bearer token to a team
func (s *Service) ClaimTeam(ctx context.Context, req *connect.Request[ClaimTeamRequest]) (*connect.Response[ClaimTeamResponse], error) {
	team, err := s.app.Claim(ctx, req.Msg.DraftID, req.Msg.TeamID, req.Msg.Token)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ClaimTeamResponse{Team: *team}), nil
}

// CommitPick submits a human or commissioner pick
func (s *Service) CommitPick(ctx context.Context, req *connect.Request[CommitPickRequest]) (*connect.Response[CommitResult], error) {
	msg := *req.Msg
	switch msg.MadeBy {
	case "", models.MadeByHuman:
		msg.MadeBy = models.MadeByHuman
	case models.MadeByCommissioner:
		if err := s.checkCommissioner(req.Header()); err != nil {
			return nil, err
		}
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("made_by %q is not accepted here", msg.MadeBy))
	}
	if msg.PlayerID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("player_id is required"))
	}

	result, err := s.app.CommitPick(ctx, msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(result), nil
}

// AutoPick commits the on-clock team's strategy choice
func (s *Service) AutoPick(ctx context.Context, req *connect.Request[AutoPickRequest]) (*connect.Response[CommitResult], error) {
	if err := s.checkCommissioner(req.Header()); err != nil {
		return nil, err
	}
	result, err := s.app.AutoPick(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(result), nil
}

// UndoLastPick retracts the most recent pick
func (s *Service) UndoLastPick(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[UndoResult], error) {
	if err := s.checkCommissioner(req.Header()); err != nil {
		return nil, err
	}
	result, err := s.app.UndoLastPick(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(result), nil
}

// GetOnClock returns the team on the clock
func (s *Service) GetOnClock(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[OnClock], error) {
	oc, err := s.app.GetOnClock(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(oc), nil
}

// GetSecondsRemaining returns the pick clock
func (s *Service) GetSecondsRemaining(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[ClockState], error) {
	cs, err := s.app.GetSecondsRemaining(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(cs), nil
}

// GetRoster returns a team's roster projection
func (s *Service) GetRoster(ctx context.Context, req *connect.Request[GetRosterRequest]) (*connect.Response[models.Roster], error) {
	r, err := s.app.GetRoster(ctx, req.Msg.DraftID, req.Msg.TeamID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(r), nil
}

// GetSurvivability estimates whether queued players last until the viewer picks
func (s *Service) GetSurvivability(ctx context.Context, req *connect.Request[GetSurvivabilityRequest]) (*connect.Response[GetSurvivabilityResponse], error) {
	est, err := s.app.GetSurvivability(ctx, req.Msg.DraftID, req.Msg.ViewerTeamID, req.Msg.PlayerIDs)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetSurvivabilityResponse{Estimates: est}), nil
}

// GetBoard returns the whole draft board
func (s *Service) GetBoard(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[Board], error) {
	board, err := s.app.GetBoard(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(board), nil
}

func (s *Service) checkCommissioner(h http.Header) error {
	if s.commissionerKey == "" {
		return nil
	}
	got := h.Get(CommissionerKeyHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.commissionerKey)) != 1 {
		return connect.NewError(connect.CodePermissionDenied, errors.New("commissioner key required"))
	}
	return nil
}

// toConnectError maps domain failures onto connect codes.
func toConnectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, ErrNotOnClock):
		code = connect.CodeAborted
	case errors.Is(err, ErrUnauthorized):
		code = connect.CodePermissionDenied
	case errors.Is(err, ErrClaimRequired):
		code = connect.CodeUnauthenticated
	case errors.Is(err, ErrAlreadyClaimedByOther), errors.Is(err, ErrPlayerAlreadyDrafted):
		code = connect.CodeAlreadyExists
	case errors.Is(err, ErrNoAvailableCandidates), errors.Is(err, ErrDraftComplete):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ErrConfiguration):
		code = connect.CodeInvalidArgument
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, player.ErrPlayerNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}
