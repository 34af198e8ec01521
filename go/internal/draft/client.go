package draft

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

// ServiceClient calls a remote draft service.
type ServiceClient struct {
	createDraft         *connect.Client[CreateDraftRequest, Board]
	claimTeam           *connect.Client[ClaimTeamRequest, ClaimTeamResponse]
	commitPick          *connect.Client[CommitPickRequest, CommitResult]
	autoPick            *connect.Client[AutoPickRequest, CommitResult]
	undoLastPick        *connect.Client[DraftRequest, UndoResult]
	getOnClock          *connect.Client[DraftRequest, OnClock]
	getSecondsRemaining *connect.Client[DraftRequest, ClockState]
	getRoster           *connect.Client[GetRosterRequest, models.Roster]
	getSurvivability    *connect.Client[GetSurvivabilityRequest, GetSurvivabilityResponse]
	getBoard            *connect.Client[DraftRequest, Board]

	commissionerKey string
}

// NewServiceClient builds a client for the service at baseURL.
func NewServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ServiceClient{
		createDraft:         connect.NewClient[CreateDraftRequest, Board](httpClient, baseURL+CreateDraftProcedure, opts...),
		claimTeam:           connect.NewClient[ClaimTeamRequest, ClaimTeamResponse](httpClient, baseURL+ClaimTeamProcedure, opts...),
		commitPick:          connect.NewClient[CommitPickRequest, CommitResult](httpClient, baseURL+CommitPickProcedure, opts...),
		autoPick:            connect.NewClient[AutoPickRequest, CommitResult](httpClient, baseURL+AutoPickProcedure, opts...),
		undoLastPick:        connect.NewClient[DraftRequest, UndoResult](httpClient, baseURL+UndoLastPickProcedure, opts...),
		getOnClock:          connect.NewClient[DraftRequest, OnClock](httpClient, baseURL+GetOnClockProcedure, opts...),
		getSecondsRemaining: connect.NewClient[DraftRequest, ClockState](httpClient, baseURL+GetSecondsRemainingProcedure, opts...),
		getRoster:           connect.NewClient[GetRosterRequest, models.Roster](httpClient, baseURL+GetRosterProcedure, opts...),
		getSurvivability:    connect.NewClient[GetSurvivabilityRequest, GetSurvivabilityResponse](httpClient, baseURL+GetSurvivabilityProcedure, opts...),
		getBoard:            connect.NewClient[DraftRequest, Board](httpClient, baseURL+GetBoardProcedure, opts...),
	}
}

// WithCommissionerKey returns a copy of c that sends key on every request.
func (c *ServiceClient) WithCommissionerKey(key string) *ServiceClient {
	cp := *c
	cp.commissionerKey = key
	return &cp
}

func call[Req, Res any](ctx context.Context, c *ServiceClient, client *connect.Client[Req, Res], msg *Req) (*Res, error) {
	req := connect.NewRequest(msg)
	if c.commissionerKey != "" {
		req.Header().Set(CommissionerKeyHeader, c.commissionerKey)
	}
	res, err := client.CallUnary(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *ServiceClient) CreateDraft(ctx context.Context, req CreateDraftRequest) (*Board, error) {
	return call(ctx, c, c.createDraft, &req)
}

func (c *ServiceClient) Claim(ctx context.Context, draftID, teamID uuid.UUID, token string) (*models.Team, error) {
	res, err := call(ctx, c, c.claimTeam, &ClaimTeamRequest{DraftID: draftID, TeamID: teamID, Token: token})
	if err != nil {
		return nil, err
	}
	return &res.Team, nil
}

func (c *ServiceClient) CommitPick(ctx context.Context, req CommitPickRequest) (*CommitResult, error) {
	return call(ctx, c, c.commitPick, &req)
}

func (c *ServiceClient) AutoPick(ctx context.Context, req AutoPickRequest) (*CommitResult, error) {
	return call(ctx, c, c.autoPick, &req)
}

func (c *ServiceClient) UndoLastPick(ctx context.Context, draftID uuid.UUID) (*UndoResult, error) {
	return call(ctx, c, c.undoLastPick, &DraftRequest{DraftID: draftID})
}

func (c *ServiceClient) GetOnClock(ctx context.Context, draftID uuid.UUID) (*OnClock, error) {
	return call(ctx, c, c.getOnClock, &DraftRequest{DraftID: draftID})
}

func (c *ServiceClient) GetSecondsRemaining(ctx context.Context, draftID uuid.UUID) (*ClockState, error) {
	return call(ctx, c, c.getSecondsRemaining, &DraftRequest{DraftID: draftID})
}

func (c *ServiceClient) GetRoster(ctx context.Context, draftID, teamID uuid.UUID) (*models.Roster, error) {
	return call(ctx, c, c.getRoster, &GetRosterRequest{DraftID: draftID, TeamID: teamID})
}

func (c *ServiceClient) GetSurvivability(ctx context.Context, draftID, viewerTeamID uuid.UUID, playerIDs []string) ([]Survivability, error) {
	res, err := call(ctx, c, c.getSurvivability, &GetSurvivabilityRequest{
		DraftID:      draftID,
		ViewerTeamID: viewerTeamID,
		PlayerIDs:    playerIDs,
	})
	if err != nil {
		return nil, err
	}
	return res.Estimates, nil
}

func (c *ServiceClient) GetBoard(ctx context.Context, draftID uuid.UUID) (*Board, error) {
	return call(ctx, c, c.getBoard, &DraftRequest{DraftID: draftID})
}
