package draft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

func newTestServer(t *testing.T, commissionerKey string, opts ...connect.ClientOption) (*fixture, *ServiceClient) {
	t.Helper()
	f := newFixture(t)
	path, handler := NewServiceHandler(NewService(f.app, commissionerKey))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, NewServiceClient(srv.Client(), srv.URL, opts...)
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, "")

	board, err := client.CreateDraft(ctx, draftRequest(2, 2, func(r *CreateDraftRequest) { r.Settings.RequireClaim = true }))
	require.NoError(t, err)
	require.Len(t, board.Teams, 2)
	slot1 := teamAt(t, board, 1)

	team, err := client.Claim(ctx, board.Draft.ID, slot1.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, slot1.ID, team.ID)
	assert.Nil(t, team.ClaimOwner, "claim tokens never leave the server")

	res, err := client.CommitPick(ctx, CommitPickRequest{
		DraftID:  board.Draft.ID,
		TeamID:   slot1.ID,
		PlayerID: "RB1",
		Token:    "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pick.Overall)
	require.NotNil(t, res.Next)
	assert.Equal(t, 2, res.Next.Turn.Slot)

	oc, err := client.GetOnClock(ctx, board.Draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, oc.Turn.Overall)

	cs, err := client.GetSecondsRemaining(ctx, board.Draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, cs.SecondsRemaining)

	auto, err := client.AutoPick(ctx, AutoPickRequest{DraftID: board.Draft.ID, ExpectedOverall: 2})
	require.NoError(t, err)
	assert.Equal(t, "RB2", auto.Pick.PlayerID)
	assert.Equal(t, models.MadeByBot, auto.Pick.MadeBy)

	r, err := client.GetRoster(ctx, board.Draft.ID, slot1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"RB1"}, r.Starters[models.PositionRB])

	est, err := client.GetSurvivability(ctx, board.Draft.ID, slot1.ID, []string{"WR1"})
	require.NoError(t, err)
	require.Len(t, est, 1)
	assert.Equal(t, "WR1", est[0].PlayerID)

	undo, err := client.UndoLastPick(ctx, board.Draft.ID)
	require.NoError(t, err)
	require.NotNil(t, undo.Retracted)
	assert.Equal(t, "RB2", undo.Retracted.PlayerID)

	got, err := client.GetBoard(ctx, board.Draft.ID)
	require.NoError(t, err)
	assert.Len(t, got.Picks, 1)
}

func TestService_ProtobufWire(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, "", WithProtobufWire())

	board, err := client.CreateDraft(ctx, draftRequest(2, 2))
	require.NoError(t, err)
	require.Len(t, board.Teams, 2)
	slot1 := teamAt(t, board, 1)
	assert.True(t, board.Draft.PickStartedAt.Equal(startTime))

	res, err := client.CommitPick(ctx, CommitPickRequest{DraftID: board.Draft.ID, TeamID: slot1.ID, PlayerID: "RB1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pick.Overall)
	assert.Equal(t, slot1.ID, res.Pick.TeamID)

	got, err := client.GetBoard(ctx, board.Draft.ID)
	require.NoError(t, err)
	require.Len(t, got.Picks, 1)
	assert.Equal(t, "RB1", got.Picks[0].PlayerID)

	_, err = client.CommitPick(ctx, CommitPickRequest{DraftID: board.Draft.ID, TeamID: slot1.ID, PlayerID: "WR1"})
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
}

func TestProtoCodec_WritesStructMessages(t *testing.T) {
	var codec protoCodec
	data, err := codec.Marshal(&CommitPickRequest{PlayerID: "RB1", ExpectedOverall: 3})
	require.NoError(t, err)

	var msg structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &msg))
	fields := msg.AsMap()
	assert.Contains(t, fields, "player_id")

	var back CommitPickRequest
	require.NoError(t, codec.Unmarshal(data, &back))
	assert.Equal(t, "RB1", back.PlayerID)
	assert.Equal(t, 3, back.ExpectedOverall)

	_, err = codec.Marshal([]string{"not", "an", "object"})
	assert.Error(t, err)
}

func TestService_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, "")

	board, err := client.CreateDraft(ctx, draftRequest(2, 1))
	require.NoError(t, err)
	slot1 := teamAt(t, board, 1)
	slot2 := teamAt(t, board, 2)

	_, err = client.CommitPick(ctx, CommitPickRequest{DraftID: board.Draft.ID, TeamID: slot2.ID, PlayerID: "RB1"})
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = client.CommitPick(ctx, CommitPickRequest{DraftID: board.Draft.ID, TeamID: slot1.ID, PlayerID: "RB1", ExpectedOverall: 2})
	assert.Equal(t, connect.CodeAborted, connect.CodeOf(err))

	_, err = client.CommitPick(ctx, CommitPickRequest{DraftID: board.Draft.ID, TeamID: slot1.ID, PlayerID: "RB1", MadeBy: models.MadeByBot})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.CommitPick(ctx, CommitPickRequest{DraftID: board.Draft.ID, TeamID: slot1.ID, PlayerID: "RB1"})
	require.NoError(t, err)
	_, err = client.CommitPick(ctx, CommitPickRequest{DraftID: board.Draft.ID, TeamID: slot2.ID, PlayerID: "RB1"})
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	_, err = client.AutoPick(ctx, AutoPickRequest{DraftID: board.Draft.ID, Candidates: []string{"RB1"}})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = client.GetBoard(ctx, slot1.ID)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = client.CreateDraft(ctx, draftRequest(2, 0))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestService_CommissionerKey(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, "s3cret")

	board, err := client.CreateDraft(ctx, draftRequest(2, 1))
	require.NoError(t, err)

	_, err = client.UndoLastPick(ctx, board.Draft.ID)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
	_, err = client.AutoPick(ctx, AutoPickRequest{DraftID: board.Draft.ID})
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	commish := client.WithCommissionerKey("s3cret")
	_, err = commish.AutoPick(ctx, AutoPickRequest{DraftID: board.Draft.ID})
	require.NoError(t, err)
	_, err = commish.CommitPick(ctx, CommitPickRequest{
		DraftID:  board.Draft.ID,
		TeamID:   teamAt(t, board, 2).ID,
		PlayerID: "WR1",
		MadeBy:   models.MadeByCommissioner,
	})
	require.NoError(t, err)
	_, err = commish.UndoLastPick(ctx, board.Draft.ID)
	require.NoError(t, err)
}
