package family_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthhub-client/internal/fakeapi/fakeapitest"
	"github.com/jwalitptl/healthhub-client/internal/service"
	"github.com/jwalitptl/healthhub-client/internal/service/family"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

func setup(t *testing.T) (*fakeapitest.Backend, *family.Service) {
	t.Helper()
	b := fakeapitest.New(t)
	b.SignUp(t, "owner@example.com")
	return b, family.NewService(b.Client, nil, nil)
}

func TestService_InviteExistingUserRefetches(t *testing.T) {
	b, svc := setup(t)
	kin := b.AddUser(t, "kin@example.com")

	msg, err := svc.Invite(context.Background(), "kin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Added kin@example.com to family", msg)

	members := svc.Members()
	require.Len(t, members, 1)
	assert.Equal(t, kin.ID, members[0].ID)
	assert.Equal(t, "kin@example.com", members[0].Email)
}

func TestService_InviteUnknownEmail(t *testing.T) {
	_, svc := setup(t)

	msg, err := svc.Invite(context.Background(), "stranger@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Invitation sent to stranger@example.com", msg)
	assert.Empty(t, svc.Members())
}

func TestService_InviteIsSymmetric(t *testing.T) {
	b, svc := setup(t)
	b.AddUser(t, "kin@example.com")

	_, err := svc.Invite(context.Background(), "kin@example.com")
	require.NoError(t, err)

	token, ok := b.Server.IssueToken("kin@example.com")
	require.True(t, ok)
	b.SetToken(token)

	other := family.NewService(b.Client, nil, nil)
	members, err := other.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "owner@example.com", members[0].Email)
}

func TestService_InviteRejected(t *testing.T) {
	b, svc := setup(t)
	b.AddUser(t, "kin@example.com")
	_, err := svc.Invite(context.Background(), "kin@example.com")
	require.NoError(t, err)
	before := svc.Members()

	_, err = svc.Invite(context.Background(), "not-an-email")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, errors.StatusOf(err))
	assert.Equal(t, "invitee_email: value is not a valid email address", errors.Message(err))
	assert.Equal(t, before, svc.Members())
}

func TestService_RefetchFailureKeepsInviteResult(t *testing.T) {
	b, svc := setup(t)
	b.AddUser(t, "kin@example.com")

	b.Server.BeforeHandle(func(r *http.Request) {
		if r.URL.Path == "/api/family/invite" {
			b.Server.FailNext(http.StatusServiceUnavailable, "try later")
		}
	})

	msg, err := svc.Invite(context.Background(), "kin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Added kin@example.com to family", msg)
	assert.Empty(t, svc.Members())

	b.Server.BeforeHandle(nil)
	members, err := svc.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestService_Closed(t *testing.T) {
	_, svc := setup(t)
	svc.Close()

	_, err := svc.FetchAll(context.Background())
	assert.ErrorIs(t, err, service.ErrClosed)
	_, err = svc.Invite(context.Background(), "kin@example.com")
	assert.ErrorIs(t, err, service.ErrClosed)
}
