package peer

import (
	"encoding/json"
	"testing"

	"github.com/plasmagraph/plasmadb/internal/graphstore"
	"github.com/plasmagraph/plasmadb/internal/peer/inproc"
	"github.com/plasmagraph/plasmadb/internal/peerauth"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/stretchr/testify/require"
)

const testAuthSecret = "this-secret-is-at-least-32-characters-long"

func subQueryEnvelope(t *testing.T, token string) []byte {
	t.Helper()
	body, err := json.Marshal(subQueryParams{Plan: plan.New(), ReplyAddr: "plasma://caller:1#sub/1"})
	require.NoError(t, err)
	data, err := json.Marshal(Envelope{ID: "req-1", Method: methodSubQuery, Params: body, Token: token})
	require.NoError(t, err)
	return data
}

func TestPeer_RejectsSubQueryWithoutToken(t *testing.T) {
	mgr, err := peerauth.NewManager(testAuthSecret)
	require.NoError(t, err)

	p := New("plasma://L:1", inproc.NewFactory(inproc.NewNetwork()), graphstore.New(), nil).WithAuth(mgr)

	resp := p.dispatch(subQueryEnvelope(t, ""))
	require.NotNil(t, resp.Error)
	require.Equal(t, string(perr.Unauthorized), resp.Error.Kind)
}

func TestPeer_RejectsSubQueryWithWrongSecret(t *testing.T) {
	mgr, err := peerauth.NewManager(testAuthSecret)
	require.NoError(t, err)
	other, err := peerauth.NewManager("a-totally-different-secret-of-32-chars-plus")
	require.NoError(t, err)

	p := New("plasma://L:1", inproc.NewFactory(inproc.NewNetwork()), graphstore.New(), nil).WithAuth(mgr)

	token, err := other.Issue("plasma://R:1")
	require.NoError(t, err)

	resp := p.dispatch(subQueryEnvelope(t, token))
	require.NotNil(t, resp.Error)
}

func TestPeer_AcceptsSubQueryWithValidToken(t *testing.T) {
	mgr, err := peerauth.NewManager(testAuthSecret)
	require.NoError(t, err)

	p := New("plasma://L:1", inproc.NewFactory(inproc.NewNetwork()), graphstore.New(), nil).WithAuth(mgr)

	token, err := mgr.Issue("plasma://R:1")
	require.NoError(t, err)

	resp := p.dispatch(subQueryEnvelope(t, token))
	require.Nil(t, resp.Error)
}

func TestPeer_NoAuthConfigured_AcceptsMissingToken(t *testing.T) {
	p := New("plasma://L:1", inproc.NewFactory(inproc.NewNetwork()), graphstore.New(), nil)

	resp := p.dispatch(subQueryEnvelope(t, ""))
	require.Nil(t, resp.Error)
}
