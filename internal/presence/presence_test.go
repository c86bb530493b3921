package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegister_IncludesSelfAndSeeds(t *testing.T) {
	r := NewRegistry()
	r.Register("plasma://a:1", "plasma://b:1", "plasma://c:1")
	require.ElementsMatch(t, []string{"plasma://a:1", "plasma://b:1", "plasma://c:1"}, r.Peers())
}

func TestDeregister_RemovesOnlySelf(t *testing.T) {
	r := NewRegistry()
	r.Register("plasma://a:1", "plasma://b:1")
	r.Deregister()
	require.ElementsMatch(t, []string{"plasma://b:1"}, r.Peers())
}

func TestRegister_ReRegisterRestoresSelf(t *testing.T) {
	r := NewRegistry()
	r.Register("plasma://a:1")
	r.Deregister()
	r.Register("plasma://a:1")
	require.ElementsMatch(t, []string{"plasma://a:1"}, r.Peers())
}
