package proof

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitmentRoundtrip(t *testing.T) {
	claim := []byte("entity:123 is-a Person")
	secret := []byte("my-secret-nonce-42")

	c := Commit(claim, secret)
	require.True(t, VerifyCommitment(c, claim, secret))
}

func TestCommitmentWrongSecretFails(t *testing.T) {
	claim := []byte("entity:123 is-a Person")
	c := Commit(claim, []byte("correct-secret"))
	require.False(t, VerifyCommitment(c, claim, []byte("wrong-secret")))
}

func TestCommitmentWrongClaimFails(t *testing.T) {
	secret := []byte("my-secret")
	c := Commit([]byte("real claim"), secret)
	require.False(t, VerifyCommitment(c, []byte("fake claim"), secret))
}
