package verify

import (
	"bytes"
	"crypto/sha256"

	"github.com/cbodonnell/wagervault/pkg/escrow/types"
)

// Verifier checks the state commitment submitted with a cooperative
// resolution. Game-specific outcome logic plugs in here without
// touching custody or payout code.
type Verifier interface {
	Verify(game types.Game, claimedWinner string, proof []byte) bool
}

// CommitmentVerifier is the default verifier: the proof must equal a
// deterministic binding of the two participant identities. It stands
// in for real outcome verification supplied per game.
type CommitmentVerifier struct{}

func NewCommitmentVerifier() *CommitmentVerifier {
	return &CommitmentVerifier{}
}

func (v *CommitmentVerifier) Verify(game types.Game, claimedWinner string, proof []byte) bool {
	expected := Commitment(game.Player1, game.Player2)
	return bytes.Equal(proof, expected)
}

// Commitment computes the binding of the two participant identities
// that CommitmentVerifier expects as proof.
func Commitment(player1, player2 string) []byte {
	h := sha256.New()
	h.Write([]byte(player1))
	h.Write([]byte{0})
	h.Write([]byte(player2))
	return h.Sum(nil)
}
