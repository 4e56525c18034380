// Package proof implements VeriSimDB's semantic proof layer: hash
// commitments, Merkle inclusion proofs, and a custom-circuit R1CS
// verification registry with verification-key rotation and federation
// export (spec.md §4.7). Grounded on
// original_source/rust-core/verisim-semantic/src/{zkp,circuit_compiler,
// circuit_registry,verification_keys}.rs, expressed in the teacher's
// constructor-plus-mutex idiom.
package proof

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Commitment is a hash commitment: SHA-256(claim ∥ secret). The committer
// can later reveal the secret to prove knowledge of claim at commitment
// time without having revealed it earlier.
type Commitment struct {
	Digest [32]byte
}

// Commit produces a Commitment binding claim to secret.
func Commit(claim, secret []byte) Commitment {
	h := sha256.New()
	h.Write(claim)
	h.Write(secret)
	var c Commitment
	copy(c.Digest[:], h.Sum(nil))
	return c
}

// VerifyCommitment recomputes Commit(claim, secret) and compares it to c
// in constant time. A wrong claim or a wrong secret fails verification.
func VerifyCommitment(c Commitment, claim, secret []byte) bool {
	expected := Commit(claim, secret)
	return subtle.ConstantTimeCompare(c.Digest[:], expected.Digest[:]) == 1
}

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}
