package domain

// WrappedKey is private key material sealed under a master key. It is the only
// form in which software secure area keys are persisted.
type WrappedKey struct {
	MasterKeyID string    `cbor:"1,keyasint"`
	Algorithm   Algorithm `cbor:"2,keyasint"`
	Ciphertext  []byte    `cbor:"3,keyasint"`
	Nonce       []byte    `cbor:"4,keyasint"`
}
