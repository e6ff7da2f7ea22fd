package service

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

var errMalformedSignature = errors.New("malformed ECDSA signature")

// digest hashes data with the hash bound to an ECDSA algorithm.
func digest(alg secureAreaDomain.Algorithm, data []byte) ([]byte, error) {
	var h crypto.Hash
	switch alg {
	case secureAreaDomain.ES256:
		h = crypto.SHA256
	case secureAreaDomain.ES384:
		h = crypto.SHA384
	case secureAreaDomain.ES512:
		h = crypto.SHA512
	default:
		return nil, secureAreaDomain.ErrUnsupportedAlgorithm
	}

	hasher := h.New()
	hasher.Write(data)
	return hasher.Sum(nil), nil
}

// rawFromDERSignature converts an ASN.1 ECDSA-Sig-Value into the fixed-width
// r||s form used by COSE, each half left-padded to size/2 bytes.
func rawFromDERSignature(der []byte, size int) ([]byte, error) {
	var (
		r, s  big.Int
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, cryptobyte_asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(&r) ||
		!inner.ReadASN1Integer(&s) ||
		!inner.Empty() {
		return nil, errMalformedSignature
	}

	half := size / 2
	if r.Sign() <= 0 || s.Sign() <= 0 || len(r.Bytes()) > half || len(s.Bytes()) > half {
		return nil, errMalformedSignature
	}

	raw := make([]byte, size)
	r.FillBytes(raw[:half])
	s.FillBytes(raw[half:])
	return raw, nil
}

// VerifySignature checks a raw signature produced by Sign against a PKIX public key.
func VerifySignature(alg secureAreaDomain.Algorithm, publicKeyDER, data, signature []byte) (bool, error) {
	pub, err := x509.ParsePKIXPublicKey(publicKeyDER)
	if err != nil {
		return false, fmt.Errorf("failed to parse public key: %w", err)
	}

	if alg == secureAreaDomain.EdDSA {
		return verifyEd25519(pub, data, signature)
	}

	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return false, secureAreaDomain.ErrWrongKeyPurpose
	}
	if len(signature) != alg.SignatureSize() {
		return false, nil
	}
	sum, err := digest(alg, data)
	if err != nil {
		return false, err
	}

	half := len(signature) / 2
	r := new(big.Int).SetBytes(signature[:half])
	s := new(big.Int).SetBytes(signature[half:])
	return ecdsa.Verify(ecPub, sum, r, s), nil
}

// parsePeerPublicKey accepts a PKIX DER key or a raw encoded point on curve.
func parsePeerPublicKey(curve ecdh.Curve, encoded []byte) (*ecdh.PublicKey, error) {
	if pub, err := x509.ParsePKIXPublicKey(encoded); err == nil {
		var peer *ecdh.PublicKey
		switch key := pub.(type) {
		case *ecdh.PublicKey:
			peer = key
		case *ecdsa.PublicKey:
			if peer, err = key.ECDH(); err != nil {
				return nil, fmt.Errorf("%w: %w", secureAreaDomain.ErrInvalidPublicKey, err)
			}
		default:
			return nil, secureAreaDomain.ErrInvalidPublicKey
		}
		if peer.Curve() != curve {
			return nil, fmt.Errorf("%w: curve mismatch", secureAreaDomain.ErrInvalidPublicKey)
		}
		return peer, nil
	}

	peer, err := curve.NewPublicKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", secureAreaDomain.ErrInvalidPublicKey, err)
	}
	return peer, nil
}

// marshalPeerPublicKey returns the PKIX DER form of a peer key.
func marshalPeerPublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", secureAreaDomain.ErrInvalidPublicKey, err)
	}
	return der, nil
}

func verifyEd25519(pub crypto.PublicKey, data, signature []byte) (bool, error) {
	edPub, ok := pub.(ed25519.PublicKey)
	if !ok {
		return false, secureAreaDomain.ErrWrongKeyPurpose
	}
	return ed25519.Verify(edPub, data, signature), nil
}
