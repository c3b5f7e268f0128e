package passkit

import "errors"

var (
	// ErrCertificateConfig means the signing identity could not be loaded
	// or validated. It is fatal at service initialization; a service must
	// not start generating passes with a broken identity.
	ErrCertificateConfig = errors.New("certificate configuration invalid")

	// ErrSigningFailed covers bad key material and signer errors.
	ErrSigningFailed = errors.New("manifest signing failed")

	// ErrSigningTimeout is kept distinct from ErrSigningFailed so operators
	// can tell a stuck signer from broken key material.
	ErrSigningTimeout = errors.New("manifest signing timed out")

	ErrPackagingFailed = errors.New("pass packaging failed")
)
