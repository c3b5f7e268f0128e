package passkit

import (
	"context"
	"fmt"
	"time"

	"github.com/smallstep/pkcs7"
)

const signTimeout = 30 * time.Second

// Sign produces the detached PKCS#7 signature over exactly the given
// manifest bytes. The WWDR intermediate is attached to the chain; without
// it the signature verifies cryptographically but wallet clients reject
// the pass as untrusted.
func Sign(ctx context.Context, manifest []byte, id *SigningIdentity) ([]byte, error) {
	type result struct {
		der []byte
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, signTimeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		der, err := signDetached(manifest, id)
		ch <- result{der: der, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", ErrSigningTimeout, signTimeout)
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSigningFailed, r.err)
		}
		return r.der, nil
	}
}

func signDetached(manifest []byte, id *SigningIdentity) ([]byte, error) {
	sd, err := pkcs7.NewSignedData(manifest)
	if err != nil {
		return nil, err
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := sd.AddSigner(id.Cert, id.Key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, err
	}
	sd.AddCertificate(id.WWDR)

	// detached: the manifest bytes live in the bundle, not in the CMS blob
	sd.Detach()

	return sd.Finish()
}
