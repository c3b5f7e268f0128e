package passkit

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// SigningIdentity holds the organization certificate, its private key and
// the WWDR intermediate certificate. It is read-only after load and safe
// to share across concurrent generation requests.
type SigningIdentity struct {
	Cert *x509.Certificate
	Key  crypto.Signer
	WWDR *x509.Certificate
}

// LoadSigningIdentity reads and validates the signing material. Any parse
// failure (stray banner text, truncated PEM body) is fatal here so that a
// half-parsed key can never reach the signer at request time.
func LoadSigningIdentity(certPath, keyPath, wwdrPath string) (*SigningIdentity, error) {
	cert, err := loadCertificate(certPath)
	if err != nil {
		return nil, fmt.Errorf("%w: signer certificate %s: %v", ErrCertificateConfig, certPath, err)
	}

	key, err := loadPrivateKey(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: signer key %s: %v", ErrCertificateConfig, keyPath, err)
	}

	wwdr, err := loadCertificate(wwdrPath)
	if err != nil {
		return nil, fmt.Errorf("%w: WWDR certificate %s: %v", ErrCertificateConfig, wwdrPath, err)
	}

	id := &SigningIdentity{Cert: cert, Key: key, WWDR: wwdr}
	if err := id.validate(time.Now()); err != nil {
		return nil, err
	}

	log.Infof("signing identity loaded, subject %q expires %s", cert.Subject.CommonName, cert.NotAfter.Format(time.RFC3339))
	return id, nil
}

func (id *SigningIdentity) validate(now time.Time) error {
	if now.After(id.Cert.NotAfter) {
		return fmt.Errorf("%w: signer certificate expired %s", ErrCertificateConfig, id.Cert.NotAfter.Format(time.RFC3339))
	}
	if now.After(id.WWDR.NotAfter) {
		return fmt.Errorf("%w: WWDR certificate expired %s", ErrCertificateConfig, id.WWDR.NotAfter.Format(time.RFC3339))
	}
	if !publicKeyMatches(id.Cert, id.Key) {
		return fmt.Errorf("%w: signer key does not match signer certificate", ErrCertificateConfig)
	}
	return nil
}

func publicKeyMatches(cert *x509.Certificate, key crypto.Signer) bool {
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		priv, ok := key.Public().(*rsa.PublicKey)
		return ok && pub.Equal(priv)
	case *ecdsa.PublicKey:
		priv, ok := key.Public().(*ecdsa.PublicKey)
		return ok && pub.Equal(priv)
	}
	return false
}

func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil {
		// .cer files from the developer portal come DER encoded
		if cert, derErr := x509.ParseCertificate(data); derErr == nil {
			return cert, nil
		}
		return nil, fmt.Errorf("no PEM block found")
	}
	if block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}

	return x509.ParseCertificate(block.Bytes)
}

func loadPrivateKey(path string) (crypto.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %T", key)
		}
		return signer, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	return nil, fmt.Errorf("unable to parse private key from PEM block %q", block.Type)
}
