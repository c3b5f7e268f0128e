package passkit

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testChain is a throwaway intermediate CA plus a leaf signing cert, the
// same shape as the WWDR / pass-type-id pair.
type testChain struct {
	caCert   *x509.Certificate
	caKey    *rsa.PrivateKey
	leafCert *x509.Certificate
	leafKey  *rsa.PrivateKey

	certPath string
	keyPath  string
	wwdrPath string
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()

	caKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Worldwide Developer Relations CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	leafKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "Pass Type ID: pass.club.loy"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, caCert, &leafKey.PublicKey, caKey)
	require.NoError(t, err)
	leafCert, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	dir := t.TempDir()
	chain := &testChain{
		caCert:   caCert,
		caKey:    caKey,
		leafCert: leafCert,
		leafKey:  leafKey,
		certPath: filepath.Join(dir, "cert.pem"),
		keyPath:  filepath.Join(dir, "key.pem"),
		wwdrPath: filepath.Join(dir, "wwdr.pem"),
	}

	writePEM(t, chain.certPath, "CERTIFICATE", leafDER)
	writePEM(t, chain.keyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(leafKey))
	writePEM(t, chain.wwdrPath, "CERTIFICATE", caDER)

	return chain
}

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	require.NoError(t, os.WriteFile(path, data, 0600))
}

// newTemplateDir stages fake artwork for generator tests.
func newTemplateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.png"), []byte("fake icon bytes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("fake logo bytes"), 0644))
	return dir
}

// failingSigner stands in for key material that blows up at signing time.
type failingSigner struct {
	pub crypto.PublicKey
}

func (f failingSigner) Public() crypto.PublicKey {
	return f.pub
}

func (f failingSigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return nil, errors.New("broken key material")
}
