package googlewallet

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeServiceAccount(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	sa, err := json.Marshal(map[string]string{
		"client_email": "wallet@loyclub.iam.gserviceaccount.com",
		"private_key":  string(keyPEM),
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "service-account.json")
	require.NoError(t, os.WriteFile(path, sa, 0o600))
	return path, key
}

func TestNewLinkBuilderUnconfigured(t *testing.T) {
	b, err := NewLinkBuilder("", "", "")
	require.NoError(t, err)
	assert.False(t, b.Available())

	_, err = b.BuildSaveLink("abc", "Jamie", "10.00")
	assert.Error(t, err)
}

func TestNewLinkBuilderBadKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"private_key":"not pem"}`), 0o600))

	_, err := NewLinkBuilder("3388000000012345", "loy_card", path)
	assert.Error(t, err)
}

func TestBuildSaveLink(t *testing.T) {
	path, key := writeServiceAccount(t)

	b, err := NewLinkBuilder("3388000000012345", "loy_card", path)
	require.NoError(t, err)
	require.True(t, b.Available())

	link, err := b.BuildSaveLink("64f0c2a1b3d4e5f601234567", "Jamie Doe", "150.00")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, saveURLPrefix))

	raw := strings.TrimPrefix(link, saveURLPrefix)
	token, err := jwt.Parse([]byte(raw), jwt.WithVerify(jwa.RS256, key.Public()))
	require.NoError(t, err)

	assert.Equal(t, "wallet@loyclub.iam.gserviceaccount.com", token.Issuer())
	assert.Equal(t, []string{"google"}, token.Audience())

	typ, ok := token.Get("typ")
	require.True(t, ok)
	assert.Equal(t, "savetowallet", typ)

	rawPayload, ok := token.Get("payload")
	require.True(t, ok)
	payload, ok := rawPayload.(map[string]interface{})
	require.True(t, ok)

	objects, ok := payload["loyaltyObjects"].([]interface{})
	require.True(t, ok)
	require.Len(t, objects, 1)

	object, ok := objects[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "3388000000012345.64f0c2a1b3d4e5f601234567", object["id"])
	assert.Equal(t, "3388000000012345.loy_card", object["classId"])
	assert.Equal(t, "Jamie Doe", object["accountName"])
}

func TestBuildSaveLinkTamperedSignature(t *testing.T) {
	path, _ := writeServiceAccount(t)

	b, err := NewLinkBuilder("3388000000012345", "loy_card", path)
	require.NoError(t, err)

	link, err := b.BuildSaveLink("abc", "Jamie", "10.00")
	require.NoError(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	raw := strings.TrimPrefix(link, saveURLPrefix)
	_, err = jwt.Parse([]byte(raw), jwt.WithVerify(jwa.RS256, other.Public()))
	assert.Error(t, err)
}
