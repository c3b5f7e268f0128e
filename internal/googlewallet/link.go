package googlewallet

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	log "github.com/sirupsen/logrus"
)

const saveURLPrefix = "https://pay.google.com/gp/v/save/"

// LinkBuilder mints signed "Save to Google Wallet" links. The whole
// Google side is a single signed-JWT call; pass state lives in the JWT
// payload, there is no archive to build.
type LinkBuilder struct {
	issuerID    string
	classID     string
	clientEmail string
	key         *rsa.PrivateKey
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// NewLinkBuilder loads the service account key. An empty keyPath yields a
// disabled builder; Google Wallet is optional.
func NewLinkBuilder(issuerID, classID, keyPath string) (*LinkBuilder, error) {
	if keyPath == "" || issuerID == "" {
		log.Warn("Google Wallet not configured, save links disabled")
		return &LinkBuilder{}, nil
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	var sa serviceAccountKey
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("invalid service account key: %w", err)
	}

	block, _ := pem.Decode([]byte(sa.PrivateKey))
	if block == nil {
		return nil, fmt.Errorf("service account key holds no PEM block")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("service account key is %T, want RSA", parsed)
	}

	return &LinkBuilder{
		issuerID:    issuerID,
		classID:     classID,
		clientEmail: sa.ClientEmail,
		key:         rsaKey,
	}, nil
}

// Available reports whether links can be minted.
func (b *LinkBuilder) Available() bool {
	return b.key != nil
}

// BuildSaveLink signs a loyalty object for one customer and returns the
// save URL.
func (b *LinkBuilder) BuildSaveLink(customerID, name, balance string) (string, error) {
	if !b.Available() {
		return "", fmt.Errorf("google wallet not configured")
	}

	object := map[string]any{
		"id":          fmt.Sprintf("%s.%s", b.issuerID, customerID),
		"classId":     fmt.Sprintf("%s.%s", b.issuerID, b.classID),
		"state":       "ACTIVE",
		"accountId":   customerID,
		"accountName": name,
		"loyaltyPoints": map[string]any{
			"label":   "Balance",
			"balance": map[string]any{"string": balance},
		},
		"barcode": map[string]any{
			"type":  "QR_CODE",
			"value": fmt.Sprintf("https://loy.club/card/%s", customerID),
		},
	}

	token := jwt.New()
	claims := map[string]any{
		"iss": b.clientEmail,
		"aud": "google",
		"typ": "savetowallet",
		"iat": time.Now().Unix(),
		"payload": map[string]any{
			"loyaltyObjects": []any{object},
		},
	}
	for k, v := range claims {
		if err := token.Set(k, v); err != nil {
			return "", err
		}
	}

	signed, err := jwt.Sign(token, jwa.RS256, b.key)
	if err != nil {
		return "", err
	}

	return saveURLPrefix + string(signed), nil
}
