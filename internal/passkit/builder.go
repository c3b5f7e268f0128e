package passkit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Snapshot is the read-only customer state a pass is rendered from.
type Snapshot struct {
	CustomerID   string
	Name         string
	Balance      decimal.Decimal
	Level        string
	SerialNumber string
}

type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

type Barcode struct {
	Message         string `json:"message"`
	Format          string `json:"format"`
	MessageEncoding string `json:"messageEncoding"`
}

type GenericFields struct {
	HeaderFields    []Field `json:"headerFields,omitempty"`
	PrimaryFields   []Field `json:"primaryFields,omitempty"`
	SecondaryFields []Field `json:"secondaryFields,omitempty"`
	AuxiliaryFields []Field `json:"auxiliaryFields,omitempty"`
}

// PassDescriptor is the declarative pass.json content.
type PassDescriptor struct {
	FormatVersion       int           `json:"formatVersion"`
	PassTypeIdentifier  string        `json:"passTypeIdentifier"`
	TeamIdentifier      string        `json:"teamIdentifier"`
	OrganizationName    string        `json:"organizationName"`
	Description         string        `json:"description"`
	LogoText            string        `json:"logoText,omitempty"`
	BackgroundColor     string        `json:"backgroundColor,omitempty"`
	ForegroundColor     string        `json:"foregroundColor,omitempty"`
	LabelColor          string        `json:"labelColor,omitempty"`
	SerialNumber        string        `json:"serialNumber"`
	Generic             GenericFields `json:"generic"`
	Barcodes            []Barcode     `json:"barcodes"`
	WebServiceURL       string        `json:"webServiceURL,omitempty"`
	AuthenticationToken string        `json:"authenticationToken,omitempty"`
}

// Builder renders PassDescriptors for customer snapshots.
type Builder struct {
	teamID       string
	passTypeID   string
	organization string
	description  string
	logoText     string
	baseURL      string
	authSecret   []byte
}

func NewBuilder(teamID, passTypeID, organization, description, logoText, baseURL, authSecret string) *Builder {
	return &Builder{
		teamID:       teamID,
		passTypeID:   passTypeID,
		organization: organization,
		description:  description,
		logoText:     logoText,
		baseURL:      strings.TrimRight(baseURL, "/"),
		authSecret:   []byte(authSecret),
	}
}

// MintSerial creates the serial number for a first issuance. The embedded
// timestamp makes serials unique per issuance; regenerations reuse the
// stored serial, never mint a new one.
func (b *Builder) MintSerial(customerID string) string {
	return fmt.Sprintf("LOY-%s-%d", customerID, time.Now().UnixMilli())
}

// BuildDescriptor renders the pass content for one snapshot. The result is
// deterministic for identical snapshots; the serial carries the issuance
// timestamp so the embedded auth token is stable across regenerations.
func (b *Builder) BuildDescriptor(snap Snapshot) *PassDescriptor {
	level := snap.Level
	if level == "" {
		level = "Bronze"
	}

	desc := &PassDescriptor{
		FormatVersion:      1,
		PassTypeIdentifier: b.passTypeID,
		TeamIdentifier:     b.teamID,
		OrganizationName:   b.organization,
		Description:        b.description,
		LogoText:           b.logoText,
		BackgroundColor:    "rgb(255, 255, 255)",
		ForegroundColor:    "rgb(0, 0, 0)",
		LabelColor:         "rgb(0, 0, 0)",
		SerialNumber:       snap.SerialNumber,
		Generic: GenericFields{
			HeaderFields: []Field{
				{Key: "customer", Label: "Client", Value: snap.Name},
			},
			PrimaryFields: []Field{
				{Key: "balance", Label: "Balance", Value: snap.Balance.StringFixed(2)},
			},
			SecondaryFields: []Field{
				{Key: "level", Label: "Level", Value: level},
			},
			AuxiliaryFields: []Field{
				{Key: "member", Label: "Member ID", Value: snap.CustomerID},
			},
		},
		Barcodes: []Barcode{
			{
				Message:         fmt.Sprintf("https://loy.club/card/%s", snap.CustomerID),
				Format:          "PKBarcodeFormatQR",
				MessageEncoding: "iso-8859-1",
			},
		},
	}

	// A loopback web service URL makes wallet clients reject the pass
	// outright, so those passes ship static instead.
	if b.callbackReachable() {
		desc.WebServiceURL = b.baseURL + "/api/v1/wallet"
		desc.AuthenticationToken = b.AuthToken(snap.CustomerID, snap.SerialNumber)
	} else {
		log.Infof("building static pass for customer %s, no public callback base URL", snap.CustomerID)
	}

	return desc
}

// AuthToken derives the web-service authentication token for a pass. The
// serial embeds the issuance time, so the token is stable for the lifetime
// of the pass instance.
func (b *Builder) AuthToken(customerID, serialNumber string) string {
	mac := hmac.New(sha256.New, b.authSecret)
	mac.Write([]byte(customerID + "|" + serialNumber))
	return hex.EncodeToString(mac.Sum(nil))
}

func (b *Builder) callbackReachable() bool {
	if b.baseURL == "" {
		return false
	}
	u, err := url.Parse(b.baseURL)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host != "localhost" && host != "127.0.0.1" && host != "::1"
}
