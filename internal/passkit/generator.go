package passkit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Config carries everything the generator needs at construction time.
type Config struct {
	TeamID       string
	PassTypeID   string
	Organization string
	Description  string
	LogoText     string
	BaseURL      string
	AuthSecret   string

	CertPath string
	KeyPath  string
	WWDRPath string

	TemplateDir string
	TempDir     string
}

// Generator runs the full pass pipeline: stage assets, render pass.json,
// compute the manifest, sign it, pack the archive. All of it happens in a
// per-request staging directory that is removed on every exit path.
type Generator struct {
	builder  *Builder
	identity *SigningIdentity
	assets   *AssetSet
	tempDir  string
}

// NewGenerator loads and validates the signing identity and template
// assets. Errors here are configuration errors and should abort startup.
func NewGenerator(cfg Config) (*Generator, error) {
	identity, err := LoadSigningIdentity(cfg.CertPath, cfg.KeyPath, cfg.WWDRPath)
	if err != nil {
		return nil, err
	}

	assets, err := LoadAssets(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "loy-passes")
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, err
	}

	builder := NewBuilder(cfg.TeamID, cfg.PassTypeID, cfg.Organization,
		cfg.Description, cfg.LogoText, cfg.BaseURL, cfg.AuthSecret)

	return &Generator{
		builder:  builder,
		identity: identity,
		assets:   assets,
		tempDir:  tempDir,
	}, nil
}

// Builder exposes the content builder for serial minting and auth tokens.
func (g *Generator) Builder() *Builder {
	return g.builder
}

// Generate produces a complete, signed .pkpass archive for one snapshot.
// A failed run returns no bytes at all; there is no partial archive.
func (g *Generator) Generate(ctx context.Context, snap Snapshot) ([]byte, error) {
	start := time.Now()

	workDir := filepath.Join(g.tempDir, uuid.NewString())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warnf("unable to clean staging dir %s: %v", workDir, err)
		}
	}()

	// stage assets
	if err := g.assets.stage(workDir); err != nil {
		return nil, err
	}

	// render pass.json
	desc := g.builder.BuildDescriptor(snap)
	descBytes, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(workDir, descriptorFile), descBytes, 0644); err != nil {
		return nil, err
	}

	// manifest over every staged member
	manifest, err := ComputeManifest(workDir)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(workDir, manifestFile), manifest, 0644); err != nil {
		return nil, err
	}

	// detached signature over the exact manifest bytes
	signature, err := Sign(ctx, manifest, g.identity)
	if err != nil {
		log.Errorf("signing failed for serial %s after %s: %v", snap.SerialNumber, time.Since(start), err)
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(workDir, signatureFile), signature, 0644); err != nil {
		return nil, err
	}

	archive, err := packArchive(ctx, workDir)
	if err != nil {
		log.Errorf("packaging failed for serial %s after %s: %v", snap.SerialNumber, time.Since(start), err)
		return nil, err
	}

	log.Infof("pass generated for serial %s, %d bytes in %s", snap.SerialNumber, len(archive), time.Since(start))
	return archive, nil
}
