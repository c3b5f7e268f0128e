package passkit

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	descriptorFile = "pass.json"
	manifestFile   = "manifest.json"
	signatureFile  = "signature"
)

// ComputeManifest digests every staged member file and returns the
// serialized filename to SHA-1 mapping. The manifest and signature are
// never covered by the manifest. The returned bytes are written to disk
// and signed as-is; re-serializing would break signature verification.
func ComputeManifest(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	manifest := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == manifestFile || name == signatureFile {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sum := sha1.Sum(data)
		manifest[name] = hex.EncodeToString(sum[:])
	}

	return json.MarshalIndent(manifest, "", "  ")
}
