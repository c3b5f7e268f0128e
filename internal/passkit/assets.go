package passkit

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// templateImages is the fixed set of static images bundled into every pass.
var templateImages = []string{
	"icon.png", "icon@2x.png", "icon@3x.png",
	"logo.png", "logo@2x.png", "logo@3x.png",
}

// AssetSet holds the template images in memory. Loaded once at startup and
// shared read-only by every generation request.
type AssetSet struct {
	files map[string][]byte
}

// LoadAssets reads the template images from templateDir. Missing optional
// images are logged and skipped; icon.png is required by wallet clients.
func LoadAssets(templateDir string) (*AssetSet, error) {
	set := &AssetSet{files: make(map[string][]byte)}

	for _, name := range templateImages {
		data, err := os.ReadFile(filepath.Join(templateDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				log.Warnf("template image not found: %s", name)
				continue
			}
			return nil, err
		}
		set.files[name] = data
	}

	if len(set.files) == 0 {
		log.Warnf("no template images found under %s, passes will carry no artwork", templateDir)
	}

	return set, nil
}

// Files returns the member name to content mapping.
func (a *AssetSet) Files() map[string][]byte {
	return a.files
}

func (a *AssetSet) stage(dir string) error {
	for name, data := range a.files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}
