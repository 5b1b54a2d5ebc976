package rules

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
)

// DefaultVersion is the guard pack compiled into the binary.
const DefaultVersion = "v1"

//go:embed default_guards.json
var defaultGuards []byte

// FileLoader reads <dir>/<version>_guards.{json,yaml,yml}. An empty dir
// serves only the embedded default pack.
type FileLoader struct {
	Dir string
}

var _ interfaces.GuardPackLoader = (*FileLoader)(nil)

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

func (l *FileLoader) Load(ctx context.Context, version string) (*domain.GuardPack, error) {
	version = NormalizeVersion(version)

	if l.Dir != "" {
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			path := filepath.Join(l.Dir, fmt.Sprintf("%s_guards%s", version, ext))
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read guard file %s: %w", path, err)
			}
			return decode(path, data)
		}
	}

	if version == DefaultVersion {
		return decode("default_guards.json", defaultGuards)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrRulePackNotFound, version)
}

// NormalizeVersion prefixes bare versions with "v".
func NormalizeVersion(version string) string {
	if version == "" {
		return DefaultVersion
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

func decode(path string, data []byte) (*domain.GuardPack, error) {
	var pack domain.GuardPack
	var err error
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &pack)
	} else {
		err = yaml.Unmarshal(data, &pack)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal guard pack %s: %w", path, err)
	}
	for i, g := range pack.Guards {
		if g.ID == "" {
			return nil, fmt.Errorf("guard pack %s: guard %d has no id", path, i)
		}
		if len(g.Logic) == 0 {
			return nil, fmt.Errorf("guard pack %s: guard %s has no logic", path, g.ID)
		}
	}
	return &pack, nil
}
