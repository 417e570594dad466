package ext

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/funvibe/reflector/internal/config"
)

// GenSummary reports what Generate wrote.
type GenSummary struct {
	GoFiles     []string
	Descriptors []string
}

// Generate inspects every dependency in cfg and writes the registration code
// to cfg.Gen.Out and one .type file per binding to cfg.Gen.Types.
func Generate(cfg *Config, logger *slog.Logger) (*GenSummary, error) {
	if len(cfg.Deps) == 0 {
		return nil, fmt.Errorf("%s: no deps defined", cfg.Dir())
	}

	ins := NewInspector(cfg.Dir())
	result, err := ins.Inspect(cfg)
	if err != nil {
		return nil, err
	}
	for _, pb := range result.Packages {
		logger.Debug("inspected package", "path", pb.Path, "bindings", len(pb.Bindings))
	}

	cg := NewCodeGenerator(config.ModulePath, cfg.Gen.Package)
	goFiles, err := cg.Generate(result)
	if err != nil {
		return nil, err
	}
	descriptors, err := cg.Descriptors(result)
	if err != nil {
		return nil, err
	}

	summary := &GenSummary{}
	if summary.GoFiles, err = WriteFiles(cfg.Resolve(cfg.Gen.Out), goFiles); err != nil {
		return nil, err
	}
	if summary.Descriptors, err = WriteFiles(cfg.Resolve(cfg.Gen.Types), descriptors); err != nil {
		return nil, err
	}
	logger.Info("bindings generated", "go_files", len(summary.GoFiles), "descriptors", len(summary.Descriptors))
	return summary, nil
}

// WriteFiles writes files under dir, creating directories as needed, and
// returns the written paths.
func WriteFiles(dir string, files []GeneratedFile) ([]string, error) {
	var written []string
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f.Filename))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return written, fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(f.Content), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}
