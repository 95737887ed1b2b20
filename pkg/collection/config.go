package collection

import "github.com/ondrejsika/audioserve-go/pkg/config"

// SpecsFromConfig converts the CLI-resolved collection options into
// registry specs, applying the process-wide CD-collapse settings to every
// collection.
func SpecsFromConfig(cfg *config.Config) []Spec {
	specs := make([]Spec, len(cfg.Collections))
	for i, co := range cfg.Collections {
		specs[i] = Spec{
			Root:    co.Root,
			NoCache: co.NoCache,
			Options: Options{
				CollapseCDFolders: cfg.CollapseCDFolders,
				CDFolderRegexp:    cfg.CDFolderRegexp,
			},
		}
	}
	return specs
}
