package matcher

import (
	"context"

	"docingest/internal/extract"
	"docingest/internal/scanner"
	"docingest/internal/similarity"
)

// Diagnosis explains how a file was, or was not, resolved.
type Diagnosis struct {
	File        string             `json:"file"`
	Candidates  []string           `json:"candidates"`
	Identifiers []string           `json:"identifiers"`
	Emails      []string           `json:"emails"`
	Nearest     []similarity.Match `json:"nearest"`
	Result      Result             `json:"result"`
}

// Diagnose resolves fd without touching the cache and reports the extracted
// evidence plus the top limit candidate/employee pairs regardless of the
// similarity threshold.
func (m *Matcher) Diagnose(ctx context.Context, fd scanner.FileDescriptor, limit int) Diagnosis {
	text := m.text(ctx, fd)
	candidates := extract.Candidates(fd.DisplayName, text)
	return Diagnosis{
		File:        fd.Path,
		Candidates:  candidates,
		Identifiers: extract.Identifiers(fd.DisplayName, text),
		Emails:      extract.Emails(fd.DisplayName),
		Nearest:     similarity.FindMultipleMatchesText(similarity.PrepareAll(candidates), m.registry.PreparedNames(), 0, limit),
		Result:      m.resolve(ctx, fd),
	}
}
