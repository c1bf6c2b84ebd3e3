// Package ingest is the ingestion facade (component J): it reads raw
// tool output, records it as an evidence artifact, dispatches to the
// matching parser, and folds the result into the graph store.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"attacksurface/internal/errs"
	"attacksurface/internal/kgraph/normalize"
	"attacksurface/internal/kgraph/parser"
	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

var logger = slog.Default()

// SetLogger overrides the package-level logger used to report ingestion
// counts, replacing the slog.Default() fallback.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Result is what one Ingest call reports back to its caller.
type Result struct {
	ArtifactID string
	Counts     normalize.Counts
}

// Ingest computes the SHA-256 digest of data, records (or reuses) the
// artifact it identifies, parses data with the parser matching tool,
// and normalizes the parse result into s. Re-ingesting bytes with a
// digest already on record reuses the existing artifact node rather
// than creating a duplicate.
func Ingest(ctx context.Context, s *store.Store, tool, path string, data []byte) (Result, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	artifact, _, err := s.UpsertNode(ctx, schema.KindArtifact, map[string]any{
		"sha256":     digest,
		"tool":       tool,
		"path":       path,
		"size_bytes": float64(len(data)),
	}, "", "")
	if err != nil {
		return Result{}, err
	}

	result, err := parse(tool, data)
	if err != nil {
		return Result{}, err
	}

	counts, err := normalize.Normalize(s, result, artifact.ID)
	if err != nil {
		return Result{}, err
	}
	logger.Info("ingestion complete", "tool", tool, "path", path, "artifact_id", artifact.ID,
		"hosts", counts.HostsCreated, "services", counts.ServicesCreated,
		"vulnerabilities", counts.VulnerabilitiesCreated)

	return Result{ArtifactID: artifact.ID, Counts: counts}, nil
}

func parse(tool string, data []byte) (*parser.ParseResult, error) {
	switch tool {
	case "nmap":
		return parser.ParseNmap(data)
	case "ffuf":
		return parser.ParseFFUF(data)
	case "nuclei":
		return parser.ParseNuclei(data), nil
	default:
		return nil, &errs.ParseFormatError{Tool: tool, Reason: "unrecognized ingestion tool"}
	}
}
