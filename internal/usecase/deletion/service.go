// Package deletion removes all of an entity's documents, best effort.
package deletion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/logger"
)

// Report accounts for one deletion call. Deleted + Failed == TotalFound
// unless the enumeration bound was hit.
type Report struct {
	TotalFound int
	Deleted    int
	Failed     int
	Errors     []string
}

// Service handles entity-wide document deletion.
type Service struct {
	repo      Repository
	scanLimit int
}

// New creates a deletion service. scanLimit bounds how many documents one
// call enumerates; entities beyond it need another call.
func New(repo Repository, scanLimit int) *Service {
	return &Service{repo: repo, scanLimit: scanLimit}
}

// DeleteEntity removes every document owned by entityID, one by one. A
// failing document does not stop the sweep; when some deletions fail the
// report still carries the counts and the error is ErrPartialDeletion.
// An entity with no documents yields an all-zero report and no error.
func (s *Service) DeleteEntity(ctx context.Context, entityID string) (Report, error) {
	if entityID == "" {
		return Report{}, fmt.Errorf("entity_id is required: %w", domain.ErrValidation)
	}

	refs, total, err := s.repo.ListByEntity(ctx, entityID, s.scanLimit)
	if err != nil {
		return Report{}, fmt.Errorf("enumerate documents: %w", err)
	}

	log := logger.FromContext(ctx)
	if total > len(refs) {
		log.Warn("deletion sweep truncated, re-run to finish",
			zap.String("entity_id", entityID),
			zap.Int("total", total),
			zap.Int("enumerated", len(refs)),
		)
	}

	report := Report{TotalFound: total}
	for _, ref := range refs {
		if err := s.repo.Delete(ctx, ref.ID); err != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("document %s: %v", ref.ID, err))
			log.Error("document deletion failed",
				zap.String("entity_id", entityID),
				zap.String("document_id", ref.ID),
				zap.Error(err),
			)
			continue
		}
		report.Deleted++
	}

	if report.Failed > 0 {
		return report, fmt.Errorf("delete entity %s: %w",
			entityID, domain.NewPartialDeletion(report.Deleted, report.Failed))
	}
	return report, nil
}
