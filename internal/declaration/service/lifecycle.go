package service

import (
	"context"

	"github.com/smallbiznis/taxdesk/internal/actor"
	"github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Clone snapshots an existing declaration into a new editable record within
// the same family. The new record takes the next version from the family
// sequence, so version numbers never repeat even after deletions.
func (s *Service) Clone(ctx context.Context, req domain.CloneRequest) (*domain.Response, error) {
	if !req.Actor.Can(actor.PermWrite) {
		return nil, domain.ErrForbidden
	}

	sourceID, err := parseID(req.SourceID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var created domain.Declaration
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := s.repo.FindByID(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		if source == nil {
			return domain.ErrNotFound
		}

		// The family lock serializes this clone against concurrent deletes.
		// Source and root are re-read under the lock, so the new clone can
		// never attach to an original a committed delete already removed.
		family := source.Family()
		if err := s.repo.LockFamily(ctx, tx, family); err != nil {
			return err
		}
		source, err = s.repo.FindByID(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		if source == nil {
			return domain.ErrNotFound
		}

		root, err := s.repo.FindOriginal(ctx, tx, family)
		if err != nil {
			return err
		}
		if root == nil {
			return domain.ErrNotFound
		}

		version, err := s.repo.NextVersion(ctx, tx, family)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		rootID := root.ID
		created = domain.Declaration{
			ID:              s.genID.Generate(),
			StoreID:         source.StoreID,
			PeriodType:      source.PeriodType,
			PeriodKey:       source.PeriodKey,
			IsClone:         true,
			OriginalID:      &rootID,
			Version:         version,
			SystemRevenue:   source.SystemRevenue,
			DeclaredRevenue: source.DeclaredRevenue,
			GTGTRate:        source.GTGTRate,
			TNCNRate:        source.TNCNRate,
			GTGTAmount:      source.GTGTAmount,
			TNCNAmount:      source.TNCNAmount,
			TotalTax:        source.TotalTax,
			Status:          domain.StatusSaved,
			CreatedBy:       req.Actor.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return s.repo.Insert(ctx, tx, &created)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDeclarationWrite(ctx, "clone")
	s.audit(ctx, created.StoreID, "declaration.clone", created.ID, map[string]any{
		"source_id": sourceID.String(),
		"version":   created.Version,
	})

	resp := domain.NewResponse(created)
	return &resp, nil
}

// Delete removes a declaration. Deleting the original of a family that still
// has clones promotes the highest-version clone to be the new original, so
// the family never loses its authoritative record.
func (s *Service) Delete(ctx context.Context, req domain.DeleteRequest) error {
	if !req.Actor.IsManager() {
		return domain.ErrForbidden
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.ErrNotFound
	}

	var (
		deleted  domain.Declaration
		promoted *domain.Declaration
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}

		// Hold the family lock before touching any family row; a clone
		// transaction in flight for the same family commits or queues
		// first, then the re-read decides on the settled state.
		if err := s.repo.LockFamily(ctx, tx, record.Family()); err != nil {
			return err
		}
		record, err = s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		deleted = *record

		if err := s.repo.DeleteByID(ctx, tx, record.ID); err != nil {
			return err
		}
		if record.IsClone {
			return nil
		}

		family := record.Family()
		successor, err := s.repo.FindLatestClone(ctx, tx, family)
		if err != nil {
			return err
		}
		if successor == nil {
			return nil
		}

		if err := s.repo.Promote(ctx, tx, successor.ID); err != nil {
			return err
		}
		// Remaining clones repoint at the new family root; the promoted
		// record keeps its version number.
		successorID := successor.ID
		if err := s.repo.RetargetClones(ctx, tx, family, &successorID); err != nil {
			return err
		}
		promoted = successor
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordDeclarationWrite(ctx, "delete")
	metadata := map[string]any{
		"period_type": deleted.PeriodType.String(),
		"period_key":  deleted.PeriodKey,
		"is_clone":    deleted.IsClone,
		"version":     deleted.Version,
	}
	if promoted != nil {
		s.metrics.RecordClonePromotion(ctx)
		metadata["promoted_id"] = promoted.ID.String()
		metadata["promoted_version"] = promoted.Version
		s.log.Info("clone promoted to original",
			zap.Int64("declaration_id", int64(promoted.ID)),
			zap.Int("version", promoted.Version),
		)
	}
	s.audit(ctx, deleted.StoreID, "declaration.delete", deleted.ID, metadata)

	return nil
}
