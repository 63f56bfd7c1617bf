package service

import (
	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
	"github.com/tillpoint/messaging-backend/internal/repository"
)

// AudienceService computes the recipient set for a broadcast.
type AudienceService struct {
	Clients  repository.ClientRepositoryInterface
	Segments repository.SegmentRepositoryInterface
}

// ListTags returns the tenant's tags.
func (s *AudienceService) ListTags(tenantID int) ([]model.ClientTag, error) {
	return s.Segments.ListTags(tenantID)
}

// ListSegments returns the tenant's saved segments.
func (s *AudienceService) ListSegments(tenantID int) ([]model.ClientSegment, error) {
	return s.Segments.ListSegments(tenantID)
}

// Resolve returns the clients matching the target. "all" (or a missing
// target id) is every client; "tag" is tag membership; "segment" requires
// the client to hold every tag in the segment's filter, with an empty
// filter degrading to all clients.
func (s *AudienceService) Resolve(tenantID int, targetType string, targetID *int) ([]model.Client, error) {
	if targetType == model.TargetTypeAll || targetID == nil {
		return s.Clients.ListByTenant(tenantID)
	}

	switch targetType {
	case model.TargetTypeTag:
		return s.Segments.ClientsByTag(tenantID, *targetID)
	case model.TargetTypeSegment:
		segment, err := s.Segments.GetSegment(tenantID, *targetID)
		if err != nil {
			return nil, err
		}
		tagIDs := segment.FilterCriteria.TagIDs
		if len(tagIDs) == 0 {
			return s.Clients.ListByTenant(tenantID)
		}
		return s.Segments.ClientsHoldingAllTags(tenantID, tagIDs)
	default:
		return nil, appErrors.NewValidation("unknown target_type %q", targetType)
	}
}
