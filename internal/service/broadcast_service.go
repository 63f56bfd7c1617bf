package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/logger"
	"github.com/tillpoint/messaging-backend/internal/model"
	"github.com/tillpoint/messaging-backend/internal/provider"
	"github.com/tillpoint/messaging-backend/internal/queue"
	"github.com/tillpoint/messaging-backend/internal/render"
	"github.com/tillpoint/messaging-backend/internal/repository"
)

// BroadcastService orchestrates campaign lifecycle: audience resolution,
// per-recipient consent and contact gating, rendering, dispatch, and
// aggregate bookkeeping. Sends run sequentially in the calling request.
type BroadcastService struct {
	Broadcasts repository.BroadcastRepositoryInterface
	Templates  repository.TemplateRepositoryInterface
	Waivers    repository.WaiverRepositoryInterface
	Tenants    repository.TenantRepositoryInterface
	Audience   *AudienceService
	Providers  provider.Dispatcher
	Events     queue.Queue

	// PacingDelay is slept between consecutive dispatch attempts to stay
	// under upstream rate limits. Not a backoff; just a fixed gap.
	PacingDelay time.Duration

	Now   func() time.Time
	Sleep func(time.Duration)
}

// BroadcastInput is the creation payload.
type BroadcastInput struct {
	Name          string `json:"name"`
	Channel       string `json:"channel"`
	TemplateID    *int   `json:"template_id"`
	CustomBody    string `json:"custom_body"`
	CustomSubject string `json:"custom_subject"`
	TargetType    string `json:"target_type"`
	TargetID      *int   `json:"target_id"`
}

func (in *BroadcastInput) validate() error {
	if in.Name == "" {
		return appErrors.NewValidation("broadcast name is required")
	}
	if in.Channel != "sms" && in.Channel != "email" {
		return appErrors.NewValidation("broadcast channel must be sms or email, got %q", in.Channel)
	}
	if in.TemplateID == nil && in.CustomBody == "" {
		return appErrors.NewValidation("broadcast requires a template_id or a custom_body")
	}
	switch in.TargetType {
	case model.TargetTypeAll:
	case model.TargetTypeTag, model.TargetTypeSegment:
		if in.TargetID == nil {
			return appErrors.NewValidation("target_type %q requires a target_id", in.TargetType)
		}
	default:
		return appErrors.NewValidation("unknown target_type %q", in.TargetType)
	}
	return nil
}

func (s *BroadcastService) Create(tenantID int, in *BroadcastInput) (*model.Broadcast, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.TemplateID != nil {
		// Fail fast on a dangling template reference.
		if _, err := s.Templates.GetByID(tenantID, *in.TemplateID); err != nil {
			return nil, err
		}
	}
	b := &model.Broadcast{
		TenantID:      tenantID,
		Name:          in.Name,
		Channel:       in.Channel,
		TemplateID:    in.TemplateID,
		CustomBody:    in.CustomBody,
		CustomSubject: in.CustomSubject,
		TargetType:    in.TargetType,
		TargetID:      in.TargetID,
		Status:        model.BroadcastStatusDraft,
	}
	if err := s.Broadcasts.Create(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces a draft's definition. Claimed broadcasts are immutable.
func (s *BroadcastService) Update(tenantID, id int, in *BroadcastInput) (*model.Broadcast, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b, err := s.Broadcasts.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BroadcastStatusDraft {
		return nil, appErrors.NewConflict("broadcast %d is not in draft status", id)
	}
	if in.TemplateID != nil {
		if _, err := s.Templates.GetByID(tenantID, *in.TemplateID); err != nil {
			return nil, err
		}
	}
	b.Name = in.Name
	b.Channel = in.Channel
	b.TemplateID = in.TemplateID
	b.CustomBody = in.CustomBody
	b.CustomSubject = in.CustomSubject
	b.TargetType = in.TargetType
	b.TargetID = in.TargetID
	if err := s.Broadcasts.Update(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a draft. Anything past draft keeps its audit trail.
func (s *BroadcastService) Delete(tenantID, id int) error {
	b, err := s.Broadcasts.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if b.Status != model.BroadcastStatusDraft {
		return appErrors.NewConflict("broadcast %d is not in draft status", id)
	}
	return s.Broadcasts.Delete(tenantID, id)
}

// Messages returns the per-recipient audit rows for a tenant's broadcast.
func (s *BroadcastService) Messages(tenantID, id int) ([]model.BroadcastMessage, error) {
	b, err := s.Broadcasts.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.Broadcasts.ListMessages(b.ID)
}

// List returns a page of broadcasts plus pagination metadata.
func (s *BroadcastService) List(tenantID, page, pageSize int, channel, status string) ([]model.Broadcast, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.Broadcasts.List(tenantID, offset, pageSize, channel, status)
	if err != nil {
		return nil, nil, err
	}

	broadcasts := make([]model.Broadcast, len(ptrs))
	for i, b := range ptrs {
		broadcasts[i] = *b
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return broadcasts, pagination, nil
}

// BroadcastDetails is a broadcast plus its per-status message counts.
type BroadcastDetails struct {
	model.Broadcast
	Stats map[string]int `json:"stats"`
}

func (s *BroadcastService) GetDetails(tenantID, id int) (*BroadcastDetails, error) {
	b, err := s.Broadcasts.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.Broadcasts.GetStats(b.ID)
	if err != nil {
		return nil, err
	}
	return &BroadcastDetails{Broadcast: *b, Stats: stats}, nil
}

// messageSource picks the body/subject: the referenced template when one
// is set, otherwise the campaign's own custom fields.
func (s *BroadcastService) messageSource(b *model.Broadcast) (body, subject string, err error) {
	if b.TemplateID != nil {
		tpl, err := s.Templates.GetByID(b.TenantID, *b.TemplateID)
		if err != nil {
			return "", "", err
		}
		return tpl.Body, tpl.Subject, nil
	}
	return b.CustomBody, b.CustomSubject, nil
}

// consentByClient loads SMS consent for the audience. Only the most recent
// waiver per client counts; a client with no waiver has no consent. Email
// has no consent gate.
func (s *BroadcastService) consentByClient(tenantID int, audience []model.Client) (map[int]bool, error) {
	ids := make([]int, len(audience))
	for i, c := range audience {
		ids[i] = c.ID
	}
	return s.Waivers.LatestConsentByClients(tenantID, ids)
}

// recipientGate classifies one recipient before dispatch. An empty reason
// means the recipient is sendable.
func recipientGate(channel string, client *model.Client, consent map[int]bool) (to, skipReason string) {
	to = client.Contact(channel)
	if to == "" {
		return "", "Missing contact info"
	}
	if channel == "sms" && !consent[client.ID] {
		return "", "No SMS consent"
	}
	return to, ""
}

// BroadcastPreview is the read-only send forecast.
type BroadcastPreview struct {
	BroadcastID     int    `json:"broadcast_id"`
	TotalRecipients int    `json:"total_recipients"`
	Sendable        int    `json:"sendable"`
	MissingContact  int    `json:"missing_contact"`
	NoConsent       int    `json:"no_consent"`
	SampleRecipient string `json:"sample_recipient,omitempty"`
	SampleSubject   string `json:"sample_subject,omitempty"`
	SampleBody      string `json:"sample_body,omitempty"`
}

// Preview evaluates the same contact/consent gates as Send and renders one
// sample message from the first sendable recipient, persisting nothing.
func (s *BroadcastService) Preview(tenantID, id int) (*BroadcastPreview, error) {
	b, err := s.Broadcasts.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	body, subject, err := s.messageSource(b)
	if err != nil {
		return nil, err
	}
	audience, err := s.Audience.Resolve(tenantID, b.TargetType, b.TargetID)
	if err != nil {
		return nil, err
	}

	consent := map[int]bool{}
	if b.Channel == "sms" {
		if consent, err = s.consentByClient(tenantID, audience); err != nil {
			return nil, err
		}
	}

	tenant, err := s.Tenants.GetByID(tenantID)
	if err != nil {
		return nil, err
	}

	preview := &BroadcastPreview{BroadcastID: b.ID, TotalRecipients: len(audience)}
	for i := range audience {
		client := &audience[i]
		to, skipReason := recipientGate(b.Channel, client, consent)
		switch skipReason {
		case "":
			if preview.Sendable == 0 {
				vars := broadcastVars(client, tenant).Map()
				preview.SampleRecipient = to
				preview.SampleBody = render.Render(body, vars)
				preview.SampleSubject = render.Render(subject, vars)
			}
			preview.Sendable++
		case "No SMS consent":
			preview.NoConsent++
		default:
			preview.MissingContact++
		}
	}
	return preview, nil
}

// Send claims the broadcast and runs the sequential per-recipient pass.
// Provider failures are recorded per recipient and never abort the batch.
func (s *BroadcastService) Send(ctx context.Context, tenantID, id int) (*model.Broadcast, error) {
	b, err := s.Broadcasts.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	body, subject, err := s.messageSource(b)
	if err != nil {
		return nil, err
	}
	audience, err := s.Audience.Resolve(tenantID, b.TargetType, b.TargetID)
	if err != nil {
		return nil, err
	}

	claimed, err := s.Broadcasts.ClaimSending(tenantID, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, appErrors.NewConflict("broadcast %d is not in draft status", id)
	}
	b.Status = model.BroadcastStatusSending

	consent := map[int]bool{}
	if b.Channel == "sms" {
		if consent, err = s.consentByClient(tenantID, audience); err != nil {
			return nil, err
		}
	}

	tenant, err := s.Tenants.GetByID(tenantID)
	if err != nil {
		return nil, err
	}

	var sent, failed, skipped, attempted int
	for i := range audience {
		client := &audience[i]
		msg := &model.BroadcastMessage{
			BroadcastID: b.ID,
			ClientID:    client.ID,
			Channel:     b.Channel,
		}

		to, skipReason := recipientGate(b.Channel, client, consent)
		if skipReason != "" {
			msg.Status = model.MessageStatusSkipped
			msg.ErrorMessage = skipReason
			skipped++
			s.recordMessage(msg)
			continue
		}

		vars := broadcastVars(client, tenant).Map()
		msg.Recipient = to
		msg.RenderedBody = render.Render(body, vars)
		msg.RenderedSubject = render.Render(subject, vars)

		if attempted > 0 && s.PacingDelay > 0 {
			s.sleep(s.PacingDelay)
		}
		attempted++

		delivered, sendErr := s.Providers.Send(ctx, b.Channel, to, msg.RenderedSubject, msg.RenderedBody)
		if sendErr != nil {
			msg.Status = model.MessageStatusFailed
			msg.ErrorMessage = sendErr.Error()
			failed++
			s.recordMessage(msg)
			continue
		}

		sentAt := nowOrDefault(s.Now)
		msg.Status = model.MessageStatusSent
		msg.SentAt = &sentAt
		sent++
		s.recordMessage(msg)

		if delivered {
			publishDelivery(s.Events, queue.DeliveryEvent{
				TenantID:  tenantID,
				ClientID:  client.ID,
				Channel:   b.Channel,
				Recipient: to,
				Body:      msg.RenderedBody,
				Source:    model.DeliverySourceBroadcast,
				SourceID:  b.ID,
				SentAt:    sentAt,
			})
		}
	}

	finishedAt := nowOrDefault(s.Now)
	b.TotalRecipients = len(audience)
	b.SentCount = sent
	b.FailedCount = failed
	b.SkippedCount = skipped
	b.SentAt = &finishedAt
	// A campaign counts as failed only when every recipient failed; a
	// skip-only or empty campaign still completes.
	if len(audience) > 0 && failed == len(audience) {
		b.Status = model.BroadcastStatusFailed
	} else {
		b.Status = model.BroadcastStatusCompleted
	}

	if err := s.Broadcasts.Finalize(b); err != nil {
		return nil, err
	}
	return b, nil
}

// recordMessage appends the audit row; a write failure is logged and does
// not interrupt the pass.
func (s *BroadcastService) recordMessage(m *model.BroadcastMessage) {
	if err := s.Broadcasts.InsertMessage(m); err != nil {
		logger.L().Warn("record broadcast message",
			zap.Int("broadcast_id", m.BroadcastID),
			zap.Int("client_id", m.ClientID),
			zap.Error(err))
	}
}

func (s *BroadcastService) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

func broadcastVars(client *model.Client, tenant *model.Tenant) render.Vars {
	return render.Vars{
		ClientName:      client.FullName(),
		ClientFirstName: client.FirstName,
		BusinessName:    tenant.BusinessName,
		BusinessPhone:   tenant.BusinessPhone,
	}
}
