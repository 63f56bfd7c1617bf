package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
	"github.com/tillpoint/messaging-backend/internal/provider"
	"github.com/tillpoint/messaging-backend/internal/service"
)

type broadcastFixture struct {
	svc        *service.BroadcastService
	broadcasts *mockBroadcastRepo
	templates  *mockTemplateRepo
	waivers    *mockWaiverRepo
	clients    *mockClientRepo
	sms        *fakeSMS
	email      *fakeEmail
	sleeps     []time.Duration
}

func newBroadcastFixture(clients ...*model.Client) *broadcastFixture {
	f := &broadcastFixture{
		broadcasts: newMockBroadcastRepo(),
		templates:  newMockTemplateRepo(),
		waivers:    &mockWaiverRepo{consent: map[int]bool{}},
		clients:    newMockClientRepo(clients...),
		sms:        &fakeSMS{},
		email:      &fakeEmail{},
	}
	f.svc = &service.BroadcastService{
		Broadcasts: f.broadcasts,
		Templates:  f.templates,
		Waivers:    f.waivers,
		Tenants:    &mockTenantRepo{tenant: model.Tenant{BusinessName: "Harborview Salon", BusinessPhone: "+15550100"}},
		Audience:   &service.AudienceService{Clients: f.clients, Segments: newMockSegmentRepo(f.clients)},
		Providers:  provider.Dispatcher{SMS: f.sms, Email: f.email},
		Now:        func() time.Time { return testNow },
		Sleep:      func(d time.Duration) { f.sleeps = append(f.sleeps, d) },
	}
	return f
}

// tenRecipientFixture builds an sms audience of ten: five sendable, three
// with no phone, one with a revoked waiver and one with no waiver at all.
func tenRecipientFixture() *broadcastFixture {
	clients := make([]*model.Client, 0, 10)
	for i := 1; i <= 10; i++ {
		c := &model.Client{ID: i, TenantID: 1, FirstName: fmt.Sprintf("Client%d", i)}
		if i <= 7 {
			c.Phone = fmt.Sprintf("+1555010%d", i)
		}
		clients = append(clients, c)
	}
	f := newBroadcastFixture(clients...)
	for i := 1; i <= 5; i++ {
		f.waivers.consent[i] = true
	}
	f.waivers.consent[6] = false // latest waiver revoked consent
	// Client 7 has no waiver at all.
	return f
}

func (f *broadcastFixture) createSMSBroadcast(t *testing.T) *model.Broadcast {
	t.Helper()
	b, err := f.svc.Create(1, &service.BroadcastInput{
		Name:       "Spring promo",
		Channel:    "sms",
		CustomBody: "Hi {{client_first_name}}, 20% off at {{business_name}} this week!",
		TargetType: model.TargetTypeAll,
	})
	assert.NoError(t, err)
	assert.Equal(t, model.BroadcastStatusDraft, b.Status)
	return b
}

func TestPreviewCountsContactAndConsentGates(t *testing.T) {
	f := tenRecipientFixture()
	b := f.createSMSBroadcast(t)

	preview, err := f.svc.Preview(1, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, 10, preview.TotalRecipients)
	assert.Equal(t, 5, preview.Sendable)
	assert.Equal(t, 3, preview.MissingContact)
	assert.Equal(t, 2, preview.NoConsent)

	assert.Equal(t, "+15550101", preview.SampleRecipient)
	assert.Equal(t, "Hi Client1, 20% off at Harborview Salon this week!", preview.SampleBody)

	// Preview writes nothing and sends nothing.
	assert.Empty(t, f.sms.sent)
	assert.Empty(t, f.broadcasts.messages)
	got, _ := f.broadcasts.GetByID(1, b.ID)
	assert.Equal(t, model.BroadcastStatusDraft, got.Status)
}

func TestSendGatesRecordsAndFinalizes(t *testing.T) {
	f := tenRecipientFixture()
	b := f.createSMSBroadcast(t)

	sent, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.BroadcastStatusCompleted, sent.Status)
	assert.Equal(t, 10, sent.TotalRecipients)
	assert.Equal(t, 5, sent.SentCount)
	assert.Equal(t, 5, sent.SkippedCount)
	assert.Equal(t, 0, sent.FailedCount)
	assert.NotNil(t, sent.SentAt)
	assert.Equal(t, sent.TotalRecipients, sent.SentCount+sent.FailedCount+sent.SkippedCount)

	assert.Len(t, f.sms.sent, 5)

	messages, err := f.broadcasts.ListMessages(b.ID)
	assert.NoError(t, err)
	assert.Len(t, messages, 10)

	var missingContact, noConsent int
	for _, m := range messages {
		switch m.ErrorMessage {
		case "Missing contact info":
			missingContact++
			assert.Equal(t, model.MessageStatusSkipped, m.Status)
		case "No SMS consent":
			noConsent++
			assert.Equal(t, model.MessageStatusSkipped, m.Status)
		default:
			assert.Equal(t, model.MessageStatusSent, m.Status)
			assert.NotNil(t, m.SentAt)
			assert.NotEmpty(t, m.RenderedBody)
		}
	}
	assert.Equal(t, 3, missingContact)
	assert.Equal(t, 2, noConsent)
}

func TestSendSecondAttemptIsConflict(t *testing.T) {
	f := tenRecipientFixture()
	b := f.createSMSBroadcast(t)

	_, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)

	_, err = f.svc.Send(context.Background(), 1, b.ID)
	assert.True(t, appErrors.IsConflict(err))
	assert.Len(t, f.sms.sent, 5)
}

func TestSendProviderFailuresDoNotAbortBatch(t *testing.T) {
	f := tenRecipientFixture()
	f.sms.err = errProviderDown
	b := f.createSMSBroadcast(t)

	sent, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, sent.SentCount)
	assert.Equal(t, 5, sent.FailedCount)
	assert.Equal(t, 5, sent.SkippedCount)
	// Some recipients were only skipped, so the campaign still completes.
	assert.Equal(t, model.BroadcastStatusCompleted, sent.Status)
}

func TestSendAllFailedMarksCampaignFailed(t *testing.T) {
	f := newBroadcastFixture(&model.Client{ID: 1, TenantID: 1, FirstName: "Alice", Phone: "+15550101"})
	f.waivers.consent[1] = true
	f.sms.err = errProviderDown
	b := f.createSMSBroadcast(t)

	sent, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.BroadcastStatusFailed, sent.Status)
	assert.Equal(t, 1, sent.FailedCount)
}

func TestSendEmptyAudienceCompletes(t *testing.T) {
	f := newBroadcastFixture()
	b := f.createSMSBroadcast(t)

	sent, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.BroadcastStatusCompleted, sent.Status)
	assert.Equal(t, 0, sent.TotalRecipients)
}

func TestSendEmailSkipsConsentGate(t *testing.T) {
	f := newBroadcastFixture(
		&model.Client{ID: 1, TenantID: 1, FirstName: "Alice", Email: "alice@example.com"},
		&model.Client{ID: 2, TenantID: 1, FirstName: "Bob"},
	)
	tpl := &model.MessageTemplate{TenantID: 1, Name: "newsletter", Channel: "email",
		Subject: "News from {{business_name}}", Body: "Hello {{client_name}}"}
	assert.NoError(t, f.templates.Create(tpl))

	b, err := f.svc.Create(1, &service.BroadcastInput{
		Name: "Newsletter", Channel: "email", TemplateID: &tpl.ID, TargetType: model.TargetTypeAll,
	})
	assert.NoError(t, err)

	sent, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)
	// No waivers exist, yet Alice still receives email.
	assert.Equal(t, 1, sent.SentCount)
	assert.Equal(t, 1, sent.SkippedCount)
	assert.Len(t, f.email.sent, 1)
	assert.Equal(t, "News from Harborview Salon", f.email.sent[0].Subject)
	assert.Equal(t, "Hello Alice", f.email.sent[0].Body)
}

func TestSendPacesBetweenDispatchAttempts(t *testing.T) {
	f := tenRecipientFixture()
	f.svc.PacingDelay = 200 * time.Millisecond
	b := f.createSMSBroadcast(t)

	_, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)

	// Five attempts, a gap before each one after the first. Skipped
	// recipients cost nothing.
	assert.Len(t, f.sleeps, 4)
	for _, d := range f.sleeps {
		assert.Equal(t, 200*time.Millisecond, d)
	}
}

func TestUpdateDraftReplacesDefinition(t *testing.T) {
	f := newBroadcastFixture()
	b := f.createSMSBroadcast(t)

	updated, err := f.svc.Update(1, b.ID, &service.BroadcastInput{
		Name:       "Spring promo v2",
		Channel:    "sms",
		CustomBody: "New copy",
		TargetType: model.TargetTypeAll,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Spring promo v2", updated.Name)

	got, err := f.broadcasts.GetByID(1, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, "New copy", got.CustomBody)
	assert.Equal(t, model.BroadcastStatusDraft, got.Status)
}

func TestUpdateAfterSendIsConflict(t *testing.T) {
	f := tenRecipientFixture()
	b := f.createSMSBroadcast(t)
	_, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)

	_, err = f.svc.Update(1, b.ID, &service.BroadcastInput{
		Name: "too late", Channel: "sms", CustomBody: "x", TargetType: model.TargetTypeAll,
	})
	assert.True(t, appErrors.IsConflict(err))
}

func TestDeleteDraftOnly(t *testing.T) {
	f := tenRecipientFixture()
	draft := f.createSMSBroadcast(t)
	sent := f.createSMSBroadcast(t)
	_, err := f.svc.Send(context.Background(), 1, sent.ID)
	assert.NoError(t, err)

	assert.NoError(t, f.svc.Delete(1, draft.ID))
	_, err = f.broadcasts.GetByID(1, draft.ID)
	assert.True(t, appErrors.IsNotFound(err))

	err = f.svc.Delete(1, sent.ID)
	assert.True(t, appErrors.IsConflict(err))
}

func TestMessagesReturnsAuditRows(t *testing.T) {
	f := tenRecipientFixture()
	b := f.createSMSBroadcast(t)
	_, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)

	messages, err := f.svc.Messages(1, b.ID)
	assert.NoError(t, err)
	assert.Len(t, messages, 10)

	_, err = f.svc.Messages(1, 999)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCreateValidation(t *testing.T) {
	f := newBroadcastFixture()

	cases := []struct {
		name string
		in   *service.BroadcastInput
	}{
		{"missing name", &service.BroadcastInput{Channel: "sms", CustomBody: "x", TargetType: "all"}},
		{"bad channel", &service.BroadcastInput{Name: "x", Channel: "fax", CustomBody: "x", TargetType: "all"}},
		{"no message source", &service.BroadcastInput{Name: "x", Channel: "sms", TargetType: "all"}},
		{"tag without id", &service.BroadcastInput{Name: "x", Channel: "sms", CustomBody: "x", TargetType: "tag"}},
		{"unknown target", &service.BroadcastInput{Name: "x", Channel: "sms", CustomBody: "x", TargetType: "everyone"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(1, tc.in)
			assert.True(t, appErrors.IsValidation(err))
		})
	}
}

func TestCreateRejectsDanglingTemplate(t *testing.T) {
	f := newBroadcastFixture()

	_, err := f.svc.Create(1, &service.BroadcastInput{
		Name: "x", Channel: "sms", TemplateID: intPtr(99), TargetType: "all",
	})
	assert.True(t, appErrors.IsNotFound(err))
}

func TestListPaginates(t *testing.T) {
	f := newBroadcastFixture()
	for i := 0; i < 25; i++ {
		f.createSMSBroadcast(t)
	}

	page, pagination, err := f.svc.List(1, 2, 10, "", "")
	assert.NoError(t, err)
	assert.Len(t, page, 10)
	assert.Equal(t, 2, pagination["page"])
	assert.Equal(t, 25, pagination["total_count"])
	assert.Equal(t, 3, pagination["total_pages"])
}

func TestGetDetailsIncludesStats(t *testing.T) {
	f := tenRecipientFixture()
	b := f.createSMSBroadcast(t)
	_, err := f.svc.Send(context.Background(), 1, b.ID)
	assert.NoError(t, err)

	details, err := f.svc.GetDetails(1, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, 5, details.Stats["sent"])
	assert.Equal(t, 5, details.Stats["skipped"])
	assert.Equal(t, 0, details.Stats["failed"])
}
