package service_test

import (
	"context"
	"errors"
	"sort"
	"time"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/model"
)

// In-memory fakes implementing the repository interfaces.

type mockTenantRepo struct {
	tenant model.Tenant
}

func (m *mockTenantRepo) GetByID(id int) (*model.Tenant, error) {
	t := m.tenant
	t.ID = id
	return &t, nil
}

type mockClientRepo struct {
	clients map[int]*model.Client
	notes   map[int][]string
}

func newMockClientRepo(clients ...*model.Client) *mockClientRepo {
	m := &mockClientRepo{clients: map[int]*model.Client{}, notes: map[int][]string{}}
	for _, c := range clients {
		m.clients[c.ID] = c
	}
	return m
}

func (m *mockClientRepo) GetByID(tenantID, id int) (*model.Client, error) {
	c, ok := m.clients[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return c, nil
}

func (m *mockClientRepo) ListByTenant(tenantID int) ([]model.Client, error) {
	out := []model.Client{}
	for _, c := range m.clients {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockClientRepo) AppendNote(tenantID, clientID int, note string) error {
	m.notes[clientID] = append(m.notes[clientID], note)
	return nil
}

type mockTemplateRepo struct {
	templates map[int]*model.MessageTemplate
	nextID    int
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: map[int]*model.MessageTemplate{}}
}

func (m *mockTemplateRepo) Create(t *model.MessageTemplate) error {
	m.nextID++
	t.ID = m.nextID
	copied := *t
	m.templates[t.ID] = &copied
	return nil
}

func (m *mockTemplateRepo) Update(t *model.MessageTemplate) error {
	if _, ok := m.templates[t.ID]; !ok {
		return appErrors.NewNotFound("message template", t.ID)
	}
	copied := *t
	m.templates[t.ID] = &copied
	return nil
}

func (m *mockTemplateRepo) Delete(tenantID, id int) error {
	if _, ok := m.templates[id]; !ok {
		return appErrors.NewNotFound("message template", id)
	}
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateRepo) GetByID(tenantID, id int) (*model.MessageTemplate, error) {
	t, ok := m.templates[id]
	if !ok || t.TenantID != tenantID {
		return nil, appErrors.NewNotFound("message template", id)
	}
	return t, nil
}

func (m *mockTemplateRepo) GetByName(tenantID int, name string) (*model.MessageTemplate, error) {
	for _, t := range m.templates {
		if t.TenantID == tenantID && t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTemplateRepo) ListByTenant(tenantID int) ([]model.MessageTemplate, error) {
	out := []model.MessageTemplate{}
	for _, t := range m.templates {
		if t.TenantID == tenantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type mockWorkflowRepo struct {
	workflows map[int]*model.WorkflowTemplate
	steps     map[int][]model.WorkflowStep
	nextID    int
}

func newMockWorkflowRepo() *mockWorkflowRepo {
	return &mockWorkflowRepo{
		workflows: map[int]*model.WorkflowTemplate{},
		steps:     map[int][]model.WorkflowStep{},
	}
}

func (m *mockWorkflowRepo) Create(w *model.WorkflowTemplate, steps []model.WorkflowStep) error {
	m.nextID++
	w.ID = m.nextID
	copied := *w
	m.workflows[w.ID] = &copied
	stored := make([]model.WorkflowStep, len(steps))
	for i := range steps {
		m.nextID++
		steps[i].ID = m.nextID
		steps[i].WorkflowID = w.ID
		stored[i] = steps[i]
	}
	m.steps[w.ID] = stored
	return nil
}

func (m *mockWorkflowRepo) Update(w *model.WorkflowTemplate, steps []model.WorkflowStep) error {
	if _, ok := m.workflows[w.ID]; !ok {
		return appErrors.NewNotFound("workflow", w.ID)
	}
	copied := *w
	m.workflows[w.ID] = &copied
	stored := make([]model.WorkflowStep, len(steps))
	for i := range steps {
		m.nextID++
		steps[i].ID = m.nextID
		steps[i].WorkflowID = w.ID
		stored[i] = steps[i]
	}
	m.steps[w.ID] = stored
	return nil
}

func (m *mockWorkflowRepo) Delete(tenantID, id int) error {
	if _, ok := m.workflows[id]; !ok {
		return appErrors.NewNotFound("workflow", id)
	}
	delete(m.workflows, id)
	delete(m.steps, id)
	return nil
}

func (m *mockWorkflowRepo) GetByID(tenantID, id int) (*model.WorkflowTemplate, error) {
	w, ok := m.workflows[id]
	if !ok || w.TenantID != tenantID {
		return nil, appErrors.NewNotFound("workflow", id)
	}
	return w, nil
}

func (m *mockWorkflowRepo) ListByTenant(tenantID int) ([]model.WorkflowTemplate, error) {
	out := []model.WorkflowTemplate{}
	for _, w := range m.workflows {
		if w.TenantID == tenantID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockWorkflowRepo) ListActiveByTrigger(tenantID int, triggerType string) ([]model.WorkflowTemplate, error) {
	out := []model.WorkflowTemplate{}
	for _, w := range m.workflows {
		if w.TenantID == tenantID && w.TriggerType == triggerType && w.IsActive {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockWorkflowRepo) ListSteps(workflowID int) ([]model.WorkflowStep, error) {
	steps := append([]model.WorkflowStep(nil), m.steps[workflowID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepOrder < steps[j].StepOrder })
	return steps, nil
}

func (m *mockWorkflowRepo) CountByTenant(tenantID int) (int, error) {
	count := 0
	for _, w := range m.workflows {
		if w.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

type mockQueueRepo struct {
	entries []*model.QueueEntry
	nextID  int
}

func (m *mockQueueRepo) Insert(e *model.QueueEntry) error {
	m.nextID++
	e.ID = m.nextID
	copied := *e
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *mockQueueRepo) GetByID(tenantID, id int) (*model.QueueEntry, error) {
	for _, e := range m.entries {
		if e.ID == id && e.TenantID == tenantID {
			return e, nil
		}
	}
	return nil, appErrors.NewNotFound("queue entry", id)
}

func (m *mockQueueRepo) ListPending(tenantID int, filter string, now time.Time, limit int) ([]model.QueueEntryDetail, error) {
	out := []model.QueueEntryDetail{}
	for _, e := range m.entries {
		if e.TenantID != tenantID || e.Status != model.QueueStatusPending {
			continue
		}
		switch filter {
		case "ready":
			if e.ScheduledFor.After(now) {
				continue
			}
		case "upcoming":
			if !e.ScheduledFor.After(now) {
				continue
			}
		}
		out = append(out, model.QueueEntryDetail{QueueEntry: *e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockQueueRepo) ListActiveByClient(tenantID, clientID int) ([]model.QueueEntry, error) {
	out := []model.QueueEntry{}
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.ClientID == clientID &&
			(e.Status == model.QueueStatusPending || e.Status == "ready") {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockQueueRepo) MarkActed(tenantID, id int, status string, actedAt time.Time) error {
	for _, e := range m.entries {
		if e.ID == id && e.TenantID == tenantID {
			e.Status = status
			e.ActedAt = &actedAt
			return nil
		}
	}
	return appErrors.NewNotFound("queue entry", id)
}

func (m *mockQueueRepo) byClient(clientID int) []*model.QueueEntry {
	out := []*model.QueueEntry{}
	for _, e := range m.entries {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	return out
}

type mockBroadcastRepo struct {
	broadcasts map[int]*model.Broadcast
	messages   []*model.BroadcastMessage
	nextID     int
}

func newMockBroadcastRepo() *mockBroadcastRepo {
	return &mockBroadcastRepo{broadcasts: map[int]*model.Broadcast{}}
}

func (m *mockBroadcastRepo) Create(b *model.Broadcast) error {
	m.nextID++
	b.ID = m.nextID
	copied := *b
	m.broadcasts[b.ID] = &copied
	return nil
}

func (m *mockBroadcastRepo) Update(b *model.Broadcast) error {
	stored, ok := m.broadcasts[b.ID]
	if !ok || stored.TenantID != b.TenantID || stored.Status != model.BroadcastStatusDraft {
		return appErrors.NewNotFound("broadcast", b.ID)
	}
	copied := *b
	m.broadcasts[b.ID] = &copied
	return nil
}

func (m *mockBroadcastRepo) Delete(tenantID, id int) error {
	stored, ok := m.broadcasts[id]
	if !ok || stored.TenantID != tenantID || stored.Status != model.BroadcastStatusDraft {
		return appErrors.NewNotFound("broadcast", id)
	}
	delete(m.broadcasts, id)
	return nil
}

func (m *mockBroadcastRepo) GetByID(tenantID, id int) (*model.Broadcast, error) {
	b, ok := m.broadcasts[id]
	if !ok || b.TenantID != tenantID {
		return nil, appErrors.NewNotFound("broadcast", id)
	}
	copied := *b
	return &copied, nil
}

func (m *mockBroadcastRepo) List(tenantID, offset, limit int, channel, status string) ([]*model.Broadcast, int, error) {
	all := []*model.Broadcast{}
	for _, b := range m.broadcasts {
		if b.TenantID != tenantID {
			continue
		}
		if channel != "" && b.Channel != channel {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset > total {
		return []*model.Broadcast{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockBroadcastRepo) ClaimSending(tenantID, id int) (bool, error) {
	b, ok := m.broadcasts[id]
	if !ok || b.TenantID != tenantID {
		return false, nil
	}
	if b.Status != model.BroadcastStatusDraft {
		return false, nil
	}
	b.Status = model.BroadcastStatusSending
	return true, nil
}

func (m *mockBroadcastRepo) Finalize(b *model.Broadcast) error {
	copied := *b
	m.broadcasts[b.ID] = &copied
	return nil
}

func (m *mockBroadcastRepo) InsertMessage(msg *model.BroadcastMessage) error {
	m.nextID++
	msg.ID = m.nextID
	copied := *msg
	m.messages = append(m.messages, &copied)
	return nil
}

func (m *mockBroadcastRepo) ListMessages(broadcastID int) ([]model.BroadcastMessage, error) {
	out := []model.BroadcastMessage{}
	for _, msg := range m.messages {
		if msg.BroadcastID == broadcastID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *mockBroadcastRepo) GetStats(broadcastID int) (map[string]int, error) {
	stats := map[string]int{"sent": 0, "failed": 0, "skipped": 0}
	for _, msg := range m.messages {
		if msg.BroadcastID == broadcastID {
			stats[msg.Status]++
		}
	}
	return stats, nil
}

type mockSegmentRepo struct {
	clients     *mockClientRepo
	tags        []model.ClientTag
	assignments map[int]map[int]bool // clientID -> tagID set
	segments    map[int]*model.ClientSegment
}

func newMockSegmentRepo(clients *mockClientRepo) *mockSegmentRepo {
	return &mockSegmentRepo{
		clients:     clients,
		assignments: map[int]map[int]bool{},
		segments:    map[int]*model.ClientSegment{},
	}
}

func (m *mockSegmentRepo) tag(clientID int, tagIDs ...int) {
	if m.assignments[clientID] == nil {
		m.assignments[clientID] = map[int]bool{}
	}
	for _, id := range tagIDs {
		m.assignments[clientID][id] = true
	}
}

func (m *mockSegmentRepo) ListTags(tenantID int) ([]model.ClientTag, error) {
	out := []model.ClientTag{}
	for _, t := range m.tags {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockSegmentRepo) ListSegments(tenantID int) ([]model.ClientSegment, error) {
	out := []model.ClientSegment{}
	for _, s := range m.segments {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSegmentRepo) GetSegment(tenantID, id int) (*model.ClientSegment, error) {
	s, ok := m.segments[id]
	if !ok || s.TenantID != tenantID {
		return nil, appErrors.NewNotFound("segment", id)
	}
	return s, nil
}

func (m *mockSegmentRepo) ClientsByTag(tenantID, tagID int) ([]model.Client, error) {
	all, _ := m.clients.ListByTenant(tenantID)
	out := []model.Client{}
	for _, c := range all {
		if m.assignments[c.ID][tagID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockSegmentRepo) ClientsHoldingAllTags(tenantID int, tagIDs []int) ([]model.Client, error) {
	all, _ := m.clients.ListByTenant(tenantID)
	out := []model.Client{}
	for _, c := range all {
		held := 0
		for _, tagID := range tagIDs {
			if m.assignments[c.ID][tagID] {
				held++
			}
		}
		if held >= len(tagIDs) {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockWaiverRepo struct {
	consent map[int]bool // latest waiver flag per client; absent = no waiver
}

func (m *mockWaiverRepo) LatestConsentByClients(tenantID int, clientIDs []int) (map[int]bool, error) {
	out := map[int]bool{}
	for _, id := range clientIDs {
		if v, ok := m.consent[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// Provider fakes.

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

type fakeSMS struct {
	sent []sentMessage
	err  error
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return nil
}

type fakeEmail struct {
	sent []sentMessage
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

var errProviderDown = errors.New("gateway timeout")
