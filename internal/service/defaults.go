package service

import "github.com/tillpoint/messaging-backend/internal/model"

// Default sequences seeded for a tenant on first use. Template names here
// must match the seeded message templates; steps referencing a missing
// template fall back to the literal string.

func defaultTemplates(tenantID int) []model.MessageTemplate {
	return []model.MessageTemplate{
		{
			TenantID: tenantID,
			Name:     "welcome_sms",
			Channel:  "sms",
			Body:     "Hi {{client_first_name}}, welcome to {{business_name}}! Reply to this number or call {{business_phone}} with any questions.",
			Category: "onboarding",
		},
		{
			TenantID: tenantID,
			Name:     "welcome_email",
			Channel:  "email",
			Subject:  "Welcome to {{business_name}}",
			Body:     "Hi {{client_name}},\n\nThanks for joining {{business_name}}. We're glad to have you.\n\nThe {{business_name}} team",
			Category: "onboarding",
		},
		{
			TenantID: tenantID,
			Name:     "purchase_thanks_sms",
			Channel:  "sms",
			Body:     "Thanks for your purchase, {{client_first_name}}! {{business_name}} appreciates your business.",
			Category: "sales",
		},
		{
			TenantID: tenantID,
			Name:     "purchase_followup_email",
			Channel:  "email",
			Subject:  "How was everything, {{client_first_name}}?",
			Body:     "Hi {{client_name}},\n\nJust checking in after your recent purchase from {{business_name}}. If anything isn't right, call us at {{business_phone}}.\n\nThanks!",
			Category: "sales",
		},
		{
			TenantID: tenantID,
			Name:     "winback_sms",
			Channel:  "sms",
			Body:     "Hi {{client_first_name}}, we've missed you at {{business_name}}! Stop by soon or call {{business_phone}}.",
			Category: "retention",
		},
	}
}

type defaultWorkflow struct {
	workflow model.WorkflowTemplate
	steps    []model.WorkflowStep
}

func defaultWorkflows(tenantID int) []defaultWorkflow {
	return []defaultWorkflow{
		{
			workflow: model.WorkflowTemplate{
				TenantID:    tenantID,
				Name:        "New Client Welcome",
				TriggerType: "client_created",
				IsActive:    true,
			},
			steps: []model.WorkflowStep{
				{StepOrder: 1, DelayHours: 0, Channel: "sms", TemplateName: "welcome_sms", Description: "Immediate welcome text"},
				{StepOrder: 2, DelayHours: 24, Channel: "email", TemplateName: "welcome_email", Description: "Welcome email the next day"},
			},
		},
		{
			workflow: model.WorkflowTemplate{
				TenantID:    tenantID,
				Name:        "Post-Purchase Follow-Up",
				TriggerType: "sale_completed",
				IsActive:    true,
			},
			steps: []model.WorkflowStep{
				{StepOrder: 1, DelayHours: 0, Channel: "sms", TemplateName: "purchase_thanks_sms", Description: "Thank-you text right after the sale"},
				{StepOrder: 2, DelayHours: 72, Channel: "email", TemplateName: "purchase_followup_email", Description: "Check-in email after three days"},
			},
		},
		{
			workflow: model.WorkflowTemplate{
				TenantID:    tenantID,
				Name:        "Lapsed Client Win-Back",
				TriggerType: "client_lapsed",
				IsActive:    true,
			},
			steps: []model.WorkflowStep{
				{StepOrder: 1, DelayHours: 0, Channel: "sms", TemplateName: "winback_sms", Description: "Win-back text"},
				{StepOrder: 2, DelayHours: 168, Channel: "sms", TemplateName: "winback_sms", Description: "Second nudge a week later"},
			},
		},
	}
}
