// Package model defines the core domain types for lead acquisition.
package model

import "time"

// LeadSource identifies the platform a lead was acquired from.
type LeadSource string

const (
	SourceInstagram LeadSource = "instagram"
	SourceGmaps     LeadSource = "gmaps"
	SourceGmail     LeadSource = "gmail"
)

// LeadStatus tracks how far a lead has moved through the pipeline.
type LeadStatus string

const (
	// StatusScraped means the lead was acquired but no email was found.
	StatusScraped LeadStatus = "scraped"
	// StatusEnriched means a contact email was resolved.
	StatusEnriched LeadStatus = "enriched"
	// StatusReady means the lead was approved downstream. Never set here.
	StatusReady LeadStatus = "ready"
)

// DecisionMaker is the contact person attached to a lead.
type DecisionMaker struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// AIAnalysis is the outreach material slot filled by a downstream
// collaborator. The pipeline only guarantees the structure is present;
// Summary is pre-filled with a category/review synopsis.
type AIAnalysis struct {
	Summary             string   `json:"summary"`
	PainPoints          []string `json:"painPoints"`
	GeneratedIcebreaker string   `json:"generatedIcebreaker"`
	FullMessage         string   `json:"fullMessage"`
}

// Lead is one prospective business contact produced by an acquisition run.
type Lead struct {
	ID            string        `json:"id"`
	Source        LeadSource    `json:"source"`
	CompanyName   string        `json:"companyName"`
	Website       string        `json:"website,omitempty"`
	SocialURL     string        `json:"socialUrl,omitempty"`
	Location      string        `json:"location,omitempty"`
	DecisionMaker DecisionMaker `json:"decisionMaker"`
	AIAnalysis    AIAnalysis    `json:"aiAnalysis"`
	Status        LeadStatus    `json:"status"`
}

// SearchSession is one completed acquisition run. Sessions are append-only:
// once persisted they are never updated or deleted.
type SearchSession struct {
	ID           string     `json:"id"`
	Date         time.Time  `json:"date"`
	Query        string     `json:"query"`
	Source       LeadSource `json:"source"`
	ResultsCount int        `json:"resultsCount"`
	Leads        []Lead     `json:"leads"`
}
