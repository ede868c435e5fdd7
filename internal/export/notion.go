package export

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospecta/leadgen-cli/internal/store"
	"github.com/prospecta/leadgen-cli/pkg/notion"
)

// PushNotion publishes the sessions' leads to the Notion lead database, one
// page per lead. The client's built-in throttle keeps this under Notion's
// rate limit. Publishing stops on the first error so a retry does not skip
// already exported sessions silently.
func PushNotion(ctx context.Context, client notion.Client, dbID string, sessions []store.SessionRow) (int, error) {
	if dbID == "" {
		return 0, eris.New("notion lead database id is not configured")
	}

	pushed := 0
	for _, session := range sessions {
		for _, lead := range session.Leads {
			page := notion.LeadPage{
				CompanyName: lead.CompanyName,
				Website:     lead.Website,
				Email:       lead.DecisionMaker.Email,
				Phone:       lead.DecisionMaker.Phone,
				Location:    lead.Location,
				Query:       session.Query,
				Status:      string(lead.Status),
			}
			if _, err := client.CreateLeadPage(ctx, dbID, page); err != nil {
				return pushed, eris.Wrap(err, "export: push lead to notion")
			}
			pushed++
		}
	}

	zap.L().Info("notion export complete",
		zap.Int("sessions", len(sessions)),
		zap.Int("leads", pushed),
	)
	return pushed, nil
}
