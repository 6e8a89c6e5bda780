// Package email drafts outreach emails for businesses via a text-generation
// provider.
package email

import (
	"fmt"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

const promptTemplate = `You are a professional web design consultant writing an email to a potential client.

Business Details:
- Name: %s
- Industry: %s
- Location: %s
- Website Status: %s

User's Custom Instructions:
%s

Please generate a concise, friendly, and professional email offering web design services.
The email should be personalized based on the business details and follow the user's instructions.
Keep the email under 200 words and focus on value proposition.`

// BuildPrompt renders the fixed consultant prompt for one business. The
// user's instructions are embedded verbatim.
func BuildPrompt(b lead.Business, userInstructions string) string {
	industry := b.Industry
	if industry == "" {
		industry = "general business"
	}
	websiteStatus := "no website found"
	if b.HasWebsite() {
		websiteStatus = "has an existing website"
	}
	return fmt.Sprintf(promptTemplate, b.BusinessName, industry, b.Location, websiteStatus, userInstructions)
}
