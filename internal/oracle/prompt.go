package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zulandar/railsection/internal/models"
)

// DefaultCorridor is the section name used when none is configured.
const DefaultCorridor = "Ganga-Yamuna Corridor"

// ProjectedTrain is the reduced train view sent with what-if prompts.
type ProjectedTrain struct {
	ID       string             `json:"id"`
	Status   models.TrainStatus `json:"status"`
	Progress float64            `json:"progress"`
	Priority int                `json:"priority"`
}

// Projection is the slice of world state a what-if prompt carries.
type Projection struct {
	Trains []ProjectedTrain `json:"trains"`
	Alerts []string         `json:"alerts"`
}

// Project reduces w to the fields the what-if prompt needs. A nil world
// projects to empty lists.
func Project(w *models.World) Projection {
	p := Projection{Trains: []ProjectedTrain{}, Alerts: []string{}}
	if w == nil {
		return p
	}
	for _, t := range w.Trains {
		p.Trains = append(p.Trains, ProjectedTrain{ID: t.ID, Status: t.Status, Progress: t.Progress, Priority: t.Priority})
	}
	for _, a := range w.Alerts {
		p.Alerts = append(p.Alerts, a.Message)
	}
	return p
}

func generationPrompt(corridor string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are simulating live traffic on a busy 100 km single-line section of Indian Railways called '%s'.\n\n", corridor)

	b.WriteString("## Geography\n")
	b.WriteString("The corridor runs west to east. Positions are percentages of the section length.\n")
	b.WriteString("- Prayagraj (PRYJ): position 5, 2 platform tracks, no siding.\n")
	b.WriteString("- Vindhyachal (BDL): position 35, 2 platform tracks, has a siding.\n")
	b.WriteString("- Mirzapur (MZP): position 65, 2 platform tracks, no siding.\n")
	b.WriteString("- Chunar (CAR): position 95, 3 platform tracks, has a siding.\n\n")

	b.WriteString("## Rules\n")
	b.WriteString("- It is peak hours. Create 6-8 trains of types Express, Freight and Local, including at least one high-priority Express such as 'Vande Bharat'.\n")
	b.WriteString("- Trains heading towards Chunar are Eastbound (progress increases); trains heading towards Prayagraj are Westbound.\n")
	b.WriteString("- Speeds in km/h: Express 90-130, Freight 50-70, Local 40-60. Trains that are Stopped or in a Siding have speed 0.\n")
	b.WriteString("- Mix delayed and on-time trains. Moving trains are usually on the 'main' track.\n")
	b.WriteString("- A train stopped at a station uses track 'platform-N' with N within that station's platform count.\n")
	b.WriteString("- Give 2-3 time-sensitive recommendations about punctuality and throughput. Mention each train's direction in titles and reasons.\n")
	b.WriteString("- Give 1-2 safety alerts. When an issue raises a High alert, its actions go only under that alert and never in a separate recommendation.\n")
	b.WriteString("- Every action is an object with displayText, command (MOVE_SIDING, HOLD or PROCEED), trainId and an optional stationName.\n\n")

	b.WriteString("## Output\n")
	b.WriteString("Reply with one JSON object and nothing else, shaped as:\n")
	b.WriteString(`{"trains":[{"id":"T12345","name":"","type":"Express","priority":1,"status":"On Time","currentLocation":"In Transit","nextStop":"Mirzapur","progress":40,"track":"main","direction":"Eastbound","speed":110}],`)
	b.WriteString(`"stations":[{"id":"PRYJ","name":"Prayagraj","position":5,"hasSiding":false,"platformTracks":2}],`)
	b.WriteString(`"recommendations":[{"id":"","title":"","reason":"","actions":[{"displayText":"","command":"HOLD","trainId":"T12345","stationName":"Mirzapur"}]}],`)
	b.WriteString(`"alerts":[{"id":"","message":"","severity":"High","suggestedActions":[]}]}`)
	b.WriteString("\n")

	return b.String()
}

func whatIfPrompt(p Projection, scenario string) (string, error) {
	trains, err := json.Marshal(p.Trains)
	if err != nil {
		return "", fmt.Errorf("oracle: encode projection: %w", err)
	}
	alerts, err := json.Marshal(p.Alerts)
	if err != nil {
		return "", fmt.Errorf("oracle: encode projection: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an expert in railway operations.\n\n")
	b.WriteString("## Current State\n")
	fmt.Fprintf(&b, "- Trains: %s\n", trains)
	fmt.Fprintf(&b, "- Alerts: %s\n\n", alerts)
	b.WriteString("## Proposed Action\n")
	fmt.Fprintf(&b, "%q\n\n", scenario)
	b.WriteString("Assess the likely consequences of this action over the next 30 minutes in a short bulleted summary. ")
	b.WriteString("Cover changes to train delays, which existing alerts it resolves, and any new conflicts it could cause. ")
	b.WriteString("Begin your reply with \"Simulation Result:\".\n")
	return b.String(), nil
}
