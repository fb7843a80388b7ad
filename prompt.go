package jobplace

import (
	"fmt"
	"strings"
)

const taskDescription = `You are a very powerful assistant,
Your job is to take a job posting, find the address where the future employee will work and return the Google place ID of that address.
You can use the following tools:`

const outputDescription = `Pick one and only one location, the one you think matches the best.
Return the place id of this location as JSON, like this:
{"place_id": "[INSERT PLACE ID HERE]"}
Return only this JSON, nothing else.`

// BuildInstructions assembles the system prompt: the task, one line per
// available tool and the required output format.
func BuildInstructions(functions []AgentFunction) string {
	var b strings.Builder
	b.WriteString(taskDescription)
	b.WriteString("\n")
	for _, f := range functions {
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Name(), f.Description())
	}
	b.WriteString("\n")
	b.WriteString(outputDescription)
	return b.String()
}
