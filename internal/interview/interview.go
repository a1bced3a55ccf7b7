// Package interview defines the persisted interview record and its
// construction from pipeline output.
package interview

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/voxprep/voxprep/internal/extract"
)

// Record is a generated interview question set, ready for persistence.
// Field names follow the JSON shape returned by the HTTP API.
type Record struct {
	// ID is assigned by the store on creation; empty before that.
	ID string `json:"id,omitempty"`

	Role      string   `json:"role"`
	Type      string   `json:"type"`
	Level     string   `json:"level"`
	Techstack []string `json:"techstack"`
	Questions []string `json:"questions"`
	UserID    string   `json:"userId"`

	// Finalized is always true for records produced by the pipeline; the
	// field exists so draft records can be represented later.
	Finalized bool `json:"finalized"`

	// CoverImage is a decorative cover path picked at random on creation.
	CoverImage string `json:"coverImage"`

	// CreatedAt is an RFC 3339 UTC timestamp.
	CreatedAt string `json:"createdAt"`
}

// coverImages is the pool CoverImage is drawn from.
var coverImages = []string{
	"/covers/adobe.png",
	"/covers/amazon.png",
	"/covers/facebook.png",
	"/covers/hostinger.png",
	"/covers/pinterest.png",
	"/covers/quora.png",
	"/covers/reddit.png",
	"/covers/skype.png",
	"/covers/spotify.png",
	"/covers/telegram.png",
	"/covers/tiktok.png",
	"/covers/yahoo.png",
}

// New assembles a finalized Record from extracted parameters and generated
// questions. The comma-separated tech stack is split into trimmed entries;
// empty entries are dropped.
func New(params extract.Parameters, questions []string, userID string) Record {
	return Record{
		Role:       params.Role,
		Type:       params.Type,
		Level:      params.Level,
		Techstack:  splitTechstack(params.TechStack),
		Questions:  questions,
		UserID:     userID,
		Finalized:  true,
		CoverImage: coverImages[rand.IntN(len(coverImages))],
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

func splitTechstack(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
