package names

import (
	"fmt"
	"strings"

	"storyquest/internal/domain/story"
)

// RejectedMessage is what the child sees when a name is turned down
const RejectedMessage = "Let's choose a kinder name for our adventure! 🌟"

// Basic list of inappropriate words for a children's app
var denyList = []string{
	"fuck", "shit", "bitch", "cunt", "whore", "slut", "dick", "pussy", "bastard",
	"nigger", "faggot", "cock", "sex", "porn", "xxx", "asshole", "damn", "piss", "crap",
}

// Validate checks a display name against the deny list. An empty name is allowed.
func Validate(name string) error {
	if name == "" {
		return nil
	}

	lower := strings.ToLower(name)
	for _, word := range denyList {
		if strings.Contains(lower, word) {
			return fmt.Errorf("%w: %s", story.ErrInputRejected, RejectedMessage)
		}
	}
	return nil
}
