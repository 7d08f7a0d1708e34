package docker

import (
	"fmt"
	"strings"
)

// Label keys used for arena bot containers
const (
	LabelManaged  = "arena.managed"
	LabelMatchID  = "arena.match.id"
	LabelColor    = "arena.bot.color"
	LabelBotName  = "arena.bot.name"
	LabelBotImage = "arena.bot.image"
)

// BuildLabels creates the standard label set for a bot container.
// botName may be empty when the side has no display name.
func BuildLabels(matchID, color, botName, image string) map[string]string {
	labels := map[string]string{
		LabelManaged:  "true",
		LabelMatchID:  matchID,
		LabelColor:    strings.ToLower(color),
		LabelBotImage: image,
	}

	if botName != "" {
		labels[LabelBotName] = botName
	}

	return labels
}

// BotContainerName returns the container name for one side of a match.
func BotContainerName(matchID, color string) string {
	short := matchID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("arena-bot-%s-%s", short, strings.ToLower(color))
}
