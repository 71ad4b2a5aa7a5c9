package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sankethshetty99/discord-archiver/internal/discord"
)

const cdnBaseURL = "https://cdn.discordapp.com"

// AvatarURL resolves the display avatar for an author. Custom avatars are
// addressed by their CDN hash; animated hashes carry the a_ prefix and
// serve as GIF. Accounts without one get a deterministic default avatar:
// migrated accounts (discriminator "0" or empty) index by snowflake bits,
// legacy accounts by discriminator.
func AvatarURL(a discord.Author) string {
	if a.Avatar != "" {
		ext := "png"
		if strings.HasPrefix(a.Avatar, "a_") {
			ext = "gif"
		}
		return fmt.Sprintf("%s/avatars/%s/%s.%s", cdnBaseURL, a.ID, a.Avatar, ext)
	}

	var index uint64
	if a.Discriminator == "" || a.Discriminator == "0" {
		if id, err := strconv.ParseUint(a.ID, 10, 64); err == nil {
			index = (id >> 22) % 6
		}
	} else if n, err := strconv.ParseUint(a.Discriminator, 10, 64); err == nil {
		index = n % 5
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBaseURL, index)
}
