package discord

import "github.com/bwmarrin/discordgo"

// Embed colors
const (
	ColorSuccess = 0x2ecc71
	ColorInfo    = 0x3498db
	ColorWarning = 0xf39c12
	ColorError   = 0xe74c3c
	ColorAdmin   = 0x95a5a6
)

// Friendly message constants for Discord responses
const (
	// Verification
	MsgVerificationTimeout  = "⏳ **Verification Timed Out**\nYou didn't finish authorizing in time. Run `/verify` again when you're ready."
	MsgVerificationDisabled = "🔒 **Verification Disabled**\nSubscriber verification is not enabled on this server."
	MsgNoLinkedChannels     = "❓ **No YouTube Channel Found**\nConnect a YouTube channel to your Discord account under Settings > Connections, then try again."
	MsgBelowMinimumTier     = "📉 **Not Enough Subscribers**\nYour channel doesn't meet the lowest configured tier yet."

	// Tier configuration
	MsgNoTiersConfigured  = "⚙️ **No Tiers Configured**\nAn admin needs to set up subscriber tiers first."
	MsgDuplicateThreshold = "⚠️ **Duplicate Threshold**\nA tier with that subscriber threshold already exists."
	MsgTierNotFound       = "❓ **Tier Not Found**\nNo tier with that threshold exists."

	// Roles
	MsgRoleHierarchy = "🔺 **Role Too High**\nThat role sits above my highest role, so I can't manage it. Move my role up or pick another role."

	// Input
	MsgInvalidInput = "⚠️ **Invalid Input**\nCheck the values and try again."

	MsgGenericError = "❌ Something went wrong."
)

// Notice is a provider-neutral message the services can hand back to the UI
// layer; rendering to an embed happens at the Discord boundary.
type Notice struct {
	Title string
	Body  string
	Kind  NoticeKind
}

// NoticeKind selects the embed color for a notice.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeInfo
	NoticeWarning
	NoticeError
)

// render converts the notice into an embed.
func (n Notice) render(footer string) *discordgo.MessageEmbed {
	return createEmbed(n.Title, n.Body, n.Kind.color(), footer)
}

func (k NoticeKind) color() int {
	switch k {
	case NoticeSuccess:
		return ColorSuccess
	case NoticeWarning:
		return ColorWarning
	case NoticeError:
		return ColorError
	default:
		return ColorInfo
	}
}
