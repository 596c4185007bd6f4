package handler

// User-facing messages for the OAuth callback pages. These intentionally do
// not expose internal error details; handlers and tests both reference them.
const (
	ErrMsgMethodNotAllowed = "Method not allowed"

	// Callback page titles
	TitleVerified      = "Account verified"
	TitleNoChannels    = "No YouTube channel found"
	TitleLinkRejected  = "Verification link rejected"
	TitleWrongAccount  = "Wrong Discord account"
	TitleProviderError = "Authorization failed"

	// Callback page bodies
	MsgVerified = "Your account was verified. You can close this tab and return to Discord."
	MsgNoChannels = "You authorized successfully, but no YouTube channel is connected to your Discord account. " +
		"Connect one under Discord Settings > Connections and run the command again."
	MsgLinkRejected  = "This verification link is invalid or has expired. Run the command again to get a fresh one."
	MsgWrongAccount  = "You authorized with a different Discord account than the one that started verification."
	MsgProviderError = "Discord did not complete the authorization. Please try again."
)
