package domain

// Built-in card types.
const (
	// CardTypeSendMessage sends a text message and continues to next_id.
	CardTypeSendMessage = "send-message"
	// CardTypeSendMediaMessage sends a media attachment with a caption.
	CardTypeSendMediaMessage = "send-media-message"
	// CardTypeMenu prompts for a choice; each option carries its own destination
	// and next_id is the default branch for unmatched replies.
	CardTypeMenu = "menu"
	// CardTypeWebhook calls an external URL; error_id is the optional failure branch.
	CardTypeWebhook = "webhook"
	// CardTypeEnd terminates the flow.
	CardTypeEnd = "end"
)
