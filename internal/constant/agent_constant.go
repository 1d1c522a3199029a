package constant

const (
	// Sender roles as stored in conversation_messages.sender_role
	SenderRoleUser = "USER"
	SenderRoleAI   = "AI"

	AttachmentMimeTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
