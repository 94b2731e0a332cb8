package domain

// RecordType is the discriminator tag shared by every record persisted in the
// history store. Heterogeneous entities live in one collection; the tag is
// what makes each row interpretable as a concrete variant.
type RecordType string

const (
	ChatThreadType    RecordType = "CHAT_THREAD"
	ChatMessageType   RecordType = "CHAT_MESSAGE"
	ChatDocumentType  RecordType = "CHAT_DOCUMENT"
	DocumentChunkType RecordType = "DOCUMENT_CHUNK"
	ChatCitationType  RecordType = "CHAT_CITATION"
	ExtensionType     RecordType = "EXTENSION"
	PromptType        RecordType = "PROMPT"
	SecretType        RecordType = "SECRET"
)

// ValidRecordType checks if a RecordType is one of the known variants.
func ValidRecordType(t RecordType) bool {
	switch t {
	case ChatThreadType, ChatMessageType, ChatDocumentType, DocumentChunkType,
		ChatCitationType, ExtensionType, PromptType, SecretType:
		return true
	}
	return false
}
