package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/mediakeep/mediakeep/internal/confirm"
	"github.com/mediakeep/mediakeep/internal/domain"
)

// Callback payloads are "cfm:<token>:<choice>". The token is the only state
// carrier; what the action does is stored server-side in the pending action,
// never parsed back out of the payload.
const (
	callbackPrefix = "cfm"
	choiceAccept   = string(confirm.ChoiceAccept)
	choiceReject   = string(confirm.ChoiceReject)
)

func callbackData(token, choice string) string {
	return strings.Join([]string{callbackPrefix, token, choice}, ":")
}

func parseCallbackData(data string) (token string, choice confirm.Choice, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != callbackPrefix {
		return "", "", false
	}
	switch parts[2] {
	case choiceAccept:
		return parts[1], confirm.ChoiceAccept, true
	case choiceReject:
		return parts[1], confirm.ChoiceReject, true
	default:
		return "", "", false
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Ack immediately so the client stops its spinner; the real answer is
	// the message edit below.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Error().Err(err).Msg("Failed to answer callback query")
	}

	if query.Message == nil || query.From == nil {
		return
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	token, choice, ok := parseCallbackData(query.Data)
	if !ok {
		log.Warn().Str("data", query.Data).Msg("Unparseable callback payload")
		return
	}

	resolution, err := b.confirm.Resolve(ctx, token, choice, query.From.ID)
	if err != nil {
		log.Error().Err(err).Str("token", token).Msg("Callback resolution failed")
		b.editMessage(chatID, messageID, msgInternalError)
		return
	}

	switch resolution.Outcome {
	case confirm.OutcomeDeleted:
		b.editMessage(chatID, messageID, fmt.Sprintf("✅ File '%s' has been deleted.", resolution.File.Name))
	case confirm.OutcomeCancelled:
		b.editMessage(chatID, messageID, "❌ Action cancelled.")
	case confirm.OutcomeDeliver:
		b.deliver(chatID, messageID, resolution.File)
	case confirm.OutcomeNotFound:
		b.editMessage(chatID, messageID, "❌ File not found or already deleted.")
	case confirm.OutcomeAlreadyResolved:
		// Duplicate tap or transport retry; the first resolution already
		// answered in the chat.
	case confirm.OutcomeDenied:
		b.editMessage(chatID, messageID, msgAdminsOnly)
	}
}

// deliver sends the artifact to the chat. The download counters were
// committed when the confirmation resolved; a failed send is reported but
// not compensated, so the count reads as attempted accesses.
func (b *Bot) deliver(chatID int64, messageID int, file *domain.FileRecord) {
	if _, err := b.api.Send(mediaConfig(chatID, file)); err != nil {
		log.Error().Err(err).Str("file_id", file.ID).Msg("Failed to deliver file")
		b.editMessage(chatID, messageID, fmt.Sprintf("❌ Error sending file: %v", err))
		return
	}

	b.editMessage(chatID, messageID, fmt.Sprintf("✅ File '%s' sent successfully.", file.Name))
}

func mediaConfig(chatID int64, file *domain.FileRecord) tgbotapi.Chattable {
	ref := tgbotapi.FileID(file.ContentRef)

	switch file.Kind {
	case domain.MediaKindPhoto:
		config := tgbotapi.NewPhoto(chatID, ref)
		config.Caption = file.Description
		return config
	case domain.MediaKindVideo:
		config := tgbotapi.NewVideo(chatID, ref)
		config.Caption = file.Description
		return config
	case domain.MediaKindAudio:
		config := tgbotapi.NewAudio(chatID, ref)
		config.Caption = file.Description
		return config
	case domain.MediaKindVoice:
		config := tgbotapi.NewVoice(chatID, ref)
		config.Caption = file.Description
		return config
	default:
		config := tgbotapi.NewDocument(chatID, ref)
		config.Caption = file.Description
		return config
	}
}
