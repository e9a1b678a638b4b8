package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/mediakeep/mediakeep/internal/admins"
	"github.com/mediakeep/mediakeep/internal/catalog"
	"github.com/mediakeep/mediakeep/internal/domain"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if hasMedia(msg) {
		b.handleUpload(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()

	if command == "start" {
		b.handleStart(ctx, msg)
		return
	}

	// Every command other than /start mutates state or reads privileged
	// data, so the admin gate sits here, once, for all of them.
	if !b.requireAdmin(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}

	args := strings.Fields(msg.CommandArguments())

	switch command {
	case "search":
		b.handleSearch(ctx, msg, args)
	case "stats":
		b.handleStats(ctx, msg)
	case "info":
		b.handleInfo(ctx, msg, args)
	case "link":
		b.handleLink(ctx, msg, args)
	case "editname":
		b.handleEditName(ctx, msg, args)
	case "editdesc":
		b.handleEditDescription(ctx, msg, args)
	case "addtag":
		b.handleAddTag(ctx, msg, args)
	case "removetag":
		b.handleRemoveTag(ctx, msg, args)
	case "addadmin":
		b.handleAddAdmin(ctx, msg, args)
	case "removeadmin":
		b.handleRemoveAdmin(ctx, msg, args)
	case "listadmins":
		b.handleListAdmins(ctx, msg)
	case "deletefile":
		b.handleDeleteFile(ctx, msg, args)
	}
}

// requireAdmin replies with a denial and returns false when the caller is
// not authorized.
func (b *Bot) requireAdmin(ctx context.Context, userID, chatID int64) bool {
	isAdmin, err := b.registry.IsAdmin(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Admin lookup failed")
		b.reply(chatID, msgInternalError)
		return false
	}
	if !isAdmin {
		b.reply(chatID, msgAdminsOnly)
		return false
	}
	return true
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, welcomeText)

	_, err := b.stats.RecordUser(ctx, &domain.User{
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to record user")
	}
}

func (b *Bot) handleUpload(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(ctx, msg.From.ID, msg.Chat.ID) {
		return
	}

	contentRef, kind, declaredFilename := extractMedia(msg)
	if contentRef == "" {
		b.reply(msg.Chat.ID, "❌ No file detected. Please upload a file.")
		return
	}

	file, err := b.catalog.Register(ctx, catalog.RegisterParams{
		ContentRef:       contentRef,
		Kind:             kind,
		UploadedBy:       msg.From.ID,
		DeclaredFilename: declaredFilename,
		Caption:          msg.Caption,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to register file")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	b.reply(msg.Chat.ID, renderUploaded(file))
}

// extractMedia pulls the content reference out of whichever media field the
// transport populated. For photos Telegram sends every size; the largest is
// last.
func extractMedia(msg *tgbotapi.Message) (contentRef string, kind domain.MediaKind, declaredFilename string) {
	switch {
	case msg.Document != nil:
		return msg.Document.FileID, domain.MediaKindDocument, msg.Document.FileName
	case len(msg.Photo) > 0:
		return msg.Photo[len(msg.Photo)-1].FileID, domain.MediaKindPhoto, ""
	case msg.Video != nil:
		return msg.Video.FileID, domain.MediaKindVideo, msg.Video.FileName
	case msg.Audio != nil:
		return msg.Audio.FileID, domain.MediaKindAudio, msg.Audio.FileName
	case msg.Voice != nil:
		return msg.Voice.FileID, domain.MediaKindVoice, ""
	default:
		return "", "", ""
	}
}

func hasMedia(msg *tgbotapi.Message) bool {
	ref, _, _ := extractMedia(msg)
	return ref != ""
}

func (b *Bot) handleSearch(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(msg.Chat.ID, "❌ Please provide a search term: /search <keyword>")
		return
	}

	keyword := strings.Join(args, " ")

	results, err := b.catalog.Search(ctx, keyword, catalog.DefaultSearchLimit)
	if err != nil {
		log.Error().Err(err).Str("keyword", keyword).Msg("Search failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	if err := b.stats.Increment(ctx, domain.CounterSearches); err != nil {
		log.Error().Err(err).Msg("Failed to count search")
	}

	if len(results) == 0 {
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ No files found matching '%s'", keyword))
		return
	}

	b.reply(msg.Chat.ID, renderSearchResults(keyword, results))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	snapshot, err := b.stats.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read stats")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}
	b.reply(msg.Chat.ID, renderStats(snapshot))
}

func (b *Bot) handleInfo(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(msg.Chat.ID, "❌ Please provide a file ID: /info <file_id>")
		return
	}

	file, err := b.catalog.Find(ctx, args[0])
	if err != nil {
		log.Error().Err(err).Msg("Lookup failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}
	if file == nil {
		b.reply(msg.Chat.ID, renderNotFound(args[0]))
		return
	}

	token, err := b.confirm.Issue(ctx, domain.PendingKindDownload, file.ID, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue download confirmation")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, renderFileInfo(file))
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Download File", callbackData(token, choiceAccept)),
		),
	)
	if _, err := b.api.Send(reply); err != nil {
		log.Error().Err(err).Msg("Failed to send file info")
	}
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(msg.Chat.ID, "❌ Please provide a file ID: /link <file_id>")
		return
	}

	file, err := b.catalog.Find(ctx, args[0])
	if err != nil {
		log.Error().Err(err).Msg("Lookup failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}
	if file == nil {
		b.reply(msg.Chat.ID, renderNotFound(args[0]))
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=file_%s", b.username, file.ID)
	b.reply(msg.Chat.ID, fmt.Sprintf("🔗 *Shareable Link*\n\nFile: %s\nLink: %s", file.Name, link))
}

func (b *Bot) handleEditName(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		b.reply(msg.Chat.ID, "❌ Please provide file ID and new name: /editname <file_id> <new_name>")
		return
	}

	outcome, err := b.catalog.Rename(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		log.Error().Err(err).Msg("Rename failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}
	if outcome == catalog.UpdateOutcomeNotFound {
		b.reply(msg.Chat.ID, renderNotFound(args[0]))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ File name updated for file ID: %s", args[0]))
}

func (b *Bot) handleEditDescription(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		b.reply(msg.Chat.ID, "❌ Please provide file ID and new description: /editdesc <file_id> <description>")
		return
	}

	outcome, err := b.catalog.SetDescription(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		log.Error().Err(err).Msg("Description update failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}
	if outcome == catalog.UpdateOutcomeNotFound {
		b.reply(msg.Chat.ID, renderNotFound(args[0]))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Description updated for file ID: %s", args[0]))
}

func (b *Bot) handleAddTag(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		b.reply(msg.Chat.ID, "❌ Please provide file ID and tag: /addtag <file_id> <tag>")
		return
	}

	fileID, tag := args[0], args[1]

	outcome, err := b.catalog.AddTag(ctx, fileID, tag)
	if err != nil {
		log.Error().Err(err).Msg("Tag add failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	switch outcome {
	case catalog.TagOutcomeAdded:
		b.reply(msg.Chat.ID, fmt.Sprintf("✅ Tag '%s' added to file ID: %s", domain.NormalizeTag(tag), fileID))
	case catalog.TagOutcomeAlreadyPresent:
		b.reply(msg.Chat.ID, fmt.Sprintf("ℹ️ Tag '%s' already exists for this file.", domain.NormalizeTag(tag)))
	default:
		b.reply(msg.Chat.ID, renderNotFound(fileID))
	}
}

func (b *Bot) handleRemoveTag(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		b.reply(msg.Chat.ID, "❌ Please provide file ID and tag: /removetag <file_id> <tag>")
		return
	}

	fileID, tag := args[0], args[1]

	outcome, err := b.catalog.RemoveTag(ctx, fileID, tag)
	if err != nil {
		log.Error().Err(err).Msg("Tag remove failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	switch outcome {
	case catalog.TagOutcomeRemoved:
		b.reply(msg.Chat.ID, fmt.Sprintf("✅ Tag '%s' removed from file ID: %s", domain.NormalizeTag(tag), fileID))
	case catalog.TagOutcomeAbsent:
		b.reply(msg.Chat.ID, fmt.Sprintf("ℹ️ Tag '%s' does not exist for this file.", domain.NormalizeTag(tag)))
	default:
		b.reply(msg.Chat.ID, renderNotFound(fileID))
	}
}

func (b *Bot) handleAddAdmin(ctx context.Context, msg *tgbotapi.Message, args []string) {
	userID, ok := parseUserID(args)
	if !ok {
		b.reply(msg.Chat.ID, "❌ Please provide a numeric user ID: /addadmin <user_id>")
		return
	}

	outcome, err := b.registry.Add(ctx, userID, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Msg("Admin add failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	switch outcome {
	case admins.AddOutcomeAdded:
		b.reply(msg.Chat.ID, fmt.Sprintf("✅ User %d added as admin.", userID))
	case admins.AddOutcomeAlreadyAdmin:
		b.reply(msg.Chat.ID, "ℹ️ This user is already an admin.")
	}
}

func (b *Bot) handleRemoveAdmin(ctx context.Context, msg *tgbotapi.Message, args []string) {
	userID, ok := parseUserID(args)
	if !ok {
		b.reply(msg.Chat.ID, "❌ Please provide a numeric user ID: /removeadmin <user_id>")
		return
	}

	outcome, err := b.registry.Remove(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Admin remove failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	switch outcome {
	case admins.RemoveOutcomeRemoved:
		b.reply(msg.Chat.ID, fmt.Sprintf("✅ User %d removed from admins.", userID))
	case admins.RemoveOutcomeNotAdmin:
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ User %d is not an admin.", userID))
	case admins.RemoveOutcomeProtected:
		b.reply(msg.Chat.ID, "❌ Cannot remove default admins set in the configuration.")
	}
}

func (b *Bot) handleListAdmins(ctx context.Context, msg *tgbotapi.Message) {
	entries, err := b.registry.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Admin list failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}
	b.reply(msg.Chat.ID, renderAdminList(entries))
}

func (b *Bot) handleDeleteFile(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(msg.Chat.ID, "❌ Please provide a file ID: /deletefile <file_id>")
		return
	}

	file, err := b.catalog.Find(ctx, args[0])
	if err != nil {
		log.Error().Err(err).Msg("Lookup failed")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}
	if file == nil {
		b.reply(msg.Chat.ID, renderNotFound(args[0]))
		return
	}

	token, err := b.confirm.Issue(ctx, domain.PendingKindDelete, file.ID, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue delete confirmation")
		b.reply(msg.Chat.ID, msgInternalError)
		return
	}

	prompt := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"⚠️ Are you sure you want to delete this file?\n\nFile: %s\nType: %s\nID: %s",
		file.Name, file.Kind, file.ID,
	))
	prompt.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, delete", callbackData(token, choiceAccept)),
			tgbotapi.NewInlineKeyboardButtonData("❌ No, cancel", callbackData(token, choiceReject)),
		),
	)
	if _, err := b.api.Send(prompt); err != nil {
		log.Error().Err(err).Msg("Failed to send delete confirmation")
	}
}

func parseUserID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return userID, true
}
