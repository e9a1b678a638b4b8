package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediakeep/mediakeep/internal/admins"
	"github.com/mediakeep/mediakeep/internal/catalog"
	"github.com/mediakeep/mediakeep/internal/confirm"
	"github.com/mediakeep/mediakeep/internal/domain"
	"github.com/mediakeep/mediakeep/internal/stats"
	"github.com/mediakeep/mediakeep/internal/storage/memory"
)

const (
	adminID    int64 = 100
	outsiderID int64 = 999
	chatID     int64 = 500
)

type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	failMedia bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failMedia && isMedia(c) {
		return tgbotapi.Message{}, errors.New("file is too big")
	}

	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func isMedia(c tgbotapi.Chattable) bool {
	switch c.(type) {
	case tgbotapi.DocumentConfig, tgbotapi.PhotoConfig, tgbotapi.VideoConfig,
		tgbotapi.AudioConfig, tgbotapi.VoiceConfig:
		return true
	}
	return false
}

// texts returns the text of every sent message or edit, in order.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string
	for _, c := range f.sent {
		switch msg := c.(type) {
		case tgbotapi.MessageConfig:
			texts = append(texts, msg.Text)
		case tgbotapi.EditMessageTextConfig:
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	texts := f.texts()
	require.NotEmpty(t, texts)
	return texts[len(texts)-1]
}

// lastKeyboardToken digs the confirmation token out of the most recently
// sent inline keyboard.
func (f *fakeAPI) lastKeyboardToken(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.sent) - 1; i >= 0; i-- {
		msg, ok := f.sent[i].(tgbotapi.MessageConfig)
		if !ok {
			continue
		}
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		if !ok {
			continue
		}
		data := *markup.InlineKeyboard[0][0].CallbackData
		token, _, ok := parseCallbackData(data)
		require.True(t, ok)
		return token
	}
	t.Fatal("no inline keyboard was sent")
	return ""
}

type fixture struct {
	bot     *Bot
	api     *fakeAPI
	catalog *catalog.Catalog
	stats   *stats.Aggregator
}

func newFixture() *fixture {
	api := &fakeAPI{}
	aggregator := stats.NewAggregator(memory.NewStatsStore(), memory.NewUserStore())
	cat := catalog.NewCatalog(memory.NewFileStore(), aggregator)
	registry := admins.NewRegistry(memory.NewAdminStore(), []int64{adminID})
	coordinator := confirm.NewCoordinator(memory.NewPendingStore(), cat, registry, aggregator)

	return &fixture{
		bot: New(Dependencies{
			API:      api,
			Username: "mediakeep_bot",
			Registry: registry,
			Catalog:  cat,
			Stats:    aggregator,
			Confirm:  coordinator,
		}),
		api:     api,
		catalog: cat,
		stats:   aggregator,
	}
}

func command(userID int64, text string) *tgbotapi.Message {
	length := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		length = i
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func upload(userID int64, caption string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Caption:   caption,
		Document:  &tgbotapi.Document{FileID: "tg-doc-1", FileName: "report.pdf"},
	}
}

func callback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID},
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID}},
	}
}

func TestNonAdminIsDenied(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	mutating := []string{
		"/search report",
		"/stats",
		"/info abc",
		"/link abc",
		"/editname abc x",
		"/editdesc abc x",
		"/addtag abc x",
		"/removetag abc x",
		"/addadmin 1",
		"/removeadmin 1",
		"/listadmins",
		"/deletefile abc",
	}

	for _, cmd := range mutating {
		f.bot.handleMessage(ctx, command(outsiderID, cmd))
		assert.Equal(t, msgAdminsOnly, f.api.lastText(t), cmd)
	}

	f.bot.handleMessage(ctx, upload(outsiderID, ""))
	assert.Equal(t, msgAdminsOnly, f.api.lastText(t))
}

func TestStartIsOpenToEveryoneAndRecordsUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, command(outsiderID, "/start"))
	assert.Contains(t, f.api.lastText(t), "Welcome")

	// A second /start does not count the user twice.
	f.bot.handleMessage(ctx, command(outsiderID, "/start"))

	snapshot, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.TotalUsers)
}

func TestUploadRegistersFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, upload(adminID, "Q3 numbers #finance"))
	assert.Contains(t, f.api.lastText(t), "uploaded successfully")

	results, err := f.catalog.Search(ctx, "finance", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "report.pdf", results[0].Name)
	assert.Equal(t, domain.MediaKindDocument, results[0].Kind)
}

func TestSearchCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, upload(adminID, "Q3 numbers #finance"))

	f.bot.handleMessage(ctx, command(adminID, "/search finance"))
	assert.Contains(t, f.api.lastText(t), "report.pdf")

	f.bot.handleMessage(ctx, command(adminID, "/search nothingburger"))
	assert.Contains(t, f.api.lastText(t), "No files found")

	snapshot, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot.TotalSearches)
}

func TestDeleteFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, upload(adminID, "#finance"))
	results, err := f.catalog.Search(ctx, "finance", 0)
	require.NoError(t, err)
	fileID := results[0].ID

	f.bot.handleMessage(ctx, command(adminID, "/deletefile "+fileID))
	assert.Contains(t, f.api.lastText(t), "Are you sure")

	token := f.api.lastKeyboardToken(t)
	f.bot.handleCallback(ctx, callback(adminID, callbackData(token, choiceAccept)))
	assert.Contains(t, f.api.lastText(t), "has been deleted")

	stored, err := f.catalog.Find(ctx, fileID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// A duplicate tap on the same button changes nothing and stays silent.
	sendsBefore := len(f.api.texts())
	f.bot.handleCallback(ctx, callback(adminID, callbackData(token, choiceAccept)))
	assert.Equal(t, sendsBefore, len(f.api.texts()))
}

func TestDeleteRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, upload(adminID, "#keepme"))
	results, err := f.catalog.Search(ctx, "keepme", 0)
	require.NoError(t, err)
	fileID := results[0].ID

	f.bot.handleMessage(ctx, command(adminID, "/deletefile "+fileID))
	token := f.api.lastKeyboardToken(t)

	f.bot.handleCallback(ctx, callback(adminID, callbackData(token, choiceReject)))
	assert.Contains(t, f.api.lastText(t), "cancelled")

	stored, err := f.catalog.Find(ctx, fileID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestDownloadFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, upload(adminID, "#dl"))
	results, err := f.catalog.Search(ctx, "dl", 0)
	require.NoError(t, err)
	fileID := results[0].ID

	f.bot.handleMessage(ctx, command(adminID, "/info "+fileID))
	assert.Contains(t, f.api.lastText(t), "File Information")

	token := f.api.lastKeyboardToken(t)
	f.bot.handleCallback(ctx, callback(adminID, callbackData(token, choiceAccept)))
	assert.Contains(t, f.api.lastText(t), "sent successfully")

	stored, err := f.catalog.Find(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.DownloadCount)

	snapshot, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.TotalDownloads)
}

func TestDownloadDeliveryFailureKeepsCounters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, upload(adminID, "#big"))
	results, err := f.catalog.Search(ctx, "big", 0)
	require.NoError(t, err)
	fileID := results[0].ID

	f.bot.handleMessage(ctx, command(adminID, "/info "+fileID))
	token := f.api.lastKeyboardToken(t)

	f.api.failMedia = true
	f.bot.handleCallback(ctx, callback(adminID, callbackData(token, choiceAccept)))
	assert.Contains(t, f.api.lastText(t), "Error sending file")

	// The counters were committed before delivery was attempted and record
	// the attempt; the failed send does not roll them back.
	stored, err := f.catalog.Find(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.DownloadCount)

	snapshot, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snapshot.TotalDownloads)
}

func TestAdminCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, command(adminID, "/addadmin 200"))
	assert.Contains(t, f.api.lastText(t), "added as admin")

	// The new admin can operate immediately.
	f.bot.handleMessage(ctx, command(200, "/listadmins"))
	last := f.api.lastText(t)
	assert.Contains(t, last, "100 (Default)")
	assert.Contains(t, last, "200")

	f.bot.handleMessage(ctx, command(200, "/removeadmin 100"))
	assert.Contains(t, f.api.lastText(t), "Cannot remove default admins")

	f.bot.handleMessage(ctx, command(adminID, "/removeadmin 200"))
	assert.Contains(t, f.api.lastText(t), "removed from admins")

	f.bot.handleMessage(ctx, command(adminID, "/removeadmin 200"))
	assert.Contains(t, f.api.lastText(t), "not an admin")

	f.bot.handleMessage(ctx, command(adminID, "/addadmin abc"))
	assert.Contains(t, f.api.lastText(t), "numeric user ID")
}

func TestTagCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.bot.handleMessage(ctx, upload(adminID, ""))
	f.bot.handleMessage(ctx, command(adminID, "/search report"))
	results, err := f.catalog.Search(ctx, "report", 0)
	require.NoError(t, err)
	fileID := results[0].ID

	f.bot.handleMessage(ctx, command(adminID, "/addtag "+fileID+" Finance"))
	assert.Contains(t, f.api.lastText(t), "added to file")

	f.bot.handleMessage(ctx, command(adminID, "/addtag "+fileID+" FINANCE"))
	assert.Contains(t, f.api.lastText(t), "already exists")

	f.bot.handleMessage(ctx, command(adminID, "/removetag "+fileID+" finance"))
	assert.Contains(t, f.api.lastText(t), "removed from file")

	f.bot.handleMessage(ctx, command(adminID, "/removetag "+fileID+" finance"))
	assert.Contains(t, f.api.lastText(t), "does not exist")

	f.bot.handleMessage(ctx, command(adminID, "/addtag missing x"))
	assert.Contains(t, f.api.lastText(t), "No file found")
}

func TestParseCallbackData(t *testing.T) {
	token, choice, ok := parseCallbackData("cfm:abc123:yes")
	require.True(t, ok)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, confirm.ChoiceAccept, choice)

	_, choice, ok = parseCallbackData("cfm:abc123:no")
	require.True(t, ok)
	assert.Equal(t, confirm.ChoiceReject, choice)

	_, _, ok = parseCallbackData("delete_yes_abc123")
	assert.False(t, ok)

	_, _, ok = parseCallbackData("cfm:abc123:maybe")
	assert.False(t, ok)

	// The payload is built from the coordinator's own choice constants, so
	// the wire format cannot drift from its contract.
	token, choice, ok = parseCallbackData(callbackData("tok", string(confirm.ChoiceAccept)))
	require.True(t, ok)
	assert.Equal(t, "tok", token)
	assert.Equal(t, confirm.ChoiceAccept, choice)

	_, choice, ok = parseCallbackData(callbackData("tok", string(confirm.ChoiceReject)))
	require.True(t, ok)
	assert.Equal(t, confirm.ChoiceReject, choice)
}
