package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-filedrop/internal/app"
	"tg-filedrop/internal/config"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/transport"
)

const ownerID int64 = 7

type forward struct {
	to, from  int64
	messageID int
}

type fakeTransport struct {
	mu       sync.Mutex
	sent     []transport.Payload
	chats    []int64
	deleted  []int
	forwards []forward
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, p transport.Payload) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	f.chats = append(f.chats, chatID)
	return len(f.sent), nil
}

func (f *fakeTransport) Delete(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) Forward(_ context.Context, to, from int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards = append(f.forwards, forward{to: to, from: from, messageID: messageID})
	return nil
}

func (f *fakeTransport) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.sent {
		if p.Kind == models.MediaText {
			out = append(out, p.Text)
		}
	}
	return out
}

func newTestHandler(t *testing.T) (*Handler, *fakeTransport) {
	t.Helper()
	cfg := &config.Config{
		Bot: config.BotConfig{Token: "1:x", OwnerID: ownerID, UploadChannelID: -100500},
		Database: config.DatabaseConfig{
			Driver:   config.DriverSQLite,
			DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
			LogLevel: "ERROR",
		},
		Upload: config.UploadConfig{SessionIDLength: 12, MaxIDAttempts: 3},
	}

	tr := &fakeTransport{}
	a, err := app.New(context.Background(), cfg, tr, "drop_bot")
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return New(a, nil), tr
}

func privateMessage(from int64) telego.Message {
	return telego.Message{
		MessageID: 10,
		From:      &telego.User{ID: from, FirstName: "user"},
		Chat:      telego.Chat{ID: from, Type: telego.ChatTypePrivate},
	}
}

func TestTimerKeyboardLayout(t *testing.T) {
	kb := timerKeyboard()
	require.Len(t, kb.InlineKeyboard, 2)

	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, button := range row {
			data = append(data, button.CallbackData)
		}
	}
	assert.Equal(t, []string{"delete_5", "delete_60", "delete_1440", "delete_10080", "delete_0"}, data)
	assert.Equal(t, "1 week", kb.InlineKeyboard[1][0].Text)
}

func TestParseCallbacks(t *testing.T) {
	minutes, err := parseDeleteMinutes("delete_1440")
	require.NoError(t, err)
	assert.Equal(t, 1440, minutes)

	_, err = parseDeleteMinutes("delete_soon")
	require.Error(t, err)
	_, err = parseDeleteMinutes("protect_yes")
	require.Error(t, err)

	target, ok := parseMessageTarget("setmsg_help", cbSetMsgPrefix)
	require.True(t, ok)
	assert.Equal(t, models.MessageTypeHelp, target)

	target, ok = parseMessageTarget("setimg_start", cbSetImgPrefix)
	require.True(t, ok)
	assert.Equal(t, models.MessageTypeStart, target)

	_, ok = parseMessageTarget("setmsg_footer", cbSetMsgPrefix)
	assert.False(t, ok)
}

func TestDeliverUnknownSession(t *testing.T) {
	h, tr := newTestHandler(t)

	require.NoError(t, h.deliver(context.Background(), 99, 99, "doesnotexist"))
	assert.Equal(t, []string{models.T("delivery_not_found")}, tr.texts())
	assert.Equal(t, int64(1), h.Status().Snapshot().TotalDeliveries)
}

func TestUploadThenDeliverWithNotices(t *testing.T) {
	h, tr := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.app.Uploads.Start(ownerID))

	photo := privateMessage(ownerID)
	photo.Photo = []telego.PhotoSize{{FileID: "photo-small"}, {FileID: "photo-big"}}
	photo.Caption = "look"
	require.NoError(t, h.handleUploadFile(ctx, photo))

	doc := privateMessage(ownerID)
	doc.MessageID = 11
	doc.Document = &telego.Document{FileID: "doc-1"}
	require.NoError(t, h.handleUploadFile(ctx, doc))

	sticker := privateMessage(ownerID)
	sticker.Sticker = &telego.Sticker{FileID: "sticker"}
	require.NoError(t, h.handleUploadFile(ctx, sticker))

	assert.Equal(t, []string{
		models.T("upload_file_added", "Photo", 1),
		models.T("upload_file_added", "Document", 2),
		models.T("upload_unsupported"),
	}, tr.texts())
	assert.Equal(t, []forward{{to: -100500, from: ownerID, messageID: 10}, {to: -100500, from: ownerID, messageID: 11}}, tr.forwards)

	_, err := h.app.Uploads.FinishCollecting(ownerID)
	require.NoError(t, err)
	require.NoError(t, h.app.Uploads.SetProtection(ownerID, true))
	result, err := h.app.Uploads.SetDeleteTimer(ctx, ownerID, 60)
	require.NoError(t, err)

	tr.sent, tr.chats = nil, nil
	require.NoError(t, h.deliver(ctx, 99, 99, result.Session.SessionID))

	require.Len(t, tr.sent, 4)
	assert.Equal(t, models.T("delivery_starting", 2), tr.sent[0].Text)
	assert.Equal(t, transport.Payload{Kind: models.MediaPhoto, FileID: "photo-big", Text: "look", ProtectContent: true}, tr.sent[1])
	assert.Equal(t, transport.Payload{Kind: models.MediaDocument, FileID: "doc-1", ProtectContent: true}, tr.sent[2])
	assert.Equal(t, models.T("delivery_autodelete", "1 hour"), tr.sent[3].Text)
	assert.Equal(t, int64(1), h.app.Scheduler.Stats().Pending)
}

func TestCommittedFlowRemovesPromptsButKeepsLinkMessage(t *testing.T) {
	h, tr := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.app.Uploads.Start(ownerID))
	photo := privateMessage(ownerID)
	photo.Photo = []telego.PhotoSize{{FileID: "photo-1"}}
	require.NoError(t, h.handleUploadFile(ctx, photo))
	doc := privateMessage(ownerID)
	doc.Document = &telego.Document{FileID: "doc-1"}
	require.NoError(t, h.handleUploadFile(ctx, doc))

	_, err := h.app.Uploads.FinishCollecting(ownerID)
	require.NoError(t, err)
	require.NoError(t, h.replyTracked(ctx, ownerID, ownerID, "summary", protectKeyboard()))
	require.NoError(t, h.app.Uploads.SetProtection(ownerID, false))
	result, err := h.app.Uploads.SetDeleteTimer(ctx, ownerID, models.DeleteNever)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, result.UIMessageIDs)

	h.removeFlowMessages(ctx, ownerID, result.UIMessageIDs, 3)
	assert.Equal(t, []int{1, 2}, tr.deleted)
}

func TestSetMessageTextThroughPendingInput(t *testing.T) {
	h, tr := newTestHandler(t)

	msg := privateMessage(ownerID)
	msg.Text = "Hello <b>there</b>"
	require.NoError(t, h.handlePendingInput(context.Background(), msg, models.InputHelpText))

	help, err := h.app.Messages.Get(models.MessageTypeHelp)
	require.NoError(t, err)
	assert.Equal(t, "Hello <b>there</b>", help.Text)
	assert.Equal(t, []string{models.T("setmessage_done", "Help")}, tr.texts())

	require.NoError(t, h.sendStaticMessage(context.Background(), 99, models.MessageTypeHelp, nil))
	last := tr.sent[len(tr.sent)-1]
	assert.Equal(t, "Hello <b>there</b>", last.Text)
	assert.Equal(t, telego.ModeHTML, last.ParseMode)
}

func TestStaticMessageWithImageIsPhoto(t *testing.T) {
	h, tr := newTestHandler(t)
	require.NoError(t, h.app.Messages.SetImage(models.MessageTypeStart, "img-1"))

	require.NoError(t, h.sendStaticMessage(context.Background(), 99, models.MessageTypeStart, helpKeyboard()))

	require.Len(t, tr.sent, 1)
	assert.Equal(t, models.MediaPhoto, tr.sent[0].Kind)
	assert.Equal(t, "img-1", tr.sent[0].FileID)
	require.NotNil(t, tr.sent[0].ReplyMarkup)
	assert.Equal(t, cbHelp, tr.sent[0].ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestBroadcastReportsTotals(t *testing.T) {
	h, tr := newTestHandler(t)
	now := time.Now()
	for _, id := range []int64{ownerID, 100, 101} {
		require.NoError(t, h.app.Users.Upsert(&models.BotUser{ID: id}, now))
	}

	msg := privateMessage(ownerID)
	msg.Text = "announcement"
	require.NoError(t, h.handlePendingInput(context.Background(), msg, models.InputBroadcast))

	done := models.T("broadcast_done", 3, 0, 3)
	assert.Eventually(t, func() bool {
		texts := tr.texts()
		return len(texts) > 0 && texts[len(texts)-1] == done
	}, 2*time.Second, 10*time.Millisecond)

	texts := tr.texts()
	assert.Equal(t, models.T("broadcast_starting", 3), texts[0])
	assert.Equal(t, int64(1), h.Status().Snapshot().TotalBroadcasts)
}

func TestBroadcastRejectsUnsupportedContent(t *testing.T) {
	h, tr := newTestHandler(t)

	msg := privateMessage(ownerID)
	msg.Audio = &telego.Audio{FileID: "song"}
	require.NoError(t, h.handlePendingInput(context.Background(), msg, models.InputBroadcast))

	assert.Equal(t, []string{models.T("broadcast_unsupported")}, tr.texts())
}

func TestWaitForHandlers(t *testing.T) {
	h, _ := newTestHandler(t)

	release := make(chan struct{})
	go func() {
		_ = h.guard(func() error {
			<-release
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(h.semaphore) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, h.WaitForHandlers(20*time.Millisecond))

	close(release)
	assert.True(t, h.WaitForHandlers(time.Second))
}

func TestGuardCountsErrorsAndRecoversPanics(t *testing.T) {
	h, _ := newTestHandler(t)

	require.Error(t, h.guard(func() error { return fmt.Errorf("boom") }))
	require.NotPanics(t, func() { _ = h.guard(func() error { panic("bad update") }) })

	assert.Equal(t, int64(1), h.Status().Snapshot().TotalErrors)
	assert.Empty(t, h.semaphore)
}
