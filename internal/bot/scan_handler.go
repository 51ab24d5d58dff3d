package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-product-scanner/internal/camera"
	"github.com/raine/telegram-product-scanner/internal/scanner"
	"github.com/rs/zerolog/log"
)

// detectedTextPreviewLen caps the detected text shown above the results.
const detectedTextPreviewLen = 300

// ScanHandler drives a user's scanner session from chat messages and
// inline keyboard presses.
type ScanHandler struct {
	tg         BotAPI
	downloader *ImageDownloader
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(tg BotAPI, downloader *ImageDownloader) *ScanHandler {
	return &ScanHandler{tg: tg, downloader: downloader}
}

// HandleScanCommand opens the scanner, or reminds the user what to do next
// when it is already open.
func (h *ScanHandler) HandleScanCommand(ctx context.Context, session *UserSession) {
	st := session.scanner.State()
	switch st.State {
	case scanner.StateClosed:
		if err := session.scanner.Open(ctx); err != nil {
			session.replyWithError(err)
			return
		}
		session.reply(MsgScanPrompt)
	case scanner.StateIdle:
		session.reply(MsgScanPrompt)
	default:
		session.replyWithKeyboard(formatReplyText(MsgRetakeFirst), actionKeyboard(st))
	}
}

// HandlePhoto captures a photo sent by the user. A closed scanner is opened
// implicitly; a photo arriving while an image is already held is rejected.
func (h *ScanHandler) HandlePhoto(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if session.scanner.State().State == scanner.StateClosed {
		if err := session.scanner.Open(ctx); err != nil {
			session.replyWithError(err)
			return
		}
	}

	st := session.scanner.State()
	if st.State != scanner.StateIdle {
		session.replyWithKeyboard(formatReplyText(MsgRetakeFirst), actionKeyboard(st))
		return
	}

	photo := largestPhoto(message.Photo)
	data, mimeType, err := h.downloader.DownloadFromTelegramFileID(ctx, h.tg.GetFileDirectURL, photo.FileID)
	if err != nil {
		log.Error().Err(err).Str("fileID", photo.FileID).Msg("failed to download photo")
		session.reply(MsgPhotoDownloadFailed)
		return
	}

	if err := session.feed.Push(camera.Frame{Data: data, MIMEType: mimeType}); err != nil {
		session.replyWithError(err)
		return
	}
	if err := session.scanner.Capture(ctx); err != nil {
		var devErr *scanner.DeviceError
		if errors.As(err, &devErr) {
			log.Error().Err(err).Int64("userId", session.userId).Msg("capture failed")
			session.reply(MsgCameraFailed, escapeMarkdown(devErr.Error()))
			return
		}
		session.replyWithError(err)
		return
	}

	session.replyWithKeyboard(formatReplyText(MsgPhotoCaptured), actionKeyboard(session.scanner.State()))
}

// HandleCallback routes scan:* and tab:* button presses.
func (h *ScanHandler) HandleCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	action, arg, _ := strings.Cut(query.Data, ":")
	switch {
	case action == "scan" && arg == "analyze":
		h.startAnalysis(session)
	case action == "scan" && arg == "retake":
		h.HandleRetake(ctx, session)
	case action == "scan" && arg == "close":
		h.HandleClose(session)
	case action == "tab":
		h.HandleTab(session, arg)
	default:
		log.Warn().Str("data", query.Data).Msg("unknown scan callback")
	}
}

// startAnalysis runs the analysis in the background. The result comes back
// to the session worker as an analysis_complete message.
func (h *ScanHandler) startAnalysis(session *UserSession) {
	st := session.scanner.State()
	switch {
	case st.State == scanner.StateClosed:
		session.reply(MsgScannerNotOpen)
		return
	case st.Loading:
		session.reply(MsgAnalysisInProgress)
		return
	case st.Image.IsZero():
		session.reply(MsgNoImage)
		return
	}

	session.editPanel(formatReplyText(MsgAnalyzing), retakeCloseKeyboard())

	session.analyses.Add(1)
	go func() {
		defer session.analyses.Done()

		typingCtx, cancelTyping := context.WithCancel(session.ctx)
		var typing sync.WaitGroup
		typing.Add(1)
		go func() {
			defer typing.Done()
			session.startTypingLoop(typingCtx)
		}()

		res, err := session.scanner.Analyze(session.ctx)
		cancelTyping()
		typing.Wait()

		session.Send(SessionMessage{
			Type:     "analysis_complete",
			Ctx:      session.ctx,
			Analysis: &AnalysisOutcome{Result: res, Err: err},
		})
	}()
}

// HandleAnalysisComplete renders a finished analysis into the panel message.
func (h *ScanHandler) HandleAnalysisComplete(session *UserSession, outcome *AnalysisOutcome) {
	if outcome == nil {
		return
	}

	switch {
	case errors.Is(outcome.Err, scanner.ErrSuperseded):
		log.Debug().Int64("userId", session.userId).Msg("analysis superseded, not rendering")
		return
	case errors.Is(outcome.Err, scanner.ErrAnalysisInFlight):
		session.reply(MsgAnalysisInProgress)
		return
	case errors.Is(outcome.Err, scanner.ErrNoImage):
		session.reply(MsgNoImage)
		return
	case errors.Is(outcome.Err, scanner.ErrSessionClosed):
		return
	case outcome.Err != nil:
		session.replyWithError(outcome.Err)
		return
	}

	if outcome.Result.Failed() {
		log.Warn().Err(outcome.Result.Err).Int64("userId", session.userId).Msg("product analysis failed")
	}

	st := session.scanner.State()
	if !st.HasResults() {
		return
	}
	session.editPanel(renderResults(st), resultsKeyboard(st.ActiveTab))
}

// HandleTab switches the displayed tab of the results panel.
func (h *ScanHandler) HandleTab(session *UserSession, name string) {
	tab, err := scanner.ParseTab(name)
	if err != nil {
		log.Warn().Err(err).Msg("invalid tab callback")
		return
	}
	if err := session.scanner.SelectTab(tab); err != nil {
		session.reply(MsgNoResults)
		return
	}
	session.editPanel(renderResults(session.scanner.State()), resultsKeyboard(tab))
}

// HandleRetake discards the captured image and waits for a new photo.
func (h *ScanHandler) HandleRetake(ctx context.Context, session *UserSession) {
	err := session.scanner.Retake(ctx)
	switch {
	case err == nil:
		session.clearPanel()
		session.reply(MsgRetakePrompt)
	case errors.Is(err, scanner.ErrSessionClosed):
		session.reply(MsgScannerNotOpen)
	case errors.Is(err, scanner.ErrInvalidTransition):
		session.reply(MsgScanPrompt)
	default:
		session.clearPanel()
		session.replyWithError(err)
	}
}

// HandleClose closes the scanner and removes the panel buttons.
func (h *ScanHandler) HandleClose(session *UserSession) {
	session.scanner.Close()
	session.clearPanel()
	session.reply(MsgScannerClosed)
}

// largestPhoto picks the highest resolution version of a Telegram photo.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, p := range sizes[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

// renderResults formats the active tab of a finished analysis as Markdown.
func renderResults(st scanner.SessionState) string {
	var b strings.Builder

	if st.Err != nil {
		b.WriteString(formatReplyText(MsgResultWarning, scanner.ErrorNotice))
	} else {
		if st.Recognition.GuessedName != "" {
			b.WriteString(formatReplyText(MsgResultProduct, escapeMarkdown(st.Recognition.GuessedName)))
			b.WriteString("\n\n")
		}
		text := strings.TrimSpace(st.Recognition.RawText)
		if text == "" {
			text = "-"
		}
		b.WriteString(formatReplyText(MsgResultDetectedText, escapeMarkdown(truncateRunes(text, detectedTextPreviewLen))))
	}

	content := st.Analysis.Content(st.ActiveTab)
	b.WriteString("\n\n*")
	b.WriteString(content.Tab.Title())
	b.WriteString("*\n")
	switch {
	case content.Empty:
		b.WriteString("_" + escapeMarkdown(content.Items[0]) + "_")
	case content.Tab == scanner.TabEnvironment:
		b.WriteString(escapeMarkdown(strings.Join(content.Items, "\n")))
	default:
		for i, item := range content.Items {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("• " + escapeMarkdown(item))
		}
	}

	return b.String()
}

func actionKeyboard(st scanner.SessionState) tgbotapi.InlineKeyboardMarkup {
	switch {
	case st.State == scanner.StateDisplaying:
		return resultsKeyboard(st.ActiveTab)
	case st.State == scanner.StateCaptured:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(BtnAnalyze, "scan:analyze"),
			),
			retakeCloseRow(),
		)
	default:
		return retakeCloseKeyboard()
	}
}

func resultsKeyboard(active scanner.Tab) tgbotapi.InlineKeyboardMarkup {
	tabs := make([]tgbotapi.InlineKeyboardButton, 0, len(scanner.Tabs))
	for _, tab := range scanner.Tabs {
		label := tab.Title()
		if tab == active {
			label = formatReplyText(BtnActiveTab, label)
		}
		tabs = append(tabs, tgbotapi.NewInlineKeyboardButtonData(label, "tab:"+string(tab)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tabs, retakeCloseRow())
}

func retakeCloseKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(retakeCloseRow())
}

func retakeCloseRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnRetake, "scan:retake"),
		tgbotapi.NewInlineKeyboardButtonData(BtnClose, "scan:close"),
	)
}
