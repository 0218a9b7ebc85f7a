// Package bot wires the Telegram transport to the ingestion pipeline:
// command handlers, the project-selection keyboard, and the audio handler.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"voicetask/internal/todoist"
	"voicetask/internal/transcribe"
)

type Deps struct {
	Token            string
	Worker           *transcribe.Worker
	Todoist          *todoist.Client
	Projects         *todoist.ProjectCache
	Sessions         *Sessions
	DefaultProjectID string
	ModelKey         string
	Logger           *zap.Logger
}

type Bot struct {
	tb       *tele.Bot
	handler  *Handler
	projects *todoist.ProjectCache
	sessions *Sessions
	todoist  *todoist.Client
	logger   *zap.Logger
}

var btnProject = tele.Btn{Unique: "proj"}

func New(deps Deps) (*Bot, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  deps.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	handler := &Handler{
		Resolver: &ProjectResolver{
			Sessions:         deps.Sessions,
			DefaultProjectID: deps.DefaultProjectID,
			Directory:        deps.Projects,
		},
		Logger:   logger,
		ModelKey: deps.ModelKey,
		downloadFn: func(_ context.Context, ref AudioRef, dest string) error {
			return tb.Download(&tele.File{FileID: ref.FileID}, dest)
		},
		transcribeFn: deps.Worker.Transcribe,
		submitFn:     deps.Todoist.CreateTask,
	}

	b := &Bot{
		tb:       tb,
		handler:  handler,
		projects: deps.Projects,
		sessions: deps.Sessions,
		todoist:  deps.Todoist,
		logger:   logger,
	}
	b.route()
	return b, nil
}

func (b *Bot) route() {
	b.tb.Handle("/start", func(c tele.Context) error {
		return c.Send(greetingNotice)
	})
	b.tb.Handle("/projects", b.handleProjects)
	b.tb.Handle(&btnProject, b.handleProjectSelection)

	// telebot dispatches each update on its own goroutine, so blocking on
	// the inference worker here does not stall the long poll.
	b.tb.Handle(tele.OnVoice, b.handleAudio)
	b.tb.Handle(tele.OnAudio, b.handleAudio)
	b.tb.Handle(tele.OnDocument, b.handleAudio)
}

func (b *Bot) Start() {
	b.logger.Info("bot started", zap.String("username", b.tb.Me.Username))
	b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
}

func (b *Bot) handleAudio(c tele.Context) error {
	ref := extractAudio(c.Message())
	if ref == nil {
		return c.Send(noAudioNotice)
	}

	waiting, err := c.Bot().Send(c.Chat(), workingNotice)
	if err != nil {
		return err
	}

	report := b.handler.Process(context.Background(), c.Sender().ID, ref)
	_, err = c.Bot().Edit(waiting, renderReport(report), tele.ModeHTML)
	return err
}

func (b *Bot) handleProjects(c tele.Context) error {
	if b.todoist.Token == "" {
		return c.Send("To use Todoist projects, configure TODOIST_API_TOKEN.")
	}

	// A trailing "!" on the command forces a refresh past the TTL.
	force := strings.HasSuffix(strings.TrimSpace(c.Message().Text), "!")
	projects := b.projects.Get(context.Background(), force)
	if len(projects) == 0 {
		return c.Send("I can't fetch the Todoist projects right now. Try again later.")
	}

	menu := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, menu.Row(menu.Data(p.Name, btnProject.Unique, p.ID)))
	}
	menu.Inline(rows...)

	return c.Send(b.currentSelectionText(c.Sender().ID)+"\n\nPick the Todoist project:", menu)
}

func (b *Bot) handleProjectSelection(c tele.Context) error {
	if err := c.Respond(); err != nil {
		return err
	}

	projectID := strings.TrimSpace(c.Data())
	if projectID == "" {
		return nil
	}

	name := ""
	for _, p := range b.projects.Get(context.Background(), false) {
		if p.ID == projectID {
			name = p.Name
			break
		}
	}

	b.sessions.Select(c.Sender().ID, Selection{ProjectID: projectID, ProjectName: name})

	if name != "" {
		return c.Edit(fmt.Sprintf("Todoist project updated: %s (%s).", name, projectID))
	}
	return c.Edit(fmt.Sprintf("Todoist project updated: %s.", projectID))
}

func (b *Bot) currentSelectionText(userID int64) string {
	sel, ok := b.sessions.Get(userID)
	switch {
	case ok && sel.ProjectID != "" && sel.ProjectName != "":
		return fmt.Sprintf("Current project: %s (%s)", sel.ProjectName, sel.ProjectID)
	case ok && sel.ProjectID != "":
		return fmt.Sprintf("Current project: %s", sel.ProjectID)
	default:
		return "No project set. The configured default will be used."
	}
}
