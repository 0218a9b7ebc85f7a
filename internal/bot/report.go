package bot

import (
	"fmt"
	"html"
	"strings"
)

const (
	failureNotice  = "Something went wrong during transcription. Please try again later."
	noAudioNotice  = "I can't find an audio file in this message."
	noTextNotice   = "(no text recognized)"
	workingNotice  = "Got it! Downloading the audio and starting the transcription..."
	greetingNotice = "Hi! Send me a voice message or an audio file and I'll try to transcribe it.\n" +
		"Use /projects to pick the default Todoist project."
)

// renderReport formats the final user-visible message: completion header,
// transcript, submission status, resolved project label. HTML parse mode.
func renderReport(r Report) string {
	if r.Failed {
		return failureNotice
	}
	if r.NoAudio {
		return noAudioNotice
	}

	var b strings.Builder
	b.WriteString("<b>Transcription completed!</b>\n\n")
	if r.Transcript != "" {
		b.WriteString(html.EscapeString(r.Transcript))
	} else {
		b.WriteString(noTextNotice)
	}
	if r.Status != "" {
		fmt.Fprintf(&b, "\n\n<code>%s</code>", html.EscapeString(r.Status))
	}
	if r.ProjectName != "" {
		fmt.Fprintf(&b, "\n\n<code>Project: %s</code>", html.EscapeString(r.ProjectName))
	} else if r.ProjectID != "" {
		fmt.Fprintf(&b, "\n\n<code>Project ID: %s</code>", html.EscapeString(r.ProjectID))
	}
	return b.String()
}
