package bot

import (
	"path/filepath"
	"strings"

	tele "gopkg.in/telebot.v3"
)

const defaultSuffix = ".ogg"

// AudioRef points at an audio payload living on the chat transport's file
// storage, valid for the duration of one request.
type AudioRef struct {
	FileID string
	Suffix string
}

// extractAudio pulls an audio reference out of an inbound message: voice
// notes, audio files, or documents with an audio/* MIME type. A nil return
// is the normal "no audio here" branch.
func extractAudio(msg *tele.Message) *AudioRef {
	if msg == nil {
		return nil
	}

	if msg.Voice != nil {
		return &AudioRef{FileID: msg.Voice.FileID, Suffix: defaultSuffix}
	}

	if msg.Audio != nil {
		return &AudioRef{FileID: msg.Audio.FileID, Suffix: suffixOf(msg.Audio.FileName)}
	}

	if msg.Document != nil && strings.HasPrefix(msg.Document.MIME, "audio/") {
		return &AudioRef{FileID: msg.Document.FileID, Suffix: suffixOf(msg.Document.FileName)}
	}

	return nil
}

func suffixOf(fileName string) string {
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	return defaultSuffix
}
