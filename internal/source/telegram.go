package source

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tg"

	"tg_export/internal/model"
)

// API is the slice of the Telegram RPC surface the adapter needs.
// *tg.Client satisfies it.
type API interface {
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
}

const defaultPageSize = 100

// Telegram pages through the authenticated account's saved messages
// ("self" peer). The handle must already be authorized; authentication is
// the caller's concern.
type Telegram struct {
	api      API
	pageSize int

	buf      []model.Message
	offsetID int
	done     bool
}

// NewTelegram creates a saved-messages source over an authorized API handle.
func NewTelegram(api API) *Telegram {
	return &Telegram{api: api, pageSize: defaultPageSize}
}

// Next returns the next message, newest first.
func (t *Telegram) Next(ctx context.Context) (model.Message, bool, error) {
	for len(t.buf) == 0 && !t.done {
		if err := t.fetchPage(ctx); err != nil {
			return model.Message{}, false, err
		}
	}
	if len(t.buf) == 0 {
		return model.Message{}, false, nil
	}
	msg := t.buf[0]
	t.buf = t.buf[1:]
	return msg, true, nil
}

func (t *Telegram) fetchPage(ctx context.Context) error {
	res, err := t.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     &tg.InputPeerSelf{},
		OffsetID: t.offsetID,
		Limit:    t.pageSize,
	})
	if err != nil {
		return fmt.Errorf("fetch history page: %w", err)
	}

	var raw []tg.MessageClass
	switch page := res.(type) {
	case *tg.MessagesMessages:
		raw = page.Messages
	case *tg.MessagesMessagesSlice:
		raw = page.Messages
	case *tg.MessagesChannelMessages:
		raw = page.Messages
	default:
		t.done = true
		return nil
	}

	if len(raw) == 0 {
		t.done = true
		return nil
	}

	for _, mc := range raw {
		switch m := mc.(type) {
		case *tg.Message:
			t.offsetID = m.ID
			t.buf = append(t.buf, mapMessage(m))
		case *tg.MessageService:
			// Service messages (pin notices etc.) carry no exportable
			// content but still advance the paging cursor.
			t.offsetID = m.ID
		case *tg.MessageEmpty:
			t.offsetID = m.ID
		}
	}

	if len(raw) < t.pageSize {
		t.done = true
	}
	return nil
}

func mapMessage(m *tg.Message) model.Message {
	text := m.Message
	return model.Message{
		ID:        int64(m.ID),
		Timestamp: time.Unix(int64(m.Date), 0).UTC(),
		Text:      text,
		Kind:      mediaKind(m),
		Hashtags:  model.ExtractHashtags(text),
		URLs:      model.ExtractURLs(text),
	}
}

func mediaKind(m *tg.Message) model.MediaKind {
	switch media := m.Media.(type) {
	case nil, *tg.MessageMediaEmpty, *tg.MessageMediaWebPage:
		if m.Message != "" {
			return model.KindText
		}
		return model.KindOther
	case *tg.MessageMediaPhoto:
		return model.KindPhoto
	case *tg.MessageMediaDocument:
		return documentKind(media)
	case *tg.MessageMediaGeo, *tg.MessageMediaVenue, *tg.MessageMediaGeoLive:
		return model.KindLocation
	case *tg.MessageMediaContact:
		return model.KindContact
	case *tg.MessageMediaPoll:
		return model.KindPoll
	default:
		return model.KindOther
	}
}

// documentKind refines a generic document by its attributes: voice notes and
// music are audio documents, animations and stickers are video/image ones.
func documentKind(media *tg.MessageMediaDocument) model.MediaKind {
	doc, ok := media.Document.(*tg.Document)
	if !ok {
		return model.KindDocument
	}
	kind := model.KindDocument
	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeAudio:
			if a.Voice {
				return model.KindVoice
			}
			kind = model.KindAudio
		case *tg.DocumentAttributeSticker:
			return model.KindSticker
		case *tg.DocumentAttributeAnimated:
			return model.KindGIF
		case *tg.DocumentAttributeVideo:
			kind = model.KindVideo
		}
	}
	return kind
}
