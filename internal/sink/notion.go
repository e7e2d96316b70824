package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"github.com/sethvargo/go-retry"

	"tg_export/internal/model"
)

// Notion database property names. The destination database must carry
// matching properties.
const (
	propName      = "Name"
	propType      = "Type"
	propDate      = "Date"
	propMessageID = "Message ID"
	propTags      = "Tags"
	propURL       = "URL"
)

const (
	maxTags        = 5    // Notion multi-select kept small on purpose
	blockChunk     = 2000 // Notion limit per rich text block
	defaultRetries = 4    // 5 attempts total
	defaultBackoff = time.Second
)

// pageCreator is the slice of the Notion client used for writes.
// notionapi.Client.Page satisfies it.
type pageCreator interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// databaseGetter validates the destination on Open.
// notionapi.Client.Database satisfies it.
type databaseGetter interface {
	Get(ctx context.Context, id notionapi.DatabaseID) (*notionapi.Database, error)
}

// Notion exports messages as pages of a Notion database. Rate-limited
// writes are retried with exponential backoff before counting as failed.
type Notion struct {
	pages      pageCreator
	databases  databaseGetter
	databaseID string

	maxRetries uint64
	baseDelay  time.Duration
}

// NewNotion creates a Notion sink over an authenticated client.
func NewNotion(client *notionapi.Client, databaseID string) *Notion {
	return &Notion{
		pages:      client.Page,
		databases:  client.Database,
		databaseID: databaseID,
		maxRetries: defaultRetries,
		baseDelay:  defaultBackoff,
	}
}

// Name returns "notion".
func (n *Notion) Name() string { return "notion" }

// Open verifies the destination database exists and is reachable.
func (n *Notion) Open(ctx context.Context) error {
	if _, err := n.databases.Get(ctx, notionapi.DatabaseID(n.databaseID)); err != nil {
		return fmt.Errorf("notion database %s unreachable: %w", n.databaseID, err)
	}
	return nil
}

// Write creates one page for the message, retrying rate limits.
func (n *Notion) Write(ctx context.Context, msg model.Message) (Outcome, error) {
	req := n.pageRequest(msg)

	backoff := retry.WithMaxRetries(n.maxRetries, retry.NewExponential(n.baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := n.pages.Create(ctx, req)
		if err == nil {
			return nil
		}
		if classify(err) == ErrRateLimited {
			return retry.RetryableError(fmt.Errorf("%w: %w", ErrRateLimited, err))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create page for message %d: %w", msg.ID, err)
	}
	return Written, nil
}

// Close is a no-op; the Notion client holds no per-run resource.
func (n *Notion) Close() error { return nil }

// classify maps a Notion API error to the retryable sentinel when the
// remote signalled throttling or a transient server fault.
func classify(err error) error {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Status == http.StatusTooManyRequests || apiErr.Code == "rate_limited" {
		return ErrRateLimited
	}
	if apiErr.Status >= http.StatusInternalServerError {
		return ErrRateLimited
	}
	return err
}

func (n *Notion) pageRequest(msg model.Message) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		propName: notionapi.TitleProperty{
			Title: richText(msg.Title()),
		},
		propType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(msg.Kind)},
		},
		propDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: dateOf(msg.Timestamp)},
		},
		propMessageID: notionapi.NumberProperty{
			Number: float64(msg.ID),
		},
	}

	if len(msg.Hashtags) > 0 {
		tags := msg.Hashtags
		if len(tags) > maxTags {
			tags = tags[:maxTags]
		}
		options := make([]notionapi.Option, 0, len(tags))
		for _, tag := range tags {
			options = append(options, notionapi.Option{Name: tag})
		}
		props[propTags] = notionapi.MultiSelectProperty{MultiSelect: options}
	}

	if len(msg.URLs) > 0 {
		props[propURL] = notionapi.URLProperty{URL: msg.URLs[0]}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(n.databaseID),
		},
		Properties: props,
		Children:   pageBody(msg),
	}
}

// pageBody renders the full message as content blocks: body paragraphs
// (chunked to the per-block limit), a media note, and a links section.
func pageBody(msg model.Message) []notionapi.Block {
	var blocks []notionapi.Block

	for _, chunk := range chunkRunes(msg.Text, blockChunk) {
		blocks = append(blocks, paragraph(chunk, ""))
	}

	if msg.Kind != model.KindText && msg.Kind != model.KindOther {
		note := fmt.Sprintf("%s attachment", msg.Kind)
		if msg.MediaURL != "" {
			note += ": " + msg.MediaURL
		}
		blocks = append(blocks, paragraph(note, ""))
	}

	if len(msg.URLs) > 0 {
		blocks = append(blocks, notionapi.Heading3Block{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeHeading3,
			},
			Heading3: notionapi.Heading{RichText: richText("Links")},
		})
		for _, u := range msg.URLs {
			blocks = append(blocks, paragraph(u, u))
		}
	}
	return blocks
}

func paragraph(text, link string) notionapi.Block {
	rt := notionapi.RichText{Text: &notionapi.Text{Content: text}}
	if link != "" {
		rt.Text.Link = &notionapi.Link{Url: link}
	}
	return notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{RichText: []notionapi.RichText{rt}},
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: s}}}
}

func dateOf(t time.Time) *notionapi.Date {
	d := notionapi.Date(t)
	return &d
}

func chunkRunes(s string, size int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var chunks []string
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return append(chunks, string(runes))
}
