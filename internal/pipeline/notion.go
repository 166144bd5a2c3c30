package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"
)

// notionTextLimit is Notion's cap on a single rich-text block.
const notionTextLimit = 2000

// notionOptionLimit is Notion's cap on a select option name.
const notionOptionLimit = 100

// NotionClipperConfig holds configuration for Notion integration
type NotionClipperConfig struct {
	Token      string // Notion Integration Token
	PageID     string // Parent page ID where DB will be created (optional)
	DatabaseID string // Existing database ID (optional)

	HTTPClient *http.Client // optional, mainly for tests
}

// NotionClipper writes ranked items to a Notion database
type NotionClipper struct {
	client *notionapi.Client
	dbID   notionapi.DatabaseID
	logger *zap.Logger
}

// NewNotionClipper creates a new Notion clipper
func NewNotionClipper(cfg NotionClipperConfig, logger *zap.Logger) (*NotionClipper, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts []notionapi.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, notionapi.WithHTTPClient(cfg.HTTPClient))
	}
	nc := &NotionClipper{
		client: notionapi.NewClient(notionapi.Token(cfg.Token), opts...),
		logger: logger.Named("notion"),
	}
	if cfg.DatabaseID != "" {
		nc.dbID = notionapi.DatabaseID(cfg.DatabaseID)
	}
	return nc, nil
}

// DatabaseID returns the database items are clipped to.
func (nc *NotionClipper) DatabaseID() string { return string(nc.dbID) }

// CreateDatabase creates a new Notion database for the briefing under pageID
func (nc *NotionClipper) CreateDatabase(ctx context.Context, pageID, title string) error {
	if pageID == "" {
		return fmt.Errorf("notion page ID is required to create a new database")
	}

	db, err := nc.client.Database.Create(ctx, databaseCreateRequest(pageID, title))
	if err != nil {
		return fmt.Errorf("failed to create Notion database: %w", err)
	}
	nc.dbID = notionapi.DatabaseID(db.ID)
	nc.logger.Info("notion database created", zap.String("database_id", string(db.ID)))
	return nil
}

func databaseCreateRequest(pageID, title string) *notionapi.DatabaseCreateRequest {
	return &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(pageID),
		},
		Title: []notionapi.RichText{
			{Text: &notionapi.Text{Content: title}},
		},
		Properties: notionapi.PropertyConfigs{
			"Title":     notionapi.TitlePropertyConfig{Type: notionapi.PropertyConfigTypeTitle},
			"URL":       notionapi.URLPropertyConfig{Type: notionapi.PropertyConfigTypeURL},
			"Source":    notionapi.SelectPropertyConfig{Type: notionapi.PropertyConfigTypeSelect},
			"Category":  notionapi.SelectPropertyConfig{Type: notionapi.PropertyConfigTypeSelect},
			"Kind":      notionapi.SelectPropertyConfig{Type: notionapi.PropertyConfigTypeSelect},
			"Authors":   notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
			"Abstract":  notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
			"Published": notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
			"Score": notionapi.NumberPropertyConfig{
				Type:   notionapi.PropertyConfigTypeNumber,
				Number: notionapi.NumberFormat{Format: notionapi.FormatNumber},
			},
		},
	}
}

// ClipItem clips one item. kind is "Paper" or "Post".
func (nc *NotionClipper) ClipItem(ctx context.Context, it Item, kind string) error {
	if nc.dbID == "" {
		return fmt.Errorf("database ID not set")
	}
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: nc.dbID,
		},
		Properties: itemProperties(it, kind),
	}
	if _, err := nc.client.Page.Create(ctx, req); err != nil {
		return fmt.Errorf("failed to clip %q: %w", it.Title, err)
	}
	return nil
}

// ClipDigest clips every paper and post of d. Failures are logged and
// counted; the number of clipped items is returned.
func (nc *NotionClipper) ClipDigest(ctx context.Context, d *Digest) (clipped int, failed int) {
	clip := func(items []Item, kind string) {
		for _, it := range items {
			if err := nc.ClipItem(ctx, it, kind); err != nil {
				nc.logger.Warn("clip failed", zap.String("url", it.URL), zap.Error(err))
				failed++
				continue
			}
			clipped++
		}
	}
	clip(d.Papers, "Paper")
	clip(d.Posts, "Post")
	return clipped, failed
}

func itemProperties(it Item, kind string) notionapi.Properties {
	props := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(it.Title),
		},
		"Kind": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: selectOption(kind),
		},
		"Category": notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: selectOption(it.Category),
		},
		"Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(it.Score),
		},
	}
	if it.URL != "" {
		props["URL"] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: it.URL}
	}
	if it.Source != "" {
		props["Source"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: selectOption(it.Source),
		}
	}
	for name, v := range map[string]string{"Authors": it.Authors, "Abstract": it.Abstract, "Published": it.Published} {
		if v == "" {
			continue
		}
		props[name] = notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(v)}
	}
	return props
}

// selectOption drops commas, which Notion rejects in option names.
func selectOption(name string) notionapi.Option {
	name = normalizeWhitespace(strings.ReplaceAll(name, ",", " "))
	return notionapi.Option{Name: clipRunes(name, notionOptionLimit)}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: truncateString(s, notionTextLimit)}}}
}
