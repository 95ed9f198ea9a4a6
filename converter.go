package md2lms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-md2lms/internal/logging"
	"github.com/alnah/go-md2lms/internal/pipeline"
	"github.com/alnah/go-md2lms/internal/sanitize"
	"github.com/alnah/go-md2lms/internal/tagfilter"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
)

// Converter orchestrates the markdown-to-LMS-HTML pipeline.
// It holds no per-document state and is safe for concurrent use.
type Converter struct {
	cfg           converterConfig
	logger        *slog.Logger
	preprocessor  pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	decoder       *sanitize.Decoder
	normalizer    *sanitize.Normalizer
	filter        *tagfilter.Filter
	sanitizer     *sanitize.Sanitizer
}

// NewConverter creates a Converter with the built-in tables, replaced by
// whatever options are given. Returns ErrInvalidTables when a table breaks
// its invariants.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		logger:        logging.Discard(),
		preprocessor:  &pipeline.CommonMarkPreprocessor{},
		htmlConverter: pipeline.NewGoldmarkConverter(),
	}

	for _, opt := range opts {
		opt(c)
	}

	var err error
	if c.filter, err = tagfilter.New(c.filterConfig()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}

	if c.cfg.encodings == nil {
		c.decoder = sanitize.DefaultDecoder()
	} else if c.decoder, err = sanitize.NewDecoder(c.cfg.encodings...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}

	if c.cfg.characters == nil {
		c.normalizer = sanitize.DefaultNormalizer()
	} else {
		table := make([]sanitize.Replacement, 0, len(c.cfg.characters))
		for _, r := range c.cfg.characters {
			table = append(table, sanitize.Replacement(r))
		}
		if c.normalizer, err = sanitize.NewNormalizer(table); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTables, err)
		}
	}

	sanitizerOpts := []sanitize.SanitizerOption{sanitize.WithLogger(c.logger)}
	if c.cfg.binaryExts != nil {
		sanitizerOpts = append(sanitizerOpts, sanitize.WithBinaryExtensions(c.cfg.binaryExts...))
	}
	if c.cfg.htmlExts != nil {
		sanitizerOpts = append(sanitizerOpts, sanitize.WithHTMLExtensions(c.cfg.htmlExts...))
	}
	c.sanitizer = sanitize.NewSanitizer(c.decoder, c.normalizer, sanitizerOpts...)

	c.logger.Debug("converter ready",
		"tags", c.filter.Tags().Names(),
		"encodings", c.decoder.Names(),
		"passes", c.filter.PassNames())
	return c, nil
}

// filterConfig merges the options over the built-in filter tables.
func (c *Converter) filterConfig() tagfilter.Config {
	cfg := tagfilter.DefaultConfig()
	if c.cfg.tags != nil {
		cfg.Tags = tagfilter.TagSet(c.cfg.tags)
		cfg.Replacements = tagfilter.Replacements{}
	}
	if c.cfg.replacements != nil {
		cfg.Replacements = tagfilter.Replacements(c.cfg.replacements)
	}
	if c.cfg.discard != nil {
		cfg.Discard = c.cfg.discard
	}
	return cfg
}

// Convert decodes, renders, filters and normalizes one document.
// Empty or whitespace-only input yields empty HTML.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	text, enc := c.decoder.Decode(input.Markdown)
	c.logger.Debug("decoded", "name", input.Name, "encoding", enc, "bytes", len(input.Markdown))

	if strings.TrimSpace(text) == "" {
		return &Result{Name: input.Name, HTML: []byte{}, Encoding: enc}, nil
	}

	mdContent := c.preprocessor.PreprocessMarkdown(ctx, text)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	rendered, err := c.htmlConverter.ToHTML(ctx, mdContent)
	if err != nil {
		return nil, fmt.Errorf("converting to HTML: %w", err)
	}
	renderedAt := time.Now()

	filtered := c.filter.Filter(rendered)
	htmlContent := c.normalizer.Normalize(filtered, true)

	c.logger.Log(ctx, logging.LevelTrace, "converted",
		"name", input.Name,
		"render", renderedAt.Sub(start),
		"filter", time.Since(renderedAt),
		"html_bytes", len(htmlContent))

	return &Result{Name: input.Name, HTML: []byte(htmlContent), Encoding: enc}, nil
}

// ConvertString converts markdown text that is already decoded.
func (c *Converter) ConvertString(ctx context.Context, markdown string) (string, error) {
	result, err := c.Convert(ctx, Input{Markdown: []byte(markdown)})
	if err != nil {
		return "", err
	}
	return string(result.HTML), nil
}

// NormalizeDirectory rewrites every text file under dir as normalized UTF-8,
// using the converter's encodings and character table. It returns the number
// of files processed; per-file failures are joined into the error and do not
// stop the walk.
func (c *Converter) NormalizeDirectory(ctx context.Context, dir string) (int, error) {
	return c.sanitizer.NormalizeDirectory(ctx, dir)
}

// Encodings returns the decoding candidates in trial order.
func (c *Converter) Encodings() []string {
	return c.decoder.Names()
}

var (
	defaultFilter     = sync.OnceValue(tagfilter.Default)
	defaultDecoder    = sync.OnceValue(sanitize.DefaultDecoder)
	defaultNormalizer = sync.OnceValue(sanitize.DefaultNormalizer)
)

// Filter reduces html to the built-in allowed tag set.
func Filter(html string) string {
	return defaultFilter().Filter(html)
}

// Decode returns b as text with the name of the built-in candidate encoding
// that accepted it.
func Decode(b []byte) (text, encoding string) {
	return defaultDecoder().Decode(b)
}

// Normalize applies the built-in character table to text. With isHTML, only
// text between tags is rewritten.
func Normalize(text string, isHTML bool) string {
	return defaultNormalizer().Normalize(text, isHTML)
}
