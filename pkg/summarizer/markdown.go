package summarizer

import (
	"fmt"
	"math"
	"strings"
)

// MarkdownFormatter renders a Summary as Markdown tables.
type MarkdownFormatter struct {
	translate func(string) string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ Formatter = (*MarkdownFormatter)(nil)

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Encode Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	f.table(&b, t("Stream"), [][2]string{
		{t("Stream ID"), orNA(s.Stream.ID, t)},
		{t("Resolution"), fmt.Sprintf("%dx%d", s.Stream.Width, s.Stream.Height)},
		{t("Channels"), fmt.Sprintf("%d", s.Stream.Channels)},
		{t("Frame Rate"), fmt.Sprintf("%.2f fps", s.Stream.FrameRate)},
	})

	f.table(&b, t("Settings"), [][2]string{
		{t("Block Size"), fmt.Sprintf("%d", s.Settings.BlockSize)},
		{t("Search Range"), fmt.Sprintf("%d", s.Settings.SearchRange)},
		{t("Quality"), fmt.Sprintf("%d", s.Settings.Quality)},
		{t("GOP Size"), fmt.Sprintf("%d", s.Settings.GOPSize)},
		{t("B-frame Interval"), fmt.Sprintf("%d", s.Settings.BFrameInterval)},
	})

	f.table(&b, t("Frames"), [][2]string{
		{t("Frame Count"), fmt.Sprintf("%d", s.Frames.Total)},
		{t("I-frames"), fmt.Sprintf("%d", s.Frames.Intra)},
		{t("P-frames"), fmt.Sprintf("%d", s.Frames.Predicted)},
		{t("B-frames"), fmt.Sprintf("%d", s.Frames.Bidirectional)},
	})

	sizes := [][2]string{
		{t("Packed Size"), formatBytes(s.Size.PackedBytes)},
		{t("Payload Bits"), fmt.Sprintf("%d", s.Size.PayloadBits)},
	}
	if s.Size.RawBytes > 0 {
		sizes = append([][2]string{{t("Raw Size"), formatBytes(s.Size.RawBytes)}}, sizes...)
	}
	if s.Size.MP4Bytes > 0 {
		sizes = append(sizes, [2]string{t("MP4 Size"), formatBytes(s.Size.MP4Bytes)})
	}
	if r := s.Size.CompressionRatio(); r > 0 {
		sizes = append(sizes, [2]string{t("Compression Ratio"), fmt.Sprintf("%.2f:1", r)})
	}
	sizes = append(sizes, [2]string{t("PSNR"), formatPSNR(s.Quality, t)})
	f.table(&b, t("Size and Quality"), sizes)

	if len(s.Files) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Files"))
		for _, p := range s.Files {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n%s gopcodec\n", t("Generated by"))
	return b.String()
}

func (f *MarkdownFormatter) table(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func orNA(s string, t func(string) string) string {
	if s == "" {
		return t("N/A")
	}
	return s
}

func formatPSNR(q QualityInfo, t func(string) string) string {
	switch {
	case !q.Measured:
		return t("N/A")
	case math.IsInf(q.PSNR, 1):
		return t("Lossless")
	default:
		return fmt.Sprintf("%.2f dB", q.PSNR)
	}
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit:
		return fmt.Sprintf("%.2f MB", float64(n)/(unit*unit))
	case n >= unit:
		return fmt.Sprintf("%.2f KB", float64(n)/unit)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
