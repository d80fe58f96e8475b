package summarizer

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/user/gopcodec/pkg/mocks"
)

func testSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Stream:      StreamInfo{ID: "abc", Width: 64, Height: 48, Channels: 3, FrameRate: 10},
		Settings:    Settings{BlockSize: 16, SearchRange: 8, Quality: 90, GOPSize: 10, BFrameInterval: 2},
		Frames:      FrameInfo{Total: 10, Intra: 1, Predicted: 5, Bidirectional: 4},
		Size:        SizeInfo{RawBytes: 2 * 1024 * 1024, PackedBytes: 1024 * 1024, PayloadBits: 8388600, MP4Bytes: 2048},
		Quality:     QualityInfo{Measured: true, PSNR: 41.234},
		Files:       []string{"stream.bin", "stream.json"},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(testSummary())

	checks := []string{
		"# Encode Summary",
		"2024-01-15 10:30:00",
		"| Stream ID | abc |",
		"| Resolution | 64x48 |",
		"10.00 fps",
		"| GOP Size | 10 |",
		"| B-frames | 4 |",
		"| Raw Size | 2.00 MB |",
		"| Packed Size | 1.00 MB |",
		"| MP4 Size | 2.00 KB |",
		"2.00:1",
		"41.23 dB",
		"- `stream.json`",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_Format_Unmeasured(t *testing.T) {
	s := testSummary()
	s.Stream.ID = ""
	s.Size = SizeInfo{PackedBytes: 10, PayloadBits: 75}
	s.Quality = QualityInfo{}
	s.Files = nil

	result := NewMarkdownFormatter().Format(s)

	for _, absent := range []string{"Raw Size", "MP4 Size", "Compression Ratio", "## Files"} {
		if strings.Contains(result, absent) {
			t.Errorf("expected output NOT to contain %q", absent)
		}
	}
	if !strings.Contains(result, "| PSNR | N/A |") {
		t.Error("expected PSNR to be N/A")
	}
	if !strings.Contains(result, "| Stream ID | N/A |") {
		t.Error("expected stream id to be N/A")
	}
	if !strings.Contains(result, "| Packed Size | 10 B |") {
		t.Error("expected packed size in bytes")
	}
}

func TestMarkdownFormatter_Format_Lossless(t *testing.T) {
	s := testSummary()
	s.Quality.PSNR = math.Inf(1)
	if result := NewMarkdownFormatter().Format(s); !strings.Contains(result, "| PSNR | Lossless |") {
		t.Error("expected lossless PSNR")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Encode Summary": "エンコードサマリー",
			"Frame Count":    "フレーム数",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(testSummary())

	if !strings.Contains(result, "# エンコードサマリー") {
		t.Error("expected translated title")
	}
	if !strings.Contains(result, "| フレーム数 | 10 |") {
		t.Error("expected translated label")
	}
}

type fixedFormatter string

func (f fixedFormatter) Format(*Summary) string { return string(f) }

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(fixedFormatter("hello"), fs)

	if err := w.Write("out/summary.md", testSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, ok := fs.GetFile("out/summary.md")
	if !ok || string(data) != "hello" {
		t.Errorf("written content = %q", data)
	}
}
