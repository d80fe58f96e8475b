// Package main provides localization for the gopcodec CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":    "入力",
		"Codec":    "コーデック設定",
		"Output":   "出力先",
		"Playback": "再生",
		"Debug":    "デバッグ",

		// Root command
		"Encode and decode frame sequences with a GOP-based block codec": "GOPベースのブロックコーデックでフレーム列をエンコード・デコード",
		"YAML configuration file":                                        "YAML設定ファイル",
		"Log level (debug, info, warn, error)":                           "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                                        "ログ出力をすべて抑制",

		// Encode command
		"Encode an image directory or a synthetic sequence":           "画像ディレクトリまたは合成フレーム列をエンコード",
		"Directory of PNG/JPEG frames (synthetic frames when omitted)": "PNG/JPEGフレームのディレクトリ（省略時は合成フレーム）",
		"Number of synthetic frames":                                   "合成フレーム数",
		"Frame width (0 = size of the first image)":                    "フレーム幅（0 = 最初の画像のサイズ）",
		"Frame height (0 = size of the first image)":                   "フレーム高さ（0 = 最初の画像のサイズ）",
		"Channels per pixel (1 or 3)":                                  "ピクセルあたりのチャンネル数（1 または 3）",
		"Macroblock size in pixels":                                    "マクロブロックのサイズ（ピクセル）",
		"Motion search range in pixels":                                "動き探索範囲（ピクセル）",
		"Compression quality (0-100, higher is better)":                "圧縮品質（0-100、高いほど高品質）",
		"Frames per group of pictures":                                 "GOPあたりのフレーム数",
		"Every n-th frame in a GOP is a B-frame (0 = none)":            "GOP内のn番目ごとのフレームをBフレームにする（0 = なし）",
		"Frame rate recorded in the metadata":                          "メタデータに記録するフレームレート",
		"Parallel P/B-frame workers (0 = one per CPU)":                 "P/Bフレームの並列ワーカー数（0 = CPUごとに1つ）",
		"Bitstream output path":                                        "ビットストリームの出力パス",
		"Metadata sidecar path (.zst compresses it)":                   "メタデータの出力パス（.zst で圧縮）",
		"Also write the stream as an MP4 file":                         "ストリームをMP4ファイルとしても書き出す",
		"Output execution summary to file (Markdown format)":           "実行サマリーをファイルに出力（Markdown形式）",
		"Enable debug output":                                          "デバッグ出力を有効化",
		"Directory for debug output":                                   "デバッグ出力ディレクトリ",

		// Decode command
		"Decode a stored stream and export frames as images":         "保存されたストリームをデコードし、フレームを画像として書き出す",
		"Bitstream path":                                             "ビットストリームのパス",
		"Metadata sidecar path":                                      "メタデータのパス",
		"Read the stream from an MP4 file instead of the bitstream":  "ビットストリームの代わりにMP4ファイルから読み込む",
		"Playback mode (normal, fast-forward, reverse)":              "再生モード (normal, fast-forward, reverse)",
		"Comma-separated frame numbers to decode":                    "デコードするフレーム番号（カンマ区切り）",
		"Skip corrupt frames instead of failing":                     "破損したフレームをエラーにせずスキップ",
		"Directory for exported frames":                              "書き出したフレームのディレクトリ",
		"Exported image format (png, jpg)":                           "書き出す画像形式 (png, jpg)",
		"JPEG quality for exported frames":                           "書き出すフレームのJPEG品質",

		// Inspect command
		"Print a summary and the frame table of a stored stream": "保存されたストリームのサマリーとフレーム一覧を表示",
		"List every frame record":                                "すべてのフレームレコードを一覧表示",
		"Metadata path argument is required":                     "メタデータのパスを指定してください",
		"Type":                                                   "種別",
		"Reference":                                              "参照",
		"Bits":                                                   "ビット数",
		"Frames shown in fast-forward":                           "早送りで表示されるフレーム数",

		// Summary
		"Encode Summary":    "エンコードサマリー",
		"Generated":         "生成日時",
		"Generated by":      "生成:",
		"Item":              "項目",
		"Value":             "値",
		"Stream":            "ストリーム",
		"Stream ID":         "ストリームID",
		"Resolution":        "解像度",
		"Channels":          "チャンネル数",
		"Frame Rate":        "フレームレート",
		"Settings":          "設定",
		"Block Size":        "ブロックサイズ",
		"Search Range":      "探索範囲",
		"Quality":           "品質",
		"GOP Size":          "GOPサイズ",
		"B-frame Interval":  "Bフレーム間隔",
		"Frames":            "フレーム",
		"Frame Count":       "フレーム数",
		"I-frames":          "Iフレーム",
		"P-frames":          "Pフレーム",
		"B-frames":          "Bフレーム",
		"Size and Quality":  "サイズと品質",
		"Raw Size":          "非圧縮サイズ",
		"Packed Size":       "圧縮サイズ",
		"Payload Bits":      "ペイロードビット数",
		"MP4 Size":          "MP4サイズ",
		"Compression Ratio": "圧縮率",
		"Lossless":          "ロスレス",
		"N/A":               "なし",
		"Files":             "ファイル",
	})
}
