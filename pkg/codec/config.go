// Package codec encodes frame sequences into a packed bitstream with
// metadata and decodes them back.
package codec

import (
	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/macroblock"
)

// Config holds the encoder parameters.
type Config struct {
	BlockSize      int
	SearchRange    int
	Quality        int
	GOPSize        int
	BFrameInterval int
	FrameRate      float64
	// Workers bounds the P/B-frame worker pool. Zero or less uses one
	// worker per CPU.
	Workers int
}

// DefaultConfig returns the default encoder parameters.
func DefaultConfig() Config {
	return Config{
		BlockSize:      16,
		SearchRange:    8,
		Quality:        90,
		GOPSize:        10,
		BFrameInterval: 2,
		FrameRate:      10.0,
	}
}

// Validate reports the first invalid parameter as a ConfigError.
func (c Config) Validate() error {
	switch {
	case c.BlockSize < 1 || c.BlockSize > macroblock.MaxSize:
		return codecerr.Config("block_size", "must be in [1,%d], got %d", macroblock.MaxSize, c.BlockSize)
	case c.SearchRange < 0:
		return codecerr.Config("search_range", "must be >= 0, got %d", c.SearchRange)
	case c.Quality < 0 || c.Quality > 100:
		return codecerr.Config("quality", "must be in [0,100], got %d", c.Quality)
	case c.GOPSize < 1:
		return codecerr.Config("gop_size", "must be >= 1, got %d", c.GOPSize)
	case c.BFrameInterval < 0:
		return codecerr.Config("b_frame_interval", "must be >= 0, got %d", c.BFrameInterval)
	case c.FrameRate <= 0:
		return codecerr.Config("frame_rate", "must be > 0, got %g", c.FrameRate)
	}
	return nil
}

func (c Config) streamInfo(width, height, channels int) bitstream.StreamInfo {
	return bitstream.StreamInfo{
		Resolution:     bitstream.Resolution{Width: width, Height: height},
		Channels:       channels,
		BlockSize:      c.BlockSize,
		SearchRange:    c.SearchRange,
		FrameRate:      c.FrameRate,
		Quality:        c.Quality,
		GOPSize:        c.GOPSize,
		BFrameInterval: c.BFrameInterval,
	}
}
