package codec

import (
	"context"
	"errors"

	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codecerr"
	"github.com/user/gopcodec/pkg/frame"
	"github.com/user/gopcodec/pkg/gop"
	"github.com/user/gopcodec/pkg/macroblock"
	"github.com/user/gopcodec/pkg/ports"
	"github.com/user/gopcodec/pkg/predictor"
)

// DecodeOptions controls error handling during decode.
type DecodeOptions struct {
	// SkipCorrupt drops frames that fail with a DecodeError or ShapeError,
	// together with every frame that depends on them, instead of aborting.
	SkipCorrupt bool
}

// DecodedFrame is a reconstructed frame and its number.
type DecodedFrame struct {
	Number int
	Type   gop.FrameType
	Frame  frame.Frame
}

// Decoder reconstructs frames from a packed bitstream and its metadata.
type Decoder struct {
	opts   DecodeOptions
	logger ports.Logger
}

// NewDecoder creates a decoder.
func NewDecoder(opts DecodeOptions, logger ports.Logger) *Decoder {
	return &Decoder{opts: opts, logger: logger.WithComponent("decoder")}
}

// Decode reconstructs every frame in order. With SkipCorrupt, skipped
// frames are left out of the result.
func (d *Decoder) Decode(ctx context.Context, buf []byte, md bitstream.Metadata) ([]frame.Frame, error) {
	decoded, err := d.decode(ctx, buf, md, nil)
	if err != nil {
		return nil, err
	}
	frames := make([]frame.Frame, len(decoded))
	for i, df := range decoded {
		frames[i] = df.Frame
	}
	return frames, nil
}

// DecodeNumbered is like Decode but keeps frame numbers and types, so
// callers can tell which frames were skipped.
func (d *Decoder) DecodeNumbered(ctx context.Context, buf []byte, md bitstream.Metadata) ([]DecodedFrame, error) {
	return d.decode(ctx, buf, md, nil)
}

// DecodeFrames decodes only the requested frame numbers plus the I-frames
// they reference, and returns them in the requested order. A number may be
// requested more than once.
func (d *Decoder) DecodeFrames(ctx context.Context, buf []byte, md bitstream.Metadata, numbers []int) ([]DecodedFrame, error) {
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > len(md.Frames) {
			return nil, codecerr.Config("frames", "frame %d outside [1,%d]", n, len(md.Frames))
		}
		want[n] = true
	}
	decoded, err := d.decode(ctx, buf, md, want)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]DecodedFrame, len(decoded))
	for _, df := range decoded {
		byNumber[df.Number] = df
	}
	out := make([]DecodedFrame, 0, len(numbers))
	for _, n := range numbers {
		if df, ok := byNumber[n]; ok {
			out = append(out, df)
		}
	}
	return out, nil
}

// decode walks the stream in order. When want is non-nil only the wanted
// frames are returned and only they and their references are decoded.
func (d *Decoder) decode(ctx context.Context, buf []byte, md bitstream.Metadata, want map[int]bool) ([]DecodedFrame, error) {
	if len(md.Frames) == 0 {
		if len(buf) != 0 {
			return nil, codecerr.Format("decode", "%d bytes but no frame records", len(buf))
		}
		return []DecodedFrame{}, nil
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	compressed, err := bitstream.Unpack(buf, md)
	if err != nil {
		return nil, err
	}
	pred, err := predictor.New(md.BlockSize, md.Quality)
	if err != nil {
		return nil, err
	}

	needed := want
	if want != nil {
		needed = make(map[int]bool, len(want))
		for n := range want {
			needed[n] = true
			if cf := compressed[n-1]; cf.Type != gop.Intra {
				needed[cf.Reference] = true
			}
		}
	}

	pw, ph := macroblock.PaddedSize(md.Resolution.Width, md.Resolution.Height, md.BlockSize)
	refs := make(map[int]frame.Frame)
	var out []DecodedFrame
	for _, cf := range compressed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if needed != nil && !needed[cf.Number] {
			continue
		}
		// Only the current GOP's I-frame can be referenced from here on.
		if cf.Type == gop.Intra {
			clear(refs)
		}

		padded, err := d.decodeFrame(pred, cf, refs, pw, ph, md.Channels)
		if err == nil {
			var f frame.Frame
			f, err = macroblock.Unpad(padded, md.Resolution.Width, md.Resolution.Height)
			if err == nil {
				if cf.Type == gop.Intra {
					refs[cf.Number] = padded
				}
				if want == nil || want[cf.Number] {
					out = append(out, DecodedFrame{Number: cf.Number, Type: cf.Type, Frame: f})
				}
				continue
			}
		}

		err = codecerr.WithFrame(err, cf.Number)
		if !d.opts.SkipCorrupt || !skippable(err) {
			return nil, err
		}
		d.logger.Warn("Skipping corrupt frame %d: %v", cf.Number, err)
	}
	return out, nil
}

func (d *Decoder) decodeFrame(pred predictor.Predictor, cf bitstream.CompressedFrame, refs map[int]frame.Frame, w, h, channels int) (frame.Frame, error) {
	enc := predictor.Encoded{Payload: cf.Payload, Codes: cf.Codes}
	switch cf.Type {
	case gop.Intra:
		return pred.DecodeIntra(enc, w, h, channels)
	case gop.Predicted, gop.Bidirectional:
		ref, ok := refs[cf.Reference]
		if !ok {
			return frame.Frame{}, codecerr.Decode("decode inter", "reference frame %d was not decoded", cf.Reference)
		}
		return pred.DecodeInter(enc, ref, cf.Vectors)
	default:
		return frame.Frame{}, codecerr.Decode("decode", "unknown frame type %q", cf.Type)
	}
}

func skippable(err error) bool {
	var decErr *codecerr.DecodeError
	var shapeErr *codecerr.ShapeError
	return errors.As(err, &decErr) || errors.As(err, &shapeErr)
}
