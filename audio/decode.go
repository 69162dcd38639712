package audio

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// Decoder turns encoded audio into PCM. Implementations run off the loop.
type Decoder interface {
	Decode(ctx context.Context, data []byte, sampleRate float64) (*Buffer, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, data []byte, sampleRate float64) (*Buffer, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(ctx context.Context, data []byte, sampleRate float64) (*Buffer, error) {
	return f(ctx, data, sampleRate)
}

// DecodeAudioData decodes an ArrayBuffer or byte view. The input is copied
// before decoding starts. Without a decoder, or when decoding fails, the
// promise rejects with EncodingError.
func (c *Context) DecodeAudioData(ctx context.Context, data any) *promise.Promise {
	var raw []byte
	switch d := data.(type) {
	case *jsvalue.ArrayBuffer:
		raw = append([]byte(nil), d.Data...)
	case *jsvalue.Uint8Array:
		raw = append([]byte(nil), d.Bytes()...)
	default:
		return promise.RejectedWith(c.loop, jsvalue.NewTypeError("Failed to execute 'decodeAudioData' on 'BaseAudioContext': parameter 1 is not of type 'ArrayBuffer'."))
	}
	if c.decoder == nil {
		return promise.RejectedWith(c.loop, jsvalue.NewError(jsvalue.EncodingError, "Unable to decode audio data"))
	}

	p, res := promise.WithResolvers(c.loop)
	release := c.loop.Hold()
	rate := c.SampleRate
	go func() {
		buf, err := c.decoder.Decode(ctx, raw, rate)
		c.loop.Post(func() {
			defer release()
			if err != nil {
				c.log.Debug("decode failed", zap.Int("bytes", len(raw)), zap.Error(err))
				e := jsvalue.NewError(jsvalue.EncodingError, "Unable to decode audio data")
				e.Cause = err
				res.Reject(e)
				return
			}
			res.Resolve(buf)
		})
	}()
	return p
}
