package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/audio"
)

// Audio serves the Web Audio subset: the engine's context wrapper, gain
// and buffer source nodes and its PlaybackPositionNode worklet.
var Audio = Group{Name: "audio", Define: defineAudio}

func audioContext(a Args, i int) (*audio.Context, error) {
	return As[*audio.Context](a.Val(i), "AudioContext")
}

func defineAudio(c *Catalog) {
	c.Catch("__wbg_new_audiocontext", Sig(Handle), func(_ context.Context, env *Env, _ Args) (any, error) {
		return audio.NewContext(env.Loop, env.Audio...), nil
	})
	c.Catch("__wbg_new_gainnode", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		ac, err := audioContext(args, 0)
		if err != nil {
			return nil, err
		}
		return ac.NewGain()
	})
	c.Func("__wbg_new_playbackpositionnode", Sig(Handle, Ref), func(_ context.Context, _ *Env, args Args) (any, error) {
		ac, err := audioContext(args, 0)
		if err != nil {
			return nil, err
		}
		return ac.NewPlaybackPosition()
	})
	c.Catch("__wbg_createGain", Sig(Handle, Ref), send("createGain"))
	c.Catch("__wbg_createBufferSource", Sig(Handle, Ref), send("createBufferSource"))
	c.Catch("__wbg_decodeAudioData", Sig(Handle, Ref, Ref), send("decodeAudioData"))
	for _, m := range []string{"resume", "suspend"} {
		c.Catch("__wbg_"+m, Sig(Handle, Ref), send(m))
	}
	c.Method("AudioContext", "__wbg_close", Sig(Handle, Ref), true, send("close"))

	c.getter("__wbg_destination", "destination", Handle, false)
	c.getter("__wbg_context", "context", Handle, false)
	c.numeric("__wbg_currentTime", "currentTime")
	c.numeric("__wbg_sampleRate", "sampleRate")
	c.getter("__wbg_state", "state", RetStr, false)

	c.Catch("__wbg_connect", Sig(Handle, Ref, Ref), send("connect"))
	c.Catch("__wbg_disconnect", Sig(Void, Ref), send("disconnect"))
	c.Catch("__wbg_disconnect", Sig(Void, Ref, Ref), send("disconnect"))

	c.getter("__wbg_gain", "gain", Handle, false)
	c.getter("__wbg_playbackRate", "playbackRate", Handle, false)
	c.getter("__wbg_value", "value", RetF32, false)
	c.getter("__wbg_value", "value", RetF64, false)
	c.Func("__wbg_setvalue", Sig(Void, Ref, F32), func(_ context.Context, _ *Env, args Args) (any, error) {
		p, err := As[*audio.Param](args.Val(0), "AudioParam")
		if err != nil {
			return nil, err
		}
		p.SetValue(args.F32(1))
		return nil, nil
	})

	c.setter("__wbg_setbuffer", "buffer", Ref)
	c.setter("__wbg_setloop", "loop", Bool)
	c.setter("__wbg_setonended", "onended", Ref)
	c.Func("__wbg_start", Sig(Void, Ref, F64, F64), send("start"))
	c.Catch("__wbg_start", Sig(Void, Ref, F64), send("start"))
	c.Catch("__wbg_start", Sig(Void, Ref), send("start"))
	c.Func("__wbg_stop", Sig(Void, Ref), send("stop"))
	c.Catch("__wbg_stop", Sig(Void, Ref, F64), send("stop"))
}
