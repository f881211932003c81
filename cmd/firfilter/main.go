// Command firfilter runs an audio file, or a generated logarithmic sweep,
// through the streaming FIR filter frame by frame and writes the result
// as a mono 16-bit WAV file.
//
// Usage:
//
//	firfilter [flags] -out filtered.wav [input]
//
// Taps come from the configuration (explicit coefficients, a preset or a
// design section). Design flags given on the command line override the
// configured design.
//
// Examples:
//
//	firfilter -out low.wav -bw 500 -taps 255 music.wav
//	firfilter -config firstream.yaml -preset telephone -out tel.wav speech.mp3
//	firfilter -sweep 5 -center 2000 -bw 400 -normalize -out sweep.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir"
	"github.com/cwbudde/algo-firstream/dsp/signal"
	"github.com/cwbudde/algo-firstream/internal/audioio"
	"github.com/cwbudde/algo-firstream/internal/config"
	"github.com/cwbudde/algo-firstream/internal/logger"
	"github.com/cwbudde/algo-firstream/stats/frame"
)

type options struct {
	configPath string
	out        string
	in         string
	sweepSecs  float64
	sweepRate  float64
}

type summary struct {
	sampleRate int
	frameSecs  float64
	frames     int
	samples    int
	taps       int
	in, out    frame.Stats
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML config file")
	flag.StringVar(&o.out, "out", "", "output WAV file (required)")
	flag.Float64Var(&o.sweepSecs, "sweep", 0, "filter a generated log sweep of this many seconds instead of a file")
	flag.Float64Var(&o.sweepRate, "rate", 0, "sample rate for -sweep (0 = filter.sample_rate)")
	frame := flag.Int("frame", 0, "frame size in samples")
	preset := flag.String("preset", "", "filter preset name")
	center := flag.Float64("center", 0, "design centre frequency in Hz")
	bw := flag.Float64("bw", 0, "design bandwidth in Hz")
	taps := flag.Int("taps", 0, "design tap count")
	win := flag.String("window", "", "design window")
	normalize := flag.Bool("normalize", false, "scale the design to unity passband gain")
	level := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: firfilter [flags] -out filtered.wav [input]\n\n")
		fmt.Fprintf(os.Stderr, "Filters wav, aiff, mp3 or ogg audio through a streaming FIR filter.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  firfilter -out low.wav -bw 500 -taps 255 music.wav\n")
		fmt.Fprintf(os.Stderr, "  firfilter -config firstream.yaml -preset telephone -out tel.wav speech.mp3\n")
		fmt.Fprintf(os.Stderr, "  firfilter -sweep 5 -center 2000 -bw 400 -normalize -out sweep.wav\n")
	}
	flag.Parse()

	if o.out == "" || (flag.NArg() == 0 && o.sweepSecs <= 0) || flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	o.in = flag.Arg(0)

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Only flags given explicitly override the configuration.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "frame":
			cfg.Filter.FrameSize = *frame
		case "preset":
			cfg.Filter.Preset = *preset
			cfg.Filter.Coefficients = nil
		case "center":
			cfg.Filter.Design.CenterHz = *center
			cfg.Filter.Preset, cfg.Filter.Coefficients = "", nil
		case "bw":
			cfg.Filter.Design.BandwidthHz = *bw
			cfg.Filter.Preset, cfg.Filter.Coefficients = "", nil
		case "taps":
			cfg.Filter.Design.Taps = *taps
			cfg.Filter.Preset, cfg.Filter.Coefficients = "", nil
		case "window":
			cfg.Filter.Design.Window = *win
		case "normalize":
			cfg.Filter.Design.Normalize = *normalize
		case "log-level":
			cfg.Log.Level = *level
		}
	})

	log, err := logger.New(cfg.Log)
	if err != nil {
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	sum, err := run(o, cfg, log)
	if err != nil {
		log.Error("filter failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d frames of %.1f ms, %d samples at %d Hz, %d taps\n",
		o.out, sum.frames, sum.frameSecs*1000, sum.samples, sum.sampleRate, sum.taps)
	fmt.Printf("  input   peak %6.1f dB  rms %6.1f dB\n", sum.in.PeakDB(), sum.in.RMSDB())
	fmt.Printf("  output  peak %6.1f dB  rms %6.1f dB\n", sum.out.PeakDB(), sum.out.RMSDB())
}

func run(o options, cfg config.Config, log *zap.Logger) (summary, error) {
	src, err := openSource(o, cfg)
	if err != nil {
		return summary{}, err
	}
	defer src.Close()

	// Designs follow the input's sample rate.
	cfg.Filter.SampleRate = float64(src.SampleRate())

	var presets []config.Preset
	if cfg.PresetsFile != "" {
		if presets, err = config.LoadPresets(cfg.PresetsFile); err != nil {
			return summary{}, err
		}
	}
	taps, err := cfg.Filter.Taps(presets, log)
	if err != nil {
		return summary{}, err
	}

	out, err := os.Create(o.out)
	if err != nil {
		return summary{}, err
	}
	defer out.Close()

	sum, err := filter(src, out, cfg.Filter.FrameSize, taps, log)
	if err != nil {
		return sum, err
	}
	return sum, out.Close()
}

func openSource(o options, cfg config.Config) (audioio.Source, error) {
	if o.in != "" {
		return audioio.Decode(o.in)
	}

	rate := o.sweepRate
	if rate <= 0 {
		rate = cfg.Filter.SampleRate
	}
	gen := signal.NewGenerator(core.WithSampleRate(rate))
	nyquist := rate / 2
	sweep, err := gen.LogSweep(20, nyquist*0.95, 0.5, int(o.sweepSecs*rate))
	if err != nil {
		return nil, err
	}
	return &sliceSource{samples: sweep, sampleRate: int(rate)}, nil
}

// filter streams src through a fir.Stream into a WAV file on w. The last
// partial frame is zero-padded; only its valid samples are written.
func filter(src audioio.Source, w io.WriteSeeker, frameSize int, taps []float32, log *zap.Logger) (summary, error) {
	stream, err := fir.NewStream(frameSize, taps, fir.WithLogger(log))
	if err != nil {
		return summary{}, err
	}
	frames, err := audioio.NewFrameReader(src, frameSize)
	if err != nil {
		return summary{}, err
	}

	proc := core.ApplyProcessorOptions(
		core.WithSampleRate(float64(src.SampleRate())),
		core.WithFrameSize(frameSize),
	)
	sum := summary{
		sampleRate: src.SampleRate(),
		frameSecs:  proc.FrameDuration(),
		taps:       len(taps),
	}
	var inStats, outStats frame.Accumulator

	wav := audioio.NewWAVWriter(w, src.SampleRate())
	in := make([]float32, frameSize)
	out := make([]float32, frameSize)

	for {
		valid, err := frames.Next(in)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}

		if err := stream.ProcessTo(out, in); err != nil {
			return sum, err
		}
		if err := wav.Write(out[:valid]); err != nil {
			return sum, err
		}

		sum.frames++
		sum.samples += valid
		inStats.Update(in[:valid])
		outStats.Update(out[:valid])
	}
	sum.in, sum.out = inStats.Result(), outStats.Result()

	log.Info("filtered audio",
		zap.Int("frames", sum.frames),
		zap.Float64("frame_ms", sum.frameSecs*1000),
		zap.Int("samples", sum.samples),
		zap.Int("taps", sum.taps),
		zap.Float64("in_rms_db", sum.in.RMSDB()),
		zap.Float64("out_rms_db", sum.out.RMSDB()),
	)

	return sum, wav.Close()
}

type sliceSource struct {
	samples    []float32
	sampleRate int
	offset     int
}

func (s *sliceSource) SampleRate() int { return s.sampleRate }
func (s *sliceSource) Channels() int   { return 1 }
func (s *sliceSource) Close() error    { return nil }

func (s *sliceSource) ReadSamples(dst []float32) (int, error) {
	if s.offset >= len(s.samples) {
		return 0, io.EOF
	}
	n := copy(dst, s.samples[s.offset:])
	s.offset += n
	return n, nil
}
