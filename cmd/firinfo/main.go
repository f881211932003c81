// Command firinfo designs a windowed-sinc FIR filter and prints its taps
// and frequency response.
//
// Usage:
//
//	firinfo [flags]
//
// The response table lists the FFT magnitude at evenly spaced
// frequencies. With -probe the same frequencies are measured by running
// sine tones through a streaming filter and reading the output level with
// a Goertzel detector.
//
// Examples:
//
//	firinfo -bw 1000 -taps 63
//	firinfo -center 4000 -bw 500 -taps 255 -window kaiser -beta 10
//	firinfo -bw 2000 -normalize -probe -rows 8
//	firinfo -cpu
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath/cpu"

	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir/design"
	"github.com/cwbudde/algo-firstream/dsp/signal"
	"github.com/cwbudde/algo-firstream/dsp/spectrum"
	"github.com/cwbudde/algo-firstream/dsp/window"
)

type options struct {
	params    design.Params
	window    string
	beta      float64
	normalize bool
	fftSize   int
	rows      int
	showTaps  bool
	probe     bool
	frameSize int
}

func main() {
	var o options
	flag.Float64Var(&o.params.CenterHz, "center", 0, "centre frequency in Hz (0 = low-pass, fs/2 = high-pass)")
	flag.Float64Var(&o.params.BandwidthHz, "bw", 1000, "bandwidth in Hz")
	flag.IntVar(&o.params.Taps, "taps", 101, "number of taps")
	flag.Float64Var(&o.params.SampleRate, "fs", 44100, "sample rate in Hz")
	flag.StringVar(&o.window, "window", "hamming", "window: rectangular, hann, hamming, blackman, kaiser")
	flag.Float64Var(&o.beta, "beta", window.DefaultKaiserBeta, "kaiser beta")
	flag.BoolVar(&o.normalize, "normalize", false, "scale to unity gain in the passband")
	flag.IntVar(&o.fftSize, "fft", 0, "FFT size for the response (0 = automatic)")
	flag.IntVar(&o.rows, "rows", 16, "rows in the response table")
	flag.BoolVar(&o.showTaps, "coeffs", false, "print the taps")
	flag.BoolVar(&o.probe, "probe", false, "measure the response with sine tones through a stream")
	flag.IntVar(&o.frameSize, "frame", 512, "frame size for -probe")
	showCPU := flag.Bool("cpu", false, "print detected CPU features and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: firinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Designs a windowed-sinc FIR filter and prints its response.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  firinfo -bw 1000 -taps 63\n")
		fmt.Fprintf(os.Stderr, "  firinfo -center 4000 -bw 500 -taps 255 -window kaiser -beta 10\n")
		fmt.Fprintf(os.Stderr, "  firinfo -bw 2000 -normalize -probe -rows 8\n")
		fmt.Fprintf(os.Stderr, "  firinfo -cpu\n")
	}
	flag.Parse()

	if *showCPU {
		printCPU(os.Stdout, cpu.DetectFeatures())
		return
	}

	if err := run(os.Stdout, o); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, o options) error {
	wt, err := window.Parse(o.window)
	if err != nil {
		return err
	}
	opts := []design.Option{design.WithWindow(wt), design.WithKaiserBeta(o.beta)}
	if o.normalize {
		opts = append(opts, design.WithNormalize())
	}

	taps, err := design.Design(o.params, opts...)
	if err != nil {
		return err
	}

	fftSize := o.fftSize
	if fftSize == 0 {
		fftSize = spectrum.NextFFTSize(len(taps), 4096)
	}
	resp, err := spectrum.FrequencyResponse(taps, fftSize)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s, %d taps, %s window, fs %g Hz\n",
		o.params.Kind(), len(taps), wt, o.params.SampleRate)
	peak, mag := resp.Peak()
	fmt.Fprintf(w, "peak %.2f dB at %.1f Hz, gain at %.1f Hz %.2f dB\n\n",
		spectrum.ToDB(mag), resp.BinFrequency(peak, o.params.SampleRate),
		o.params.PassbandHz(), fir.MagnitudeDB(taps, o.params.PassbandHz(), o.params.SampleRate))

	if o.showTaps {
		if err := printTaps(w, taps); err != nil {
			return err
		}
	}

	var probes []probeResult
	if o.probe {
		probes, err = probeResponse(taps, o, resp.FFTSize)
		if err != nil {
			return err
		}
	}

	return printResponse(w, resp, o, probes)
}

// tableBins picks rows bins spread evenly over 0..fftSize/2.
func tableBins(fftSize, rows int) []int {
	half := fftSize / 2
	rows = max(2, min(rows, half+1))
	bins := make([]int, rows)
	for i := range bins {
		bins[i] = int(math.Round(float64(i) * float64(half) / float64(rows-1)))
	}
	return bins
}

func printTaps(w io.Writer, taps []float32) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tap\tValue\n")
	fmt.Fprintf(tw, "---\t-----\n")
	for i, t := range taps {
		fmt.Fprintf(tw, "%d\t% .9f\n", i, t)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

type probeResult struct {
	hz       float64
	streamDB float64
	directDB float64
}

func printResponse(w io.Writer, resp *spectrum.Response, o options, probes []probeResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if o.probe {
		fmt.Fprintf(tw, "Freq [Hz]\tFFT [dB]\tProbe [Hz]\tStream [dB]\tDirect [dB]\tDelta [dB]\n")
		fmt.Fprintf(tw, "---------\t--------\t----------\t-----------\t-----------\t----------\n")
	} else {
		fmt.Fprintf(tw, "Freq [Hz]\tFFT [dB]\n")
		fmt.Fprintf(tw, "---------\t--------\n")
	}

	db := resp.MagnitudeDB()
	for i, bin := range tableBins(resp.FFTSize, o.rows) {
		freq := resp.BinFrequency(bin, o.params.SampleRate)
		if o.probe {
			p := probes[i]
			fmt.Fprintf(tw, "%.1f\t%.2f\t%.1f\t%.2f\t%.2f\t%.3f\n",
				freq, db[bin], p.hz, p.streamDB, p.directDB, p.streamDB-p.directDB)
			continue
		}
		fmt.Fprintf(tw, "%.1f\t%.2f\n", freq, db[bin])
	}
	return tw.Flush()
}

// probeResponse feeds a unit sine near every table frequency through a
// fresh stream and measures the steady-state output amplitude. Probe
// frequencies are snapped to a whole number of cycles over the measured
// frames so the Goertzel detector sits exactly on a bin.
func probeResponse(taps []float32, o options, fftSize int) ([]probeResult, error) {
	fs := o.params.SampleRate
	bins := tableBins(fftSize, o.rows)

	// Skip the start-up transient, then measure at least 100 ms.
	warm := (len(taps) + o.frameSize - 1) / o.frameSize
	measure := max(1, int(math.Ceil(fs/10/float64(o.frameSize))))
	span := measure * o.frameSize
	total := (warm + measure) * o.frameSize

	gen := signal.NewGenerator(core.WithSampleRate(fs), core.WithFrameSize(o.frameSize))
	out := make([]float32, o.frameSize)
	result := make([]probeResult, len(bins))

	for i, bin := range bins {
		freq := spectrum.BinFrequency(bin, fftSize, fs)
		cycles := core.Clamp(math.Round(freq*float64(span)/fs), 1, float64(span/2-1))
		probe := cycles * fs / float64(span)

		in, err := gen.Sine(probe, 1, total)
		if err != nil {
			return nil, err
		}
		stream, err := fir.NewStream(o.frameSize, taps)
		if err != nil {
			return nil, err
		}
		det, err := spectrum.NewGoertzel(probe, fs)
		if err != nil {
			return nil, err
		}

		for f := 0; f < warm+measure; f++ {
			if err := stream.ProcessTo(out, in[f*o.frameSize:(f+1)*o.frameSize]); err != nil {
				return nil, err
			}
			if f >= warm {
				det.ProcessBlock(out)
			}
		}

		result[i] = probeResult{
			hz:       probe,
			streamDB: spectrum.ToDB(det.Amplitude()),
			directDB: fir.MagnitudeDB(taps, probe, fs),
		}
	}

	return result, nil
}

func printCPU(w io.Writer, f cpu.Features) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Feature\tValue\n")
	fmt.Fprintf(tw, "-------\t-----\n")
	fmt.Fprintf(tw, "architecture\t%s\n", f.Architecture)
	fmt.Fprintf(tw, "sse2\t%t\n", f.HasSSE2)
	fmt.Fprintf(tw, "avx2\t%t\n", f.HasAVX2)
	fmt.Fprintf(tw, "neon\t%t\n", f.HasNEON)
	fmt.Fprintf(tw, "force generic\t%t\n", f.ForceGeneric)
	_ = tw.Flush()
}
