// Package bridge adapts a [fir.Stream] to hosts that speak in status codes,
// float64 coefficient lists and explicitly released output buffers.
//
// Every buffer returned by [Filter.AcquireOutput] must be handed back with
// [Filter.ReleaseOutput] exactly once; [Filter.Outstanding] reports buffers
// still held. A repeated or foreign release is rejected with
// [StatusInvalidArgument].
//
// [fir.Stream]: github.com/cwbudde/algo-firstream/dsp/filter/fir.Stream
package bridge
