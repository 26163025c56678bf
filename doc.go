// Package vorbis provides a pure Go Vorbis audio decoder.
//
// The decoder works on raw Vorbis packets as extracted from a container
// such as Ogg; container demuxing and PCM output are left to the caller.
//
// # Basic Usage
//
// Feed the three header packets to a HeaderBuilder, build a Decoder, then
// decode audio packets in stream order:
//
//	var b vorbis.HeaderBuilder
//	if err := b.ReadIdentPacket(identPacket); err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.ReadCommentPacket(commentPacket); err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.ReadSetupPacket(setupPacket); err != nil {
//	    log.Fatal(err)
//	}
//	dec, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var pcm []float32
//	for _, packet := range audioPackets {
//	    samples, err := dec.Decode(packet)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    pcm = samples.Interleaved(pcm)
//	}
//
// The first Decode call returns an empty block: overlap-add needs two
// blocks of history before it can emit finished samples.
//
// # Supported Streams
//
// Floor type 1 and residue types 1 and 2 are supported, which covers
// streams produced by every known encoder. Floor type 0 and residue type 0
// parse cleanly at header time but fail with ErrUnsupportedFeature when an
// audio packet requires them.
//
// # Thread Safety
//
// Decoder instances are NOT safe for concurrent use: the overlap-add state
// mutates on every call. Distinct Decoder instances are independent.
package vorbis
