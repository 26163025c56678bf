// Command vorbisdec decodes an Ogg Vorbis file to a WAV file with 16-bit
// integer samples.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/diamondburned/oggreader"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	vorbis "github.com/llehouerou/go-vorbis"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("vorbisdec: ")

	out := flag.String("o", "out.wav", "output WAV file")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: vorbisdec [-o out.wav] input.ogg")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *out); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	sink := new(packetSink)
	if err := oggreader.DecodeBuffered(sink, in); err != nil {
		if sink.err != nil {
			return fmt.Errorf("%s: %w", inPath, sink.err)
		}
		return fmt.Errorf("%s: %w", inPath, err)
	}
	if sink.dec == nil {
		return fmt.Errorf("%s: stream ends before the three header packets", inPath)
	}

	h := sink.dec.Header()
	if err := writeWAV(outPath, h, sink.pcm); err != nil {
		return err
	}
	log.Printf("%s: %d channel(s), %d Hz, %d samples -> %s",
		inPath, h.Channels(), h.SampleRate(), sink.dec.Position(), outPath)
	return nil
}

// packetSink receives one stream packet per Write call from the Ogg layer
// and routes it to the header builder, then the decoder.
type packetSink struct {
	builder vorbis.HeaderBuilder
	dec     *vorbis.Decoder
	pcm     []float32
	headers int
	err     error
}

func (s *packetSink) Write(p []byte) (int, error) {
	if err := s.consume(p); err != nil {
		s.err = err
		return 0, err
	}
	return len(p), nil
}

func (s *packetSink) consume(packet []byte) error {
	switch s.headers {
	case 0:
		s.headers++
		return s.builder.ReadIdentPacket(packet)
	case 1:
		s.headers++
		return s.builder.ReadCommentPacket(packet)
	case 2:
		s.headers++
		if err := s.builder.ReadSetupPacket(packet); err != nil {
			return err
		}
		dec, err := s.builder.Build()
		if err != nil {
			return err
		}
		s.dec = dec
		return nil
	default:
		samples, err := s.dec.Decode(packet)
		if err != nil {
			// The decoder keeps its overlap state on packet errors, so a
			// corrupt packet is skippable.
			var derr *vorbis.DecodeError
			if errors.As(err, &derr) {
				log.Printf("skipping bad packet: %v", err)
				return nil
			}
			return err
		}
		s.pcm = samples.Interleaved(s.pcm)
		return nil
	}
}

func writeWAV(path string, h *vorbis.Header, pcm []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: h.Channels(),
			SampleRate:  int(h.SampleRate()),
		},
		Data:           make([]int, len(pcm)),
		SourceBitDepth: 16,
	}
	for i, v := range pcm {
		buf.Data[i] = clampSample(v)
	}

	enc := wav.NewEncoder(f, int(h.SampleRate()), 16, h.Channels(), 1)
	if err := enc.Write(buf); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

func clampSample(v float32) int {
	s := int(v * 32767)
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return s
}
