package vorbis_test

import (
	"fmt"
	"log"

	vorbis "github.com/llehouerou/go-vorbis"
)

func Example() {
	// Header packets as extracted from the container, in stream order.
	var b vorbis.HeaderBuilder
	if err := b.ReadIdentPacket(identPacket()); err != nil {
		log.Fatal(err)
	}
	if err := b.ReadCommentPacket(commentPacket()); err != nil {
		log.Fatal(err)
	}
	if err := b.ReadSetupPacket(setupPacket(1)); err != nil {
		log.Fatal(err)
	}
	dec, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	h := dec.Header()
	fmt.Printf("%d channel(s), %d Hz\n", h.Channels(), h.SampleRate())
	if title, ok := dec.Comments().Get("TITLE"); ok {
		fmt.Printf("title: %s\n", title)
	}

	var pcm []float32
	for i := 0; i < 3; i++ {
		samples, err := dec.Decode(silentAudioPacket())
		if err != nil {
			log.Fatal(err)
		}
		pcm = samples.Interleaved(pcm)
	}
	fmt.Printf("decoded %d samples\n", len(pcm))

	// Output:
	// 1 channel(s), 44100 Hz
	// title: Silence
	// decoded 2048 samples
}
