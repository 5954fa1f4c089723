// Package mp4decoder provides a poll-based media decoder for fragmented
// MP4 files whose video samples are self-contained images (MJPEG or PNG).
package mp4decoder

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/timeline"
)

// ErrNoVideoTrack is returned when the container has no video track.
var ErrNoVideoTrack = fmt.Errorf("no video track found")

// sample is one video sample with its timing resolved to seconds.
type sample struct {
	data     []byte
	time     timeline.Seconds
	duration timeline.Seconds
	sync     bool
}

// Decoder implements ports.MediaDecoder over a fragmented MP4 file.
//
// The container is demuxed up front (sample data stays in the parsed file);
// each GetFrameIfReady call decodes exactly one sample, so the work per
// poll stays bounded.
type Decoder struct {
	info    ports.MediaInfo
	samples []sample
	next    int
}

// Open parses the MP4 file and prepares the sample table. It matches
// ports.OpenDecoderFunc.
func Open(filename string) (ports.MediaDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer f.Close()

	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !mp4File.IsFragmented() {
		return nil, fmt.Errorf("progressive MP4 not supported, use fragmented MP4")
	}
	return newFromFile(mp4File)
}

func newFromFile(mp4File *mp4.File) (*Decoder, error) {
	// Find the video track, its timescale and its trex defaults.
	var videoTrackID uint32
	var trex *mp4.TrexBox
	var timescale uint32 = 1000
	info := ports.MediaInfo{ContainerType: "mp4"}

	if mp4File.Init != nil && mp4File.Init.Moov != nil {
		for _, trak := range mp4File.Init.Moov.Traks {
			if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
				continue
			}
			videoTrackID = trak.Tkhd.TrackID
			info.Width = int(trak.Tkhd.Width >> 16)
			info.Height = int(trak.Tkhd.Height >> 16)
			if trak.Mdia.Mdhd != nil {
				timescale = trak.Mdia.Mdhd.Timescale
			}
			if stsd := sampleDescription(trak); stsd != "" {
				info.CodecName = stsd
			}
			break
		}
		if mp4File.Init.Moov.Mvex != nil {
			for _, t := range mp4File.Init.Moov.Mvex.Trexs {
				if t.TrackID == videoTrackID {
					trex = t
					break
				}
			}
		}
	}
	if videoTrackID == 0 {
		return nil, ErrNoVideoTrack
	}

	// Walk the fragments and resolve sample times against the timescale.
	var samples []sample
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != videoTrackID {
					continue
				}
				var baseDecodeTime uint64
				if traf.Tfdt != nil {
					baseDecodeTime = traf.Tfdt.BaseMediaDecodeTime()
				}
				full, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}
				currentTime := baseDecodeTime
				for _, s := range full {
					samples = append(samples, sample{
						data:     s.Data,
						time:     timeline.Seconds(currentTime) / timeline.Seconds(timescale),
						duration: timeline.Seconds(s.Dur) / timeline.Seconds(timescale),
						sync:     s.Flags == mp4.SyncSampleFlags,
					})
					currentTime += uint64(s.Dur)
				}
			}
		}
	}

	if len(samples) > 0 {
		last := samples[len(samples)-1]
		info.Duration = float64(last.time + last.duration)
		if last.duration > 0 {
			info.FrameRate = 1.0 / float64(last.duration)
		}
	}
	return &Decoder{info: info, samples: samples}, nil
}

// Info returns the stream metadata read from the container.
func (d *Decoder) Info() ports.MediaInfo {
	return d.info
}

// ReachedEOF reports whether every sample was emitted.
func (d *Decoder) ReachedEOF() bool {
	return d.next >= len(d.samples)
}

// GetFrameIfReady decodes and returns the next sample. A sample whose
// payload fails to decode comes back flagged corrupt, not as an error.
func (d *Decoder) GetFrameIfReady() (*ports.MediaFrame, error) {
	if d.next >= len(d.samples) {
		return nil, nil
	}
	s := d.samples[d.next]
	d.next++

	frame := &ports.MediaFrame{
		Time:       s.time,
		IsKeyFrame: s.sync,
		FrameType:  "P",
	}
	if s.sync {
		frame.FrameType = "I"
	}
	img, _, err := image.Decode(bytes.NewReader(s.data))
	if err != nil {
		frame.IsCorrupt = true
		return frame, nil
	}
	frame.Image = img
	return frame, nil
}

// Close releases the sample table.
func (d *Decoder) Close() {
	d.samples = nil
	d.next = 0
}

// sampleDescription returns the four-character code of the first sample
// entry of the track's stsd box.
func sampleDescription(trak *mp4.TrakBox) string {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return ""
	}
	stsd := trak.Mdia.Minf.Stbl.Stsd
	if len(stsd.Children) == 0 {
		return ""
	}
	return stsd.Children[0].Type()
}

var _ ports.MediaDecoder = (*Decoder)(nil)
