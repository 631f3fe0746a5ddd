package sigsim_test

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"

	"github.com/db47h/sigsim"
	"github.com/db47h/sigsim/golden"
	"github.com/db47h/sigsim/spim"
	"github.com/db47h/sigsim/vcap"
	"github.com/db47h/sigsim/vdev"
)

// End to end scenario: reset the device, upload a program over SPI while
// execution is paused, resume, then capture an aligned frame and compare it
// against a scaled reference image.
func TestScenarioProgramAndCapture(t *testing.T) {
	timing := vcap.Timing{
		HActive: 16, HFront: 2, HSync: 2, HBack: 3,
		VActive: 4, VFront: 1, VSync: 1, VBack: 2,
		CoincidentSync: true,
	}
	spiCfg := spim.Config{
		WordWidth:    8,
		Freq:         2e6,
		CPHA:         true,
		FrameSpacing: 500 * time.Nanosecond,
	}
	// four instructions: blue, green, red, white bands
	prog := []uint64{0x03, 0x0c, 0x30, 0x3f}

	s := sigsim.New()
	defer s.Dispose()
	dev, err := vdev.New(s, vdev.Config{Timing: timing, SPI: spiCfg, NumInstr: len(prog)})
	if err != nil {
		t.Fatal(err)
	}
	dev.Start(s)
	capt, err := vcap.NewCapturer(vcap.Video{
		Clk: dev.Clk, HSync: dev.HSync, VSync: dev.VSync, Color: dev.Color,
	}, timing)
	if err != nil {
		t.Fatal(err)
	}

	var img *image.RGBA
	s.SetDeadline(time.Millisecond)
	err = s.Run(func(p *sigsim.Proc) error {
		s.Spawn("clock", sigsim.NewClock(dev.Clk, 20*time.Nanosecond).Run)
		dev.Ena.Set(true)
		dev.Pause.Set(true)
		sigsim.HoldReset(p, dev.RstN, false, 50*time.Nanosecond)

		m, err := spim.NewMaster(spim.Bus{
			SClk: dev.SClk, MOSI: dev.MOSI, CS: dev.CS, MISO: dev.MISO,
		}, spiCfg)
		if err != nil {
			return err
		}
		if err := m.Write(p, prog, true); err != nil {
			return err
		}
		if diff := deep.Equal(dev.Memory(), prog); diff != nil {
			t.Errorf("instruction store after upload: %v\n%s", diff, spew.Sdump(dev.Memory()))
		}
		dev.Pause.Set(false)

		capt.WaitFrameStart(p)
		frame := s.Spawn("capture", func(p *sigsim.Proc) error {
			img = capt.Capture(p)
			return nil
		})
		return frame.Join(p)
	})
	if err != nil {
		t.Fatal(err)
	}

	// one reference pixel per band, scaled up to the active resolution
	ref := image.NewRGBA(image.Rect(0, 0, len(prog), 1))
	for i, w := range prog {
		ref.SetRGBA(i, 0, color.RGBA{
			R: vcap.Expand(uint8(w >> 4)),
			G: vcap.Expand(uint8(w >> 2)),
			B: vcap.Expand(uint8(w)),
			A: 0xff,
		})
	}
	r, err := golden.CompareScaled(img, ref, timing.HActive/len(prog))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Equal {
		t.Errorf("frame differs from reference in %v", r.Bounds)
	}
}
